package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itsrazy/internal/capture"
	"itsrazy/internal/feed"
)

func setup(t *testing.T) (dataDir, outDir string) {
	t.Helper()
	root := t.TempDir()
	dataDir = filepath.Join(root, "data")
	outDir = filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "gophers.yaml"), []byte(`
series:
  events:
    - id: g1
      title: Prague Gophers
      date: 2024-03-05T17:00:00Z
    - id: g2
      title: Prague Gophers
      date: 2024-04-02T16:00:00Z
`), 0o644))
	return dataDir, outDir
}

func stubCapture(t *testing.T, fn func(context.Context, capture.Options) error) {
	t.Helper()
	orig := capturePage
	capturePage = fn
	t.Cleanup(func() { capturePage = orig })
}

func TestRun_WritesFeedFiles(t *testing.T) {
	dataDir, outDir := setup(t)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	res, err := Run(context.Background(), Options{
		Pipeline:  feed.Pipeline{DataDir: dataDir, Location: time.UTC},
		OutputDir: outDir,
		SiteTitle: "ITsrazy.cz",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, res.EventCount)
	assert.Len(t, res.Files, 2)

	raw, err := os.ReadFile(filepath.Join(outDir, JSONFile))
	require.NoError(t, err)
	var decoded struct {
		Events []struct {
			ID string `json:"id"`
		} `json:"events"`
		Months []struct {
			Month int `json:"month"`
			Days  []struct {
				Events []json.RawMessage `json:"events"`
			} `json:"days"`
		} `json:"months"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Events, 2)
	require.Len(t, decoded.Months, 2)
	assert.Equal(t, 3, decoded.Months[0].Month)
	assert.Equal(t, 4, decoded.Months[1].Month)

	cal, err := os.ReadFile(filepath.Join(outDir, ICSFile))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(cal), "BEGIN:VEVENT"))
}

func TestRun_Snapshot(t *testing.T) {
	dataDir, outDir := setup(t)

	var got capture.Options
	stubCapture(t, func(_ context.Context, opts capture.Options) error {
		got = opts
		return nil
	})

	res, err := Run(context.Background(), Options{
		Pipeline:       feed.Pipeline{DataDir: dataDir, Location: time.UTC},
		OutputDir:      outDir,
		SnapshotURL:    "http://127.0.0.1:8080/",
		SnapshotWidth:  640,
		SnapshotHeight: 960,
	}, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, res.Files, 3)
	assert.Equal(t, "http://127.0.0.1:8080/", got.URL)
	assert.Equal(t, filepath.Join(outDir, SnapshotFile), got.OutputPath)
	assert.Equal(t, 640, got.Width)
}

func TestRun_SnapshotFailureIsNotFatal(t *testing.T) {
	dataDir, outDir := setup(t)
	stubCapture(t, func(context.Context, capture.Options) error {
		return errors.New("no chromium")
	})

	res, err := Run(context.Background(), Options{
		Pipeline:    feed.Pipeline{DataDir: dataDir, Location: time.UTC},
		OutputDir:   outDir,
		SnapshotURL: "http://127.0.0.1:8080/",
	}, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)
}

func TestRun_LoadFailure(t *testing.T) {
	_, outDir := setup(t)
	_, err := Run(context.Background(), Options{
		Pipeline:  feed.Pipeline{DataDir: filepath.Join(outDir, "missing")},
		OutputDir: outDir,
	}, time.Now())
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(outDir, JSONFile))
	assert.True(t, os.IsNotExist(statErr))
}
