package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"itsrazy/internal/capture"
	"itsrazy/internal/config"
	"itsrazy/internal/feed"
	"itsrazy/internal/ics"
	appLog "itsrazy/internal/log"
)

const (
	JSONFile     = "events.json"
	ICSFile      = "events.ics"
	SnapshotFile = "preview.png"
)

// capturePage is replaced in tests.
var capturePage = capture.PagePNG

// Options configures one export pass.
type Options struct {
	Pipeline  feed.Pipeline
	OutputDir string
	SiteTitle string

	// SnapshotURL, when set, is captured to SnapshotFile after the feed
	// files are written. A failed capture is logged and does not fail the
	// export.
	SnapshotURL    string
	SnapshotWidth  int
	SnapshotHeight int
}

// Result summarizes an export pass.
type Result struct {
	EventCount int
	Files      []string
}

// Run builds the feed as seen at now and writes events.json and events.ics
// to the output directory.
func Run(ctx context.Context, opts Options, now time.Time) (Result, error) {
	var res Result

	f, err := opts.Pipeline.Run(now)
	if err != nil {
		return res, fmt.Errorf("export: build feed: %w", err)
	}
	res.EventCount = len(f.Events)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return res, fmt.Errorf("export: encode json: %w", err)
	}
	jsonPath := filepath.Join(opts.OutputDir, JSONFile)
	if err := config.WriteFileAtomic(jsonPath, data, 0o644); err != nil {
		return res, fmt.Errorf("export: write %s: %w", jsonPath, err)
	}
	res.Files = append(res.Files, jsonPath)

	cal := ics.Export(f.Events, ics.ExportOptions{Name: opts.SiteTitle, Stamp: now})
	icsPath := filepath.Join(opts.OutputDir, ICSFile)
	if err := config.WriteFileAtomic(icsPath, []byte(cal), 0o644); err != nil {
		return res, fmt.Errorf("export: write %s: %w", icsPath, err)
	}
	res.Files = append(res.Files, icsPath)

	if opts.SnapshotURL != "" {
		pngPath := filepath.Join(opts.OutputDir, SnapshotFile)
		err := capturePage(ctx, capture.Options{
			URL:        opts.SnapshotURL,
			OutputPath: pngPath,
			Width:      opts.SnapshotWidth,
			Height:     opts.SnapshotHeight,
		})
		if err != nil {
			appLog.Error("snapshot capture failed", err, "url", opts.SnapshotURL)
		} else {
			res.Files = append(res.Files, pngPath)
		}
	}

	appLog.Info("export completed", "output_dir", opts.OutputDir, "event_count", res.EventCount, "file_count", len(res.Files))
	return res, nil
}
