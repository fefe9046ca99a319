package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	appLog "itsrazy/internal/log"
	"itsrazy/internal/model"
)

const documentExt = ".yaml"

// ErrDataDirNotFound is returned when no data directory exists between the
// starting point and the filesystem root.
var ErrDataDirNotFound = errors.New("data directory not found")

// LoadError reports a corpus directory that could not be listed or a file
// that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadCorpus reads every *.yaml file directly inside dir.
func (l Loader) LoadCorpus(dir string) ([]model.Series, error) {
	return l.LoadCorpusFS(os.DirFS(dir))
}

// LoadCorpusFS reads every *.yaml file in the root of fsys (no recursion)
// and returns one Series per document carrying a "series" key. The first
// read or parse failure aborts the load.
func (l Loader) LoadCorpusFS(fsys fs.FS) ([]model.Series, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, &LoadError{Path: ".", Err: err}
	}

	all := make([]model.Series, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, documentExt) {
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, &LoadError{Path: name, Err: err}
		}

		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &LoadError{Path: name, Err: err}
		}

		s, ok := l.LoadSeries(doc, strings.TrimSuffix(name, documentExt))
		if !ok {
			appLog.Debug("document without series skipped", "file", name)
			continue
		}
		appLog.Debug("series loaded", "file", name, "series", s.ID, "event_count", len(s.Events))
		all = append(all, s)
	}

	appLog.Info("corpus loaded", "series_count", len(all))
	return all, nil
}

// FindDataDir ascends from start until a directory containing a "data"
// subdirectory is found. The search stops once the parent of a path is the
// path itself.
func FindDataDir(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "data")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w above %s", ErrDataDirNotFound, start)
		}
		dir = parent
	}
}
