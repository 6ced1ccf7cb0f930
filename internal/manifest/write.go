package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/cameronsjo/keel/internal/fileutil"
	"github.com/cameronsjo/keel/internal/lock"
)

// OutputFileMode is the permission of written manifest files.
const OutputFileMode os.FileMode = 0644

// OutputPath returns dir/<baseName>.<ext> for a format.
func OutputPath(dir, baseName string, f Format) string {
	return filepath.Join(dir, baseName+"."+f.Extension())
}

// WriteBundle writes one file per format under dir as <baseName>.<ext>.
//
// Every format is first staged to a temp file in parallel. Only when all of
// them are staged are they renamed into place. A failure before that point
// leaves the directory untouched; a failed rename restores the files already
// replaced. The output directory is locked for the duration.
//
// The context gates the start of the write only. Once staging begins the
// write runs to completion or fails. Errors are *IOError.
func WriteBundle(ctx context.Context, dir, baseName string, outputs map[Format][]byte) ([]string, error) {
	if len(outputs) == 0 {
		return nil, &IOError{Op: "write", Path: dir, Err: errors.New("nothing to write")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &IOError{Op: "write", Path: dir, Err: err}
	}

	formats := orderedFormats(outputs)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &IOError{Op: "create directory", Path: dir, Err: err}
	}

	var paths []string
	err := lock.WithLock(dir, "write", func() error {
		staged := make([]*fileutil.Staged, len(formats))
		var g errgroup.Group
		for i, f := range formats {
			path := OutputPath(dir, baseName, f)
			data := outputs[f]
			g.Go(func() error {
				s, err := fileutil.Stage(path, data, OutputFileMode)
				if err != nil {
					return &IOError{Op: "stage", Path: path, Err: err}
				}
				staged[i] = s
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			discardAll(staged)
			return err
		}

		var err error
		paths, err = commitAll(staged)
		return err
	})
	if err != nil {
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			return nil, &IOError{Op: "lock", Path: dir, Err: err}
		}
		return nil, err
	}

	return paths, nil
}

// orderedFormats returns the formats present in outputs, known formats first
// in Formats order.
func orderedFormats(outputs map[Format][]byte) []Format {
	formats := make([]Format, 0, len(outputs))
	for _, f := range Formats {
		if _, ok := outputs[f]; ok {
			formats = append(formats, f)
		}
	}
	for f := range outputs {
		known := false
		for _, k := range Formats {
			if f == k {
				known = true
				break
			}
		}
		if !known {
			formats = append(formats, f)
		}
	}
	return formats
}

// commitStaged renames a staged file into place. Tests replace it to fail a
// commit part way through.
var commitStaged = (*fileutil.Staged).Commit

type backup struct {
	dst  string
	path string // empty when dst did not exist
}

// commitAll renames every staged file into place. Existing destinations are
// hard-linked aside first so a failed rename can restore them.
func commitAll(staged []*fileutil.Staged) ([]string, error) {
	backups := make([]backup, 0, len(staged))
	cleanup := func() {
		for _, b := range backups {
			if b.path != "" {
				os.Remove(b.path)
			}
		}
	}

	for _, s := range staged {
		b := backup{dst: s.Path()}
		if _, err := os.Lstat(s.Path()); err == nil {
			b.path = s.Path() + ".keel-backup"
			os.Remove(b.path)
			if err := os.Link(s.Path(), b.path); err != nil {
				cleanup()
				discardAll(staged)
				return nil, &IOError{Op: "backup", Path: s.Path(), Err: err}
			}
		}
		backups = append(backups, b)
	}

	paths := make([]string, 0, len(staged))
	for i, s := range staged {
		if err := commitStaged(s); err != nil {
			rollback(backups[:i])
			cleanup()
			discardAll(staged)
			return nil, &IOError{Op: "commit", Path: s.Path(), Err: err}
		}
		paths = append(paths, s.Path())
	}

	cleanup()
	return paths, nil
}

func rollback(committed []backup) {
	for _, b := range committed {
		if b.path == "" {
			os.Remove(b.dst)
			continue
		}
		os.Rename(b.path, b.dst)
	}
}

func discardAll(staged []*fileutil.Staged) {
	for _, s := range staged {
		if s != nil {
			s.Discard()
		}
	}
}
