// Package extractor materializes archive entries on disk. Every entry name
// is confined to the destination folder with safepath before any byte is
// written.
package extractor

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/crazy-max/safezip/pkg/archive"
	"github.com/crazy-max/safezip/pkg/safepath"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	// ErrNoFilename is returned when an entry name resolves to the
	// destination folder itself and leaves no file name to write.
	ErrNoFilename = errors.New("entry name does not denote a file")
	// ErrNotAFile is returned by ExtractOne for directory entries.
	ErrNotAFile = errors.New("entry is not a regular file")
)

// Engine is the archive engine consumed by the extractor. *archive.Reader
// implements it.
type Engine interface {
	SetPassphrase(passphrase string)
	Walk(ctx context.Context, fn func(archive.File) error) error
	Lookup(ctx context.Context, name string, fn func(archive.File) error) error
}

// Options holds extract options
type Options struct {
	Context  context.Context
	Logger   zerolog.Logger
	Password string
}

func (o Options) context() context.Context {
	if o.Context == nil {
		return context.Background()
	}
	return o.Context
}

// ExtractOne extracts the entry name directly under dest. Directory
// components of name are dropped. An empty dest means the working
// directory at call time.
func ExtractOne(engine Engine, name string, dest string, opts Options) error {
	ctx := opts.context()
	if opts.Password != "" {
		engine.SetPassphrase(opts.Password)
	}

	dest, err := destination(dest)
	if err != nil {
		return err
	}

	filename, err := safepath.Filename(name, dest)
	if err != nil {
		return err
	}
	if filename == "" {
		return errors.Wrapf(ErrNoFilename, "%q", name)
	}

	return engine.Lookup(ctx, name, func(f archive.File) error {
		if !f.Mode.IsRegular() {
			return errors.Wrapf(ErrNotAFile, "%s", name)
		}
		opts.Logger.Debug().Msgf("Extracting %s", name)
		return writeFile(ctx, filepath.Join(dest, filename), f)
	})
}

// ExtractAll extracts entries under dest keeping their relative paths.
// Without names, every entry is extracted in archive order, otherwise names
// are extracted in the given order. It stops at the first entry that fails
// confinement or extraction; entries already written are left in place.
func ExtractAll(engine Engine, dest string, names []string, opts Options) error {
	ctx := opts.context()
	if opts.Password != "" {
		engine.SetPassphrase(opts.Password)
	}

	dest, err := destination(dest)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		return engine.Walk(ctx, func(f archive.File) error {
			return extractEntry(ctx, dest, f, opts.Logger)
		})
	}

	for _, name := range names {
		// hostile names never reach the engine
		if _, err := safepath.Path(name, dest); err != nil {
			return err
		}
		if err := engine.Lookup(ctx, name, func(f archive.File) error {
			return extractEntry(ctx, dest, f, opts.Logger)
		}); err != nil {
			return err
		}
	}

	return nil
}

func extractEntry(ctx context.Context, dest string, f archive.File, logger zerolog.Logger) error {
	rel, err := safepath.Path(f.Name, dest)
	if err != nil {
		return err
	}
	path := filepath.Join(dest, rel)

	switch {
	case f.IsDir():
		logger.Trace().Msgf("Extracting %s", f.Name)
		return os.MkdirAll(path, dirMode(f.Mode))
	case f.Mode.IsRegular():
		if rel == "." {
			return errors.Wrapf(ErrNoFilename, "%q", f.Name)
		}
		logger.Debug().Msgf("Extracting %s", f.Name)
		return writeFile(ctx, path, f)
	default:
		logger.Warn().Msgf("Skipping %s: cannot handle file mode %v", f.Name, f.Mode)
		return nil
	}
}

func destination(dest string) (string, error) {
	if dest != "" {
		return dest, nil
	}
	return safepath.WorkingDir()
}

// writeFile opens the entry before touching the disk so a missing or
// unreadable entry leaves nothing behind. A failed copy removes the file.
func writeFile(ctx context.Context, path string, f archive.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	w, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode(f.Mode))
	if err != nil {
		return err
	}

	if err = w.Chmod(fileMode(f.Mode)); err == nil {
		_, err = io.Copy(w, readerContext(ctx, r))
	}
	if err != nil {
		_ = w.Close()
		_ = os.Remove(path)
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	if f.ModTime.IsZero() {
		return nil
	}
	return os.Chtimes(path, f.ModTime, f.ModTime)
}

func fileMode(mode fs.FileMode) fs.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm
	}
	return 0o644
}

func dirMode(mode fs.FileMode) fs.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm | 0o700
	}
	return 0o755
}
