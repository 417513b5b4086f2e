// Package archive adapts github.com/mholt/archives to the small set of
// operations the extractor and the zipfile API need: enumerate entries,
// stream one entry and write a zip archive.
//
// A Reader or Writer is not safe for concurrent use. Open one handle per
// goroutine, each over its own file or stream.
package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	kzip "github.com/klauspost/compress/zip"
	"github.com/mholt/archives"
	"github.com/pkg/errors"
	yzip "github.com/yeka/zip"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrEntryNotFound is returned when a named entry is not in the archive.
	ErrEntryNotFound = errors.New("entry not found in archive")
	// ErrUnsupportedFormat is returned when the source is not an archive the
	// engine can extract from.
	ErrUnsupportedFormat = errors.New("archive format not supported")
	// ErrPasswordRequired is returned when an encrypted entry is opened
	// without a passphrase.
	ErrPasswordRequired = errors.New("entry is encrypted, a password is required")
)

// Source is a random access archive stream. Zip and 7z need io.ReaderAt.
type Source interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// File describes an archive entry. Open is only valid inside the callback
// that received the File.
type File struct {
	Name    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	// Encrypted is set for zip entries flagged as encrypted
	Encrypted bool

	open func() (fs.File, error)
}

// IsDir reports whether the entry is a directory.
func (f File) IsDir() bool {
	return f.Mode.IsDir()
}

// Open opens the entry for reading.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errors.Errorf("entry %s cannot be opened", f.Name)
	}
	return f.open()
}

// Reader is an open archive in read mode.
type Reader struct {
	src        Source
	format     archives.Format
	closer     io.Closer
	passphrase string
	decrypter  *yzip.Reader
}

// OpenFile opens the archive at path. The file is closed by Reader.Close.
func OpenFile(ctx context.Context, path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := Open(ctx, f, filepath.Base(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Open identifies the format of src. filename is an optional hint used for
// matching by extension.
func Open(ctx context.Context, src Source, filename string) (*Reader, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "cannot rewind archive")
	}

	format, _, err := archives.Identify(ctx, filename, src)
	if err != nil {
		if errors.Is(err, archives.NoMatch) {
			return nil, errors.Wrapf(ErrUnsupportedFormat, "cannot identify %q", filename)
		}
		return nil, errors.Wrap(err, "cannot identify archive format")
	}
	if _, ok := format.(archives.Extractor); !ok {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s is not an archive", format.Extension())
	}

	// zip names that are not flagged UTF-8 are CP437 by convention
	if z, ok := format.(archives.Zip); ok {
		z.TextEncoding = charmap.CodePage437
		format = z
	}

	return &Reader{
		src:    src,
		format: format,
	}, nil
}

// Format returns the detected archive format extension, eg. ".zip".
func (r *Reader) Format() string {
	return r.format.Extension()
}

// SetPassphrase sets the passphrase used by formats supporting encryption
// (zip, 7z and rar). It is ignored by the others.
func (r *Reader) SetPassphrase(passphrase string) {
	r.passphrase = passphrase
}

func (r *Reader) extractor() archives.Extractor {
	switch f := r.format.(type) {
	case archives.SevenZip:
		f.Password = r.passphrase
		return f
	case archives.Rar:
		f.Password = r.passphrase
		return f
	}
	return r.format.(archives.Extractor)
}

// Walk calls fn for every entry in archive order. Returning fs.SkipAll from
// fn stops the walk without error. Any other error from fn stops the walk
// and is returned as is.
func (r *Reader) Walk(ctx context.Context, fn func(File) error) error {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "cannot rewind archive")
	}

	var ferr error
	index := -1
	err := r.extractor().Extract(ctx, r.src, func(_ context.Context, f archives.FileInfo) error {
		index++
		file := File{
			Name:    f.NameInArchive,
			Size:    f.Size(),
			Mode:    f.Mode(),
			ModTime: f.ModTime(),
			open: func() (fs.File, error) {
				return f.Open()
			},
		}
		// zip entries are handed in central directory order
		if hdr, ok := f.Header.(kzip.FileHeader); ok && hdr.Flags&0x1 != 0 {
			i := index
			file.Encrypted = true
			file.open = func() (fs.File, error) {
				return r.openEncrypted(i, f)
			}
		}
		ferr = fn(file)
		return ferr
	})
	if ferr != nil {
		if errors.Is(ferr, fs.SkipAll) {
			return nil
		}
		return ferr
	}
	return err
}

// openEncrypted opens the zip entry at index i of the central directory
// with the reader passphrase.
func (r *Reader) openEncrypted(i int, info archives.FileInfo) (fs.File, error) {
	if r.passphrase == "" {
		return nil, errors.Wrapf(ErrPasswordRequired, "%s", info.NameInArchive)
	}
	if r.decrypter == nil {
		size, err := r.src.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, errors.Wrap(err, "cannot determine archive size")
		}
		if r.decrypter, err = yzip.NewReader(r.src, size); err != nil {
			return nil, errors.Wrap(err, "cannot read encrypted archive")
		}
	}
	if i >= len(r.decrypter.File) {
		return nil, errors.Wrapf(ErrEntryNotFound, "%s", info.NameInArchive)
	}

	zf := r.decrypter.File[i]
	zf.SetPassword(r.passphrase)
	rc, err := zf.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decrypt %s", info.NameInArchive)
	}
	return decryptedFile{ReadCloser: rc, info: info}, nil
}

type decryptedFile struct {
	io.ReadCloser
	info fs.FileInfo
}

func (f decryptedFile) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

// Names returns entry names in archive order.
func (r *Reader) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.Walk(ctx, func(f File) error {
		names = append(names, f.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Lookup finds the first entry named name and calls fn with it.
func (r *Reader) Lookup(ctx context.Context, name string, fn func(File) error) error {
	found := false
	err := r.Walk(ctx, func(f File) error {
		if f.Name != name {
			return nil
		}
		found = true
		if err := fn(f); err != nil {
			return err
		}
		return fs.SkipAll
	})
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(ErrEntryNotFound, "%s", name)
	}
	return nil
}

// ReadEntry streams the content of entry name to fn.
func (r *Reader) ReadEntry(ctx context.Context, name string, fn func(io.Reader) error) error {
	return r.Lookup(ctx, name, func(f File) error {
		if f.IsDir() {
			return errors.Errorf("entry %s is a directory", name)
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		return fn(rc)
	})
}

// Close releases the file opened by OpenFile, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// IsZip reports whether the file at path is a zip archive, judging by its
// content only.
func IsZip(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	format, _, err := archives.Identify(ctx, "", f)
	if errors.Is(err, archives.NoMatch) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	_, ok := format.(archives.Zip)
	return ok, nil
}
