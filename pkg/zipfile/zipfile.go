// Package zipfile exposes archives through a zipfile-like API: list
// entries, read them, extract them safely and write new zip archives.
package zipfile

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/crazy-max/safezip/pkg/archive"
	"github.com/crazy-max/safezip/pkg/extractor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Mode is the mode an archive is opened with.
type Mode int

// Archive modes
const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "w"
	}
	return "r"
}

// Compression is the method used for entries written in ModeWrite.
type Compression int

// Compression methods. Deflated is the default.
const (
	Deflated Compression = iota
	Stored
)

func (c Compression) method() uint16 {
	if c == Stored {
		return archive.Store
	}
	return archive.Deflate
}

// Options represents archive options
type Options struct {
	// Mode the archive is opened with
	Mode Mode
	// Compression used for every entry in ModeWrite
	Compression Compression
	// Password used to decrypt entries in ModeRead
	Password string
	// Encryption method for ModeWrite. Not supported by the zip writer.
	Encryption string
	// Logger receives extraction logs
	Logger zerolog.Logger
}

// ZipFile is an archive handle. It is not safe for concurrent use.
type ZipFile struct {
	opts   Options
	reader *archive.Reader
	writer *archive.Writer
	closer io.Closer
	closed bool
}

// IsZipFile reports whether the file at path is a zip archive.
func IsZipFile(ctx context.Context, path string) (bool, error) {
	return archive.IsZip(ctx, path)
}

// Open opens the archive at path. In ModeWrite the file is created or
// truncated.
func Open(ctx context.Context, path string, opts Options) (*ZipFile, error) {
	if opts.Mode == ModeWrite {
		if err := checkWriteOptions(opts); err != nil {
			return nil, err
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot create archive %q", path)
		}
		z := newWriter(f, opts)
		z.closer = f
		return z, nil
	}

	r, err := archive.OpenFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return newReader(r, opts), nil
}

// NewReader opens the archive read from src. src is not closed by Close.
func NewReader(ctx context.Context, src archive.Source, opts Options) (*ZipFile, error) {
	opts.Mode = ModeRead
	r, err := archive.Open(ctx, src, "")
	if err != nil {
		return nil, err
	}
	return newReader(r, opts), nil
}

// NewWriter creates a zip archive written to w on Commit or Close. w is not
// closed by Close.
func NewWriter(w io.Writer, opts Options) (*ZipFile, error) {
	opts.Mode = ModeWrite
	if err := checkWriteOptions(opts); err != nil {
		return nil, err
	}
	return newWriter(w, opts), nil
}

func checkWriteOptions(opts Options) error {
	if opts.Password != "" || opts.Encryption != "" {
		return &UnsupportedError{Op: "zip encryption"}
	}
	return nil
}

func newReader(r *archive.Reader, opts Options) *ZipFile {
	if opts.Password != "" {
		r.SetPassphrase(opts.Password)
	}
	return &ZipFile{
		opts:   opts,
		reader: r,
	}
}

func newWriter(w io.Writer, opts Options) *ZipFile {
	return &ZipFile{
		opts:   opts,
		writer: archive.NewWriter(w, opts.Compression.method()),
	}
}

// Mode returns the mode the archive was opened with.
func (z *ZipFile) Mode() Mode {
	return z.opts.Mode
}

func (z *ZipFile) readable() error {
	if z.closed {
		return ErrClosed
	}
	if z.reader == nil {
		return errors.Wrapf(ErrWrongMode, "archive opened with mode %q", z.opts.Mode)
	}
	return nil
}

func (z *ZipFile) writable() error {
	if z.closed {
		return ErrClosed
	}
	if z.writer == nil {
		return errors.Wrapf(ErrWrongMode, "archive opened with mode %q", z.opts.Mode)
	}
	return nil
}

func (z *ZipFile) setPassword(password string) {
	if password != "" {
		z.reader.SetPassphrase(password)
	}
}

// SetPassword sets the default password used to decrypt entries.
func (z *ZipFile) SetPassword(password string) error {
	if err := z.readable(); err != nil {
		return err
	}
	z.reader.SetPassphrase(password)
	return nil
}

// Names returns the entry names in archive order.
func (z *ZipFile) Names(ctx context.Context) ([]string, error) {
	if err := z.readable(); err != nil {
		return nil, err
	}
	return z.reader.Names(ctx)
}

// Entries returns a copy of every entry's metadata in archive order.
func (z *ZipFile) Entries(ctx context.Context) ([]Entry, error) {
	if err := z.readable(); err != nil {
		return nil, err
	}
	var entries []Entry
	err := z.reader.Walk(ctx, func(f archive.File) error {
		entries = append(entries, newEntry(f))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Entry returns the metadata of entry name.
func (z *ZipFile) Entry(ctx context.Context, name string) (Entry, error) {
	if err := z.readable(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := z.reader.Lookup(ctx, name, func(f archive.File) error {
		entry = newEntry(f)
		return nil
	})
	return entry, err
}

// Read returns the content of entry name.
func (z *ZipFile) Read(ctx context.Context, name string, password string) ([]byte, error) {
	if err := z.readable(); err != nil {
		return nil, err
	}
	z.setPassword(password)

	var data []byte
	err := z.reader.ReadEntry(ctx, name, func(r io.Reader) (err error) {
		data, err = io.ReadAll(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// OpenReader returns a reader over entry name. The entry is read in full
// before returning since entries cannot be read outside an archive walk.
func (z *ZipFile) OpenReader(ctx context.Context, name string, password string) (io.ReadCloser, error) {
	data, err := z.Read(ctx, name, password)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// OpenWriter returns a writer for a new entry name. The entry is added
// when the writer is closed.
func (z *ZipFile) OpenWriter(name string) (io.WriteCloser, error) {
	if err := z.writable(); err != nil {
		return nil, err
	}
	return &entryWriter{z: z, name: name}, nil
}

// Extract extracts entry name directly under dest, dropping directory
// components of name. An empty dest means the working directory.
func (z *ZipFile) Extract(ctx context.Context, name string, dest string, password string) error {
	if err := z.readable(); err != nil {
		return err
	}
	return extractor.ExtractOne(z.reader, name, dest, extractor.Options{
		Context:  ctx,
		Logger:   z.opts.Logger,
		Password: password,
	})
}

// ExtractAll extracts names, or every entry when names is empty, under
// dest keeping relative paths. It stops at the first failure.
func (z *ZipFile) ExtractAll(ctx context.Context, dest string, names []string, password string) error {
	if err := z.readable(); err != nil {
		return err
	}
	return extractor.ExtractAll(z.reader, dest, names, extractor.Options{
		Context:  ctx,
		Logger:   z.opts.Logger,
		Password: password,
	})
}

// WriteOptions holds per-entry write options
type WriteOptions struct {
	compression *Compression
}

// WithCompression requests a compression method for one entry. It must
// match the archive compression.
func WithCompression(c Compression) func(*WriteOptions) {
	return func(o *WriteOptions) {
		o.compression = &c
	}
}

// Write adds data as entry name.
func (z *ZipFile) Write(name string, data []byte, optFns ...func(*WriteOptions)) error {
	if err := z.writable(); err != nil {
		return err
	}
	opts := &WriteOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.compression != nil && *opts.compression != z.opts.Compression {
		return &ConfigurationError{Msg: "cannot change compression type for individual entries"}
	}
	z.writer.Add(name, data, time.Now())
	return nil
}

// Comment is not supported.
func (z *ZipFile) Comment() (string, error) {
	return "", &UnsupportedError{Op: "get comment"}
}

// SetComment is not supported.
func (z *ZipFile) SetComment(string) error {
	return &UnsupportedError{Op: "set comment"}
}

// Test is not supported: the engine does not expose entry checksums.
func (z *ZipFile) Test(context.Context) (string, error) {
	return "", &UnsupportedError{Op: "test archive"}
}

// Commit writes the archive in ModeWrite and closes the handle.
func (z *ZipFile) Commit(ctx context.Context) error {
	if err := z.writable(); err != nil {
		return err
	}
	return z.close(ctx)
}

// Close releases the handle. In ModeWrite the archive is written first,
// use Commit to control cancellation.
func (z *ZipFile) Close() error {
	return z.close(context.Background())
}

func (z *ZipFile) close(ctx context.Context) error {
	if z.closed {
		return nil
	}
	z.closed = true

	var err error
	if z.writer != nil {
		err = z.writer.Close(ctx)
	}
	if z.reader != nil {
		err = z.reader.Close()
	}
	if z.closer != nil {
		if cerr := z.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

type entryWriter struct {
	z      *ZipFile
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *entryWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.Errorf("entry %s already committed", w.name)
	}
	return w.buf.Write(p)
}

func (w *entryWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.z.Write(w.name, w.buf.Bytes())
}
