package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/mholt/archives"
)

// Compression methods accepted by NewWriter.
const (
	Store   = zip.Store
	Deflate = zip.Deflate
)

// Writer buffers entries in memory and writes them as a zip archive on
// Close.
type Writer struct {
	dst    io.Writer
	format archives.Zip
	files  []archives.FileInfo
	index  map[string]int
}

// NewWriter returns a zip Writer using the given compression method for
// every entry.
func NewWriter(dst io.Writer, method uint16) *Writer {
	return &Writer{
		dst:    dst,
		format: archives.Zip{Compression: method},
		index:  make(map[string]int),
	}
}

// Add stores data under name. A name ending with a slash is a directory.
// Adding an existing name replaces its content and keeps its position.
func (w *Writer) Add(name string, data []byte, modTime time.Time) {
	info := memInfo{
		name:    path.Base(name),
		size:    int64(len(data)),
		mode:    0o644,
		modTime: modTime,
	}
	if strings.HasSuffix(name, "/") {
		info.mode = fs.ModeDir | 0o755
		info.size = 0
		data = nil
	}

	file := archives.FileInfo{
		FileInfo:      info,
		NameInArchive: name,
		Open: func() (fs.File, error) {
			return &memFile{Reader: bytes.NewReader(data), info: info}, nil
		},
	}

	if i, ok := w.index[name]; ok {
		w.files[i] = file
		return
	}
	w.index[name] = len(w.files)
	w.files = append(w.files, file)
}

// Len returns the number of entries added so far.
func (w *Writer) Len() int {
	return len(w.files)
}

// Close writes the archive to the destination. It does not close the
// destination.
func (w *Writer) Close(ctx context.Context) error {
	return w.format.Archive(ctx, w.dst, w.files)
}

type memInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return i.mode }
func (i memInfo) ModTime() time.Time { return i.modTime }
func (i memInfo) IsDir() bool        { return i.mode.IsDir() }
func (i memInfo) Sys() any           { return nil }

type memFile struct {
	*bytes.Reader
	info memInfo
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *memFile) Close() error               { return nil }
