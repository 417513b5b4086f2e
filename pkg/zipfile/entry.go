package zipfile

import (
	"time"

	"github.com/crazy-max/safezip/pkg/archive"
)

// Attr is a zip header attribute the engine does not expose.
type Attr int

// Unsupported entry attributes
const (
	AttrCompressType Attr = iota
	AttrComment
	AttrExtra
	AttrCreateSystem
	AttrCreateVersion
	AttrExtractVersion
	AttrReserved
	AttrFlagBits
	AttrVolume
	AttrInternalAttr
	AttrExternalAttr
	AttrCRC
	AttrCompressSize
	AttrHeaderOffset
)

var attrNames = map[Attr]string{
	AttrCompressType:   "compress_type",
	AttrComment:        "comment",
	AttrExtra:          "extra",
	AttrCreateSystem:   "create_system",
	AttrCreateVersion:  "create_version",
	AttrExtractVersion: "extract_version",
	AttrReserved:       "reserved",
	AttrFlagBits:       "flag_bits",
	AttrVolume:         "volume",
	AttrInternalAttr:   "internal_attr",
	AttrExternalAttr:   "external_attr",
	AttrCRC:            "crc",
	AttrCompressSize:   "compress_size",
	AttrHeaderOffset:   "header_offset",
}

func (a Attr) String() string {
	if name, ok := attrNames[a]; ok {
		return name
	}
	return "unknown"
}

// Entry is a detached copy of an archive entry's metadata. Changing it
// does not change the archive.
type Entry struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

func newEntry(f archive.File) Entry {
	return Entry{
		name:    f.Name,
		size:    f.Size,
		modTime: f.ModTime,
		dir:     f.IsDir(),
	}
}

// Name returns the entry name as stored in the archive.
func (e *Entry) Name() string {
	return e.name
}

// SetName sets the entry name.
func (e *Entry) SetName(name string) {
	e.name = name
}

// Size returns the uncompressed size.
func (e *Entry) Size() int64 {
	return e.size
}

// SetSize sets the uncompressed size.
func (e *Entry) SetSize(size int64) {
	e.size = size
}

// ModTime returns the modification time.
func (e *Entry) ModTime() time.Time {
	return e.modTime
}

// DateTime returns the modification time in local time as year, month,
// day, hour, minute and second.
func (e *Entry) DateTime() [6]int {
	t := e.modTime.Local()
	return [6]int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()}
}

// SetDateTime sets the modification time from local year, month, day,
// hour, minute and second.
func (e *Entry) SetDateTime(dt [6]int) {
	e.modTime = time.Date(dt[0], time.Month(dt[1]), dt[2], dt[3], dt[4], dt[5], 0, time.Local)
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.dir
}

// Get always fails: none of the Attr values are available.
func (e *Entry) Get(attr Attr) (any, error) {
	return nil, &UnsupportedError{Op: "get " + attr.String()}
}

// Set always fails: none of the Attr values are available.
func (e *Entry) Set(attr Attr, _ any) error {
	return &UnsupportedError{Op: "set " + attr.String()}
}
