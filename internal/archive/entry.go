package archive

import (
	"fmt"
	"io"
	"io/fs"
	"time"
)

// EntryKind distinguishes what an entry materializes as.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
	// EntryOther covers symlinks, hard links and devices, which are never
	// extracted.
	EntryOther
)

// Entry is one logical unit read from an archive.
type Entry struct {
	Name     string
	Kind     EntryKind
	Size     int64
	Mode     fs.FileMode
	Modified time.Time

	open func() (io.ReadCloser, error)
}

// Open returns the entry body. For streaming formats it is only valid until
// the next call to EntryReader.Next.
func (e *Entry) Open() (io.ReadCloser, error) {
	if e.open == nil {
		return nil, fmt.Errorf("entry %q has no body", e.Name)
	}
	return e.open()
}

// EntryInfo describes an entry for listings.
type EntryInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	IsDir    bool      `json:"is_dir"`
	Modified time.Time `json:"modified"`
}

// EntryReader yields entries one at a time. Next returns io.EOF when done.
type EntryReader interface {
	Next() (*Entry, error)
	Close() error
}

// EntryWriter appends entries to an archive. Names use forward slashes.
type EntryWriter interface {
	WriteDir(name string, info fs.FileInfo) error
	WriteFile(name string, info fs.FileInfo, r io.Reader) (int64, error)
	Close() error
}
