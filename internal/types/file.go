package types

import (
	"io"
	"os"
	"time"
)

type File struct {
	Content io.ReadCloser
	Stat    FileStat
}

// FileStat describes a download stream. Size is -1 when the length is not
// known up front, e.g. for archives built on the fly.
type FileStat struct {
	Size        int64
	Name        string
	Mode        os.FileMode
	ModTime     time.Time
	ContentType string
}

func (f File) GetContentType() string {
	if f.Stat.ContentType == "" {
		return "application/octet-stream"
	}
	return f.Stat.ContentType
}

func (f File) SizeKnown() bool {
	return f.Stat.Size >= 0
}
