package storage

import (
	"context"
	"github.com/prhdev222/med-file-case/internal/config"
	"github.com/prhdev222/med-file-case/internal/types"
)

type (
	Type string

	// Storage keeps copies of backup artifacts away from the backup volume.
	Storage interface {
		Save(ctx context.Context, location string, f types.File) error
		Ping(ctx context.Context) error
		Type() Type
	}
)

const (
	TypeS3   Type = "S3"
	TypeFile Type = "FILE"

	partSize uint64 = 16 * 1024 * 1024 // 16MB
)

func (t Type) String() string {
	return string(t)
}

// Location is the object key an artifact is stored under.
func Location(kind types.ArtifactKind, name string) string {
	return kind.String() + "/" + name
}

// New returns the offsite storage cfg selects, or nil when none is
// configured. A directory takes precedence over S3.
func New(cfg config.OffsiteConfig) (Storage, error) {
	switch {
	case cfg.Dir != "":
		return NewFileStorage(cfg.Dir), nil
	case cfg.S3Enabled():
		return NewObjectStorage(cfg)
	}
	return nil, nil
}
