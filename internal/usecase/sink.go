package usecase

import (
	"context"
	"fmt"
	"io/fs"
)

// Output is a finished export.
type Output struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Sink receives a finished export: an HTTP attachment, a file on disk.
type Sink interface {
	Deliver(ctx context.Context, out Output) error
}

type SinkFunc func(ctx context.Context, out Output) error

func (f SinkFunc) Deliver(ctx context.Context, out Output) error { return f(ctx, out) }

// WriteFS is the part of zfilesystem.WriteFileFS a DirSink writes through.
type WriteFS interface {
	WriteFile(name string, data []byte, perm fs.FileMode) error
}

// DirSink writes exports into a directory under their file name.
type DirSink struct {
	fs WriteFS
}

func NewDirSink(fsys WriteFS) *DirSink { return &DirSink{fs: fsys} }

func (s *DirSink) Deliver(ctx context.Context, out Output) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.WriteFile(out.FileName, out.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out.FileName, err)
	}
	return nil
}
