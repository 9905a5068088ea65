package ports

import (
	"context"
	"io"
)

// MediaKind selects the storage prefix of an upload.
type MediaKind string

const (
	MediaAvatar MediaKind = "avatars"
	MediaCover  MediaKind = "covers"
)

// MediaFile is a binary upload received from a client.
type MediaFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaHost stores binary uploads and returns a stable retrieval URL.
type MediaHost interface {
	Upload(ctx context.Context, kind MediaKind, file *MediaFile) (string, error)
	// Delete removes a previously uploaded object identified by its URL.
	Delete(ctx context.Context, url string) error
}
