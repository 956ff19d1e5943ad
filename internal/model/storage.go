package model

import (
	"context"
	"io"
	"strconv"
)

// Storage is a blob store for attachments and other uploaded files.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// AttachmentKey is the storage key of a message attachment.
func AttachmentKey(a Attachment) string {
	return "attachments/" + strconv.FormatInt(a.ChannelID, 10) + "/" + strconv.FormatInt(a.ID, 10) + "/" + a.Filename
}
