// Package storage selects the attachment backend configured for the node.
package storage

import (
	"context"
	"fmt"

	"github.com/yepcord/server-sub002/internal/config"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/storage/ftp"
	"github.com/yepcord/server-sub002/internal/storage/local"
	"github.com/yepcord/server-sub002/internal/storage/minio"
)

func New(ctx context.Context, cfg config.Storage) (model.Storage, error) {
	switch cfg.Type {
	case config.StorageLocal:
		return local.New(cfg.Local.Path)
	case config.StorageS3:
		return minio.Dial(ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.UseSSL)
	case config.StorageFTP:
		return ftp.New(cfg.FTP.Host, cfg.FTP.Port, cfg.FTP.User, cfg.FTP.Password), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
