// Package ftp stores files on a remote FTP server.
package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/yepcord/server-sub002/internal/model"
)

const dialTimeout = 10 * time.Second

// conn is the subset of *ftp.ServerConn used by the store.
type conn interface {
	Stor(path string, r io.Reader) error
	Retr(path string) (io.ReadCloser, error)
	Delete(path string) error
	FileSize(path string) (int64, error)
	MakeDir(path string) error
	Quit() error
}

type serverConn struct{ *ftp.ServerConn }

func (c serverConn) Retr(p string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(p)
}

type dialFunc func(ctx context.Context) (conn, error)

var _ model.Storage = (*Store)(nil)

// Store opens a fresh control connection per operation since a
// ServerConn cannot run commands concurrently.
type Store struct {
	dial dialFunc
}

func New(host string, port int, user, password string) *Store {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return &Store{dial: func(ctx context.Context) (conn, error) {
		c, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(dialTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ftp server: %w", err)
		}
		if err := c.Login(user, password); err != nil {
			_ = c.Quit()
			return nil, fmt.Errorf("failed to log in to ftp server: %w", err)
		}
		return serverConn{c}, nil
	}}
}

func (s *Store) Upload(ctx context.Context, key string, reader io.Reader) error {
	c, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Quit()

	mkdirAll(c, path.Dir(key))
	if err := c.Stor(key, reader); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	c, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	r, err := c.Retr(key)
	if err != nil {
		_ = c.Quit()
		if isUnavailable(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return &download{ReadCloser: r, conn: c}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	c, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Quit()

	if err := c.Delete(key); err != nil && !isUnavailable(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	c, err := s.dial(ctx)
	if err != nil {
		return false, err
	}
	defer c.Quit()

	if _, err := c.FileSize(key); err != nil {
		if isUnavailable(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// mkdirAll ignores errors: the server answers 550 for directories that
// already exist and Stor reports anything real.
func mkdirAll(c conn, dir string) {
	if dir == "." || dir == "/" {
		return
	}
	var cur string
	for _, part := range strings.Split(dir, "/") {
		if part == "" {
			continue
		}
		cur = path.Join(cur, part)
		_ = c.MakeDir(cur)
	}
}

func isUnavailable(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code == ftp.StatusFileUnavailable
}

// download ends the session once the caller is done with the body.
type download struct {
	io.ReadCloser
	conn conn
}

func (d *download) Close() error {
	err := d.ReadCloser.Close()
	if qerr := d.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}
