package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	appErr "github.com/invmap/engine/pkg/errors"
)

// FSStore writes icons under a local directory that the API serves at BaseURL.
type FSStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "create icon directory failed")
	}
	return &FSStore{dir: dir, baseURL: baseURL, now: time.Now}, nil
}

func (s *FSStore) Dir() string { return s.dir }

func (s *FSStore) Put(ctx context.Context, up Upload) (*Icon, error) {
	p, err := prepare(up)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeDeadline, "upload canceled")
	}

	key := ObjectKey(up.OwnerID, p.ext, s.now())
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "falha ao salvar ícone")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(p.data); err != nil {
		_ = tmp.Close()
		return nil, appErr.Wrap(err, appErr.CodeInternal, "falha ao salvar ícone")
	}
	if err := tmp.Close(); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "falha ao salvar ícone")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "falha ao salvar ícone")
	}

	return &Icon{
		Key:         key,
		URL:         publicURL(s.baseURL, key),
		ContentType: p.contentType,
		Size:        int64(len(p.data)),
		SHA256:      p.sum,
	}, nil
}
