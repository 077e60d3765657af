// Package storage keeps custom equipment icons in an object store and hands
// back a public URL for each upload.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	appErr "github.com/invmap/engine/pkg/errors"
	"github.com/invmap/engine/pkg/utils"
)

// MaxIconBytes caps a single upload.
const MaxIconBytes = 2 << 20

// allowedTypes maps each accepted sniffed type to the extension stored with
// it. SVG is left out: it can carry script and cannot be recognised by
// sniffing.
var allowedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Icon describes a stored object.
type Icon struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
}

// Upload is one icon file as received from the client. Filename and
// ContentType are what the client claimed; the stored type and extension
// come from the bytes.
type Upload struct {
	OwnerID     uuid.UUID
	Filename    string
	ContentType string
	Body        io.Reader
}

type IconStore interface {
	Put(ctx context.Context, up Upload) (*Icon, error)
}

// ObjectKey builds "{ownerId}-{unixMillis}.{ext}".
func ObjectKey(ownerID uuid.UUID, ext string, at time.Time) string {
	return fmt.Sprintf("%s-%d.%s", ownerID, at.UnixMilli(), ext)
}

// prepared is an upload that passed the size and type checks.
type prepared struct {
	data        []byte
	contentType string
	ext         string
	sum         string
}

func prepare(up Upload) (*prepared, error) {
	data, err := io.ReadAll(io.LimitReader(up.Body, MaxIconBytes+1))
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "falha ao ler o arquivo")
	}
	if len(data) == 0 {
		return nil, appErr.New(appErr.CodeInvalid, "arquivo vazio")
	}
	if len(data) > MaxIconBytes {
		return nil, appErr.New(appErr.CodeInvalid, "arquivo maior que 2 MB")
	}

	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ext, ok := allowedTypes[ct]
	if !ok {
		return nil, appErr.Newf(appErr.CodeInvalid, "tipo de arquivo não suportado: %s", ct)
	}
	return &prepared{data: data, contentType: ct, ext: ext, sum: utils.SHA256Hex(data)}, nil
}

func (p *prepared) reader() io.Reader { return bytes.NewReader(p.data) }

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
