package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appErr "github.com/invmap/engine/pkg/errors"
)

// smallest valid PNG header is enough for content sniffing
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func TestObjectKey(t *testing.T) {
	owner := uuid.MustParse("8f14e45f-ceea-467f-a3c8-0bd2b1d1f9a1")
	at := time.UnixMilli(1717171717171)
	require.Equal(t, "8f14e45f-ceea-467f-a3c8-0bd2b1d1f9a1-1717171717171.png", ObjectKey(owner, "png", at))
}

func TestPrepare(t *testing.T) {
	p, err := prepare(Upload{Filename: "Router.PNG", ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	require.Equal(t, "png", p.ext)
	require.Equal(t, "image/png", p.contentType)
	require.Len(t, p.sum, 64)

	// no extension and no declared type: sniffed
	p, err = prepare(Upload{Filename: "icon", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	require.Equal(t, "png", p.ext)

	// a wrong claim does not change the stored type
	p, err = prepare(Upload{Filename: "foto.gif", ContentType: "image/gif", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	require.Equal(t, "png", p.ext)
	require.Equal(t, "image/png", p.contentType)

	_, err = prepare(Upload{Filename: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("hello")})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	_, err = prepare(Upload{Filename: "empty.png", Body: bytes.NewReader(nil)})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	big := append(append([]byte{}, pngBytes...), make([]byte, MaxIconBytes)...)
	_, err = prepare(Upload{Filename: "big.png", ContentType: "image/png", Body: bytes.NewReader(big)})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestPrepareRejectsMarkupDisguisedAsImage(t *testing.T) {
	html := "<html><body><script>alert(document.cookie)</script></body></html>"
	_, err := prepare(Upload{Filename: "evil.html", ContentType: "image/png", Body: strings.NewReader(html)})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	require.Equal(t, "tipo de arquivo não suportado: text/html", appErr.MessageOf(err))

	svg := `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`
	_, err = prepare(Upload{Filename: "icon.svg", ContentType: "image/svg+xml", Body: strings.NewReader(svg)})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	// image bytes under an html name are stored as png
	p, err := prepare(Upload{Filename: "evil.html", ContentType: "text/html", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	require.Equal(t, "png", p.ext)
}

func TestFSStorePut(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir, "http://localhost:8080/icons/")
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	owner := uuid.New()

	icon, err := s.Put(context.Background(), Upload{OwnerID: owner, Filename: "antena.png", ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	require.Equal(t, owner.String()+"-1700000000000.png", icon.Key)
	require.Equal(t, "http://localhost:8080/icons/"+icon.Key, icon.URL)
	require.Equal(t, int64(len(pngBytes)), icon.Size)

	got, err := os.ReadFile(filepath.Join(dir, icon.Key))
	require.NoError(t, err)
	require.Equal(t, pngBytes, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

type mockPutter struct {
	mock.Mock
}

func (m *mockPutter) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	body, _ := io.ReadAll(reader)
	args := m.Called(bucket, object, body, size, opts.ContentType)
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, args.Error(0)
}

func TestS3StorePut(t *testing.T) {
	owner := uuid.New()
	key := owner.String() + "-1700000000000.png"
	m := &mockPutter{}
	m.On("PutObject", "icons", key, pngBytes, int64(len(pngBytes)), "image/png").Return(nil).Once()

	s := newS3Store(m, "icons", "https://cdn.example.com/icons")
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	icon, err := s.Put(context.Background(), Upload{OwnerID: owner, Filename: "x.png", ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/icons/"+key, icon.URL)
	m.AssertExpectations(t)
}

func TestS3StorePutFailure(t *testing.T) {
	m := &mockPutter{}
	m.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(io.ErrUnexpectedEOF)

	s := newS3Store(m, "icons", "https://cdn.example.com/icons")
	_, err := s.Put(context.Background(), Upload{OwnerID: uuid.New(), Filename: "x.png", ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}
