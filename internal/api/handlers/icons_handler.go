package handlers

import (
	"errors"
	"net/http"

	"github.com/invmap/engine/internal/api/middleware"
	"github.com/invmap/engine/internal/api/types"
	"github.com/invmap/engine/internal/storage"
	appErr "github.com/invmap/engine/pkg/errors"
)

type IconsHandler struct {
	store storage.IconStore
}

func NewIconsHandler(store storage.IconStore) *IconsHandler {
	return &IconsHandler{store: store}
}

// Upload stores the multipart "file" field and returns its public URL.
func (h *IconsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, appErr.New(appErr.CodeUnauthorized, "não autenticado"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxIconBytes+64<<10)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorStr(w, r, "arquivo maior que 2 MB")
			return
		}
		writeErrorStr(w, r, "campo file é obrigatório")
		return
	}
	defer file.Close()

	icon, err := h.store.Put(r.Context(), storage.Upload{
		OwnerID:     uid,
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: icon})
}
