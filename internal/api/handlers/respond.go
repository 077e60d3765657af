package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/invmap/engine/internal/api/middleware"
	"github.com/invmap/engine/internal/api/types"
	"github.com/invmap/engine/internal/api/validators"
	appErr "github.com/invmap/engine/pkg/errors"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError picks the status from the error code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := types.APIResponse{Success: false, Error: types.FromAppError(err)}
	if id := middleware.GetRequestID(r.Context()); id != "" {
		resp.Meta = &types.Meta{RequestID: id}
	}
	writeJSON(w, types.HTTPStatus(err), resp)
}

func writeErrorStr(w http.ResponseWriter, r *http.Request, msg string) {
	writeError(w, r, appErr.New(appErr.CodeInvalid, msg))
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeErrorStr(w, r, "invalid json")
		return false
	}
	if err := validators.New().Struct(dst); err != nil {
		writeErrorStr(w, r, validators.Message(err))
		return false
	}
	return true
}
