package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/invmap/engine/internal/api/middleware"
	"github.com/invmap/engine/internal/api/types"
	"github.com/invmap/engine/internal/export"
	"github.com/invmap/engine/internal/inventory"
	appErr "github.com/invmap/engine/pkg/errors"
	"github.com/invmap/engine/pkg/logger"
)

// InventoryHandler exposes the owner's map through that owner's Synchronizer.
type InventoryHandler struct {
	registry *inventory.Registry
	now      func() time.Time
}

func NewInventoryHandler(registry *inventory.Registry) *InventoryHandler {
	return &InventoryHandler{registry: registry, now: time.Now}
}

func (h *InventoryHandler) sync(w http.ResponseWriter, r *http.Request) (*inventory.Synchronizer, bool) {
	uid, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, appErr.New(appErr.CodeUnauthorized, "não autenticado"))
		return nil, false
	}
	sy, err := h.registry.For(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sy, true
}

func nodeID(r *http.Request) inventory.NodeID {
	return inventory.NodeID(chi.URLParam(r, "id"))
}

// Get returns the snapshot. ?reload=true rereads all three tables first.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	sy, ok := h.sync(w, r)
	if !ok {
		return
	}
	snap := sy.Snapshot()
	if reload, _ := strconv.ParseBool(r.URL.Query().Get("reload")); reload {
		var err error
		if snap, err = sy.Load(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    snap,
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context()), Total: int64(len(snap.Nodes))},
	})
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateNodeRequest
	if !decode(w, r, &req) {
		return
	}
	attrs, err := inventory.DecodeAttributes(inventory.Kind(req.Type), req.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sy, ok := h.sync(w, r)
	if !ok {
		return
	}
	node, err := sy.Create(r.Context(), attrs, req.Position.Position())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: node})
}

// Update merges data into the node's attributes: omitted keys keep their
// value, null clears an optional field.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateNodeRequest
	if !decode(w, r, &req) {
		return
	}
	id := nodeID(r)
	if _, _, err := inventory.ParseNodeID(string(id)); err != nil {
		writeError(w, r, err)
		return
	}
	sy, ok := h.sync(w, r)
	if !ok {
		return
	}
	node, err := sy.Merge(r.Context(), id, req.Data, req.Position.Position())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: node})
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sy, ok := h.sync(w, r)
	if !ok {
		return
	}
	if err := sy.Delete(r.Context(), nodeID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Move applies the position immediately and persists it in the background.
func (h *InventoryHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req types.MoveNodeRequest
	if !decode(w, r, &req) {
		return
	}
	sy, ok := h.sync(w, r)
	if !ok {
		return
	}
	pos := inventory.Position{X: *req.X, Y: *req.Y}
	if err := sy.MoveNode(r.Context(), nodeID(r), pos); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, types.APIResponse{Success: true, Data: pos})
}

// Export streams the equipment spreadsheet as an attachment.
func (h *InventoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	sy, ok := h.sync(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(h.now())+`"`)
	if err := export.Write(w, sy.Snapshot()); err != nil {
		logger.L().Error("export write failed", zap.String("owner_id", sy.Owner().String()), zap.Error(err))
	}
}
