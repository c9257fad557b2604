package handler

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/yndnr/stm-go/pkg/stm"
)

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.engine.Stats())
}

// handleListCells handles GET /v1/cells?limit=N. Cells are listed in ID
// order, which is creation order.
func (h *Handler) handleListCells(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxListLimit {
			h.writeError(w, r, http.StatusBadRequest, "STM-ARG-4002",
				fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
			return
		}
		limit = n
	}

	ids := h.engine.LiveIDs()
	slices.SortFunc(ids, func(a, b stm.CellID) int { return slices.Compare(a.Bytes(), b.Bytes()) })

	resp := ListCellsResponse{Total: len(ids), Items: []CellView{}}
	for _, id := range ids[:min(limit, len(ids))] {
		if view, ok := h.view(id); ok {
			resp.Items = append(resp.Items, view)
		}
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) handleGetCell(w http.ResponseWriter, r *http.Request) {
	id, err := stm.ParseCellID(r.PathValue("id"))
	if err != nil {
		h.handleEngineError(w, r, err)
		return
	}
	view, ok := h.view(id)
	if !ok {
		h.handleEngineError(w, r, stm.ErrCellDeleted.WithDetails(id.String()))
		return
	}
	h.writeJSON(w, r, http.StatusOK, view)
}

// view renders the committed value of id. A cell deleted between listing
// and viewing is reported as missing.
func (h *Handler) view(id stm.CellID) (CellView, bool) {
	handle, ok := h.engine.Lookup(id)
	if !ok {
		return CellView{}, false
	}
	v, ok := h.engine.ViewState(handle)
	if !ok {
		return CellView{}, false
	}
	return CellView{
		ID:    id.String(),
		Type:  fmt.Sprintf("%T", v),
		Value: fmt.Sprint(v),
	}, true
}
