package handler

import (
	"net/http"

	"github.com/edvin/vmfleet/internal/api/response"
	"github.com/edvin/vmfleet/internal/core"
)

type NodeStats struct {
	svc *core.NodeStatsService
}

func NewNodeStats(services *core.Services) *NodeStats {
	return &NodeStats{svc: services.NodeStats}
}

// List godoc
//
//	@Summary		List node statistics
//	@Description	Returns the most recent resource snapshot for every monitored host, including hosts currently offline.
//	@Tags			Node Stats
//	@Success		200 {array} model.NodeStats
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/node-stats [get]
func (h *NodeStats) List(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}
