// internal/handler/campaign_handler.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

// CampaignHandler serves the campaign read views.
type CampaignHandler struct {
	Service *service.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler with the given service
func NewCampaignHandler(svc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{Service: svc}
}

// GetCampaignHandlerWithStats returns a campaign with link counts per status
// and its most recent runs.
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Debug("campaign details served", "campaign_id", id, "stats", details.Stats)
	WriteJSON(w, http.StatusOK, details)
}
