package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/talentreach-backend/internal/handler"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

// RunController exposes scraping runs. Background watches started with
// ?watch=true are bound to WatchContext rather than the request.
type RunController struct {
	RunService   *service.RunService
	WatchContext context.Context
}

func (c *RunController) watchContext() context.Context {
	if c.WatchContext != nil {
		return c.WatchContext
	}
	return context.Background()
}

func (c *RunController) LaunchRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.RunService.Launch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	if watch, _ := strconv.ParseBool(r.URL.Query().Get("watch")); watch {
		c.RunService.WatchInBackground(c.watchContext(), run.ID)
	}

	handler.WriteJSON(w, http.StatusAccepted, run)
}

func (c *RunController) ListCampaignRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := c.RunService.ListCampaignRuns(r.Context(), chi.URLParam(r, "id"), limitParam(r))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": runs})
}

func (c *RunController) ListRecentRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := c.RunService.ListRecentRuns(r.Context(), limitParam(r))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": runs})
}

func (c *RunController) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.RunService.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, run)
}

// PollRun performs one status check and returns the run as it stands after it.
func (c *RunController) PollRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.RunService.PollOnce(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, run)
}

// limitParam reads ?limit; zero lets the store apply its default.
func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
