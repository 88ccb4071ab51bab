package controller

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/talentreach-backend/internal/handler"
	"github.com/unclebandit/talentreach-backend/internal/logger"
)

// API groups every controller behind one router.
type API struct {
	Campaigns     *CampaignController
	CampaignViews *handler.CampaignHandler
	Runs          *RunController
	Contacts      *ContactController
	Leads         *LeadController
	Outreach      *OutreachController
	Metrics       http.Handler
}

func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	// Campaign routes
	r.Post("/campaigns", a.Campaigns.CreateCampaign)
	r.Get("/campaigns", a.Campaigns.ListCampaigns)
	r.Get("/campaigns/{id}", a.CampaignViews.GetCampaignHandlerWithStats)
	r.Patch("/campaigns/{id}", a.Campaigns.UpdateCampaign)
	r.Delete("/campaigns/{id}", a.Campaigns.DeleteCampaign)
	r.Post("/campaigns/{id}/toggle", a.Campaigns.ToggleCampaign)
	r.Post("/campaigns/{id}/runs", a.Runs.LaunchRun)
	r.Get("/campaigns/{id}/runs", a.Runs.ListCampaignRuns)

	// Run routes
	r.Get("/runs", a.Runs.ListRecentRuns)
	r.Get("/runs/{id}", a.Runs.GetRun)
	r.Post("/runs/{id}/poll", a.Runs.PollRun)

	// Contact routes
	r.Get("/contacts", a.Contacts.ListContacts)
	r.Post("/contacts", a.Contacts.CreateContact)
	r.Post("/contacts/search", a.Contacts.SearchContacts)
	r.Patch("/contacts/{id}", a.Contacts.UpdateContact)
	r.Delete("/contacts/{id}", a.Contacts.DeleteContact)
	r.Get("/campaign-contacts/{id}/messages", a.Contacts.ListMessages)

	// Lead routes
	r.Get("/leads", a.Leads.ListLeads)
	r.Post("/leads", a.Leads.CreateLead)
	r.Delete("/leads/{id}", a.Leads.DeleteLead)
	r.Post("/leads/{id}/convert", a.Leads.ConvertLead)

	// Outreach routes
	r.Post("/outreach/send", a.Outreach.Send)
	r.Post("/outreach/batch-send", a.Outreach.BatchSend)

	if a.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.Metrics)
	}
	return r
}

// requestLogger stores a request-scoped logger in the context and logs each
// request once it has been served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := logger.L.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

		l.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
