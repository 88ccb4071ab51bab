package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/talentreach-backend/internal/handler"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

type LeadController struct {
	LeadService *service.LeadService
}

func (c *LeadController) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := c.LeadService.ListLeads(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": leads})
}

func (c *LeadController) CreateLead(w http.ResponseWriter, r *http.Request) {
	var body service.LeadInput
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	lead, err := c.LeadService.CreateLead(r.Context(), body)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, lead)
}

func (c *LeadController) DeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := c.LeadService.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConvertLead turns a lead into a contact and returns the contact.
func (c *LeadController) ConvertLead(w http.ResponseWriter, r *http.Request) {
	contact, err := c.LeadService.ConvertLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, contact)
}
