package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/talentreach-backend/internal/handler"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

type ContactController struct {
	ContactService *service.ContactService
}

func (c *ContactController) ListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contacts, err := c.ContactService.ListContacts(r.Context(), q.Get("status"), q.Get("source"))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": contacts})
}

func (c *ContactController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body service.ContactInput
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	contact, err := c.ContactService.CreateContact(r.Context(), body)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, contact)
}

func (c *ContactController) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var body service.ContactPatch
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	contact, err := c.ContactService.UpdateContact(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, contact)
}

func (c *ContactController) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := c.ContactService.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *ContactController) SearchContacts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SearchTerm string `json:"searchTerm"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	contacts, err := c.ContactService.SearchContacts(r.Context(), body.SearchTerm)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": contacts})
}

// ListMessages returns the messages recorded against a campaign contact.
func (c *ContactController) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := c.ContactService.ListMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}
