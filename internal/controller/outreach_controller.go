package controller

import (
	"net/http"

	"github.com/unclebandit/talentreach-backend/internal/handler"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

type OutreachController struct {
	Dispatcher *service.Dispatcher
}

func (c *OutreachController) Send(w http.ResponseWriter, r *http.Request) {
	var body service.SendRequest
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	result, err := c.Dispatcher.Send(r.Context(), body)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, result)
}

// BatchSend answers 200 even when some contacts failed; the per-contact
// outcome is in the results array.
func (c *OutreachController) BatchSend(w http.ResponseWriter, r *http.Request) {
	var body service.BatchRequest
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	result, err := c.Dispatcher.SendBatch(r.Context(), body)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, result)
}
