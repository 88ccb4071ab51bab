package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{appErrors.NewValidationError("name", "is required"), http.StatusBadRequest},
		{fmt.Errorf("loading: %w", appErrors.NewCampaignNotFound("c1")), http.StatusNotFound},
		{fmt.Errorf("%w: run r1", appErrors.ErrRunAlreadyActive), http.StatusConflict},
		{appErrors.NewStoreError("create contact", fmt.Errorf("%w: dup", appErrors.ErrConflict)), http.StatusConflict},
		{fmt.Errorf("launching: %w", appErrors.NewUpstreamError("launch", 403, "denied")), http.StatusBadGateway},
		{appErrors.NewConfigurationError("PHANTOMBUSTER_API_KEY"), http.StatusInternalServerError},
		{appErrors.NewStoreError("list runs", errors.New("conn refused")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/x", nil)

	WriteError(rec, req, appErrors.NewCampaignNotFound("x"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"campaign with ID x not found"}`, rec.Body.String())
}
