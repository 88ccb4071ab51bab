package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
)

func TestClassifyUniqueViolation(t *testing.T) {
	err := classify(fmt.Errorf("exec: %w", &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}))
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	other := errors.New("connection refused")
	assert.Equal(t, other, classify(other))
	assert.NoError(t, classify(nil))
}
