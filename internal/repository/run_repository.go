package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

// RunFinalization is written in a single statement once a run reaches a
// terminal status.
type RunFinalization struct {
	Status        model.RunStatus
	Output        json.RawMessage
	ContactsFound int
	CompletedAt   time.Time
}

type RunRepositoryInterface interface {
	Create(ctx context.Context, r *model.Run) error
	GetByID(ctx context.Context, id string) (*model.Run, error)
	// UpdateStatus moves a non-terminal run to status. ErrRunFinished if it
	// is already terminal.
	UpdateStatus(ctx context.Context, id string, status model.RunStatus) error
	// Finalize records the terminal status, output and counters together.
	// ErrRunFinished if another poller finalized first.
	Finalize(ctx context.Context, id string, f RunFinalization) error
	// FindActive returns the campaign's non-terminal run, or nil.
	FindActive(ctx context.Context, campaignID string) (*model.Run, error)
	ListByCampaign(ctx context.Context, campaignID string, limit int) ([]*model.Run, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Run, error)
}

type RunRepository struct {
	DB *sql.DB
}

const runColumns = `id, campaign_id, container_id, status, contacts_found, messages_sent, output_data, started_at, completed_at, created_at`

var terminalRunStatuses = pq.Array([]string{
	string(model.RunSuccess), string(model.RunFailed), string(model.RunAborted),
})

func (r *RunRepository) Create(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = model.RunRunning
	}
	now := time.Now().UTC()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	run.CreatedAt = now

	query := `
        INSERT INTO phantom_runs (id, campaign_id, container_id, status, contacts_found, messages_sent, started_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.DB.ExecContext(ctx, query, run.ID, run.CampaignID, run.ContainerID, run.Status, run.ContactsFound, run.MessagesSent, run.StartedAt, run.CreatedAt)
	return appErrors.NewStoreError("create run", classify(err))
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*model.Run, error) {
	run, err := scanRun(r.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM phantom_runs WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("run", id)
		}
		return nil, appErrors.NewStoreError("get run", err)
	}
	return run, nil
}

func (r *RunRepository) UpdateStatus(ctx context.Context, id string, status model.RunStatus) error {
	query := `UPDATE phantom_runs SET status=$1 WHERE id=$2 AND NOT (status = ANY($3))`
	res, err := r.DB.ExecContext(ctx, query, status, id, terminalRunStatuses)
	if err != nil {
		return appErrors.NewStoreError("update run status", err)
	}
	return r.checkTransition(ctx, res, id, "update run status")
}

func (r *RunRepository) Finalize(ctx context.Context, id string, f RunFinalization) error {
	var output interface{}
	if len(f.Output) > 0 {
		output = string(f.Output)
	}
	query := `
        UPDATE phantom_runs
        SET status=$1, output_data=$2, contacts_found=$3, completed_at=$4
        WHERE id=$5 AND NOT (status = ANY($6))
    `
	res, err := r.DB.ExecContext(ctx, query, f.Status, output, f.ContactsFound, f.CompletedAt, id, terminalRunStatuses)
	if err != nil {
		return appErrors.NewStoreError("finalize run", err)
	}
	return r.checkTransition(ctx, res, id, "finalize run")
}

// checkTransition tells a missing run apart from one that is already terminal.
func (r *RunRepository) checkTransition(ctx context.Context, res sql.Result, id, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return appErrors.NewStoreError(op, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return appErrors.ErrRunFinished
}

func (r *RunRepository) FindActive(ctx context.Context, campaignID string) (*model.Run, error) {
	query := `
        SELECT ` + runColumns + ` FROM phantom_runs
        WHERE campaign_id=$1 AND NOT (status = ANY($2))
        ORDER BY created_at DESC
        LIMIT 1
    `
	run, err := scanRun(r.DB.QueryRowContext(ctx, query, campaignID, terminalRunStatuses))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.NewStoreError("find active run", err)
	}
	return run, nil
}

func (r *RunRepository) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]*model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM phantom_runs WHERE campaign_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`
	return r.query(ctx, "list campaign runs", query, campaignID, defaultLimit(limit))
}

func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM phantom_runs ORDER BY created_at DESC, id DESC LIMIT $1`
	return r.query(ctx, "list recent runs", query, defaultLimit(limit))
}

func (r *RunRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]*model.Run, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, appErrors.NewStoreError(op, err)
	}
	defer rows.Close()

	runs := []*model.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, appErrors.NewStoreError(op, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStoreError(op, err)
	}
	return runs, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

var _ RunRepositoryInterface = (*RunRepository)(nil)
