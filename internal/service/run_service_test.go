package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/lock"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/model"
	"github.com/unclebandit/talentreach-backend/internal/repository"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

// fakeJobs scripts the scraping platform.
type fakeJobs struct {
	mu        sync.Mutex
	statuses  []string
	statusErr error
	output    string
	launchErr error

	launches   int
	lastAgent  string
	lastArgs   map[string]any
	statusHits int
}

func (f *fakeJobs) Launch(_ context.Context, agentID string, args map[string]any, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launchErr != nil {
		return "", f.launchErr
	}
	f.launches++
	f.lastAgent, f.lastArgs = agentID, args
	return "container-1", nil
}

func (f *fakeJobs) FetchStatus(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusHits++
	if f.statusErr != nil {
		return "", f.statusErr
	}
	if len(f.statuses) == 0 {
		return "running", nil
	}
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return s, nil
}

func (f *fakeJobs) FetchOutput(context.Context, string) (json.RawMessage, error) {
	return json.RawMessage(f.output), nil
}

// recordingRuns remembers every status written to a run.
type recordingRuns struct {
	repository.RunRepositoryInterface
	mu     sync.Mutex
	writes []model.RunStatus
}

func (r *recordingRuns) UpdateStatus(ctx context.Context, id string, status model.RunStatus) error {
	r.mu.Lock()
	r.writes = append(r.writes, status)
	r.mu.Unlock()
	return r.RunRepositoryInterface.UpdateStatus(ctx, id, status)
}

func (r *recordingRuns) Finalize(ctx context.Context, id string, f repository.RunFinalization) error {
	r.mu.Lock()
	r.writes = append(r.writes, f.Status)
	r.mu.Unlock()
	return r.RunRepositoryInterface.Finalize(ctx, id, f)
}

// failingGateway fails UpsertContact for one profile URL.
type failingGateway struct {
	repository.ContactStoreGateway
	failURL string
}

func (g *failingGateway) UpsertContact(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	if c.LinkedInURL == g.failURL {
		return nil, appErrors.NewStoreError("upsert contact", errors.New("connection reset"))
	}
	return g.ContactStoreGateway.UpsertContact(ctx, c)
}

const twoLeads = `[
	{"fullName": "Jane Doe Smith", "profileUrl": "https://www.linkedin.com/in/jane/", "company": "Acme"},
	{"firstName": "Omar", "lastName": "Haddad", "linkedinProfileUrl": "https://www.linkedin.com/in/omar", "title": "SRE"}
]`

type runFixture struct {
	store    *repository.Store
	runs     *recordingRuns
	jobs     *fakeJobs
	svc      *service.RunService
	campaign *model.Campaign
}

func newRunFixture(t *testing.T) *runFixture {
	t.Helper()
	store := repository.NewMemoryStore().Store()
	campaign := &model.Campaign{Name: "Backend", JobTitle: "Go Engineer", DailyLimit: 40, AgentID: "agent-7"}
	require.NoError(t, store.Campaigns.Create(context.Background(), campaign))

	runs := &recordingRuns{RunRepositoryInterface: store.Runs}
	jobs := &fakeJobs{output: twoLeads}
	svc := &service.RunService{
		Campaigns:    store.Campaigns,
		Runs:         runs,
		Store:        store.Gateway(),
		Jobs:         jobs,
		Locker:       lock.NewMemoryLocker(),
		Logger:       logger.Discard(),
		PollInterval: time.Millisecond,
	}
	return &runFixture{store: store, runs: runs, jobs: jobs, svc: svc, campaign: campaign}
}

func TestLaunchCreatesRunningRun(t *testing.T) {
	f := newRunFixture(t)

	run, err := f.svc.Launch(context.Background(), f.campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, model.RunRunning, run.Status)
	assert.Equal(t, "container-1", run.ContainerID)
	assert.Equal(t, "agent-7", f.jobs.lastAgent)
	assert.Equal(t, map[string]any{"search": "Go Engineer", "numberOfProfiles": 40}, f.jobs.lastArgs)

	stored, err := f.store.Runs.GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ContactsFound)
	assert.Nil(t, stored.CompletedAt)
}

func TestLaunchFailureCreatesNoRun(t *testing.T) {
	f := newRunFixture(t)
	f.jobs.launchErr = appErrors.NewUpstreamError("launch", 402, "no credits")

	_, err := f.svc.Launch(context.Background(), f.campaign.ID)

	var ue *appErrors.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 402, ue.StatusCode)

	runs, err := f.store.Runs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLaunchRejectsSecondActiveRun(t *testing.T) {
	f := newRunFixture(t)

	_, err := f.svc.Launch(context.Background(), f.campaign.ID)
	require.NoError(t, err)

	_, err = f.svc.Launch(context.Background(), f.campaign.ID)
	assert.ErrorIs(t, err, appErrors.ErrRunAlreadyActive)
	assert.Equal(t, 1, f.jobs.launches)
}

func TestLaunchRejectedWhileLaunchInFlight(t *testing.T) {
	f := newRunFixture(t)
	locker := lock.NewMemoryLocker()
	f.svc.Locker = locker

	release, err := locker.Acquire(context.Background(), "launch:"+f.campaign.ID, time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = f.svc.Launch(context.Background(), f.campaign.ID)
	assert.ErrorIs(t, err, appErrors.ErrRunAlreadyActive)
	assert.Equal(t, 0, f.jobs.launches)
}

func TestLaunchRequiresAgent(t *testing.T) {
	f := newRunFixture(t)
	noAgent := &model.Campaign{Name: "Manual", DailyLimit: 5}
	require.NoError(t, f.store.Campaigns.Create(context.Background(), noAgent))

	_, err := f.svc.Launch(context.Background(), noAgent.ID)
	var ve *appErrors.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestPollTransitionsAndFinalizesOnce(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture(t)
	f.jobs.statuses = []string{"running", "RUNNING", "Success"}

	run, err := f.svc.Launch(ctx, f.campaign.ID)
	require.NoError(t, err)

	type snapshot struct {
		status        model.RunStatus
		contactsFound int
		completed     bool
	}
	var seen []snapshot
	for i := 0; i < 3; i++ {
		_, err := f.svc.PollOnce(ctx, run.ID)
		require.NoError(t, err)
		stored, err := f.store.Runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		seen = append(seen, snapshot{stored.Status, stored.ContactsFound, stored.CompletedAt != nil})
	}

	assert.Equal(t, []model.RunStatus{model.RunRunning, model.RunRunning, model.RunSuccess}, f.runs.writes)
	assert.Equal(t, []snapshot{
		{model.RunRunning, 0, false},
		{model.RunRunning, 0, false},
		{model.RunSuccess, 2, true},
	}, seen)

	stored, err := f.store.Runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.JSONEq(t, twoLeads, string(stored.OutputData))

	// Terminal runs are not polled again.
	again, err := f.svc.PollOnce(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunSuccess, again.Status)
	assert.Equal(t, 3, f.jobs.statusHits)
}

func ingestedContacts(t *testing.T, output string) []string {
	t.Helper()
	ctx := context.Background()
	f := newRunFixture(t)
	f.jobs.statuses = []string{"success"}
	f.jobs.output = output

	run, err := f.svc.Launch(ctx, f.campaign.ID)
	require.NoError(t, err)
	done, err := f.svc.PollOnce(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, 2, done.ContactsFound)

	contacts, err := f.store.Contacts.List(ctx, repository.ContactFilter{})
	require.NoError(t, err)
	stats, err := f.store.Links.Stats(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, map[model.LinkStatus]int{model.LinkPending: 2}, stats)

	var out []string
	for _, c := range contacts {
		out = append(out, c.FirstName+"|"+c.LastName+"|"+c.LinkedInURL+"|"+string(c.Source)+"|"+string(c.Status))
	}
	sort.Strings(out)
	return out
}

func TestBareListAndResultObjectIngestTheSame(t *testing.T) {
	bare := ingestedContacts(t, twoLeads)
	wrapped := ingestedContacts(t, `{"resultObject": `+twoLeads+`}`)
	besideEmpty := ingestedContacts(t, `{"errors": [], "profiles": `+twoLeads+`}`)

	assert.Equal(t, bare, wrapped)
	assert.Equal(t, bare, besideEmpty)
	assert.Equal(t, []string{
		"Jane|Doe Smith|https://www.linkedin.com/in/jane|linkedin|new",
		"Omar|Haddad|https://www.linkedin.com/in/omar|linkedin|new",
	}, bare)
}

func TestIngestContinuesPastFailingLead(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture(t)
	f.svc.Store = &failingGateway{ContactStoreGateway: f.store.Gateway(), failURL: "https://www.linkedin.com/in/jane"}
	f.jobs.statuses = []string{"failed"}

	run, err := f.svc.Launch(ctx, f.campaign.ID)
	require.NoError(t, err)
	done, err := f.svc.PollOnce(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, model.RunFailed, done.Status)
	assert.Equal(t, 1, done.ContactsFound)

	result, err := f.svc.Ingest(ctx, f.campaign.ID, []byte(twoLeads))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 0, result.Failures[0].Index)
	assert.Contains(t, result.Failures[0].Error, "connection reset")
}

func TestReingestingSameOutputKeepsOneRowPerProfile(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture(t)

	for i := 0; i < 2; i++ {
		result, err := f.svc.Ingest(ctx, f.campaign.ID, []byte(twoLeads))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Succeeded)
	}

	contacts, err := f.store.Contacts.List(ctx, repository.ContactFilter{})
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
	stats, err := f.store.Links.Stats(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats[model.LinkPending])
}

func TestWatchStopsOnTerminalStatus(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture(t)
	f.jobs.statuses = []string{"queued", "running", "aborted"}

	run, err := f.svc.Launch(ctx, f.campaign.ID)
	require.NoError(t, err)

	done, err := f.svc.Watch(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunAborted, done.Status)
	assert.Equal(t, 3, f.jobs.statusHits)
}

func TestWatchCancelledLeavesRunRunning(t *testing.T) {
	f := newRunFixture(t)
	run, err := f.svc.Launch(context.Background(), f.campaign.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.svc.Watch(ctx, run.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := f.store.Runs.GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunRunning, stored.Status)
}

func TestWatchGivesUpAfterConsecutiveErrors(t *testing.T) {
	f := newRunFixture(t)
	f.svc.MaxPollErrors = 3
	run, err := f.svc.Launch(context.Background(), f.campaign.ID)
	require.NoError(t, err)
	f.jobs.statusErr = appErrors.NewUpstreamError("fetch status", 503, "unavailable")

	_, err = f.svc.Watch(context.Background(), run.ID)
	var ue *appErrors.UpstreamError
	assert.ErrorAs(t, err, &ue)
	assert.Equal(t, 3, f.jobs.statusHits)
}
