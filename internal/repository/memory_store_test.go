package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/model"
	"github.com/unclebandit/talentreach-backend/internal/repository"
)

func TestUpsertSameLinkedInURLKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	contacts := repository.NewMemoryStore().Contacts()

	first, err := contacts.Upsert(ctx, &model.Contact{
		FirstName:   "Jane",
		LastName:    "Doe",
		Company:     "Acme",
		LinkedInURL: "https://linkedin.com/in/jane",
		Source:      model.SourceLinkedIn,
	})
	require.NoError(t, err)

	second, err := contacts.Upsert(ctx, &model.Contact{
		FirstName:   "Janet",
		LastName:    "Doe-Smith",
		Email:       "janet@example.com",
		LinkedInURL: "https://linkedin.com/in/jane",
		Source:      model.SourceLinkedIn,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	all, err := contacts.List(ctx, repository.ContactFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Janet", all[0].FirstName)
	assert.Equal(t, "Doe-Smith", all[0].LastName)
	assert.Equal(t, "janet@example.com", all[0].Email)
	assert.Empty(t, all[0].Company, "fields are overwritten, not merged")
}

func TestUpsertWithoutLinkedInURLNeverCollides(t *testing.T) {
	ctx := context.Background()
	contacts := repository.NewMemoryStore().Contacts()

	a, err := contacts.Upsert(ctx, &model.Contact{FirstName: "A"})
	require.NoError(t, err)
	b, err := contacts.Upsert(ctx, &model.Contact{FirstName: "B"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	all, err := contacts.List(ctx, repository.ContactFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateContactDuplicateURLConflicts(t *testing.T) {
	ctx := context.Background()
	contacts := repository.NewMemoryStore().Contacts()

	require.NoError(t, contacts.Create(ctx, &model.Contact{LinkedInURL: "https://linkedin.com/in/x"}))
	err := contacts.Create(ctx, &model.Contact{LinkedInURL: "https://linkedin.com/in/x"})

	var se *appErrors.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "create contact", se.Operation)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestLinkTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	links := store.Links()

	first, err := links.Link(ctx, "camp-1", "contact-1", model.LinkPending)
	require.NoError(t, err)
	require.NoError(t, links.UpdateStatus(ctx, first.ID, model.LinkSent, nil))

	second, err := links.Link(ctx, "camp-1", "contact-1", model.LinkPending)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.LinkSent, second.Status, "relinking keeps the existing status")

	stats, err := links.Stats(ctx, "camp-1")
	require.NoError(t, err)
	assert.Equal(t, map[model.LinkStatus]int{model.LinkSent: 1}, stats)
}

func TestInsertLinkConflicts(t *testing.T) {
	ctx := context.Background()
	links := repository.NewMemoryStore().Links()

	_, err := links.Insert(ctx, "camp-1", "contact-1", model.LinkPending)
	require.NoError(t, err)
	_, err = links.Insert(ctx, "camp-1", "contact-1", model.LinkPending)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	found, err := links.Find(ctx, "camp-1", "contact-2")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRunFinalizeOnlyOnce(t *testing.T) {
	ctx := context.Background()
	runs := repository.NewMemoryStore().Runs()

	run := &model.Run{CampaignID: "camp-1", ContainerID: "c-1"}
	require.NoError(t, runs.Create(ctx, run))
	assert.Equal(t, model.RunRunning, run.Status)

	active, err := runs.FindActive(ctx, "camp-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, run.ID, active.ID)

	done := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, runs.Finalize(ctx, run.ID, repository.RunFinalization{
		Status:        model.RunSuccess,
		Output:        []byte(`[]`),
		ContactsFound: 3,
		CompletedAt:   done,
	}))

	err = runs.Finalize(ctx, run.ID, repository.RunFinalization{Status: model.RunFailed, CompletedAt: done})
	assert.ErrorIs(t, err, appErrors.ErrRunFinished)
	assert.ErrorIs(t, runs.UpdateStatus(ctx, run.ID, model.RunRunning), appErrors.ErrRunFinished)

	stored, err := runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunSuccess, stored.Status)
	assert.Equal(t, 3, stored.ContactsFound)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, done.Equal(*stored.CompletedAt))

	active, err = runs.FindActive(ctx, "camp-1")
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = runs.GetByID(ctx, "missing")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestListCampaignsPaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	campaigns := repository.NewMemoryStore().Campaigns()

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, campaigns.Create(ctx, &model.Campaign{Name: name, DailyLimit: 10}))
	}

	page, total, err := campaigns.ListCampaigns(ctx, 0, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "third", page[0].Name)
	assert.Equal(t, "second", page[1].Name)

	page, _, err = campaigns.ListCampaigns(ctx, 2, 2, "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "first", page[0].Name)

	page, total, err = campaigns.ListCampaigns(ctx, 0, 10, string(model.CampaignActive))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, page)
}

func TestSearchContactsIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	contacts := repository.NewMemoryStore().Contacts()

	require.NoError(t, contacts.Create(ctx, &model.Contact{FirstName: "Ada", Company: "Analytical Engines"}))
	require.NoError(t, contacts.Create(ctx, &model.Contact{FirstName: "Grace", Email: "grace@navy.mil"}))

	found, err := contacts.Search(ctx, "ENGINES", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ada", found[0].FirstName)

	found, err = contacts.Search(ctx, "navy", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Grace", found[0].FirstName)
}

func TestDeleteLeadClearsContactBackReference(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	lead := &model.Lead{Name: "Sam Lee"}
	require.NoError(t, store.Leads().Create(ctx, lead))
	contact := &model.Contact{FirstName: "Sam", FromLeadID: &lead.ID}
	require.NoError(t, store.Contacts().Create(ctx, contact))

	require.NoError(t, store.Leads().Delete(ctx, lead.ID))

	stored, err := store.Contacts().GetByID(ctx, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FromLeadID)
}
