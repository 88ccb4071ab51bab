package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/model"
	"github.com/unclebandit/talentreach-backend/internal/queue"
	"github.com/unclebandit/talentreach-backend/internal/repository"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

// linkFailGateway fails link creation for one contact.
type linkFailGateway struct {
	repository.ContactStoreGateway
	failContactID string
}

func (g *linkFailGateway) CreateCampaignContact(ctx context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error) {
	if contactID == g.failContactID {
		return nil, appErrors.NewStoreError("create campaign contact", errors.New("deadlock detected"))
	}
	return g.ContactStoreGateway.CreateCampaignContact(ctx, campaignID, contactID, status)
}

// racingGateway hides an existing link on the first lookup, as if another
// sender created it in between.
type racingGateway struct {
	repository.ContactStoreGateway
	mu     sync.Mutex
	hidden bool
}

func (g *racingGateway) FindCampaignContact(ctx context.Context, campaignID, contactID string) (*model.CampaignContact, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.hidden {
		g.hidden = true
		return nil, nil
	}
	return g.ContactStoreGateway.FindCampaignContact(ctx, campaignID, contactID)
}

type outreachFixture struct {
	store      *repository.Store
	campaign   *model.Campaign
	contactIDs []string
	dispatcher *service.Dispatcher
	queue      *queue.InMemoryQueue

	mu         sync.Mutex
	deliveries []model.OutreachDelivery
}

var sentAt = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

func newOutreachFixture(t *testing.T) *outreachFixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore().Store()

	campaign := &model.Campaign{Name: "Backend", JobTitle: "Go Engineer", DailyLimit: 10, MessageTemplate: "Campaign default"}
	require.NoError(t, store.Campaigns.Create(ctx, campaign))

	f := &outreachFixture{store: store, campaign: campaign}
	for _, name := range []string{"Ada", "Grace", "Linus"} {
		c := &model.Contact{FirstName: name}
		require.NoError(t, store.Contacts.Create(ctx, c))
		f.contactIDs = append(f.contactIDs, c.ID)
	}

	f.queue = queue.NewInMemoryQueue()
	f.queue.Logger = logger.Discard()
	require.NoError(t, f.queue.Subscribe(ctx, service.DefaultOutreachTopic, func(_ context.Context, d model.OutreachDelivery) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deliveries = append(f.deliveries, d)
		return nil
	}))

	f.dispatcher = &service.Dispatcher{
		Campaigns: store.Campaigns,
		Store:     store.Gateway(),
		Queue:     f.queue,
		Logger:    logger.Discard(),
		Now:       func() time.Time { return sentAt },
	}
	return f
}

func TestSendBatchIsolatesLinkFailure(t *testing.T) {
	for _, workers := range []int{1, 3} {
		ctx := context.Background()
		f := newOutreachFixture(t)
		f.dispatcher.Workers = workers
		f.dispatcher.Store = &linkFailGateway{ContactStoreGateway: f.store.Gateway(), failContactID: f.contactIDs[1]}

		result, err := f.dispatcher.SendBatch(ctx, service.BatchRequest{
			CampaignID: f.campaign.ID,
			ContactIDs: f.contactIDs,
			Template:   "Hi {{firstName}}, we are hiring a {{jobTitle}}",
		})
		require.NoError(t, err)
		require.NoError(t, f.queue.Close())

		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 2, result.Successful)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Results, 3)

		failed := result.Results[1]
		assert.Equal(t, f.contactIDs[1], failed.ContactID)
		assert.False(t, failed.Success)
		assert.Contains(t, failed.Error, "deadlock detected")

		for _, i := range []int{0, 2} {
			r := result.Results[i]
			assert.Equal(t, f.contactIDs[i], r.ContactID)
			assert.True(t, r.Success)
			assert.NotEmpty(t, r.MessageID)

			link, err := f.store.Links.GetByID(ctx, r.CampaignContactID)
			require.NoError(t, err)
			assert.Equal(t, model.LinkSent, link.Status)
			require.NotNil(t, link.SentAt)
			assert.True(t, sentAt.Equal(*link.SentAt))

			contact, err := f.store.Contacts.GetByID(ctx, r.ContactID)
			require.NoError(t, err)
			assert.Equal(t, model.ContactContacted, contact.Status)
		}

		untouched, err := f.store.Contacts.GetByID(ctx, f.contactIDs[1])
		require.NoError(t, err)
		assert.Equal(t, model.ContactNew, untouched.Status)

		msgs, err := f.store.Messages.ListByLink(ctx, result.Results[0].CampaignContactID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "Hi Ada, we are hiring a Go Engineer", msgs[0].Content)
		assert.Equal(t, model.Outbound, msgs[0].Direction)

		assert.Len(t, f.deliveries, 2)
	}
}

func TestSendBatchReusesExistingLink(t *testing.T) {
	ctx := context.Background()
	f := newOutreachFixture(t)

	existing, err := f.store.Links.Link(ctx, f.campaign.ID, f.contactIDs[0], model.LinkPending)
	require.NoError(t, err)

	result, err := f.dispatcher.SendBatch(ctx, service.BatchRequest{CampaignID: f.campaign.ID, ContactIDs: f.contactIDs[:1]})
	require.NoError(t, err)
	require.Equal(t, 1, result.Successful)
	assert.Equal(t, existing.ID, result.Results[0].CampaignContactID)

	msgs, err := f.store.Messages.ListByLink(ctx, existing.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Campaign default", msgs[0].Content)
}

func TestSendBatchToleratesLinkRace(t *testing.T) {
	ctx := context.Background()
	f := newOutreachFixture(t)

	existing, err := f.store.Links.Link(ctx, f.campaign.ID, f.contactIDs[0], model.LinkPending)
	require.NoError(t, err)
	f.dispatcher.Store = &racingGateway{ContactStoreGateway: f.store.Gateway()}

	result, err := f.dispatcher.SendBatch(ctx, service.BatchRequest{CampaignID: f.campaign.ID, ContactIDs: f.contactIDs[:1]})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, existing.ID, result.Results[0].CampaignContactID)

	stats, err := f.store.Links.Stats(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, map[model.LinkStatus]int{model.LinkSent: 1}, stats)
}

func TestSendBatchUnknownContactIsPerItemFailure(t *testing.T) {
	f := newOutreachFixture(t)

	result, err := f.dispatcher.SendBatch(context.Background(), service.BatchRequest{
		CampaignID: f.campaign.ID,
		ContactIDs: []string{f.contactIDs[0], "ghost"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Results[1].Error, "not found")
}

func TestSendBatchValidation(t *testing.T) {
	f := newOutreachFixture(t)
	var ve *appErrors.ValidationError

	_, err := f.dispatcher.SendBatch(context.Background(), service.BatchRequest{CampaignID: f.campaign.ID})
	assert.ErrorAs(t, err, &ve)

	_, err = f.dispatcher.SendBatch(context.Background(), service.BatchRequest{CampaignID: "missing", ContactIDs: f.contactIDs})
	assert.True(t, appErrors.IsNotFound(err))
}

func TestSendSingle(t *testing.T) {
	ctx := context.Background()
	f := newOutreachFixture(t)
	f.campaign.MessageTemplate = ""
	require.NoError(t, f.store.Campaigns.Update(ctx, f.campaign))

	res, err := f.dispatcher.Send(ctx, service.SendRequest{CampaignID: f.campaign.ID, ContactID: f.contactIDs[2], Stage: "follow_up"})
	require.NoError(t, err)
	assert.Equal(t, "Outreach message sent - Stage: follow_up", res.Content)

	again, err := f.dispatcher.Send(ctx, service.SendRequest{CampaignContactID: res.CampaignContactID, Template: "Ping {{name}}"})
	require.NoError(t, err)
	assert.Equal(t, res.CampaignContactID, again.CampaignContactID)
	assert.Equal(t, "Ping Linus", again.Content)

	msgs, err := f.store.Messages.ListByLink(ctx, res.CampaignContactID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	_, err = f.dispatcher.Send(ctx, service.SendRequest{CampaignID: f.campaign.ID})
	var ve *appErrors.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.dispatcher.Send(ctx, service.SendRequest{CampaignID: f.campaign.ID, ContactID: "ghost"})
	assert.True(t, appErrors.IsNotFound(err))
}
