package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
	"github.com/unclebandit/talentreach-backend/internal/model"
)

type linkKey struct {
	campaignID string
	contactID  string
}

// MemoryStore keeps every table in process memory and enforces the same
// uniqueness rules as the Postgres schema: a non-empty linkedin_url is
// unique across contacts and (campaign_id, contact_id) is unique across
// links. Values are copied on the way in and out.
type MemoryStore struct {
	mu  sync.RWMutex
	seq int64

	order     map[string]int64
	campaigns map[string]model.Campaign
	contacts  map[string]model.Contact
	byURL     map[string]string
	runs      map[string]model.Run
	links     map[string]model.CampaignContact
	byPair    map[linkKey]string
	messages  map[string]model.Message
	leads     map[string]model.Lead

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		order:     map[string]int64{},
		campaigns: map[string]model.Campaign{},
		contacts:  map[string]model.Contact{},
		byURL:     map[string]string{},
		runs:      map[string]model.Run{},
		links:     map[string]model.CampaignContact{},
		byPair:    map[linkKey]string{},
		messages:  map[string]model.Message{},
		leads:     map[string]model.Lead{},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Store exposes the memory tables through the repository interfaces.
func (m *MemoryStore) Store() *Store {
	return &Store{
		Campaigns: m.Campaigns(),
		Contacts:  m.Contacts(),
		Runs:      m.Runs(),
		Links:     m.Links(),
		Messages:  m.Messages(),
		Leads:     m.Leads(),
	}
}

func (m *MemoryStore) Campaigns() CampaignRepositoryInterface { return &memCampaigns{m} }
func (m *MemoryStore) Contacts() ContactRepositoryInterface { return &memContacts{m} }
func (m *MemoryStore) Runs() RunRepositoryInterface { return &memRuns{m} }
func (m *MemoryStore) Links() CampaignContactRepositoryInterface { return &memLinks{m} }
func (m *MemoryStore) Messages() MessageRepositoryInterface { return &memMessages{m} }
func (m *MemoryStore) Leads() LeadRepositoryInterface { return &memLeads{m} }

// track must be called with mu held.
func (m *MemoryStore) track(id string) {
	m.seq++
	m.order[id] = m.seq
}

// newestFirst orders by created_at desc, then insertion order desc.
func (m *MemoryStore) newestFirst(ids []string, created func(string) time.Time) {
	sort.Slice(ids, func(i, j int) bool {
		ci, cj := created(ids[i]), created(ids[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return m.order[ids[i]] > m.order[ids[j]]
	})
}

func conflict(op, what string) error {
	return appErrors.NewStoreError(op, fmt.Errorf("%w: %s", appErrors.ErrConflict, what))
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ====================== campaigns ======================

type memCampaigns struct{ m *MemoryStore }

func (r *memCampaigns) Create(_ context.Context, c *model.Campaign) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, ok := r.m.campaigns[c.ID]; ok {
		return conflict("create campaign", "campaigns_pkey")
	}
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	now := r.m.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.m.campaigns[c.ID] = *c
	r.m.track(c.ID)
	return nil
}

func (r *memCampaigns) Update(_ context.Context, c *model.Campaign) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	existing, ok := r.m.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.m.now()
	r.m.campaigns[c.ID] = *c
	return nil
}

func (r *memCampaigns) UpdateStatus(_ context.Context, campaignID string, status model.CampaignStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = status
	c.UpdatedAt = r.m.now()
	r.m.campaigns[campaignID] = c
	return nil
}

func (r *memCampaigns) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	c, ok := r.m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return &c, nil
}

func (r *memCampaigns) ListCampaigns(_ context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	ids := []string{}
	for id, c := range r.m.campaigns {
		if status == "" || string(c.Status) == status {
			ids = append(ids, id)
		}
	}
	r.m.newestFirst(ids, func(id string) time.Time { return r.m.campaigns[id].CreatedAt })

	out := []*model.Campaign{}
	for _, id := range page(ids, offset, limit) {
		c := r.m.campaigns[id]
		out = append(out, &c)
	}
	return out, len(ids), nil
}

func (r *memCampaigns) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(r.m.campaigns, id)
	return nil
}

// ====================== contacts ======================

type memContacts struct{ m *MemoryStore }

func cloneContact(c model.Contact) *model.Contact {
	if c.FromLeadID != nil {
		id := *c.FromLeadID
		c.FromLeadID = &id
	}
	return &c
}

func (r *memContacts) stamp(c *model.Contact) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.ContactNew
	}
	if c.Source == "" {
		c.Source = model.SourceManual
	}
	now := r.m.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

// insert must be called with mu held.
func (r *memContacts) insert(op string, c *model.Contact) error {
	if _, ok := r.m.contacts[c.ID]; ok {
		return conflict(op, "contacts_pkey")
	}
	if c.LinkedInURL != "" {
		if _, ok := r.m.byURL[c.LinkedInURL]; ok {
			return conflict(op, "contacts_linkedin_url_key")
		}
		r.m.byURL[c.LinkedInURL] = c.ID
	}
	r.m.contacts[c.ID] = *cloneContact(*c)
	r.m.track(c.ID)
	return nil
}

func (r *memContacts) Create(_ context.Context, c *model.Contact) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.stamp(c)
	return r.insert("create contact", c)
}

func (r *memContacts) Upsert(_ context.Context, c *model.Contact) (*model.Contact, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.stamp(c)
	if c.LinkedInURL != "" {
		if id, ok := r.m.byURL[c.LinkedInURL]; ok {
			existing := r.m.contacts[id]
			stored := *cloneContact(*c)
			stored.ID = existing.ID
			stored.CreatedAt = existing.CreatedAt
			r.m.contacts[id] = stored
			return cloneContact(stored), nil
		}
	}
	if err := r.insert("upsert contact", c); err != nil {
		return nil, err
	}
	return cloneContact(r.m.contacts[c.ID]), nil
}

func (r *memContacts) GetByID(_ context.Context, id string) (*model.Contact, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	c, ok := r.m.contacts[id]
	if !ok {
		return nil, appErrors.NewNotFound("contact", id)
	}
	return cloneContact(c), nil
}

func (r *memContacts) List(_ context.Context, f ContactFilter) ([]*model.Contact, error) {
	return r.filter(f.Limit, func(c model.Contact) bool {
		return (f.Status == "" || c.Status == f.Status) && (f.Source == "" || c.Source == f.Source)
	}), nil
}

func (r *memContacts) Search(_ context.Context, term string, limit int) ([]*model.Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	needle := strings.ToLower(term)
	return r.filter(limit, func(c model.Contact) bool {
		for _, field := range []string{c.FirstName, c.LastName, c.Email, c.Phone, c.Company} {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		return false
	}), nil
}

func (r *memContacts) filter(limit int, keep func(model.Contact) bool) []*model.Contact {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	ids := []string{}
	for id, c := range r.m.contacts {
		if keep(c) {
			ids = append(ids, id)
		}
	}
	r.m.newestFirst(ids, func(id string) time.Time { return r.m.contacts[id].CreatedAt })

	out := []*model.Contact{}
	for _, id := range page(ids, 0, limit) {
		out = append(out, cloneContact(r.m.contacts[id]))
	}
	return out
}

func (r *memContacts) Update(_ context.Context, c *model.Contact) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	existing, ok := r.m.contacts[c.ID]
	if !ok {
		return appErrors.NewNotFound("contact", c.ID)
	}
	if c.LinkedInURL != existing.LinkedInURL {
		if owner, taken := r.m.byURL[c.LinkedInURL]; taken && c.LinkedInURL != "" && owner != c.ID {
			return conflict("update contact", "contacts_linkedin_url_key")
		}
		delete(r.m.byURL, existing.LinkedInURL)
		if c.LinkedInURL != "" {
			r.m.byURL[c.LinkedInURL] = c.ID
		}
	}
	c.CreatedAt = existing.CreatedAt
	c.FromLeadID = existing.FromLeadID
	c.UpdatedAt = r.m.now()
	r.m.contacts[c.ID] = *cloneContact(*c)
	return nil
}

func (r *memContacts) UpdateStatus(_ context.Context, id string, status model.ContactStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.contacts[id]
	if !ok {
		return appErrors.NewNotFound("contact", id)
	}
	c.Status = status
	c.UpdatedAt = r.m.now()
	r.m.contacts[id] = c
	return nil
}

func (r *memContacts) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.contacts[id]
	if !ok {
		return appErrors.NewNotFound("contact", id)
	}
	if c.LinkedInURL != "" {
		delete(r.m.byURL, c.LinkedInURL)
	}
	delete(r.m.contacts, id)
	return nil
}

// ====================== runs ======================

type memRuns struct{ m *MemoryStore }

func cloneRun(run model.Run) *model.Run {
	if run.OutputData != nil {
		run.OutputData = append([]byte(nil), run.OutputData...)
	}
	return &run
}

func (r *memRuns) Create(_ context.Context, run *model.Run) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if _, ok := r.m.runs[run.ID]; ok {
		return conflict("create run", "phantom_runs_pkey")
	}
	if run.Status == "" {
		run.Status = model.RunRunning
	}
	now := r.m.now()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	run.CreatedAt = now
	r.m.runs[run.ID] = *cloneRun(*run)
	r.m.track(run.ID)
	return nil
}

func (r *memRuns) GetByID(_ context.Context, id string) (*model.Run, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	run, ok := r.m.runs[id]
	if !ok {
		return nil, appErrors.NewNotFound("run", id)
	}
	return cloneRun(run), nil
}

// mutable must be called with mu held.
func (r *memRuns) mutable(id string) (model.Run, error) {
	run, ok := r.m.runs[id]
	if !ok {
		return run, appErrors.NewNotFound("run", id)
	}
	if run.Status.Terminal() {
		return run, appErrors.ErrRunFinished
	}
	return run, nil
}

func (r *memRuns) UpdateStatus(_ context.Context, id string, status model.RunStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	run, err := r.mutable(id)
	if err != nil {
		return err
	}
	run.Status = status
	r.m.runs[id] = run
	return nil
}

func (r *memRuns) Finalize(_ context.Context, id string, f RunFinalization) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	run, err := r.mutable(id)
	if err != nil {
		return err
	}
	completed := f.CompletedAt
	run.Status = f.Status
	run.OutputData = append([]byte(nil), f.Output...)
	run.ContactsFound = f.ContactsFound
	run.CompletedAt = &completed
	r.m.runs[id] = run
	return nil
}

func (r *memRuns) FindActive(_ context.Context, campaignID string) (*model.Run, error) {
	runs := r.list(1, func(run model.Run) bool {
		return run.CampaignID == campaignID && !run.Status.Terminal()
	})
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

func (r *memRuns) ListByCampaign(_ context.Context, campaignID string, limit int) ([]*model.Run, error) {
	return r.list(defaultLimit(limit), func(run model.Run) bool { return run.CampaignID == campaignID }), nil
}

func (r *memRuns) ListRecent(_ context.Context, limit int) ([]*model.Run, error) {
	return r.list(defaultLimit(limit), func(model.Run) bool { return true }), nil
}

func (r *memRuns) list(limit int, keep func(model.Run) bool) []*model.Run {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	ids := []string{}
	for id, run := range r.m.runs {
		if keep(run) {
			ids = append(ids, id)
		}
	}
	r.m.newestFirst(ids, func(id string) time.Time { return r.m.runs[id].CreatedAt })

	out := []*model.Run{}
	for _, id := range page(ids, 0, limit) {
		out = append(out, cloneRun(r.m.runs[id]))
	}
	return out
}

// ====================== campaign contacts ======================

type memLinks struct{ m *MemoryStore }

// insert must be called with mu held.
func (r *memLinks) insert(campaignID, contactID string, status model.LinkStatus) model.CampaignContact {
	cc := model.CampaignContact{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		ContactID:  contactID,
		Status:     status,
		CreatedAt:  r.m.now(),
	}
	r.m.links[cc.ID] = cc
	r.m.byPair[linkKey{campaignID, contactID}] = cc.ID
	r.m.track(cc.ID)
	return cc
}

func (r *memLinks) Link(_ context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if id, ok := r.m.byPair[linkKey{campaignID, contactID}]; ok {
		cc := r.m.links[id]
		return &cc, nil
	}
	cc := r.insert(campaignID, contactID, status)
	return &cc, nil
}

func (r *memLinks) Find(_ context.Context, campaignID, contactID string) (*model.CampaignContact, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	id, ok := r.m.byPair[linkKey{campaignID, contactID}]
	if !ok {
		return nil, nil
	}
	cc := r.m.links[id]
	return &cc, nil
}

func (r *memLinks) GetByID(_ context.Context, id string) (*model.CampaignContact, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	cc, ok := r.m.links[id]
	if !ok {
		return nil, appErrors.NewNotFound("campaign contact", id)
	}
	return &cc, nil
}

func (r *memLinks) Insert(_ context.Context, campaignID, contactID string, status model.LinkStatus) (*model.CampaignContact, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.byPair[linkKey{campaignID, contactID}]; ok {
		return nil, conflict("create campaign contact", "campaign_contacts_campaign_id_contact_id_key")
	}
	cc := r.insert(campaignID, contactID, status)
	return &cc, nil
}

func (r *memLinks) UpdateStatus(_ context.Context, id string, status model.LinkStatus, sentAt *time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	cc, ok := r.m.links[id]
	if !ok {
		return appErrors.NewNotFound("campaign contact", id)
	}
	cc.Status = status
	if sentAt != nil {
		t := *sentAt
		cc.SentAt = &t
	}
	r.m.links[id] = cc
	return nil
}

func (r *memLinks) Stats(_ context.Context, campaignID string) (map[model.LinkStatus]int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	stats := map[model.LinkStatus]int{}
	for _, cc := range r.m.links {
		if cc.CampaignID == campaignID {
			stats[cc.Status]++
		}
	}
	return stats, nil
}

// ====================== messages ======================

type memMessages struct{ m *MemoryStore }

func (r *memMessages) Record(_ context.Context, msg *model.Message) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.links[msg.CampaignContactID]; !ok {
		return appErrors.NewStoreError("record message", fmt.Errorf("campaign contact %s does not exist", msg.CampaignContactID))
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if _, ok := r.m.messages[msg.ID]; ok {
		return conflict("record message", "messages_pkey")
	}
	now := r.m.now()
	if msg.SentAt.IsZero() {
		msg.SentAt = now
	}
	msg.CreatedAt = now
	r.m.messages[msg.ID] = *msg
	r.m.track(msg.ID)
	return nil
}

func (r *memMessages) ListByLink(_ context.Context, campaignContactID string) ([]*model.Message, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	ids := []string{}
	for id, msg := range r.m.messages {
		if msg.CampaignContactID == campaignContactID {
			ids = append(ids, id)
		}
	}
	r.m.newestFirst(ids, func(id string) time.Time { return r.m.messages[id].SentAt })

	out := []*model.Message{}
	for _, id := range ids {
		msg := r.m.messages[id]
		out = append(out, &msg)
	}
	return out, nil
}

// ====================== leads ======================

type memLeads struct{ m *MemoryStore }

func (r *memLeads) Create(_ context.Context, l *model.Lead) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if _, ok := r.m.leads[l.ID]; ok {
		return conflict("create lead", "leads_pkey")
	}
	if l.Status == "" {
		l.Status = model.LeadNew
	}
	now := r.m.now()
	l.CreatedAt, l.UpdatedAt = now, now
	r.m.leads[l.ID] = *l
	r.m.track(l.ID)
	return nil
}

func (r *memLeads) GetByID(_ context.Context, id string) (*model.Lead, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	l, ok := r.m.leads[id]
	if !ok {
		return nil, appErrors.NewNotFound("lead", id)
	}
	return &l, nil
}

func (r *memLeads) List(_ context.Context, status model.LeadStatus) ([]*model.Lead, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	ids := []string{}
	for id, l := range r.m.leads {
		if status == "" || l.Status == status {
			ids = append(ids, id)
		}
	}
	r.m.newestFirst(ids, func(id string) time.Time { return r.m.leads[id].CreatedAt })

	out := []*model.Lead{}
	for _, id := range ids {
		l := r.m.leads[id]
		out = append(out, &l)
	}
	return out, nil
}

func (r *memLeads) UpdateStatus(_ context.Context, id string, status model.LeadStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	l, ok := r.m.leads[id]
	if !ok {
		return appErrors.NewNotFound("lead", id)
	}
	l.Status = status
	l.UpdatedAt = r.m.now()
	r.m.leads[id] = l
	return nil
}

// Delete clears from_lead_id on contacts converted from the lead.
func (r *memLeads) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.leads[id]; !ok {
		return appErrors.NewNotFound("lead", id)
	}
	delete(r.m.leads, id)
	for cid, c := range r.m.contacts {
		if c.FromLeadID != nil && *c.FromLeadID == id {
			c.FromLeadID = nil
			r.m.contacts[cid] = c
		}
	}
	return nil
}
