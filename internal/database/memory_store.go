// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package database

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

// MemoryStore keeps everything in process memory. Values are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	organizations map[string]models.Organization
	projects      map[string]models.Project
	content       map[string]models.ContentItem
	contacts      map[string]models.MediaContact
	opportunities map[string]models.Opportunity
	runs          map[string]models.IntelligenceRun
	users         map[string]models.User // keyed by username
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		organizations: make(map[string]models.Organization),
		projects:      make(map[string]models.Project),
		content:       make(map[string]models.ContentItem),
		contacts:      make(map[string]models.MediaContact),
		opportunities: make(map[string]models.Opportunity),
		runs:          make(map[string]models.IntelligenceRun),
		users:         make(map[string]models.User),
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error               { return nil }

// page filters, sorts newest first and slices one page out of a map.
func page[T any](items map[string]T, keep func(T) bool, created func(T) time.Time, opts models.ListOptions) []T {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]T, 0, len(items))
	for _, id := range ids {
		if v := items[id]; keep(v) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return created(out[i]).After(created(out[j])) })
	return window(out, opts)
}

func window[T any](out []T, opts models.ListOptions) []T {
	if opts.Offset >= len(out) {
		return []T{}
	}
	out = out[opts.Offset:]
	if limit := normalizeLimit(opts.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matches(want, have string) bool { return want == "" || want == have }

// Organizations

func cloneOrganization(o models.Organization) models.Organization {
	o.Keywords = slices.Clone(stringsOrEmpty(o.Keywords))
	o.Competitors = slices.Clone(stringsOrEmpty(o.Competitors))
	return o
}

func (m *MemoryStore) CreateOrganization(_ context.Context, o *models.Organization) error {
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.organizations[o.ID]; exists {
		return ErrConflict
	}
	m.organizations[o.ID] = cloneOrganization(*o)
	return nil
}

func (m *MemoryStore) GetOrganization(_ context.Context, id string) (*models.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.organizations[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneOrganization(o)
	return &c, nil
}

func (m *MemoryStore) ListOrganizations(_ context.Context, opts models.ListOptions) ([]models.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := page(m.organizations,
		func(models.Organization) bool { return true },
		func(o models.Organization) time.Time { return o.CreatedAt }, opts)
	for i := range out {
		out[i] = cloneOrganization(out[i])
	}
	return out, nil
}

func (m *MemoryStore) UpdateOrganization(_ context.Context, o *models.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.organizations[o.ID]
	if !ok {
		return ErrNotFound
	}
	touch(&o.UpdatedAt)
	o.CreatedAt = cur.CreatedAt
	m.organizations[o.ID] = cloneOrganization(*o)
	return nil
}

func (m *MemoryStore) DeleteOrganization(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.organizations[id]; !ok {
		return ErrNotFound
	}
	delete(m.organizations, id)
	return nil
}

// Projects

func (m *MemoryStore) CreateProject(_ context.Context, p *models.Project) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListProjects(_ context.Context, opts models.ListOptions) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return page(m.projects,
		func(p models.Project) bool {
			return matches(opts.OrganizationID, p.OrganizationID) && matches(opts.Status, p.Status)
		},
		func(p models.Project) time.Time { return p.CreatedAt }, opts), nil
}

func (m *MemoryStore) UpdateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.projects[p.ID]
	if !ok {
		return ErrNotFound
	}
	touch(&p.UpdatedAt)
	p.CreatedAt, p.OrganizationID = cur.CreatedAt, cur.OrganizationID
	m.projects[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// Content items

func (m *MemoryStore) CreateContentItem(_ context.Context, c *models.ContentItem) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if c.Status == "" {
		c.Status = models.ContentDraft
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[c.ID] = *c
	return nil
}

func (m *MemoryStore) GetContentItem(_ context.Context, id string) (*models.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.content[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) ListContentItems(_ context.Context, opts models.ListOptions) ([]models.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return page(m.content,
		func(c models.ContentItem) bool {
			return matches(opts.OrganizationID, c.OrganizationID) && matches(opts.Status, c.Status)
		},
		func(c models.ContentItem) time.Time { return c.CreatedAt }, opts), nil
}

func (m *MemoryStore) UpdateContentItem(_ context.Context, c *models.ContentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.content[c.ID]
	if !ok {
		return ErrNotFound
	}
	touch(&c.UpdatedAt)
	c.CreatedAt, c.OrganizationID = cur.CreatedAt, cur.OrganizationID
	m.content[c.ID] = *c
	return nil
}

func (m *MemoryStore) DeleteContentItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.content[id]; !ok {
		return ErrNotFound
	}
	delete(m.content, id)
	return nil
}

// Media contacts

func (m *MemoryStore) CreateMediaContact(_ context.Context, c *models.MediaContact) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[c.ID] = *c
	return nil
}

func (m *MemoryStore) GetMediaContact(_ context.Context, id string) (*models.MediaContact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) ListMediaContacts(_ context.Context, opts models.ListOptions) ([]models.MediaContact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return page(m.contacts,
		func(c models.MediaContact) bool { return matches(opts.OrganizationID, c.OrganizationID) },
		func(c models.MediaContact) time.Time { return c.CreatedAt }, opts), nil
}

func (m *MemoryStore) UpdateMediaContact(_ context.Context, c *models.MediaContact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.contacts[c.ID]
	if !ok {
		return ErrNotFound
	}
	touch(&c.UpdatedAt)
	c.CreatedAt, c.OrganizationID = cur.CreatedAt, cur.OrganizationID
	m.contacts[c.ID] = *c
	return nil
}

func (m *MemoryStore) DeleteMediaContact(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

// Opportunities

func cloneOpportunity(o models.Opportunity) models.Opportunity {
	o.MatchedRules = slices.Clone(o.MatchedRules)
	return o
}

func (m *MemoryStore) CreateOpportunity(_ context.Context, o *models.Opportunity) error {
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if o.Status == "" {
		o.Status = models.OpportunityOpen
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opportunities[o.ID] = cloneOpportunity(*o)
	return nil
}

func (m *MemoryStore) GetOpportunity(_ context.Context, id string) (*models.Opportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.opportunities[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneOpportunity(o)
	return &c, nil
}

func (m *MemoryStore) ListOpportunities(_ context.Context, opts models.ListOptions) ([]models.Opportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Opportunity, 0)
	for _, o := range m.opportunities {
		if matches(opts.OrganizationID, o.OrganizationID) && matches(opts.Status, o.Status) {
			out = append(out, cloneOpportunity(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return window(out, opts), nil
}

func (m *MemoryStore) UpdateOpportunity(_ context.Context, o *models.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.opportunities[o.ID]
	if !ok {
		return ErrNotFound
	}
	touch(&o.UpdatedAt)
	o.CreatedAt, o.OrganizationID, o.RunID = cur.CreatedAt, cur.OrganizationID, cur.RunID
	o.Source, o.SourceURL = cur.Source, cur.SourceURL
	m.opportunities[o.ID] = cloneOpportunity(*o)
	return nil
}

func (m *MemoryStore) DeleteOpportunity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.opportunities[id]; !ok {
		return ErrNotFound
	}
	delete(m.opportunities, id)
	return nil
}

func (m *MemoryStore) UpsertOpportunities(_ context.Context, opps []models.Opportunity) ([]models.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Opportunity, 0, len(opps))
	for _, o := range opps {
		if existing, ok := m.findOpenLocked(o.OrganizationID, o.SourceURL); ok {
			o.ID, o.CreatedAt, o.Status = existing.ID, existing.CreatedAt, models.OpportunityOpen
			touch(&o.UpdatedAt)
		} else {
			stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
			if o.Status == "" {
				o.Status = models.OpportunityOpen
			}
		}
		m.opportunities[o.ID] = cloneOpportunity(o)
		out = append(out, cloneOpportunity(o))
	}
	return out, nil
}

func (m *MemoryStore) findOpenLocked(orgID, url string) (models.Opportunity, bool) {
	if url == "" {
		return models.Opportunity{}, false
	}
	for _, o := range m.opportunities {
		if o.OrganizationID == orgID && o.SourceURL == url && o.Status == models.OpportunityOpen {
			return o, true
		}
	}
	return models.Opportunity{}, false
}

// Runs

func cloneRun(r models.IntelligenceRun) models.IntelligenceRun {
	r.Sources = slices.Clone(r.Sources)
	r.Findings = slices.Clone(r.Findings)
	r.Errors = slices.Clone(r.Errors)
	if r.Synthesis != nil {
		s := *r.Synthesis
		s.KeyThemes = slices.Clone(s.KeyThemes)
		s.Recommendations = slices.Clone(s.Recommendations)
		s.Risks = slices.Clone(s.Risks)
		r.Synthesis = &s
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		r.CompletedAt = &t
	}
	return r
}

func (m *MemoryStore) CreateRun(_ context.Context, r *models.IntelligenceRun) error {
	var ignored time.Time
	stamp(&r.ID, &r.StartedAt, &ignored)
	if r.Status == "" {
		r.Status = models.RunPending
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = cloneRun(*r)
	return nil
}

func (m *MemoryStore) UpdateRun(_ context.Context, r *models.IntelligenceRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.runs[r.ID]
	if !ok {
		return ErrNotFound
	}
	r.StartedAt, r.OrganizationID, r.Kind = cur.StartedAt, cur.OrganizationID, cur.Kind
	m.runs[r.ID] = cloneRun(*r)
	return nil
}

func (m *MemoryStore) GetRun(_ context.Context, id string) (*models.IntelligenceRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneRun(r)
	return &c, nil
}

func (m *MemoryStore) ListRuns(_ context.Context, opts models.ListOptions) ([]models.IntelligenceRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := page(m.runs,
		func(r models.IntelligenceRun) bool {
			return matches(opts.OrganizationID, r.OrganizationID) && matches(opts.Status, r.Status)
		},
		func(r models.IntelligenceRun) time.Time { return r.StartedAt }, opts)
	for i := range out {
		out[i] = cloneRun(out[i])
	}
	return out, nil
}

// Users

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.Username]; exists {
		return ErrConflict
	}
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	m.users[u.Username] = *u
	return nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
