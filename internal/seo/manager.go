package seo

import (
	"log/slog"
	"sync"
)

// Manager owns a head and the base snapshot a page was opened with.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	head     Head
	base     Snapshot
	location string
	logger   *slog.Logger
}

// NewManager creates a manager for head. The base is defaults merged with
// the page's own overrides; later updates are applied on top of it.
func NewManager(head Head, defaults, page Snapshot, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{head: head, base: Merge(defaults, page), logger: logger}
}

// Head returns the managed head.
func (m *Manager) Head() Head {
	return m.head
}

// Base returns the snapshot updates are merged onto.
func (m *Manager) Base() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.base
}

// Update reconciles the head with base merged with overrides. The overrides
// are not remembered. When no URL is set the current location is used.
func (m *Manager) Update(overrides Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcile(Merge(m.base, overrides))
}

// Navigate records a new location and refreshes the location-dependent
// fields; everything else comes from the base.
func (m *Manager) Navigate(location string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.location = location
	m.reconcile(Merge(m.base, Snapshot{URL: location}))
}

func (m *Manager) reconcile(s Snapshot) {
	if s.URL == "" {
		s.URL = m.location
	}
	Reconcile(m.head, s)
}

// SetTitle sets the document title.
func (m *Manager) SetTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head.SetTitle(title)
}

// SetMeta sets a single meta element.
func (m *Manager) SetMeta(name, content string, property bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	SetMeta(m.head, name, content, property)
}

// RemoveMeta removes a single meta element.
func (m *Manager) RemoveMeta(name string, property bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	RemoveMeta(m.head, name, property)
}

// SetLink sets a single link element.
func (m *Manager) SetLink(rel, href string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	SetLink(m.head, rel, href)
}

// SetStructuredData replaces the JSON-LD block. Encoding failures are logged
// and leave the head unchanged.
func (m *Manager) SetStructuredData(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := SetStructuredData(m.head, v); err != nil {
		m.logger.Warn("structured data skipped", "error", err)
	}
}
