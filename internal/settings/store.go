package settings

import (
	"context"
	"sync"
)

// Store holds the most recently loaded settings for the running process.
// Until the first Load completes it serves Defaults.
type Store struct {
	svc *Service

	mu      sync.RWMutex
	current SiteSettings
	loaded  bool
	loading bool
	onLoad  []func(SiteSettings)
}

// NewStore creates a Store backed by svc.
func NewStore(svc *Service) *Store {
	return &Store{svc: svc, current: Defaults()}
}

// OnLoad registers fn to run after every completed load.
func (st *Store) OnLoad(fn func(SiteSettings)) {
	st.mu.Lock()
	st.onLoad = append(st.onLoad, fn)
	st.mu.Unlock()
}

// Load fetches settings through the service. A Load that starts while
// another is running returns immediately without fetching.
func (st *Store) Load(ctx context.Context) {
	st.mu.Lock()
	if st.loading {
		st.mu.Unlock()
		return
	}
	st.loading = true
	st.mu.Unlock()

	s := st.svc.Settings(ctx)

	st.mu.Lock()
	st.current = s
	st.loaded = true
	st.loading = false
	callbacks := append([]func(SiteSettings){}, st.onLoad...)
	st.mu.Unlock()

	for _, fn := range callbacks {
		fn(s)
	}
}

// Refresh clears the service caches and loads again.
func (st *Store) Refresh(ctx context.Context) {
	st.svc.Clear()
	st.mu.Lock()
	st.loaded = false
	st.mu.Unlock()
	st.Load(ctx)
}

// Current returns the last loaded settings.
func (st *Store) Current() SiteSettings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Loaded reports whether a load has completed since the last refresh.
func (st *Store) Loaded() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loaded
}

// Loading reports whether a load is in progress.
func (st *Store) Loading() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loading
}
