package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/pageza/recipehome/internal/session"
)

const (
	// DefaultMaxViews bounds the number of registered sessions
	DefaultMaxViews = 1000
	// DefaultIdleTTL is how long an unused session view is kept
	DefaultIdleTTL = 30 * time.Minute
)

type viewEntry struct {
	view     *Synchronizer
	lastUsed time.Time
}

// Views keeps one Synchronizer per signed-in credential so writes on the
// same recipe share their pending markers. Anonymous visitors get a fresh,
// unregistered view on every call. Idle views expire and the least recently
// used view is evicted once the registry is full.
type Views struct {
	api      RecipeAPI
	logger   *log.Logger
	maxViews int
	idleTTL  time.Duration
	now      func() time.Time

	mu    sync.Mutex
	views map[string]*viewEntry
}

// NewViews creates an empty registry with the default limits
func NewViews(api RecipeAPI, logger *log.Logger) *Views {
	return NewViewsWithLimits(api, logger, DefaultMaxViews, DefaultIdleTTL)
}

// NewViewsWithLimits creates an empty registry holding at most maxViews
// views, each dropped after idleTTL without use
func NewViewsWithLimits(api RecipeAPI, logger *log.Logger, maxViews int, idleTTL time.Duration) *Views {
	if logger == nil {
		logger = log.Default()
	}
	if maxViews <= 0 {
		maxViews = DefaultMaxViews
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Views{
		api:      api,
		logger:   logger,
		maxViews: maxViews,
		idleTTL:  idleTTL,
		now:      time.Now,
		views:    make(map[string]*viewEntry),
	}
}

// Get returns the view for sess after fetching recipes and favorites again,
// so every page render sees the current server state. The returned error is
// the result of that load; the view is usable either way.
func (v *Views) Get(ctx context.Context, sess session.Reader) (*Synchronizer, error) {
	// the load outlives the request that triggered it
	ctx = context.WithoutCancel(ctx)

	if !sess.HasSession() {
		view := NewSynchronizer(v.api, sess, v.logger)
		return view, view.Mount(ctx)
	}

	view := v.lookup(sess)
	err := view.Reload(ctx)
	v.dropRejected(sess.Credential(), view, err)
	return view, err
}

// Acquire returns the view for sess for a write. It only loads when the
// view has never loaded successfully.
func (v *Views) Acquire(ctx context.Context, sess session.Reader) (*Synchronizer, error) {
	ctx = context.WithoutCancel(ctx)

	if !sess.HasSession() {
		view := NewSynchronizer(v.api, sess, v.logger)
		return view, view.Mount(ctx)
	}

	view := v.lookup(sess)
	err := view.Mount(ctx)
	v.dropRejected(sess.Credential(), view, err)
	return view, err
}

// Unmount drops and unmounts the view of credential
func (v *Views) Unmount(credential string) {
	v.mu.Lock()
	e, ok := v.views[credential]
	delete(v.views, credential)
	v.mu.Unlock()

	if ok {
		e.view.Unmount()
	}
}

// Sweep drops every view idle for longer than the TTL and returns how many
// were dropped
func (v *Views) Sweep() int {
	v.mu.Lock()
	expired := v.expireLocked(v.now())
	v.mu.Unlock()

	for _, view := range expired {
		view.Unmount()
	}
	return len(expired)
}

// Len returns the number of registered views
func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}

// Close unmounts every registered view
func (v *Views) Close() {
	v.mu.Lock()
	views := v.views
	v.views = make(map[string]*viewEntry)
	v.mu.Unlock()

	for _, e := range views {
		e.view.Unmount()
	}
}

// lookup returns the registered view of sess, registering a new one and
// making room for it when needed
func (v *Views) lookup(sess session.Reader) *Synchronizer {
	now := v.now()
	credential := sess.Credential()

	v.mu.Lock()
	dropped := v.expireLocked(now)
	e, ok := v.views[credential]
	if !ok {
		for len(v.views) >= v.maxViews {
			dropped = append(dropped, v.evictLocked())
		}
		e = &viewEntry{view: NewSynchronizer(v.api, sess, v.logger)}
		v.views[credential] = e
	}
	e.lastUsed = now
	v.mu.Unlock()

	for _, view := range dropped {
		view.Unmount()
	}
	return e.view
}

// expireLocked removes idle views without writes in flight
func (v *Views) expireLocked(now time.Time) []*Synchronizer {
	var expired []*Synchronizer
	for credential, e := range v.views {
		if now.Sub(e.lastUsed) > v.idleTTL && !e.view.Busy() {
			delete(v.views, credential)
			expired = append(expired, e.view)
		}
	}
	return expired
}

// evictLocked removes the least recently used view, preferring idle ones
func (v *Views) evictLocked() *Synchronizer {
	var victim string
	var oldest *viewEntry
	for credential, e := range v.views {
		better := oldest == nil ||
			(oldest.view.Busy() && !e.view.Busy()) ||
			(oldest.view.Busy() == e.view.Busy() && e.lastUsed.Before(oldest.lastUsed))
		if better {
			victim, oldest = credential, e
		}
	}
	delete(v.views, victim)
	return oldest.view
}

// dropRejected unregisters view when the API refused its credential
func (v *Views) dropRejected(credential string, view *Synchronizer, err error) {
	var rejected interface{ Unauthorized() bool }
	if err == nil || !errors.As(err, &rejected) || !rejected.Unauthorized() {
		return
	}

	v.mu.Lock()
	if e, ok := v.views[credential]; ok && e.view == view {
		delete(v.views, credential)
	}
	v.mu.Unlock()

	v.logger.Printf("dropping view: credential rejected: %v", err)
	view.Unmount()
}
