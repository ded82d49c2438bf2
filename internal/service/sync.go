package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pageza/recipehome/internal/session"
	"github.com/pageza/recipehome/internal/store"
	"github.com/pageza/recipehome/internal/types"
)

var (
	// ErrAuthMissing is returned by writes attempted without a credential
	ErrAuthMissing = errors.New("sign-in required")
	// ErrOperationPending is returned when a write for the same recipe is in flight
	ErrOperationPending = errors.New("operation already in flight for recipe")
	// ErrUnmounted is returned when the view was unmounted before the call resolved
	ErrUnmounted = errors.New("view unmounted")
)

// Synchronizer keeps a local recipe list and favorite set consistent with the
// remote API for one session. Local state only changes after the remote call
// it depends on has succeeded.
type Synchronizer struct {
	api     RecipeAPI
	session session.Reader
	store   *store.Store
	logger  *log.Logger

	mountCtx context.Context
	unmount  context.CancelFunc

	// loadMu serializes loads; loaded is set after the first clean load
	loadMu sync.Mutex
	loaded bool
}

// NewSynchronizer creates an unmounted synchronizer for sess
func NewSynchronizer(api RecipeAPI, sess session.Reader, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		api:      api,
		session:  sess,
		store:    store.New(),
		logger:   logger,
		mountCtx: ctx,
		unmount:  cancel,
	}
}

// Mount loads the recipes and favorites unless a previous load succeeded.
// A failed load is retried by the next call.
func (s *Synchronizer) Mount(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded {
		return nil
	}
	return s.load(ctx)
}

// Reload fetches the recipes and favorites again regardless of earlier loads
func (s *Synchronizer) Reload(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.load(ctx)
}

func (s *Synchronizer) load(ctx context.Context) error {
	_, _, err := s.LoadAll(ctx)
	if err == nil {
		s.loaded = true
	}
	return err
}

// Unmount cancels in-flight remote calls; their results are discarded
func (s *Synchronizer) Unmount() {
	s.unmount()
}

// Mounted reports whether the view is still live
func (s *Synchronizer) Mounted() bool {
	return s.mountCtx.Err() == nil
}

// LoadAll fetches the recipe collection and the user's favorites
// concurrently. A failed read is logged and leaves its part of the state
// untouched; the first failure is returned. Results are dropped when a
// favorite or delete started or finished while they were in flight.
func (s *Synchronizer) LoadAll(ctx context.Context) ([]types.Recipe, store.FavoriteSet, error) {
	if !s.Mounted() {
		st := s.store.Snapshot()
		return st.Recipes, st.Favorites, ErrUnmounted
	}
	ctx, done := s.scoped(ctx)
	defer done()

	credential := s.session.Credential()
	version := s.store.Version()

	var g errgroup.Group
	g.Go(func() error {
		recipes, err := s.api.GetAllRecipes(ctx, credential)
		if err != nil {
			s.logger.Printf("load recipes: %v", err)
			return fmt.Errorf("load recipes: %w", err)
		}
		return s.commitLoad(version, func(st store.State) store.State {
			return store.LoadRecipes(st, recipes)
		})
	})
	g.Go(func() error {
		if !s.session.HasSession() {
			return nil
		}
		userID, err := s.session.UserID()
		if err != nil {
			s.logger.Printf("load favorites: %v", err)
			return fmt.Errorf("load favorites: %w", err)
		}
		ids, err := s.api.FavoriteRecipes(ctx, credential, userID)
		if err != nil {
			s.logger.Printf("load favorites for user %s: %v", userID, err)
			return fmt.Errorf("load favorites: %w", err)
		}
		return s.commitLoad(version, func(st store.State) store.State {
			return store.LoadFavorites(st, store.NewFavoriteSet(ids...))
		})
	})
	err := g.Wait()

	st := s.store.Snapshot()
	return st.Recipes, st.Favorites, err
}

// Toggle flips the favorite membership of recipeID. The remote write is
// awaited before the local set changes; on failure the set is left as is.
func (s *Synchronizer) Toggle(ctx context.Context, recipeID string) error {
	if !s.session.HasSession() {
		return ErrAuthMissing
	}
	if !s.Mounted() {
		return ErrUnmounted
	}
	if !s.store.Begin(recipeID) {
		return ErrOperationPending
	}
	defer s.store.End(recipeID)

	ctx, done := s.scoped(ctx)
	defer done()

	credential := s.session.Credential()
	favorite := s.store.Snapshot().Favorites.Has(recipeID)

	var err error
	if favorite {
		err = s.api.RemoveFavorite(ctx, credential, recipeID)
	} else {
		err = s.api.AddFavorite(ctx, credential, recipeID)
	}
	if err != nil {
		s.logger.Printf("toggle favorite %s: %v", recipeID, err)
		return fmt.Errorf("toggle favorite %s: %w", recipeID, err)
	}

	return s.commit(func(st store.State) store.State {
		return store.ToggleFavorite(st, recipeID, !favorite)
	})
}

// Delete removes recipeID remotely, then re-fetches the whole collection.
// Nothing is re-fetched when the delete fails.
func (s *Synchronizer) Delete(ctx context.Context, recipeID string) error {
	if !s.session.HasSession() {
		return ErrAuthMissing
	}
	if !s.Mounted() {
		return ErrUnmounted
	}
	if !s.store.Begin(recipeID) {
		return ErrOperationPending
	}
	defer s.store.End(recipeID)

	ctx, done := s.scoped(ctx)
	defer done()

	credential := s.session.Credential()
	if err := s.api.DeleteRecipe(ctx, credential, recipeID); err != nil {
		s.logger.Printf("delete recipe %s: %v", recipeID, err)
		return fmt.Errorf("delete recipe %s: %w", recipeID, err)
	}

	recipes, err := s.api.GetAllRecipes(ctx, credential)
	if err != nil {
		s.logger.Printf("reload after deleting %s: %v", recipeID, err)
		return fmt.Errorf("reload after deleting %s: %w", recipeID, err)
	}

	return s.commit(func(st store.State) store.State {
		return store.DeleteConfirmed(st, recipes)
	})
}

// SetQuery updates the search query
func (s *Synchronizer) SetQuery(query string) {
	s.store.Apply(func(st store.State) store.State {
		return store.SetQuery(st, query)
	})
}

// Visible returns the loaded recipes filtered by the current query
func (s *Synchronizer) Visible() []types.Recipe {
	return store.Visible(s.store.Snapshot())
}

// IsFavorite reports the local favorite status of recipeID
func (s *Synchronizer) IsFavorite(recipeID string) bool {
	return s.store.Snapshot().Favorites.Has(recipeID)
}

// Pending reports whether a write for recipeID is in flight
func (s *Synchronizer) Pending(recipeID string) bool {
	return s.store.Pending(recipeID)
}

// Search filters the loaded recipes by query without touching the stored query
func (s *Synchronizer) Search(query string) []types.Recipe {
	return store.Filter(s.store.Snapshot().Recipes, query)
}

// Busy reports whether any write is in flight
func (s *Synchronizer) Busy() bool {
	return s.store.Busy()
}

// Snapshot returns the current view state
func (s *Synchronizer) Snapshot() store.State {
	return s.store.Snapshot()
}

// LoggedIn reports whether the session carries a credential
func (s *Synchronizer) LoggedIn() bool {
	return s.session.HasSession()
}

// scoped derives a context that is canceled by ctx or by Unmount
func (s *Synchronizer) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.mountCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// commit applies fn unless the view has been unmounted
func (s *Synchronizer) commit(fn func(store.State) store.State) error {
	applied := false
	s.store.Apply(func(st store.State) store.State {
		if !s.Mounted() {
			return st
		}
		applied = true
		return fn(st)
	})
	if !applied {
		return ErrUnmounted
	}
	return nil
}

// commitLoad applies fn unless the view has been unmounted or a write has
// begun or ended since version was read
func (s *Synchronizer) commitLoad(version uint64, fn func(store.State) store.State) error {
	unmounted := false
	applied := s.store.ApplyIf(version, func(st store.State) store.State {
		if !s.Mounted() {
			unmounted = true
			return st
		}
		return fn(st)
	})
	if unmounted {
		return ErrUnmounted
	}
	if !applied {
		s.logger.Printf("load result superseded by a concurrent write")
	}
	return nil
}
