// Package session is the client-side facade over the engine: it binds
// an authenticated user to a discovery feed, mirrors the credit
// balance, and reconciles optimistic like state against server
// results.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	facegate "github.com/jesssevilleja/facegate"
	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/discovery"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/feed"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// Provider resolves the current user. Implementations wrap whatever
// auth layer the host application uses.
type Provider interface {
	// CurrentUser returns the signed-in user or
	// facegate.ErrAuthenticationRequired.
	CurrentUser(ctx context.Context) (id.UserID, error)
}

// StaticProvider is a Provider fixed to a single user, for embedding
// and tests.
type StaticProvider id.UserID

// CurrentUser returns the fixed user.
func (p StaticProvider) CurrentUser(ctx context.Context) (id.UserID, error) {
	u := id.UserID(p)
	if u.IsNil() {
		return id.Nil, facegate.ErrAuthenticationRequired
	}
	return u, nil
}

// Backend is the engine surface a session talks to. *facegate.Engine
// satisfies it; a remote client can too.
type Backend interface {
	Balance(ctx context.Context, userID id.UserID) (types.Credits, error)
	ListItems(ctx context.Context, requester id.UserID, q content.Query) ([]*content.Item, error)
	RequestAccess(ctx context.Context, userID id.UserID, itemID id.ItemID) (*gate.Decision, error)
	ToggleLike(ctx context.Context, userID id.UserID, itemID id.ItemID) (*engagement.LikeResult, error)
}

// Session drives one user's gallery: feed paging, gated opens, and
// optimistic likes. Methods are safe for concurrent use.
type Session struct {
	backend  Backend
	provider Provider
	logger   *slog.Logger

	cache   *feed.Cache
	ctrl    *discovery.Controller
	tracker *engagement.Tracker

	mu      sync.Mutex
	balance types.Credits
}

// Option configures a Session.
type Option func(*Session, *[]discovery.Option)

// WithLogger sets the session's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session, _ *[]discovery.Option) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDiscoveryOptions passes options through to the feed controller.
func WithDiscoveryOptions(opts ...discovery.Option) Option {
	return func(_ *Session, ctrlOpts *[]discovery.Option) {
		*ctrlOpts = append(*ctrlOpts, opts...)
	}
}

// New creates a session over the backend for the provider's user.
func New(backend Backend, provider Provider, opts ...Option) *Session {
	s := &Session{
		backend:  backend,
		provider: provider,
		logger:   slog.Default(),
		cache:    feed.NewCache(),
		tracker:  engagement.NewTracker(),
	}

	var ctrlOpts []discovery.Option
	for _, opt := range opts {
		opt(s, &ctrlOpts)
	}
	ctrlOpts = append(ctrlOpts, discovery.WithLogger(s.logger))

	source := discovery.SourceFunc(func(ctx context.Context, q content.Query) ([]*content.Item, error) {
		user, err := s.provider.CurrentUser(ctx)
		if err != nil {
			// Anonymous browsing still shows the feed, just without
			// per-user flags.
			user = id.Nil
		}
		items, err := s.backend.ListItems(ctx, user, q)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			s.tracker.Seed(it.ID, it.LikedByRequester, it.LikeCount)
		}
		return items, nil
	})
	s.ctrl = discovery.NewController(source, s.cache, ctrlOpts...)
	return s
}

// Refresh re-reads the server balance into the local mirror.
func (s *Session) Refresh(ctx context.Context) error {
	user, err := s.provider.CurrentUser(ctx)
	if err != nil {
		return err
	}
	balance, err := s.backend.Balance(ctx, user)
	if err != nil {
		return err
	}
	s.setBalance(balance)
	return nil
}

// Balance returns the locally mirrored credit balance.
func (s *Session) Balance() types.Credits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

func (s *Session) setBalance(b types.Credits) {
	s.mu.Lock()
	s.balance = b
	s.mu.Unlock()
}

// LoadMore requests the next feed page. Completion is observable via
// Updates.
func (s *Session) LoadMore(ctx context.Context) error {
	return s.ctrl.RequestNextPage(ctx)
}

// Search changes the search term and restarts the feed.
func (s *Session) Search(term string) {
	s.tracker.Reset()
	s.ctrl.SetSearchTerm(term)
}

// Sort changes the feed ordering and restarts the feed.
func (s *Session) Sort(key content.SortKey, dir content.SortDirection) {
	s.tracker.Reset()
	s.ctrl.SetSort(key, dir)
}

// Updates signals applied pages, failed fetches and query changes.
func (s *Session) Updates() <-chan struct{} { return s.ctrl.Updates() }

// State returns the feed controller state.
func (s *Session) State() discovery.State { return s.ctrl.State() }

// EndOfFeed reports whether the feed is exhausted for the current
// query.
func (s *Session) EndOfFeed() bool { return s.cache.EndOfData() }

// Items returns the display sequence with optimistic like state
// overlaid on top of the cached server values.
func (s *Session) Items() []*content.Item {
	items := s.cache.Items()
	for _, it := range items {
		if view, ok := s.tracker.View(it.ID); ok {
			it.LikedByRequester = view.Liked
			it.LikeCount = view.LikeCount
		}
	}
	return items
}

// Open requests access to an item. A granted first view debits the
// balance mirror and marks the item viewed in the feed; a repeat view
// is free. Insufficient funds and missing auth come back unwrapped so
// the host can route the user to a top-up or sign-in.
func (s *Session) Open(ctx context.Context, itemID id.ItemID) (*gate.Decision, error) {
	user, err := s.provider.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := s.backend.RequestAccess(ctx, user, itemID)
	if err != nil {
		if errors.Is(err, facegate.ErrInsufficientFunds) && decision != nil {
			s.setBalance(decision.Balance)
		}
		return decision, err
	}

	mutation := content.Mutation{SetViewed: content.Bool(true)}
	if decision.Charged {
		mutation.ViewCountDelta = 1
		s.setBalance(decision.Balance)
	}
	s.cache.PatchItem(itemID, mutation)
	return decision, nil
}

// Like flips the item's like optimistically, then reconciles with the
// server result. On failure the optimistic flip is rolled back and the
// feed restored.
func (s *Session) Like(ctx context.Context, itemID id.ItemID) (engagement.LikeResult, error) {
	user, err := s.provider.CurrentUser(ctx)
	if err != nil {
		return engagement.LikeResult{}, err
	}

	optimistic, token := s.tracker.Toggle(itemID)
	s.patchLike(itemID, optimistic)

	res, err := s.backend.ToggleLike(ctx, user, itemID)
	if err != nil {
		reverted := s.tracker.Reject(itemID, token)
		s.patchLike(itemID, reverted)
		return reverted, err
	}

	settled := s.tracker.Confirm(itemID, token, *res)
	s.patchLike(itemID, settled)
	return settled, nil
}

// patchLike writes a like view into the feed cache so the display
// sequence reorders under a like-count sort.
func (s *Session) patchLike(itemID id.ItemID, view engagement.LikeResult) {
	current := s.cache.Get(itemID)
	if current == nil {
		return
	}
	s.cache.PatchItem(itemID, content.Mutation{
		LikeCountDelta: view.LikeCount - current.LikeCount,
		SetLiked:       content.Bool(view.Liked),
	})
}
