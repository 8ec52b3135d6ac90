package facegate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/hook"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/inflight"
	"github.com/jesssevilleja/facegate/ledger"
	"github.com/jesssevilleja/facegate/store"
	"github.com/jesssevilleja/facegate/types"
)

// Defaults for engine configuration.
const (
	DefaultAccessPrice        = types.Credits(1)
	DefaultEventBufferSize    = 1024
	DefaultEventBatchSize     = 100
	DefaultEventFlushInterval = 5 * time.Second
	DefaultDecisionCacheTTL   = time.Hour

	eventFlushTimeout = 10 * time.Second
)

// Engine is the facegate engine: prepaid credit wallets, pay-per-first-
// view access gating, and engagement tracking over a single store.
// All methods are safe for concurrent use.
type Engine struct {
	store  store.Store
	hooks  *hook.Registry
	logger *slog.Logger
	guard  *inflight.Guard

	decisionCache gate.Cache
	decisionTTL   time.Duration

	accessPrice types.Credits

	events        chan *engagement.Event
	batchSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	wg      sync.WaitGroup

	pendingHooks []hook.Hook
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAccessPrice sets the credits charged for a first view.
func WithAccessPrice(price types.Credits) Option {
	return func(e *Engine) {
		if price.IsPositive() {
			e.accessPrice = price
		}
	}
}

// WithEventConfig tunes the engagement event pipeline: the buffer
// capacity, the batch size that forces a flush, and the interval at
// which partial batches are flushed anyway.
func WithEventConfig(bufferSize, batchSize int, interval time.Duration) Option {
	return func(e *Engine) {
		if bufferSize > 0 {
			e.events = make(chan *engagement.Event, bufferSize)
		}
		if batchSize > 0 {
			e.batchSize = batchSize
		}
		if interval > 0 {
			e.flushInterval = interval
		}
	}
}

// WithDecisionCache installs a cache in front of repeat-view checks.
// Typically backed by redis, see the store/redis package.
func WithDecisionCache(c gate.Cache) Option {
	return func(e *Engine) { e.decisionCache = c }
}

// WithDecisionCacheTTL sets how long cached access decisions live.
func WithDecisionCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.decisionTTL = ttl
		}
	}
}

// WithHook registers a hook. Registration errors surface from New.
func WithHook(h hook.Hook) Option {
	return func(e *Engine) { e.pendingHooks = append(e.pendingHooks, h) }
}

// New creates an Engine over the given store. Call Start before use.
func New(st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("facegate: store is required")
	}

	e := &Engine{
		store:         st,
		logger:        slog.Default(),
		guard:         inflight.New(),
		accessPrice:   DefaultAccessPrice,
		events:        make(chan *engagement.Event, DefaultEventBufferSize),
		batchSize:     DefaultEventBatchSize,
		flushInterval: DefaultEventFlushInterval,
		decisionTTL:   DefaultDecisionCacheTTL,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.hooks = hook.NewRegistry(e.logger)
	for _, h := range e.pendingHooks {
		if err := e.hooks.Register(h); err != nil {
			return nil, err
		}
	}
	e.pendingHooks = nil

	return e, nil
}

// Hooks returns the engine's hook registry. Hooks may be registered
// until Start is called.
func (e *Engine) Hooks() *hook.Registry { return e.hooks }

// Start migrates the store, initializes hooks and starts the event
// flush worker. Starting a started engine is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}

	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}
	if err := e.hooks.EmitInit(ctx, e); err != nil {
		return err
	}

	e.started = true
	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.eventFlushWorker()

	e.logger.Info("facegate engine started",
		"access_price", e.accessPrice.String(),
		"hooks", e.hooks.Count())
	return nil
}

// Stop flushes buffered events, notifies hooks and closes the store.
// Stopping a stopped engine is a no-op.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	e.mu.Unlock()

	close(e.stop)
	e.wg.Wait()

	e.hooks.EmitShutdown(ctx)
	e.logger.Info("facegate engine stopped")
	return e.store.Close(ctx)
}

// ──────────────────────────────────────────────────
// Wallet operations
// ──────────────────────────────────────────────────

// CreateWallet creates a wallet for the user with an initial balance.
func (e *Engine) CreateWallet(ctx context.Context, userID id.UserID, initial types.Credits) error {
	if userID.IsNil() {
		return ErrAuthenticationRequired
	}
	if initial.IsNegative() {
		return ErrInvalidAmount
	}
	return e.store.CreateWallet(ctx, userID, initial)
}

// Balance returns the user's current credit balance.
func (e *Engine) Balance(ctx context.Context, userID id.UserID) (types.Credits, error) {
	if userID.IsNil() {
		return types.ZeroCredits, ErrAuthenticationRequired
	}
	return e.store.GetBalance(ctx, userID)
}

// Credit adds credits to the user's wallet and returns the new
// balance. Amount must be a positive whole number of credits.
func (e *Engine) Credit(ctx context.Context, userID id.UserID, amount types.Credits, description string) (types.Credits, error) {
	if userID.IsNil() {
		return types.ZeroCredits, ErrAuthenticationRequired
	}
	if !amount.IsPositive() {
		return types.ZeroCredits, ErrInvalidAmount
	}

	entry := ledger.Entry{
		ID:             id.New(id.PrefixEntry),
		UserID:         userID,
		Type:           ledger.EntryCredit,
		Amount:         amount,
		Description:    description,
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
	}
	balance, err := e.store.Credit(ctx, userID, amount, entry)
	if err != nil {
		return types.ZeroCredits, err
	}

	e.hooks.EmitWalletCredited(ctx, userID, amount, balance)
	return balance, nil
}

// Debit removes credits from the user's wallet and returns the new
// balance. Fails with ErrInsufficientFunds, leaving the balance
// untouched, when it does not cover amount.
func (e *Engine) Debit(ctx context.Context, userID id.UserID, amount types.Credits, description string) (types.Credits, error) {
	if userID.IsNil() {
		return types.ZeroCredits, ErrAuthenticationRequired
	}
	if !amount.IsPositive() {
		return types.ZeroCredits, ErrInvalidAmount
	}

	entry := ledger.Entry{
		ID:             id.New(id.PrefixEntry),
		UserID:         userID,
		Type:           ledger.EntryDebit,
		Amount:         amount,
		Description:    description,
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
	}
	balance, err := e.store.Debit(ctx, userID, amount, entry)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			current, berr := e.store.GetBalance(ctx, userID)
			if berr == nil {
				e.hooks.EmitInsufficientFunds(ctx, userID, amount, current)
			}
		}
		return types.ZeroCredits, err
	}

	e.hooks.EmitWalletDebited(ctx, userID, amount, balance)
	return balance, nil
}

// Entries lists the user's ledger entries, newest first.
func (e *Engine) Entries(ctx context.Context, userID id.UserID, opts ledger.QueryOpts) ([]*ledger.Entry, error) {
	if userID.IsNil() {
		return nil, ErrAuthenticationRequired
	}
	return e.store.ListEntries(ctx, userID, opts)
}

// ──────────────────────────────────────────────────
// Item operations
// ──────────────────────────────────────────────────

// CreateItem adds an item to the catalog, assigning its id and
// timestamps.
func (e *Engine) CreateItem(ctx context.Context, item *content.Item) error {
	if item == nil {
		return ErrInvalidInput
	}
	if item.OwnerID.IsNil() {
		return ValidationError{Field: "owner_id", Message: "required"}
	}
	if item.Name == "" {
		return ValidationError{Field: "name", Message: "required"}
	}
	if item.ID.IsNil() {
		item.ID = id.New(id.PrefixItem)
	}
	item.Entity = types.NewEntity()
	return e.store.CreateItem(ctx, item)
}

// GetItem returns one item. A non-nil requester gets the viewed and
// liked flags resolved against their own history.
func (e *Engine) GetItem(ctx context.Context, requester id.UserID, itemID id.ItemID) (*content.Item, error) {
	if itemID.IsNil() {
		return nil, ErrInvalidInput
	}
	return e.store.GetItem(ctx, itemID, requester)
}

// ListItems returns one page of the catalog for the query. An empty
// page means the query is past its last page.
func (e *Engine) ListItems(ctx context.Context, requester id.UserID, q content.Query) ([]*content.Item, error) {
	return e.store.ListItems(ctx, q.Normalize(), requester)
}

// FetchPage serves anonymous feed pages, satisfying the discovery
// package's Source interface. Per-user feeds bind the requester via
// session.Session instead.
func (e *Engine) FetchPage(ctx context.Context, q content.Query) ([]*content.Item, error) {
	return e.ListItems(ctx, id.Nil, q)
}

// ──────────────────────────────────────────────────
// Access gating
// ──────────────────────────────────────────────────

// RequestAccess decides whether the user may view the item. The first
// view atomically charges the access price, records the access and
// increments the view count; every later view for the same pair is
// free. A duplicate request while one is in flight fails with
// ErrInFlight and charges nothing.
//
// On insufficient funds the decision is returned alongside the error
// so callers can show the price and balance that were rejected.
func (e *Engine) RequestAccess(ctx context.Context, userID id.UserID, itemID id.ItemID) (*gate.Decision, error) {
	if userID.IsNil() {
		return nil, ErrAuthenticationRequired
	}
	if itemID.IsNil() {
		return nil, ErrInvalidInput
	}

	if !e.guard.TryAcquire(userID, itemID, inflight.KindAccess) {
		return nil, ErrInFlight
	}
	defer e.guard.Release(userID, itemID, inflight.KindAccess)

	if e.decisionCache != nil {
		if d, err := e.decisionCache.GetDecision(ctx, userID, itemID); err == nil && d != nil && d.Granted {
			return d, nil
		}
	}

	viewed, err := e.store.HasViewed(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if viewed {
		return e.grantRepeatView(ctx, userID, itemID), nil
	}

	grant, err := e.store.GrantAccess(ctx, userID, itemID, e.accessPrice)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyViewed):
			// Raced with the same user's own request on another
			// connection; that request paid.
			return e.grantRepeatView(ctx, userID, itemID), nil
		case errors.Is(err, ErrInsufficientFunds):
			balance, berr := e.store.GetBalance(ctx, userID)
			if berr == nil {
				e.hooks.EmitInsufficientFunds(ctx, userID, e.accessPrice, balance)
			}
			d := &gate.Decision{
				ItemID:  itemID,
				Price:   e.accessPrice,
				Balance: balance,
				Reason:  "insufficient funds",
			}
			return d, err
		default:
			return nil, err
		}
	}

	d := &gate.Decision{
		Granted: true,
		Charged: true,
		ItemID:  itemID,
		Price:   e.accessPrice,
		Balance: grant.Balance,
	}
	// The cache fronts repeat-view checks, so it must hold the shape a
	// repeat view returns, never the charged decision.
	e.cacheDecision(ctx, userID, itemID, repeatDecision(itemID))
	e.hooks.EmitWalletDebited(ctx, userID, e.accessPrice, grant.Balance)
	e.hooks.EmitAccessGranted(ctx, userID, d)
	e.enqueueEvent(&engagement.Event{
		UserID: userID,
		ItemID: itemID,
		Kind:   engagement.KindView,
	})

	e.logger.Debug("first view charged",
		"user", userID, "item", itemID, "balance", grant.Balance.Int64())
	return d, nil
}

func repeatDecision(itemID id.ItemID) *gate.Decision {
	return &gate.Decision{
		Granted: true,
		ItemID:  itemID,
		Reason:  "already viewed",
	}
}

func (e *Engine) grantRepeatView(ctx context.Context, userID id.UserID, itemID id.ItemID) *gate.Decision {
	d := repeatDecision(itemID)
	e.cacheDecision(ctx, userID, itemID, d)
	e.hooks.EmitAccessGranted(ctx, userID, d)
	return d
}

func (e *Engine) cacheDecision(ctx context.Context, userID id.UserID, itemID id.ItemID, d *gate.Decision) {
	if e.decisionCache == nil {
		return
	}
	if err := e.decisionCache.SetDecision(ctx, userID, itemID, d, e.decisionTTL); err != nil {
		e.logger.Warn("decision cache write failed", "error", err)
	}
}

// ──────────────────────────────────────────────────
// Engagement
// ──────────────────────────────────────────────────

// ToggleLike flips the user's like on the item and returns the
// authoritative state and count. A duplicate toggle while one is in
// flight fails with ErrInFlight.
func (e *Engine) ToggleLike(ctx context.Context, userID id.UserID, itemID id.ItemID) (*engagement.LikeResult, error) {
	if userID.IsNil() {
		return nil, ErrAuthenticationRequired
	}
	if itemID.IsNil() {
		return nil, ErrInvalidInput
	}

	if !e.guard.TryAcquire(userID, itemID, inflight.KindLike) {
		return nil, ErrInFlight
	}
	defer e.guard.Release(userID, itemID, inflight.KindLike)

	res, err := e.store.ToggleLike(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	e.hooks.EmitLikeToggled(ctx, userID, res)
	kind := engagement.KindLike
	if !res.Liked {
		kind = engagement.KindUnlike
	}
	e.enqueueEvent(&engagement.Event{
		UserID: userID,
		ItemID: itemID,
		Kind:   kind,
	})
	return res, nil
}

// Events lists the user's engagement events.
func (e *Engine) Events(ctx context.Context, userID id.UserID, opts engagement.QueryOpts) ([]*engagement.Event, error) {
	if userID.IsNil() {
		return nil, ErrAuthenticationRequired
	}
	return e.store.QueryEvents(ctx, userID, opts)
}

// PurgeEvents deletes engagement events older than the cutoff and
// returns how many were removed.
func (e *Engine) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	return e.store.PurgeEvents(ctx, before)
}

// enqueueEvent stamps and buffers an event for the flush worker. The
// buffer is best effort: a full buffer drops the event with a warning
// rather than blocking the calling operation.
func (e *Engine) enqueueEvent(ev *engagement.Event) {
	ev.ID = id.New(id.PrefixEvent)
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.IdempotencyKey == "" {
		ev.IdempotencyKey = uuid.NewString()
	}

	select {
	case e.events <- ev:
	default:
		e.logger.Warn("event buffer full, dropping event",
			"kind", ev.Kind, "item", ev.ItemID)
	}
}

// eventFlushWorker batches buffered events and writes them to the
// store, on size or on a timer, and drains the buffer on shutdown.
func (e *Engine) eventFlushWorker() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.flushInterval)
	defer ticker.Stop()

	batch := make([]*engagement.Event, 0, e.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), eventFlushTimeout)
		if err := e.store.IngestEvents(ctx, batch); err != nil {
			e.logger.Error("event flush failed",
				"count", len(batch), "error", err)
		} else {
			e.hooks.EmitEventsFlushed(ctx, len(batch), time.Since(start))
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-e.events:
			batch = append(batch, ev)
			if len(batch) >= e.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-e.stop:
			for {
				select {
				case ev := <-e.events:
					batch = append(batch, ev)
					if len(batch) >= e.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
