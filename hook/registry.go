package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

const hookCallTimeout = 5 * time.Second

// Registry manages registered hooks and dispatches engine events to
// them. Interface membership is resolved once at registration, so
// emitting an event only walks hooks that actually implement it.
type Registry struct {
	mu     sync.RWMutex
	hooks  map[string]Hook
	logger *slog.Logger

	// Type-specific caches, populated in Register.
	initHooks         []OnInit
	shutdownHooks     []OnShutdown
	creditedHooks     []OnWalletCredited
	debitedHooks      []OnWalletDebited
	insufficientHooks []OnInsufficientFunds
	accessHooks       []OnAccessGranted
	likeHooks         []OnLikeToggled
	flushHooks        []OnEventsFlushed
}

// NewRegistry creates an empty hook registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		hooks:  make(map[string]Hook),
		logger: logger,
	}
}

// Register adds a hook to the registry. Hook names must be unique.
func (r *Registry) Register(h Hook) error {
	if h == nil {
		return fmt.Errorf("facegate: hook is nil")
	}
	name := h.Name()
	if name == "" {
		return fmt.Errorf("facegate: hook has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.hooks[name]; exists {
		return fmt.Errorf("facegate: hook %q already registered", name)
	}
	r.hooks[name] = h

	if v, ok := h.(OnInit); ok {
		r.initHooks = append(r.initHooks, v)
	}
	if v, ok := h.(OnShutdown); ok {
		r.shutdownHooks = append(r.shutdownHooks, v)
	}
	if v, ok := h.(OnWalletCredited); ok {
		r.creditedHooks = append(r.creditedHooks, v)
	}
	if v, ok := h.(OnWalletDebited); ok {
		r.debitedHooks = append(r.debitedHooks, v)
	}
	if v, ok := h.(OnInsufficientFunds); ok {
		r.insufficientHooks = append(r.insufficientHooks, v)
	}
	if v, ok := h.(OnAccessGranted); ok {
		r.accessHooks = append(r.accessHooks, v)
	}
	if v, ok := h.(OnLikeToggled); ok {
		r.likeHooks = append(r.likeHooks, v)
	}
	if v, ok := h.(OnEventsFlushed); ok {
		r.flushHooks = append(r.flushHooks, v)
	}
	return nil
}

// Get returns a registered hook by name.
func (r *Registry) Get(name string) (Hook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[name]
	return h, ok
}

// List returns the names of all registered hooks.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

// callWithTimeout runs a hook callback with a bounded deadline so a
// misbehaving hook cannot stall the engine.
func (r *Registry) callWithTimeout(ctx context.Context, name, event string, fn func(context.Context) error) {
	callCtx, cancel := context.WithTimeout(ctx, hookCallTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(callCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			r.logger.Warn("hook failed",
				"hook", name,
				"event", event,
				"error", err)
		}
	case <-callCtx.Done():
		r.logger.Warn("hook timed out",
			"hook", name,
			"event", event,
			"timeout", hookCallTimeout)
	}
}

// EmitInit dispatches the init event. Unlike the other emitters, an
// init failure is returned so engine startup can abort.
func (r *Registry) EmitInit(ctx context.Context, engine any) error {
	r.mu.RLock()
	hooks := make([]OnInit, len(r.initHooks))
	copy(hooks, r.initHooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := h.OnInit(ctx, engine); err != nil {
			return fmt.Errorf("facegate: hook %q init failed: %w", h.Name(), err)
		}
	}
	return nil
}

// EmitShutdown dispatches the shutdown event to all hooks, logging
// failures rather than aborting.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := make([]OnShutdown, len(r.shutdownHooks))
	copy(hooks, r.shutdownHooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		h := h
		r.callWithTimeout(ctx, h.Name(), "shutdown", func(c context.Context) error {
			return h.OnShutdown(c)
		})
	}
}

// EmitWalletCredited dispatches a wallet credit event.
func (r *Registry) EmitWalletCredited(ctx context.Context, userID id.UserID, amount, balance types.Credits) {
	r.mu.RLock()
	hooks := make([]OnWalletCredited, len(r.creditedHooks))
	copy(hooks, r.creditedHooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		h := h
		r.callWithTimeout(ctx, h.Name(), "wallet_credited", func(c context.Context) error {
			return h.OnWalletCredited(c, userID, amount, balance)
		})
	}
}

// EmitWalletDebited dispatches a wallet debit event.
func (r *Registry) EmitWalletDebited(ctx context.Context, userID id.UserID, amount, balance types.Credits) {
	r.mu.RLock()
	hooks := make([]OnWalletDebited, len(r.debitedHooks))
	copy(hooks, r.debitedHooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		h := h
		r.callWithTimeout(ctx, h.Name(), "wallet_debited", func(c context.Context) error {
			return h.OnWalletDebited(c, userID, amount, balance)
		})
	}
}

// EmitInsufficientFunds dispatches a rejected-charge event.
func (r *Registry) EmitInsufficientFunds(ctx context.Context, userID id.UserID, price, balance types.Credits) {
	r.mu.RLock()
	hooks := make([]OnInsufficientFunds, len(r.insufficientHooks))
	copy(hooks, r.insufficientHooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		h := h
		r.callWithTimeout(ctx, h.Name(), "insufficient_funds", func(c context.Context) error {
			return h.OnInsufficientFunds(c, userID, price, balance)
		})
	}
}

// EmitAccessGranted dispatches an access decision event.
func (r *Registry) EmitAccessGranted(ctx context.Context, userID id.UserID, decision *gate.Decision) {
	r.mu.RLock()
	hooks := make([]OnAccessGranted, len(r.accessHooks))
	copy(hooks, r.accessHooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		h := h
		r.callWithTimeout(ctx, h.Name(), "access_granted", func(c context.Context) error {
			return h.OnAccessGranted(c, userID, decision)
		})
	}
}

// EmitLikeToggled dispatches a like toggle event.
func (r *Registry) EmitLikeToggled(ctx context.Context, userID id.UserID, result *engagement.LikeResult) {
	r.mu.RLock()
	hooks := make([]OnLikeToggled, len(r.likeHooks))
	copy(hooks, r.likeHooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		h := h
		r.callWithTimeout(ctx, h.Name(), "like_toggled", func(c context.Context) error {
			return h.OnLikeToggled(c, userID, result)
		})
	}
}

// EmitEventsFlushed dispatches an event-flush notification.
func (r *Registry) EmitEventsFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	hooks := make([]OnEventsFlushed, len(r.flushHooks))
	copy(hooks, r.flushHooks)
	r.mu.RUnlock()

	for _, h := range hooks {
		h := h
		r.callWithTimeout(ctx, h.Name(), "events_flushed", func(c context.Context) error {
			return h.OnEventsFlushed(c, count, elapsed)
		})
	}
}
