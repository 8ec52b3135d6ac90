package facegate_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	facegate "github.com/jesssevilleja/facegate"
	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/ledger"
	"github.com/jesssevilleja/facegate/store/memory"
	"github.com/jesssevilleja/facegate/types"
)

func startEngine(t *testing.T, opts ...facegate.Option) *facegate.Engine {
	t.Helper()
	engine, err := facegate.New(memory.New(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = engine.Stop(context.Background()) })
	return engine
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := facegate.New(nil); err == nil {
		t.Error("New(nil) = nil error")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	engine, err := facegate.New(memory.New())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := engine.Start(ctx); err != nil {
		t.Errorf("second Start() = %v", err)
	}
	if err := engine.Stop(ctx); err != nil {
		t.Errorf("Stop() = %v", err)
	}
	if err := engine.Stop(ctx); err != nil {
		t.Errorf("second Stop() = %v", err)
	}
}

func TestConcurrentStartSpawnsOneWorker(t *testing.T) {
	engine, err := facegate.New(memory.New())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := engine.Start(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// A second flush worker sharing the stop channel would leave Stop
	// waiting forever.
	done := make(chan error, 1)
	go func() { done <- engine.Stop(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() hung")
	}
}

func TestAmountValidation(t *testing.T) {
	engine := startEngine(t)
	ctx := context.Background()
	user := id.NewUserID()
	if err := engine.CreateWallet(ctx, user, types.CreditsOf(10)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		amount types.Credits
	}{
		{"zero", types.ZeroCredits},
		{"negative", types.CreditsOf(-5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.Credit(ctx, user, tt.amount, "x"); !errors.Is(err, facegate.ErrInvalidAmount) {
				t.Errorf("Credit(%v) = %v, want ErrInvalidAmount", tt.amount, err)
			}
			if _, err := engine.Debit(ctx, user, tt.amount, "x"); !errors.Is(err, facegate.ErrInvalidAmount) {
				t.Errorf("Debit(%v) = %v, want ErrInvalidAmount", tt.amount, err)
			}
		})
	}

	if got, _ := engine.Balance(ctx, user); got != types.CreditsOf(10) {
		t.Errorf("balance = %v, want 10: rejected amounts must not mutate", got)
	}
}

func TestAuthenticationRequired(t *testing.T) {
	engine := startEngine(t)
	ctx := context.Background()
	item := id.NewItemID()

	if _, err := engine.RequestAccess(ctx, id.Nil, item); !errors.Is(err, facegate.ErrAuthenticationRequired) {
		t.Errorf("RequestAccess(nil user) = %v, want ErrAuthenticationRequired", err)
	}
	if _, err := engine.ToggleLike(ctx, id.Nil, item); !errors.Is(err, facegate.ErrAuthenticationRequired) {
		t.Errorf("ToggleLike(nil user) = %v, want ErrAuthenticationRequired", err)
	}
	if _, err := engine.Balance(ctx, id.Nil); !errors.Is(err, facegate.ErrAuthenticationRequired) {
		t.Errorf("Balance(nil user) = %v, want ErrAuthenticationRequired", err)
	}
}

func TestLedgerEntriesRecordHistory(t *testing.T) {
	engine := startEngine(t)
	ctx := context.Background()
	user := id.NewUserID()
	if err := engine.CreateWallet(ctx, user, types.ZeroCredits); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Credit(ctx, user, types.CreditsOf(20), "purchase"); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Debit(ctx, user, types.CreditsOf(3), "spend"); err != nil {
		t.Fatal(err)
	}

	entries, err := engine.Entries(ctx, user, ledger.QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	debits, err := engine.Entries(ctx, user, ledger.QueryOpts{Type: ledger.EntryDebit})
	if err != nil {
		t.Fatal(err)
	}
	if len(debits) != 1 || debits[0].Balance != types.CreditsOf(17) {
		t.Errorf("debit entries = %+v, want one with running balance 17", debits)
	}
}

func TestCustomAccessPrice(t *testing.T) {
	engine := startEngine(t, facegate.WithAccessPrice(types.CreditsOf(3)))
	ctx := context.Background()
	user := id.NewUserID()
	if err := engine.CreateWallet(ctx, user, types.CreditsOf(10)); err != nil {
		t.Fatal(err)
	}
	item := &content.Item{OwnerID: id.NewUserID(), Name: "premium"}
	if err := engine.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	d, err := engine.RequestAccess(ctx, user, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Price != types.CreditsOf(3) || d.Balance != types.CreditsOf(7) {
		t.Errorf("decision = price %v balance %v, want 3 and 7", d.Price, d.Balance)
	}
}

// mapDecisionCache is a gate.Cache over a plain map, standing in for
// the redis cache in tests.
type mapDecisionCache struct {
	mu   sync.Mutex
	data map[string]*gate.Decision
	hits int
}

func newMapDecisionCache() *mapDecisionCache {
	return &mapDecisionCache{data: make(map[string]*gate.Decision)}
}

func cacheKey(userID id.UserID, itemID id.ItemID) string {
	return userID.String() + ":" + itemID.String()
}

func (c *mapDecisionCache) GetDecision(ctx context.Context, userID id.UserID, itemID id.ItemID) (*gate.Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[cacheKey(userID, itemID)]
	if !ok {
		return nil, facegate.ErrCacheMiss
	}
	c.hits++
	return d, nil
}

func (c *mapDecisionCache) SetDecision(ctx context.Context, userID id.UserID, itemID id.ItemID, d *gate.Decision, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[cacheKey(userID, itemID)] = d
	return nil
}

func (c *mapDecisionCache) Invalidate(ctx context.Context, userID id.UserID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := userID.String() + ":"
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *mapDecisionCache) InvalidateItem(ctx context.Context, userID id.UserID, itemID id.ItemID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, cacheKey(userID, itemID))
	return nil
}

func (c *mapDecisionCache) hitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func TestDecisionCacheRepeatViewStaysFree(t *testing.T) {
	cache := newMapDecisionCache()
	engine := startEngine(t, facegate.WithDecisionCache(cache))
	ctx := context.Background()

	user := id.NewUserID()
	if err := engine.CreateWallet(ctx, user, types.CreditsOf(5)); err != nil {
		t.Fatal(err)
	}
	item := &content.Item{OwnerID: id.NewUserID(), Name: "cached"}
	if err := engine.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	first, err := engine.RequestAccess(ctx, user, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Charged || first.Balance != types.CreditsOf(4) {
		t.Fatalf("first view = %+v, want charged with balance 4", first)
	}

	// Every repeat view served from the cache must look exactly like a
	// repeat view served from the store.
	for i := 0; i < 3; i++ {
		repeat, err := engine.RequestAccess(ctx, user, item.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !repeat.Granted || repeat.Charged {
			t.Fatalf("repeat view %d = %+v, want granted and free", i, repeat)
		}
	}
	if cache.hitCount() == 0 {
		t.Fatal("decision cache never served a repeat view")
	}

	if balance, _ := engine.Balance(ctx, user); balance != types.CreditsOf(4) {
		t.Errorf("balance = %v, want 4: repeat views must not charge", balance)
	}
}

func TestEngagementEventsFlush(t *testing.T) {
	engine := startEngine(t, facegate.WithEventConfig(64, 1, 10*time.Millisecond))
	ctx := context.Background()
	user := id.NewUserID()
	if err := engine.CreateWallet(ctx, user, types.CreditsOf(5)); err != nil {
		t.Fatal(err)
	}
	item := &content.Item{OwnerID: id.NewUserID(), Name: "tracked"}
	if err := engine.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.RequestAccess(ctx, user, item.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.ToggleLike(ctx, user, item.ID); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events, err := engine.Events(ctx, user, engagement.QueryOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(events) == 2 {
			kinds := map[engagement.EventKind]bool{}
			for _, ev := range events {
				kinds[ev.Kind] = true
			}
			if !kinds[engagement.KindView] || !kinds[engagement.KindLike] {
				t.Errorf("flushed kinds = %v, want view and like", kinds)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("engagement events never flushed")
}

func TestStopDrainsEventBuffer(t *testing.T) {
	engine, err := facegate.New(memory.New(), facegate.WithEventConfig(64, 100, time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}

	user := id.NewUserID()
	if err := engine.CreateWallet(ctx, user, types.CreditsOf(5)); err != nil {
		t.Fatal(err)
	}
	item := &content.Item{OwnerID: id.NewUserID(), Name: "buffered"}
	if err := engine.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.ToggleLike(ctx, user, item.ID); err != nil {
		t.Fatal(err)
	}

	// The interval and batch size guarantee nothing flushed yet; Stop
	// must drain what is buffered before closing the store.
	events, err := engine.Events(ctx, user, engagement.QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("events flushed early: %d", len(events))
	}
	if err := engine.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}
