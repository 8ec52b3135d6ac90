package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	facegate "github.com/jesssevilleja/facegate"
	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/discovery"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/store/memory"
	"github.com/jesssevilleja/facegate/types"
)

func newEngine(t *testing.T) *facegate.Engine {
	t.Helper()
	engine, err := facegate.New(memory.New())
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = engine.Stop(context.Background()) })
	return engine
}

func seedUser(t *testing.T, engine *facegate.Engine, credits int64) id.UserID {
	t.Helper()
	user := id.NewUserID()
	if err := engine.CreateWallet(context.Background(), user, types.CreditsOf(credits)); err != nil {
		t.Fatal(err)
	}
	return user
}

func seedItems(t *testing.T, engine *facegate.Engine, names ...string) []id.ItemID {
	t.Helper()
	owner := id.NewUserID()
	out := make([]id.ItemID, len(names))
	for i, name := range names {
		item := &content.Item{OwnerID: owner, Name: name, ImageURL: "https://cdn.example/" + name}
		if err := engine.CreateItem(context.Background(), item); err != nil {
			t.Fatal(err)
		}
		out[i] = item.ID
	}
	return out
}

func waitSettled(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() != discovery.Fetching {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("feed did not settle in time")
}

func loadAll(t *testing.T, s *Session) {
	t.Helper()
	for {
		err := s.LoadMore(context.Background())
		if errors.Is(err, facegate.ErrExhausted) {
			return
		}
		if err != nil {
			t.Fatalf("LoadMore() error = %v", err)
		}
		waitSettled(t, s)
	}
}

func TestFirstViewChargesOnceRepeatFree(t *testing.T) {
	engine := newEngine(t)
	user := seedUser(t, engine, 5)
	items := seedItems(t, engine, "portrait")
	s := New(engine, StaticProvider(user))
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	loadAll(t, s)

	d, err := s.Open(ctx, items[0])
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !d.Granted || !d.Charged {
		t.Errorf("first open = granted %v charged %v, want true true", d.Granted, d.Charged)
	}
	if s.Balance() != types.CreditsOf(4) {
		t.Errorf("mirrored balance = %v, want 4", s.Balance())
	}

	d, err = s.Open(ctx, items[0])
	if err != nil {
		t.Fatalf("repeat Open() error = %v", err)
	}
	if !d.Granted || d.Charged {
		t.Errorf("repeat open = granted %v charged %v, want true false", d.Granted, d.Charged)
	}
	if got, _ := engine.Balance(ctx, user); got != types.CreditsOf(4) {
		t.Errorf("server balance = %v, want 4: repeat view must be free", got)
	}

	visible := s.Items()
	if len(visible) != 1 || !visible[0].ViewedByRequester || visible[0].ViewCount != 1 {
		t.Errorf("feed item = %+v, want viewed with 1 view", visible[0])
	}
}

func TestConcurrentOpensChargeOnce(t *testing.T) {
	engine := newEngine(t)
	user := seedUser(t, engine, 100)
	items := seedItems(t, engine, "hot")
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	charged, rejected := 0, 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := engine.RequestAccess(ctx, user, items[0])
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, facegate.ErrInFlight):
				rejected++
			case err == nil && d.Charged:
				charged++
			}
		}()
	}
	wg.Wait()

	if charged > 1 {
		t.Errorf("charged = %d, want at most 1", charged)
	}
	if got, _ := engine.Balance(ctx, user); got != types.CreditsOf(99) {
		t.Errorf("balance = %v, want 99", got)
	}
	if rejected == 0 && charged != 1 {
		t.Error("no request charged and none rejected")
	}
}

func TestInsufficientFundsLeavesNoTrace(t *testing.T) {
	engine := newEngine(t)
	user := seedUser(t, engine, 0)
	items := seedItems(t, engine, "locked")
	s := New(engine, StaticProvider(user))
	ctx := context.Background()
	loadAll(t, s)

	d, err := s.Open(ctx, items[0])
	if !errors.Is(err, facegate.ErrInsufficientFunds) {
		t.Fatalf("Open() = %v, want ErrInsufficientFunds", err)
	}
	if !facegate.IsRecoverable(err) {
		t.Error("insufficient funds should be recoverable")
	}
	if d == nil || d.Granted {
		t.Errorf("decision = %+v, want denied with context", d)
	}

	visible := s.Items()
	if visible[0].ViewedByRequester || visible[0].ViewCount != 0 {
		t.Errorf("item mutated by rejected open: %+v", visible[0])
	}

	// A top-up makes the retry succeed.
	if _, err := engine.Credit(ctx, user, types.CreditsOf(10), "top-up"); err != nil {
		t.Fatal(err)
	}
	d, err = s.Open(ctx, items[0])
	if err != nil || !d.Charged {
		t.Fatalf("retry Open() = %+v, %v, want charged grant", d, err)
	}
	if s.Balance() != types.CreditsOf(9) {
		t.Errorf("balance = %v, want 9", s.Balance())
	}
}

func TestAnonymousOpenRequiresAuth(t *testing.T) {
	engine := newEngine(t)
	items := seedItems(t, engine, "members only")
	s := New(engine, StaticProvider(id.Nil))

	_, err := s.Open(context.Background(), items[0])
	if !errors.Is(err, facegate.ErrAuthenticationRequired) {
		t.Errorf("Open() = %v, want ErrAuthenticationRequired", err)
	}
	if !facegate.IsRecoverable(err) {
		t.Error("missing auth should be recoverable")
	}
}

func TestSearchRestartsFeed(t *testing.T) {
	engine := newEngine(t)
	user := seedUser(t, engine, 10)
	seedItems(t, engine, "summer glow", "winter frost", "summer breeze")
	s := New(engine, StaticProvider(user))
	loadAll(t, s)

	if got := len(s.Items()); got != 3 {
		t.Fatalf("items = %d, want 3", got)
	}
	if !s.EndOfFeed() {
		t.Fatal("feed not exhausted after loading everything")
	}

	s.Search("summer")
	if s.EndOfFeed() {
		t.Error("exhaustion must reset with the query")
	}
	loadAll(t, s)

	names := itemNames(s.Items())
	if len(names) != 2 {
		t.Errorf("filtered items = %v, want the two summer entries", names)
	}
}

// failingLikes wraps a backend and fails every like toggle.
type failingLikes struct {
	Backend
}

func (f failingLikes) ToggleLike(ctx context.Context, userID id.UserID, itemID id.ItemID) (*engagement.LikeResult, error) {
	return nil, errors.New("network down")
}

func TestLikeRollsBackOnFailure(t *testing.T) {
	engine := newEngine(t)
	user := seedUser(t, engine, 10)
	items := seedItems(t, engine, "flaky")
	s := New(failingLikes{engine}, StaticProvider(user))
	loadAll(t, s)

	before := s.Items()[0]
	res, err := s.Like(context.Background(), items[0])
	if err == nil {
		t.Fatal("Like() succeeded against failing backend")
	}
	if res.Liked != before.LikedByRequester || res.LikeCount != before.LikeCount {
		t.Errorf("reverted view = %+v, want original %v/%d", res, before.LikedByRequester, before.LikeCount)
	}

	after := s.Items()[0]
	if after.LikedByRequester != before.LikedByRequester || after.LikeCount != before.LikeCount {
		t.Errorf("feed item = liked %v count %d, want rollback to %v/%d",
			after.LikedByRequester, after.LikeCount, before.LikedByRequester, before.LikeCount)
	}
}

func TestLikeConfirmsAndReorders(t *testing.T) {
	engine := newEngine(t)
	user := seedUser(t, engine, 10)
	items := seedItems(t, engine, "first", "second")
	s := New(engine, StaticProvider(user))
	s.Sort(content.SortByLikeCount, content.Descending)
	loadAll(t, s)

	res, err := s.Like(context.Background(), items[1])
	if err != nil {
		t.Fatalf("Like() error = %v", err)
	}
	if !res.Liked || res.LikeCount != 1 {
		t.Errorf("like = %+v, want liked with count 1", res)
	}

	names := itemNames(s.Items())
	if names[0] != "second" {
		t.Errorf("order = %v, want the liked item first under like sort", names)
	}

	// Unlike restores the tie and the flag.
	res, err = s.Like(context.Background(), items[1])
	if err != nil {
		t.Fatal(err)
	}
	if res.Liked || res.LikeCount != 0 {
		t.Errorf("unlike = %+v, want unliked with count 0", res)
	}
	if liked, _ := engine.Balance(context.Background(), user); liked != types.CreditsOf(10) {
		t.Error("likes must never touch the balance")
	}
}

func TestDecisionFieldsOnDeny(t *testing.T) {
	engine := newEngine(t)
	user := seedUser(t, engine, 0)
	items := seedItems(t, engine, "gated")
	ctx := context.Background()

	d, err := engine.RequestAccess(ctx, user, items[0])
	if !errors.Is(err, facegate.ErrInsufficientFunds) {
		t.Fatalf("RequestAccess() = %v, want ErrInsufficientFunds", err)
	}
	want := &gate.Decision{ItemID: items[0], Price: facegate.DefaultAccessPrice, Reason: "insufficient funds"}
	if d.Granted || d.Charged || d.Price != want.Price || d.Reason != want.Reason {
		t.Errorf("decision = %+v, want %+v", d, want)
	}
}

func itemNames(items []*content.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func ExampleSession() {
	engine, _ := facegate.New(memory.New())
	_ = engine.Start(context.Background())
	defer engine.Stop(context.Background())

	user := id.NewUserID()
	_ = engine.CreateWallet(context.Background(), user, types.CreditsOf(3))

	s := New(engine, StaticProvider(user))
	_ = s.Refresh(context.Background())
	fmt.Println(s.Balance())
	// Output: 3 credits
}
