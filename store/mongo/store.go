// Package mongo implements the facegate store on MongoDB. Documents
// are kept flat and the charge path leans on unique indexes for its
// first-writer-wins guarantees: the access record's compound key wins
// the race, and a failed debit compensates by removing it.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	facegate "github.com/jesssevilleja/facegate"
	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/ledger"
	"github.com/jesssevilleja/facegate/types"
)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	wallets  *mongo.Collection
	entries  *mongo.Collection
	items    *mongo.Collection
	accesses *mongo.Collection
	likes    *mongo.Collection
	events   *mongo.Collection
}

// Open connects to MongoDB and binds the named database. Call Migrate
// before first use.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("facegate: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: %v", facegate.ErrStoreNotReady, err)
	}
	return newStore(client, database), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *mongo.Client, database string) *Store {
	return newStore(client, database)
}

func newStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		db:       db,
		wallets:  db.Collection("wallets"),
		entries:  db.Collection("ledger_entries"),
		items:    db.Collection("items"),
		accesses: db.Collection("item_accesses"),
		likes:    db.Collection("item_likes"),
		events:   db.Collection("engagement_events"),
	}
}

// Migrate creates the indexes the store relies on.
func (s *Store) Migrate(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	sparseUnique := options.Index().SetUnique(true).SetSparse(true)

	specs := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.entries, mongo.IndexModel{Keys: bson.D{{Key: "idempotency_key", Value: 1}}, Options: sparseUnique}},
		{s.entries, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}},
		{s.accesses, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "item_id", Value: 1}}, Options: unique}},
		{s.likes, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "item_id", Value: 1}}, Options: unique}},
		{s.events, mongo.IndexModel{Keys: bson.D{{Key: "idempotency_key", Value: 1}}, Options: sparseUnique}},
		{s.events, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}}},
		{s.items, mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}}},
		{s.items, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}},
	}
	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateOne(ctx, spec.model); err != nil {
			return fmt.Errorf("%w: %v", facegate.ErrMigrationFailed, err)
		}
	}
	return nil
}

// Ping verifies the deployment is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrStoreNotReady, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ──────────────────────────────────────────────────
// Documents
// ──────────────────────────────────────────────────

type walletDoc struct {
	UserID    string    `bson:"_id"`
	Balance   int64     `bson:"balance"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type entryDoc struct {
	ID             string    `bson:"_id"`
	UserID         string    `bson:"user_id"`
	Type           string    `bson:"entry_type"`
	Amount         int64     `bson:"amount"`
	Balance        int64     `bson:"balance"`
	Description    string    `bson:"description"`
	IdempotencyKey string    `bson:"idempotency_key,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
}

type itemDoc struct {
	ID           string    `bson:"_id"`
	OwnerID      string    `bson:"owner_id"`
	Name         string    `bson:"name"`
	NameLower    string    `bson:"name_lower"`
	ImageURL     string    `bson:"image_url"`
	ViewCount    int64     `bson:"view_count"`
	LikeCount    int64     `bson:"like_count"`
	Expression   string    `bson:"expression,omitempty"`
	Style        string    `bson:"style,omitempty"`
	Makeup       string    `bson:"makeup,omitempty"`
	Accessories  string    `bson:"accessories,omitempty"`
	ProductsUsed []string  `bson:"products_used,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type pairDoc struct {
	UserID    string    `bson:"user_id"`
	ItemID    string    `bson:"item_id"`
	CreatedAt time.Time `bson:"created_at"`
}

type eventDoc struct {
	ID             string            `bson:"_id"`
	UserID         string            `bson:"user_id"`
	ItemID         string            `bson:"item_id"`
	Kind           string            `bson:"kind"`
	OccurredAt     time.Time         `bson:"occurred_at"`
	IdempotencyKey string            `bson:"idempotency_key,omitempty"`
	Metadata       map[string]string `bson:"metadata,omitempty"`
}

// ──────────────────────────────────────────────────
// ledger.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateWallet(ctx context.Context, userID id.UserID, initial types.Credits) error {
	now := time.Now().UTC()
	_, err := s.wallets.InsertOne(ctx, walletDoc{
		UserID:    userID.String(),
		Balance:   initial.Int64(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if mongo.IsDuplicateKeyError(err) {
		return facegate.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("facegate: create wallet: %w", err)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, userID id.UserID) (types.Credits, error) {
	var doc walletDoc
	err := s.wallets.FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("facegate: get balance: %w", err)
	}
	return types.CreditsOf(doc.Balance), nil
}

func (s *Store) Credit(ctx context.Context, userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	var doc walletDoc
	err := s.wallets.FindOneAndUpdate(ctx,
		bson.M{"_id": userID.String()},
		bson.M{
			"$inc": bson.M{"balance": amount.Int64()},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("facegate: credit: %w", err)
	}

	if err := s.insertEntry(ctx, entry, doc.Balance); err != nil {
		return types.ZeroCredits, err
	}
	return types.CreditsOf(doc.Balance), nil
}

func (s *Store) Debit(ctx context.Context, userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	balance, err := s.debit(ctx, userID, amount)
	if err != nil {
		return types.ZeroCredits, err
	}
	if err := s.insertEntry(ctx, entry, balance); err != nil {
		return types.ZeroCredits, err
	}
	return types.CreditsOf(balance), nil
}

// debit decrements the balance with the covering condition inside the
// filter, so the check and the decrement are one atomic document
// update.
func (s *Store) debit(ctx context.Context, userID id.UserID, amount types.Credits) (int64, error) {
	var doc walletDoc
	err := s.wallets.FindOneAndUpdate(ctx,
		bson.M{"_id": userID.String(), "balance": bson.M{"$gte": amount.Int64()}},
		bson.M{
			"$inc": bson.M{"balance": -amount.Int64()},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.wallets.CountDocuments(ctx, bson.M{"_id": userID.String()})
		if cerr != nil {
			return 0, fmt.Errorf("facegate: debit: %w", cerr)
		}
		if n == 0 {
			return 0, facegate.ErrWalletNotFound
		}
		return 0, facegate.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("facegate: debit: %w", err)
	}
	return doc.Balance, nil
}

func (s *Store) insertEntry(ctx context.Context, entry ledger.Entry, balance int64) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.entries.InsertOne(ctx, entryDoc{
		ID:             entry.ID.String(),
		UserID:         entry.UserID.String(),
		Type:           string(entry.Type),
		Amount:         entry.Amount.Int64(),
		Balance:        balance,
		Description:    entry.Description,
		IdempotencyKey: entry.IdempotencyKey,
		CreatedAt:      createdAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return facegate.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("facegate: insert entry: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, userID id.UserID, opts ledger.QueryOpts) ([]*ledger.Entry, error) {
	filter := bson.M{"user_id": userID.String()}
	if opts.Type != "" {
		filter["entry_type"] = string(opts.Type)
	}
	applyTimeRange(filter, "created_at", opts.Start, opts.End)

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.entries.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("facegate: list entries: %w", err)
	}
	defer cur.Close(ctx)

	var out []*ledger.Entry
	for cur.Next(ctx) {
		var doc entryDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("facegate: decode entry: %w", err)
		}
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, cur.Err()
}

func (d entryDoc) toEntry() (*ledger.Entry, error) {
	entryID, err := id.ParseEntryID(d.ID)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(d.UserID)
	if err != nil {
		return nil, err
	}
	return &ledger.Entry{
		ID:             entryID,
		UserID:         userID,
		Type:           ledger.EntryType(d.Type),
		Amount:         types.CreditsOf(d.Amount),
		Balance:        types.CreditsOf(d.Balance),
		Description:    d.Description,
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// content.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateItem(ctx context.Context, item *content.Item) error {
	products := make([]string, len(item.ProductsUsed))
	for i, p := range item.ProductsUsed {
		products[i] = p.String()
	}
	_, err := s.items.InsertOne(ctx, itemDoc{
		ID:           item.ID.String(),
		OwnerID:      item.OwnerID.String(),
		Name:         item.Name,
		NameLower:    strings.ToLower(item.Name),
		ImageURL:     item.ImageURL,
		ViewCount:    item.ViewCount,
		LikeCount:    item.LikeCount,
		Expression:   item.Expression,
		Style:        item.Style,
		Makeup:       item.Makeup,
		Accessories:  item.Accessories,
		ProductsUsed: products,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return facegate.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("facegate: create item: %w", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, itemID id.ItemID, requester id.UserID) (*content.Item, error) {
	var doc itemDoc
	err := s.items.FindOne(ctx, bson.M{"_id": itemID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, facegate.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("facegate: get item: %w", err)
	}

	item, err := doc.toItem()
	if err != nil {
		return nil, err
	}
	if err := s.resolveFlags(ctx, item, requester); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) ListItems(ctx context.Context, q content.Query, requester id.UserID) ([]*content.Item, error) {
	filter := itemFilter(q)
	findOpts := options.Find().
		SetSort(bson.D{{Key: sortField(q.SortBy), Value: sortOrder(q.SortDir)}, {Key: "_id", Value: 1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.PageSize))

	cur, err := s.items.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("facegate: list items: %w", err)
	}
	defer cur.Close(ctx)

	out := []*content.Item{}
	for cur.Next(ctx) {
		var doc itemDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("facegate: decode item: %w", err)
		}
		item, err := doc.toItem()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	for _, item := range out {
		if err := s.resolveFlags(ctx, item, requester); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) CountItems(ctx context.Context, q content.Query) (int64, error) {
	n, err := s.items.CountDocuments(ctx, itemFilter(q))
	if err != nil {
		return 0, fmt.Errorf("facegate: count items: %w", err)
	}
	return n, nil
}

func itemFilter(q content.Query) bson.M {
	filter := bson.M{}
	if !q.OwnerID.IsNil() {
		filter["owner_id"] = q.OwnerID.String()
	}
	if q.SearchTerm != "" {
		filter["name_lower"] = bson.M{
			"$regex": bson.Regex{Pattern: regexQuote(strings.ToLower(q.SearchTerm))},
		}
	}
	return filter
}

func regexQuote(s string) string {
	special := `\.+*?()|[]{}^$`
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func sortField(key content.SortKey) string {
	switch key {
	case content.SortByViewCount:
		return "view_count"
	case content.SortByLikeCount:
		return "like_count"
	default:
		return "created_at"
	}
}

func sortOrder(dir content.SortDirection) int {
	if dir == content.Ascending {
		return 1
	}
	return -1
}

func (d itemDoc) toItem() (*content.Item, error) {
	itemID, err := id.ParseItemID(d.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseUserID(d.OwnerID)
	if err != nil {
		return nil, err
	}
	item := &content.Item{
		ID:          itemID,
		OwnerID:     ownerID,
		Name:        d.Name,
		ImageURL:    d.ImageURL,
		ViewCount:   d.ViewCount,
		LikeCount:   d.LikeCount,
		Expression:  d.Expression,
		Style:       d.Style,
		Makeup:      d.Makeup,
		Accessories: d.Accessories,
	}
	item.CreatedAt = d.CreatedAt
	item.UpdatedAt = d.UpdatedAt
	for _, p := range d.ProductsUsed {
		pid, err := id.ParseItemID(p)
		if err != nil {
			return nil, err
		}
		item.ProductsUsed = append(item.ProductsUsed, pid)
	}
	return item, nil
}

func (s *Store) resolveFlags(ctx context.Context, item *content.Item, requester id.UserID) error {
	if requester.IsNil() {
		return nil
	}
	pair := bson.M{"user_id": requester.String(), "item_id": item.ID.String()}

	n, err := s.accesses.CountDocuments(ctx, pair)
	if err != nil {
		return fmt.Errorf("facegate: resolve flags: %w", err)
	}
	item.ViewedByRequester = n > 0

	n, err = s.likes.CountDocuments(ctx, pair)
	if err != nil {
		return fmt.Errorf("facegate: resolve flags: %w", err)
	}
	item.LikedByRequester = n > 0
	return nil
}

// ──────────────────────────────────────────────────
// gate.Store
// ──────────────────────────────────────────────────

func (s *Store) HasViewed(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error) {
	n, err := s.accesses.CountDocuments(ctx,
		bson.M{"user_id": userID.String(), "item_id": itemID.String()})
	if err != nil {
		return false, fmt.Errorf("facegate: has viewed: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GrantAccess(ctx context.Context, userID id.UserID, itemID id.ItemID, price types.Credits) (*gate.Grant, error) {
	n, err := s.items.CountDocuments(ctx, bson.M{"_id": itemID.String()})
	if err != nil {
		return nil, fmt.Errorf("facegate: grant access: %w", err)
	}
	if n == 0 {
		return nil, facegate.ErrItemNotFound
	}

	// Claim the access record first; the unique index decides the race.
	access := pairDoc{UserID: userID.String(), ItemID: itemID.String(), CreatedAt: time.Now().UTC()}
	if _, err := s.accesses.InsertOne(ctx, access); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, facegate.ErrAlreadyViewed
		}
		return nil, fmt.Errorf("facegate: record access: %w", err)
	}

	balance, err := s.debit(ctx, userID, price)
	if err != nil {
		// Roll back the claim so a funded retry can charge.
		_, _ = s.accesses.DeleteOne(ctx,
			bson.M{"user_id": userID.String(), "item_id": itemID.String()})
		return nil, err
	}

	entry := ledger.Entry{
		ID:          id.New(id.PrefixEntry),
		UserID:      userID,
		Type:        ledger.EntryDebit,
		Amount:      price,
		Description: "view " + itemID.String(),
	}
	if err := s.insertEntry(ctx, entry, balance); err != nil {
		return nil, err
	}

	var doc itemDoc
	err = s.items.FindOneAndUpdate(ctx,
		bson.M{"_id": itemID.String()},
		bson.M{
			"$inc": bson.M{"view_count": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("facegate: bump view count: %w", err)
	}
	return &gate.Grant{Balance: types.CreditsOf(balance), ViewCount: doc.ViewCount}, nil
}

// ──────────────────────────────────────────────────
// engagement.Store
// ──────────────────────────────────────────────────

func (s *Store) ToggleLike(ctx context.Context, userID id.UserID, itemID id.ItemID) (*engagement.LikeResult, error) {
	n, err := s.items.CountDocuments(ctx, bson.M{"_id": itemID.String()})
	if err != nil {
		return nil, fmt.Errorf("facegate: toggle like: %w", err)
	}
	if n == 0 {
		return nil, facegate.ErrItemNotFound
	}

	pair := bson.M{"user_id": userID.String(), "item_id": itemID.String()}

	liked := true
	var delta int64 = 1
	doc := pairDoc{UserID: userID.String(), ItemID: itemID.String(), CreatedAt: time.Now().UTC()}
	if _, err := s.likes.InsertOne(ctx, doc); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("facegate: toggle like: %w", err)
		}
		if _, err := s.likes.DeleteOne(ctx, pair); err != nil {
			return nil, fmt.Errorf("facegate: toggle like: %w", err)
		}
		liked = false
		delta = -1
	}

	var updated itemDoc
	filter := bson.M{"_id": itemID.String()}
	if delta < 0 {
		// Guard the decrement so the count cannot go negative.
		filter["like_count"] = bson.M{"$gt": 0}
	}
	err = s.items.FindOneAndUpdate(ctx, filter,
		bson.M{
			"$inc": bson.M{"like_count": delta},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Count was already zero; report the floor.
		return &engagement.LikeResult{ItemID: itemID, Liked: liked, LikeCount: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("facegate: toggle like: %w", err)
	}
	return &engagement.LikeResult{ItemID: itemID, Liked: liked, LikeCount: updated.LikeCount}, nil
}

func (s *Store) IsLiked(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error) {
	n, err := s.likes.CountDocuments(ctx,
		bson.M{"user_id": userID.String(), "item_id": itemID.String()})
	if err != nil {
		return false, fmt.Errorf("facegate: is liked: %w", err)
	}
	return n > 0, nil
}

func (s *Store) IngestEvents(ctx context.Context, events []*engagement.Event) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]any, 0, len(events))
	for _, ev := range events {
		docs = append(docs, eventDoc{
			ID:             ev.ID.String(),
			UserID:         ev.UserID.String(),
			ItemID:         ev.ItemID.String(),
			Kind:           string(ev.Kind),
			OccurredAt:     ev.Timestamp,
			IdempotencyKey: ev.IdempotencyKey,
			Metadata:       ev.Metadata,
		})
	}

	// Unordered insert: duplicates fail individually, the rest land.
	_, err := s.events.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("facegate: ingest events: %w", err)
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, userID id.UserID, opts engagement.QueryOpts) ([]*engagement.Event, error) {
	filter := bson.M{"user_id": userID.String()}
	if !opts.ItemID.IsNil() {
		filter["item_id"] = opts.ItemID.String()
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	applyTimeRange(filter, "occurred_at", opts.Start, opts.End)

	findOpts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.events.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("facegate: query events: %w", err)
	}
	defer cur.Close(ctx)

	var out []*engagement.Event
	for cur.Next(ctx) {
		var doc eventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("facegate: decode event: %w", err)
		}
		ev, err := doc.toEvent()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, cur.Err()
}

func (d eventDoc) toEvent() (*engagement.Event, error) {
	evID, err := id.ParseEventID(d.ID)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(d.UserID)
	if err != nil {
		return nil, err
	}
	itemID, err := id.ParseItemID(d.ItemID)
	if err != nil {
		return nil, err
	}
	return &engagement.Event{
		ID:             evID,
		UserID:         userID,
		ItemID:         itemID,
		Kind:           engagement.EventKind(d.Kind),
		Timestamp:      d.OccurredAt,
		IdempotencyKey: d.IdempotencyKey,
		Metadata:       d.Metadata,
	}, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.events.DeleteMany(ctx, bson.M{"occurred_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("facegate: purge events: %w", err)
	}
	return res.DeletedCount, nil
}

func applyTimeRange(filter bson.M, field string, start, end time.Time) {
	rangeFilter := bson.M{}
	if !start.IsZero() {
		rangeFilter["$gte"] = start
	}
	if !end.IsZero() {
		rangeFilter["$lt"] = end
	}
	if len(rangeFilter) > 0 {
		filter[field] = rangeFilter
	}
}
