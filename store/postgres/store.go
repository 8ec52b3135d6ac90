// Package postgres implements the facegate store on PostgreSQL via
// pgx. The grant path runs as a single transaction so the debit, the
// access record and the view count move together.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	facegate "github.com/jesssevilleja/facegate"
	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/ledger"
	"github.com/jesssevilleja/facegate/types"
)

const uniqueViolation = "23505"

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and returns a Store. Call Migrate
// before first use.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("facegate: postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", facegate.ErrStoreNotReady, err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of
// the pool's lifecycle; Close is still safe to call.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrStoreNotReady, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ──────────────────────────────────────────────────
// ledger.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateWallet(ctx context.Context, userID id.UserID, initial types.Credits) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES (@user_id, @balance)`,
		pgx.NamedArgs{"user_id": userID.String(), "balance": initial.Int64()})
	if isUnique(err) {
		return facegate.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("facegate: create wallet: %w", err)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, userID id.UserID) (types.Credits, error) {
	var balance int64
	err := s.pool.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = @user_id`,
		pgx.NamedArgs{"user_id": userID.String()}).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("facegate: get balance: %w", err)
	}
	return types.CreditsOf(balance), nil
}

func (s *Store) Credit(ctx context.Context, userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx,
		`UPDATE wallets SET balance = balance + @amount, updated_at = now()
		 WHERE user_id = @user_id RETURNING balance`,
		pgx.NamedArgs{"user_id": userID.String(), "amount": amount.Int64()}).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("facegate: credit: %w", err)
	}

	if err := insertEntry(ctx, tx, entry, balance); err != nil {
		return types.ZeroCredits, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.ZeroCredits, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return types.CreditsOf(balance), nil
}

func (s *Store) Debit(ctx context.Context, userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	balance, err := debitTx(ctx, tx, userID, amount)
	if err != nil {
		return types.ZeroCredits, err
	}
	if err := insertEntry(ctx, tx, entry, balance); err != nil {
		return types.ZeroCredits, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.ZeroCredits, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return types.CreditsOf(balance), nil
}

// debitTx decrements the balance if and only if it covers amount. The
// condition lives in the WHERE clause, so concurrent debits serialize
// on the row and can never overdraw.
func debitTx(ctx context.Context, tx pgx.Tx, userID id.UserID, amount types.Credits) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`UPDATE wallets SET balance = balance - @amount, updated_at = now()
		 WHERE user_id = @user_id AND balance >= @amount RETURNING balance`,
		pgx.NamedArgs{"user_id": userID.String(), "amount": amount.Int64()}).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing wallet from a short one.
		var exists bool
		if cerr := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM wallets WHERE user_id = @user_id)`,
			pgx.NamedArgs{"user_id": userID.String()}).Scan(&exists); cerr != nil {
			return 0, fmt.Errorf("facegate: debit: %w", cerr)
		}
		if !exists {
			return 0, facegate.ErrWalletNotFound
		}
		return 0, facegate.ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("facegate: debit: %w", err)
	}
	return balance, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, entry ledger.Entry, balance int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, user_id, entry_type, amount, balance, description, idempotency_key, created_at)
		 VALUES (@id, @user_id, @entry_type, @amount, @balance, @description, NULLIF(@idempotency_key, ''), @created_at)`,
		pgx.NamedArgs{
			"id":              entry.ID.String(),
			"user_id":         entry.UserID.String(),
			"entry_type":      string(entry.Type),
			"amount":          entry.Amount.Int64(),
			"balance":         balance,
			"description":     entry.Description,
			"idempotency_key": entry.IdempotencyKey,
			"created_at":      entryTime(entry),
		})
	if isUnique(err) {
		return facegate.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("facegate: insert entry: %w", err)
	}
	return nil
}

func entryTime(entry ledger.Entry) time.Time {
	if entry.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return entry.CreatedAt
}

func (s *Store) ListEntries(ctx context.Context, userID id.UserID, opts ledger.QueryOpts) ([]*ledger.Entry, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, user_id, entry_type, amount, balance, description, COALESCE(idempotency_key, ''), created_at
		FROM ledger_entries WHERE user_id = @user_id`)
	args := pgx.NamedArgs{"user_id": userID.String()}

	if opts.Type != "" {
		sb.WriteString(` AND entry_type = @entry_type`)
		args["entry_type"] = string(opts.Type)
	}
	if !opts.Start.IsZero() {
		sb.WriteString(` AND created_at >= @start`)
		args["start"] = opts.Start
	}
	if !opts.End.IsZero() {
		sb.WriteString(` AND created_at < @end`)
		args["end"] = opts.End
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	if opts.Limit > 0 {
		sb.WriteString(` LIMIT @limit`)
		args["limit"] = opts.Limit
	}
	if opts.Offset > 0 {
		sb.WriteString(` OFFSET @offset`)
		args["offset"] = opts.Offset
	}

	rows, err := s.pool.Query(ctx, sb.String(), args)
	if err != nil {
		return nil, fmt.Errorf("facegate: list entries: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Entry
	for rows.Next() {
		var (
			e                 ledger.Entry
			entryID, entryUID string
			typ               string
			amount, balance   int64
		)
		if err := rows.Scan(&entryID, &entryUID, &typ, &amount, &balance, &e.Description, &e.IdempotencyKey, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("facegate: scan entry: %w", err)
		}
		if e.ID, err = id.ParseEntryID(entryID); err != nil {
			return nil, err
		}
		if e.UserID, err = id.ParseUserID(entryUID); err != nil {
			return nil, err
		}
		e.Type = ledger.EntryType(typ)
		e.Amount = types.CreditsOf(amount)
		e.Balance = types.CreditsOf(balance)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ──────────────────────────────────────────────────
// content.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateItem(ctx context.Context, item *content.Item) error {
	products := make([]string, len(item.ProductsUsed))
	for i, p := range item.ProductsUsed {
		products[i] = p.String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO items (id, owner_id, name, image_url, view_count, like_count,
			expression, style, makeup, accessories, products_used, created_at, updated_at)
		 VALUES (@id, @owner_id, @name, @image_url, @view_count, @like_count,
			@expression, @style, @makeup, @accessories, @products_used, @created_at, @updated_at)`,
		pgx.NamedArgs{
			"id":            item.ID.String(),
			"owner_id":      item.OwnerID.String(),
			"name":          item.Name,
			"image_url":     item.ImageURL,
			"view_count":    item.ViewCount,
			"like_count":    item.LikeCount,
			"expression":    item.Expression,
			"style":         item.Style,
			"makeup":        item.Makeup,
			"accessories":   item.Accessories,
			"products_used": products,
			"created_at":    item.CreatedAt,
			"updated_at":    item.UpdatedAt,
		})
	if isUnique(err) {
		return facegate.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("facegate: create item: %w", err)
	}
	return nil
}

const itemColumns = `i.id, i.owner_id, i.name, i.image_url, i.view_count, i.like_count,
	i.expression, i.style, i.makeup, i.accessories, i.products_used, i.created_at, i.updated_at,
	(a.user_id IS NOT NULL) AS viewed, (l.user_id IS NOT NULL) AS liked`

const itemJoins = ` FROM items i
	LEFT JOIN item_accesses a ON a.item_id = i.id AND a.user_id = @requester
	LEFT JOIN item_likes l ON l.item_id = i.id AND l.user_id = @requester`

func (s *Store) GetItem(ctx context.Context, itemID id.ItemID, requester id.UserID) (*content.Item, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+itemJoins+` WHERE i.id = @id`,
		pgx.NamedArgs{"id": itemID.String(), "requester": requesterArg(requester)})

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, facegate.ErrItemNotFound
	}
	return item, err
}

func (s *Store) ListItems(ctx context.Context, q content.Query, requester id.UserID) ([]*content.Item, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + itemColumns + itemJoins + ` WHERE TRUE`)
	args := pgx.NamedArgs{"requester": requesterArg(requester)}
	appendItemFilters(&sb, args, q)

	sb.WriteString(` ORDER BY ` + sortColumn(q.SortBy) + ` ` + sortDir(q.SortDir) + `, i.id`)
	sb.WriteString(` LIMIT @limit OFFSET @offset`)
	args["limit"] = q.PageSize
	args["offset"] = q.Offset()

	rows, err := s.pool.Query(ctx, sb.String(), args)
	if err != nil {
		return nil, fmt.Errorf("facegate: list items: %w", err)
	}
	defer rows.Close()

	out := []*content.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) CountItems(ctx context.Context, q content.Query) (int64, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT count(*) FROM items i WHERE TRUE`)
	args := pgx.NamedArgs{}
	appendItemFilters(&sb, args, q)

	var n int64
	if err := s.pool.QueryRow(ctx, sb.String(), args).Scan(&n); err != nil {
		return 0, fmt.Errorf("facegate: count items: %w", err)
	}
	return n, nil
}

func appendItemFilters(sb *strings.Builder, args pgx.NamedArgs, q content.Query) {
	if !q.OwnerID.IsNil() {
		sb.WriteString(` AND i.owner_id = @owner_id`)
		args["owner_id"] = q.OwnerID.String()
	}
	if q.SearchTerm != "" {
		sb.WriteString(` AND i.name ILIKE @search`)
		args["search"] = "%" + escapeLike(q.SearchTerm) + "%"
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func sortColumn(key content.SortKey) string {
	switch key {
	case content.SortByViewCount:
		return "i.view_count"
	case content.SortByLikeCount:
		return "i.like_count"
	default:
		return "i.created_at"
	}
}

func sortDir(dir content.SortDirection) string {
	if dir == content.Ascending {
		return "ASC"
	}
	return "DESC"
}

// requesterArg maps an anonymous requester to a value no user_id can
// equal, so the flag joins match nothing.
func requesterArg(requester id.UserID) string {
	if requester.IsNil() {
		return ""
	}
	return requester.String()
}

func scanItem(row pgx.Row) (*content.Item, error) {
	var (
		item               content.Item
		itemID, owner      string
		products           []string
		createdAt, updated time.Time
	)
	err := row.Scan(&itemID, &owner, &item.Name, &item.ImageURL, &item.ViewCount, &item.LikeCount,
		&item.Expression, &item.Style, &item.Makeup, &item.Accessories, &products,
		&createdAt, &updated, &item.ViewedByRequester, &item.LikedByRequester)
	if err != nil {
		return nil, err
	}
	if item.ID, err = id.ParseItemID(itemID); err != nil {
		return nil, err
	}
	if item.OwnerID, err = id.ParseUserID(owner); err != nil {
		return nil, err
	}
	for _, p := range products {
		pid, err := id.ParseItemID(p)
		if err != nil {
			return nil, err
		}
		item.ProductsUsed = append(item.ProductsUsed, pid)
	}
	item.CreatedAt = createdAt
	item.UpdatedAt = updated
	return &item, nil
}

// ──────────────────────────────────────────────────
// gate.Store
// ──────────────────────────────────────────────────

func (s *Store) HasViewed(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error) {
	var viewed bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM item_accesses WHERE user_id = @user_id AND item_id = @item_id)`,
		pgx.NamedArgs{"user_id": userID.String(), "item_id": itemID.String()}).Scan(&viewed)
	if err != nil {
		return false, fmt.Errorf("facegate: has viewed: %w", err)
	}
	return viewed, nil
}

func (s *Store) GrantAccess(ctx context.Context, userID id.UserID, itemID id.ItemID, price types.Credits) (*gate.Grant, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{"user_id": userID.String(), "item_id": itemID.String()}

	// The access record goes first: its primary key makes the whole
	// grant first-writer-wins across concurrent transactions.
	tag, err := tx.Exec(ctx,
		`INSERT INTO item_accesses (user_id, item_id) VALUES (@user_id, @item_id)
		 ON CONFLICT DO NOTHING`, args)
	if err != nil {
		return nil, fmt.Errorf("facegate: record access: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, facegate.ErrAlreadyViewed
	}

	balance, err := debitTx(ctx, tx, userID, price)
	if err != nil {
		return nil, err
	}

	entry := ledger.Entry{
		ID:          id.New(id.PrefixEntry),
		UserID:      userID,
		Type:        ledger.EntryDebit,
		Amount:      price,
		Description: "view " + itemID.String(),
	}
	if err := insertEntry(ctx, tx, entry, balance); err != nil {
		return nil, err
	}

	var viewCount int64
	err = tx.QueryRow(ctx,
		`UPDATE items SET view_count = view_count + 1, updated_at = now()
		 WHERE id = @item_id RETURNING view_count`, args).Scan(&viewCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, facegate.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("facegate: bump view count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return &gate.Grant{Balance: types.CreditsOf(balance), ViewCount: viewCount}, nil
}

// ──────────────────────────────────────────────────
// engagement.Store
// ──────────────────────────────────────────────────

func (s *Store) ToggleLike(ctx context.Context, userID id.UserID, itemID id.ItemID) (*engagement.LikeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{"user_id": userID.String(), "item_id": itemID.String()}

	tag, err := tx.Exec(ctx,
		`INSERT INTO item_likes (user_id, item_id) VALUES (@user_id, @item_id)
		 ON CONFLICT DO NOTHING`, args)
	if err != nil {
		return nil, fmt.Errorf("facegate: toggle like: %w", err)
	}

	liked := tag.RowsAffected() == 1
	var stmt string
	if liked {
		stmt = `UPDATE items SET like_count = like_count + 1, updated_at = now()
			WHERE id = @item_id RETURNING like_count`
	} else {
		if _, err := tx.Exec(ctx,
			`DELETE FROM item_likes WHERE user_id = @user_id AND item_id = @item_id`, args); err != nil {
			return nil, fmt.Errorf("facegate: toggle like: %w", err)
		}
		stmt = `UPDATE items SET like_count = GREATEST(like_count - 1, 0), updated_at = now()
			WHERE id = @item_id RETURNING like_count`
	}

	var count int64
	err = tx.QueryRow(ctx, stmt, args).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, facegate.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("facegate: toggle like: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return &engagement.LikeResult{ItemID: itemID, Liked: liked, LikeCount: count}, nil
}

func (s *Store) IsLiked(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error) {
	var liked bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM item_likes WHERE user_id = @user_id AND item_id = @item_id)`,
		pgx.NamedArgs{"user_id": userID.String(), "item_id": itemID.String()}).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("facegate: is liked: %w", err)
	}
	return liked, nil
}

func (s *Store) IngestEvents(ctx context.Context, events []*engagement.Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(
			`INSERT INTO engagement_events (id, user_id, item_id, kind, occurred_at, idempotency_key, metadata)
			 VALUES (@id, @user_id, @item_id, @kind, @occurred_at, NULLIF(@idempotency_key, ''), @metadata)
			 ON CONFLICT (idempotency_key) DO NOTHING`,
			pgx.NamedArgs{
				"id":              ev.ID.String(),
				"user_id":         ev.UserID.String(),
				"item_id":         ev.ItemID.String(),
				"kind":            string(ev.Kind),
				"occurred_at":     ev.Timestamp,
				"idempotency_key": ev.IdempotencyKey,
				"metadata":        ev.Metadata,
			})
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("facegate: ingest events: %w", err)
		}
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, userID id.UserID, opts engagement.QueryOpts) ([]*engagement.Event, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, user_id, item_id, kind, occurred_at, COALESCE(idempotency_key, ''), metadata
		FROM engagement_events WHERE user_id = @user_id`)
	args := pgx.NamedArgs{"user_id": userID.String()}

	if !opts.ItemID.IsNil() {
		sb.WriteString(` AND item_id = @item_id`)
		args["item_id"] = opts.ItemID.String()
	}
	if opts.Kind != "" {
		sb.WriteString(` AND kind = @kind`)
		args["kind"] = string(opts.Kind)
	}
	if !opts.Start.IsZero() {
		sb.WriteString(` AND occurred_at >= @start`)
		args["start"] = opts.Start
	}
	if !opts.End.IsZero() {
		sb.WriteString(` AND occurred_at < @end`)
		args["end"] = opts.End
	}
	sb.WriteString(` ORDER BY occurred_at DESC`)
	if opts.Limit > 0 {
		sb.WriteString(` LIMIT @limit`)
		args["limit"] = opts.Limit
	}
	if opts.Offset > 0 {
		sb.WriteString(` OFFSET @offset`)
		args["offset"] = opts.Offset
	}

	rows, err := s.pool.Query(ctx, sb.String(), args)
	if err != nil {
		return nil, fmt.Errorf("facegate: query events: %w", err)
	}
	defer rows.Close()

	var out []*engagement.Event
	for rows.Next() {
		var (
			ev                   engagement.Event
			evID, evUser, evItem string
			kind                 string
		)
		if err := rows.Scan(&evID, &evUser, &evItem, &kind, &ev.Timestamp, &ev.IdempotencyKey, &ev.Metadata); err != nil {
			return nil, fmt.Errorf("facegate: scan event: %w", err)
		}
		if ev.ID, err = id.ParseEventID(evID); err != nil {
			return nil, err
		}
		if ev.UserID, err = id.ParseUserID(evUser); err != nil {
			return nil, err
		}
		if ev.ItemID, err = id.ParseItemID(evItem); err != nil {
			return nil, err
		}
		ev.Kind = engagement.EventKind(kind)
		out = append(out, &ev)
	}
	return out, rows.Err()
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM engagement_events WHERE occurred_at < @before`,
		pgx.NamedArgs{"before": before})
	if err != nil {
		return 0, fmt.Errorf("facegate: purge events: %w", err)
	}
	return tag.RowsAffected(), nil
}
