// Package sqlite implements the facegate store on SQLite via the
// mattn/go-sqlite3 driver. Suited for single-process deployments and
// integration tests; for multi-instance serving use postgres.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	facegate "github.com/jesssevilleja/facegate"
	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/ledger"
	"github.com/jesssevilleja/facegate/types"
)

// Store implements store.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for an
// ephemeral database. Call Migrate before first use.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("facegate: sqlite open: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// under concurrent use.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrStoreNotReady, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

func isUnique(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

// ──────────────────────────────────────────────────
// ledger.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateWallet(ctx context.Context, userID id.UserID, initial types.Credits) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES (?, ?)`,
		userID.String(), initial.Int64())
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
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM wallets WHERE user_id = ?`, userID.String()).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("facegate: get balance: %w", err)
	}
	return types.CreditsOf(balance), nil
}

func (s *Store) Credit(ctx context.Context, userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		amount.Int64(), userID.String())
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("facegate: credit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}

	var balance int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM wallets WHERE user_id = ?`, userID.String()).Scan(&balance); err != nil {
		return types.ZeroCredits, fmt.Errorf("facegate: credit: %w", err)
	}

	if err := insertEntry(ctx, tx, entry, balance); err != nil {
		return types.ZeroCredits, err
	}
	if err := tx.Commit(); err != nil {
		return types.ZeroCredits, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return types.CreditsOf(balance), nil
}

func (s *Store) Debit(ctx context.Context, userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.ZeroCredits, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	balance, err := debitTx(ctx, tx, userID, amount)
	if err != nil {
		return types.ZeroCredits, err
	}
	if err := insertEntry(ctx, tx, entry, balance); err != nil {
		return types.ZeroCredits, err
	}
	if err := tx.Commit(); err != nil {
		return types.ZeroCredits, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return types.CreditsOf(balance), nil
}

// debitTx decrements the balance only when it covers amount; the
// condition in the WHERE clause keeps concurrent debits from
// overdrawing.
func debitTx(ctx context.Context, tx *sql.Tx, userID id.UserID, amount types.Credits) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND balance >= ?`,
		amount.Int64(), userID.String(), amount.Int64())
	if err != nil {
		return 0, fmt.Errorf("facegate: debit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if cerr := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM wallets WHERE user_id = ?`, userID.String()).Scan(&exists); cerr != nil {
			return 0, fmt.Errorf("facegate: debit: %w", cerr)
		}
		if exists == 0 {
			return 0, facegate.ErrWalletNotFound
		}
		return 0, facegate.ErrInsufficientFunds
	}

	var balance int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM wallets WHERE user_id = ?`, userID.String()).Scan(&balance); err != nil {
		return 0, fmt.Errorf("facegate: debit: %w", err)
	}
	return balance, nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry ledger.Entry, balance int64) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var key any
	if entry.IdempotencyKey != "" {
		key = entry.IdempotencyKey
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, user_id, entry_type, amount, balance, description, idempotency_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.UserID.String(), string(entry.Type),
		entry.Amount.Int64(), balance, entry.Description, key, createdAt)
	if isUnique(err) {
		return facegate.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("facegate: insert entry: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, userID id.UserID, opts ledger.QueryOpts) ([]*ledger.Entry, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, user_id, entry_type, amount, balance, description, COALESCE(idempotency_key, ''), created_at
		FROM ledger_entries WHERE user_id = ?`)
	args := []any{userID.String()}

	if opts.Type != "" {
		sb.WriteString(` AND entry_type = ?`)
		args = append(args, string(opts.Type))
	}
	if !opts.Start.IsZero() {
		sb.WriteString(` AND created_at >= ?`)
		args = append(args, opts.Start)
	}
	if !opts.End.IsZero() {
		sb.WriteString(` AND created_at < ?`)
		args = append(args, opts.End)
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	if opts.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		sb.WriteString(` OFFSET ?`)
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
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
	products, err := encodeProducts(item.ProductsUsed)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, name, image_url, view_count, like_count,
			expression, style, makeup, accessories, products_used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.OwnerID.String(), item.Name, item.ImageURL,
		item.ViewCount, item.LikeCount,
		item.Expression, item.Style, item.Makeup, item.Accessories, products,
		item.CreatedAt, item.UpdatedAt)
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
	(a.user_id IS NOT NULL), (l.user_id IS NOT NULL)`

const itemJoins = ` FROM items i
	LEFT JOIN item_accesses a ON a.item_id = i.id AND a.user_id = ?
	LEFT JOIN item_likes l ON l.item_id = i.id AND l.user_id = ?`

func (s *Store) GetItem(ctx context.Context, itemID id.ItemID, requester id.UserID) (*content.Item, error) {
	req := requesterArg(requester)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+itemJoins+` WHERE i.id = ?`, req, req, itemID.String())

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, facegate.ErrItemNotFound
	}
	return item, err
}

func (s *Store) ListItems(ctx context.Context, q content.Query, requester id.UserID) ([]*content.Item, error) {
	req := requesterArg(requester)
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + itemColumns + itemJoins + ` WHERE 1=1`)
	args := []any{req, req}
	args = appendItemFilters(&sb, args, q)

	sb.WriteString(` ORDER BY ` + sortColumn(q.SortBy) + ` ` + sortDir(q.SortDir) + `, i.id`)
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, q.PageSize, q.Offset())

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
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
	sb.WriteString(`SELECT count(*) FROM items i WHERE 1=1`)
	args := appendItemFilters(&sb, nil, q)

	var n int64
	if err := s.db.QueryRowContext(ctx, sb.String(), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("facegate: count items: %w", err)
	}
	return n, nil
}

func appendItemFilters(sb *strings.Builder, args []any, q content.Query) []any {
	if !q.OwnerID.IsNil() {
		sb.WriteString(` AND i.owner_id = ?`)
		args = append(args, q.OwnerID.String())
	}
	if q.SearchTerm != "" {
		sb.WriteString(` AND lower(i.name) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(q.SearchTerm))+"%")
	}
	return args
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

func requesterArg(requester id.UserID) string {
	if requester.IsNil() {
		return ""
	}
	return requester.String()
}

func encodeProducts(products []id.ItemID) (string, error) {
	if len(products) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return "", fmt.Errorf("facegate: encode products: %w", err)
	}
	return string(raw), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*content.Item, error) {
	var (
		item          content.Item
		itemID, owner string
		products      string
	)
	err := row.Scan(&itemID, &owner, &item.Name, &item.ImageURL, &item.ViewCount, &item.LikeCount,
		&item.Expression, &item.Style, &item.Makeup, &item.Accessories, &products,
		&item.CreatedAt, &item.UpdatedAt, &item.ViewedByRequester, &item.LikedByRequester)
	if err != nil {
		return nil, err
	}
	if item.ID, err = id.ParseItemID(itemID); err != nil {
		return nil, err
	}
	if item.OwnerID, err = id.ParseUserID(owner); err != nil {
		return nil, err
	}
	if products != "" && products != "[]" {
		if err := json.Unmarshal([]byte(products), &item.ProductsUsed); err != nil {
			return nil, fmt.Errorf("facegate: decode products: %w", err)
		}
	}
	return &item, nil
}

// ──────────────────────────────────────────────────
// gate.Store
// ──────────────────────────────────────────────────

func (s *Store) HasViewed(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM item_accesses WHERE user_id = ? AND item_id = ?`,
		userID.String(), itemID.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("facegate: has viewed: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GrantAccess(ctx context.Context, userID id.UserID, itemID id.ItemID, price types.Credits) (*gate.Grant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO item_accesses (user_id, item_id, created_at) VALUES (?, ?, ?)`,
		userID.String(), itemID.String(), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("facegate: record access: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
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

	res, err = tx.ExecContext(ctx,
		`UPDATE items SET view_count = view_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		itemID.String())
	if err != nil {
		return nil, fmt.Errorf("facegate: bump view count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, facegate.ErrItemNotFound
	}

	var viewCount int64
	if err := tx.QueryRowContext(ctx,
		`SELECT view_count FROM items WHERE id = ?`, itemID.String()).Scan(&viewCount); err != nil {
		return nil, fmt.Errorf("facegate: bump view count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return &gate.Grant{Balance: types.CreditsOf(balance), ViewCount: viewCount}, nil
}

// ──────────────────────────────────────────────────
// engagement.Store
// ──────────────────────────────────────────────────

func (s *Store) ToggleLike(ctx context.Context, userID id.UserID, itemID id.ItemID) (*engagement.LikeResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO item_likes (user_id, item_id, created_at) VALUES (?, ?, ?)`,
		userID.String(), itemID.String(), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("facegate: toggle like: %w", err)
	}

	inserted, _ := res.RowsAffected()
	liked := inserted == 1
	var stmt string
	if liked {
		stmt = `UPDATE items SET like_count = like_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	} else {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM item_likes WHERE user_id = ? AND item_id = ?`,
			userID.String(), itemID.String()); err != nil {
			return nil, fmt.Errorf("facegate: toggle like: %w", err)
		}
		stmt = `UPDATE items SET like_count = MAX(like_count - 1, 0), updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	}

	res, err = tx.ExecContext(ctx, stmt, itemID.String())
	if err != nil {
		return nil, fmt.Errorf("facegate: toggle like: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, facegate.ErrItemNotFound
	}

	var count int64
	if err := tx.QueryRowContext(ctx,
		`SELECT like_count FROM items WHERE id = ?`, itemID.String()).Scan(&count); err != nil {
		return nil, fmt.Errorf("facegate: toggle like: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return &engagement.LikeResult{ItemID: itemID, Liked: liked, LikeCount: count}, nil
}

func (s *Store) IsLiked(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM item_likes WHERE user_id = ? AND item_id = ?`,
		userID.String(), itemID.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("facegate: is liked: %w", err)
	}
	return n > 0, nil
}

func (s *Store) IngestEvents(ctx context.Context, events []*engagement.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO engagement_events (id, user_id, item_id, kind, occurred_at, idempotency_key, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("facegate: ingest events: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		var key any
		if ev.IdempotencyKey != "" {
			key = ev.IdempotencyKey
		}
		var metadata any
		if len(ev.Metadata) > 0 {
			raw, err := json.Marshal(ev.Metadata)
			if err != nil {
				return fmt.Errorf("facegate: encode metadata: %w", err)
			}
			metadata = string(raw)
		}
		if _, err := stmt.ExecContext(ctx,
			ev.ID.String(), ev.UserID.String(), ev.ItemID.String(),
			string(ev.Kind), ev.Timestamp, key, metadata); err != nil {
			return fmt.Errorf("facegate: ingest events: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, userID id.UserID, opts engagement.QueryOpts) ([]*engagement.Event, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, user_id, item_id, kind, occurred_at, COALESCE(idempotency_key, ''), COALESCE(metadata, '')
		FROM engagement_events WHERE user_id = ?`)
	args := []any{userID.String()}

	if !opts.ItemID.IsNil() {
		sb.WriteString(` AND item_id = ?`)
		args = append(args, opts.ItemID.String())
	}
	if opts.Kind != "" {
		sb.WriteString(` AND kind = ?`)
		args = append(args, string(opts.Kind))
	}
	if !opts.Start.IsZero() {
		sb.WriteString(` AND occurred_at >= ?`)
		args = append(args, opts.Start)
	}
	if !opts.End.IsZero() {
		sb.WriteString(` AND occurred_at < ?`)
		args = append(args, opts.End)
	}
	sb.WriteString(` ORDER BY occurred_at DESC`)
	if opts.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		sb.WriteString(` OFFSET ?`)
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("facegate: query events: %w", err)
	}
	defer rows.Close()

	var out []*engagement.Event
	for rows.Next() {
		var (
			ev                   engagement.Event
			evID, evUser, evItem string
			kind, metadata       string
		)
		if err := rows.Scan(&evID, &evUser, &evItem, &kind, &ev.Timestamp, &ev.IdempotencyKey, &metadata); err != nil {
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
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &ev.Metadata); err != nil {
				return nil, fmt.Errorf("facegate: decode metadata: %w", err)
			}
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM engagement_events WHERE occurred_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("facegate: purge events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("facegate: purge events: %w", err)
	}
	return n, nil
}
