package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the durable backend for the wallet ledger and the raffle
// catalog. It is constructed once in the composition root and injected
// into the services that need it.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dbPath with WAL mode,
// runs migrations and seeds the catalog and wallet when empty.
// Pass ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, err
		}
		dbPath = abs
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Every pooled connection to ":memory:" would get its own database,
	// so pin the pool to one connection there.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seed(time.Now().UTC()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate creates the necessary tables
func (s *Store) migrate() error {
	walletTable := `
		CREATE TABLE IF NOT EXISTS wallet (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			email TEXT NOT NULL DEFAULT '',
			balance INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`

	rafflesTable := `
		CREATE TABLE IF NOT EXISTS raffles (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			ends_at DATETIME NOT NULL,
			ticket_price INTEGER NOT NULL,
			pool INTEGER NOT NULL DEFAULT 0,
			payout_info TEXT,
			description TEXT,
			yield_protocol TEXT
		)
	`

	entriesTable := `
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			raffle_id TEXT UNIQUE NOT NULL,
			tickets_bought INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			outcome TEXT NOT NULL DEFAULT 'pending',
			purchased_at DATETIME NOT NULL
		)
	`

	transactionsTable := `
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			amount INTEGER NOT NULL,
			source_type TEXT NOT NULL,
			description TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`

	createIndexes := `
		CREATE INDEX IF NOT EXISTS idx_raffles_status ON raffles(status);
		CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);
	`

	for _, stmt := range []string{walletTable, rafflesTable, entriesTable, transactionsTable, createIndexes} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// seed applies the load-time merge policy: if the persisted catalog is
// empty, seed with the bootstrap raffles; otherwise use persisted data
// verbatim. The wallet row is created with the welcome balance on first
// run.
func (s *Store) seed(now time.Time) error {
	var raffleCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM raffles`).Scan(&raffleCount); err != nil {
		return fmt.Errorf("failed to count raffles: %w", err)
	}
	if raffleCount == 0 {
		for _, r := range BootstrapRaffles(now) {
			_, err := s.db.Exec(`
				INSERT INTO raffles (id, title, status, ends_at, ticket_price, pool, payout_info, description, yield_protocol)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, r.Title, string(r.Status), r.EndsAt.UTC(), r.TicketPrice, r.Pool, r.PayoutInfo, r.Description, r.YieldProtocol)
			if err != nil {
				return fmt.Errorf("failed to seed raffle %s: %w", r.ID, err)
			}
		}
	}

	var walletCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM wallet`).Scan(&walletCount); err != nil {
		return fmt.Errorf("failed to count wallet rows: %w", err)
	}
	if walletCount == 0 {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`INSERT INTO wallet (id, email, balance) VALUES (1, '', ?)`, WelcomeBalance); err != nil {
			return fmt.Errorf("failed to insert wallet: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO transactions (amount, source_type, description)
			VALUES (?, ?, 'Demo USDC starting balance')
		`, WelcomeBalance, SourceWelcomeBonus)
		if err != nil {
			return fmt.Errorf("failed to insert welcome bonus transaction: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
	}
	return nil
}

// Wallet returns the singleton wallet row
func (s *Store) Wallet() (*Wallet, error) {
	var w Wallet
	err := s.db.QueryRow(`
		SELECT email, balance, created_at, updated_at
		FROM wallet
		WHERE id = 1
	`).Scan(&w.Email, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// SetEmail sets the logged-in identity. Pass "" to clear it on logout;
// balance and entries are left untouched.
func (s *Store) SetEmail(email string) error {
	_, err := s.db.Exec(`
		UPDATE wallet
		SET email = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, email)
	if err != nil {
		return fmt.Errorf("failed to set email: %w", err)
	}
	return nil
}

// DeductBalance subtracts amount from the wallet balance, clamped at
// zero, and returns the new balance. It never fails on underflow;
// affordability is the purchase flow's concern.
func (s *Store) DeductBalance(amount int64) (int64, error) {
	_, err := s.db.Exec(`
		UPDATE wallet
		SET balance = MAX(0, balance - ?), updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance: %w", err)
	}
	var balance int64
	if err := s.db.QueryRow(`SELECT balance FROM wallet WHERE id = 1`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

// CreditBalance adds amount to the wallet balance and appends a ledger
// row, returning the new balance.
func (s *Store) CreditBalance(amount int64, sourceType, description string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE wallet
		SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, amount); err != nil {
		return 0, fmt.Errorf("failed to credit balance: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO transactions (amount, source_type, description)
		VALUES (?, ?, ?)
	`, amount, sourceType, description); err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	var balance int64
	if err := tx.QueryRow(`SELECT balance FROM wallet WHERE id = 1`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return balance, nil
}

// Transactions returns the most recent ledger rows, newest first.
func (s *Store) Transactions(limit int) ([]*Transaction, error) {
	rows, err := s.db.Query(`
		SELECT id, amount, source_type, description, created_at
		FROM transactions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*Transaction
	for rows.Next() {
		var t Transaction
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.Amount, &t.SourceType, &description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if description.Valid {
			t.Description = description.String
		}
		txns = append(txns, &t)
	}
	return txns, rows.Err()
}

// Raffles returns all raffles; order is insignificant, consumers re-sort.
func (s *Store) Raffles() ([]*Raffle, error) {
	rows, err := s.db.Query(`
		SELECT id, title, status, ends_at, ticket_price, pool, payout_info, description, yield_protocol
		FROM raffles
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query raffles: %w", err)
	}
	defer rows.Close()

	var raffles []*Raffle
	for rows.Next() {
		r, err := scanRaffle(rows)
		if err != nil {
			return nil, err
		}
		raffles = append(raffles, r)
	}
	return raffles, rows.Err()
}

// RaffleByID retrieves a raffle; returns nil, nil when absent.
func (s *Store) RaffleByID(id string) (*Raffle, error) {
	row := s.db.QueryRow(`
		SELECT id, title, status, ends_at, ticket_price, pool, payout_info, description, yield_protocol
		FROM raffles
		WHERE id = ?
	`, id)
	r, err := scanRaffle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRaffle(row rowScanner) (*Raffle, error) {
	var r Raffle
	var payoutInfo, description, yieldProtocol sql.NullString
	err := row.Scan(&r.ID, &r.Title, &r.Status, &r.EndsAt, &r.TicketPrice, &r.Pool, &payoutInfo, &description, &yieldProtocol)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan raffle: %w", err)
	}
	if payoutInfo.Valid {
		r.PayoutInfo = payoutInfo.String
	}
	if description.Valid {
		r.Description = description.String
	}
	if yieldProtocol.Valid {
		r.YieldProtocol = yieldProtocol.String
	}
	return &r, nil
}

// AddRaffle inserts a raffle into the catalog. Used by seed tooling;
// the demo itself never creates raffles after bootstrap.
func (s *Store) AddRaffle(r *Raffle) error {
	_, err := s.db.Exec(`
		INSERT INTO raffles (id, title, status, ends_at, ticket_price, pool, payout_info, description, yield_protocol)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Title, string(r.Status), r.EndsAt.UTC(), r.TicketPrice, r.Pool, r.PayoutInfo, r.Description, r.YieldProtocol)
	if err != nil {
		return fmt.Errorf("failed to insert raffle: %w", err)
	}
	return nil
}

// FinalizeRaffle transitions a raffle to finalized. Finalizing an
// already-finalized raffle is a no-op, not an error.
func (s *Store) FinalizeRaffle(id string) error {
	res, err := s.db.Exec(`
		UPDATE raffles
		SET status = 'finalized'
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to finalize raffle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreditPool adds amount to a raffle's pool total.
func (s *Store) CreditPool(id string, amount int64) error {
	res, err := s.db.Exec(`
		UPDATE raffles
		SET pool = pool + ?
		WHERE id = ?
	`, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit pool: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpiredActiveRaffles returns active raffles whose end time has passed.
func (s *Store) ExpiredActiveRaffles(now time.Time) ([]*Raffle, error) {
	rows, err := s.db.Query(`
		SELECT id, title, status, ends_at, ticket_price, pool, payout_info, description, yield_protocol
		FROM raffles
		WHERE status = 'active' AND ends_at < ?
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired raffles: %w", err)
	}
	defer rows.Close()

	var raffles []*Raffle
	for rows.Next() {
		r, err := scanRaffle(rows)
		if err != nil {
			return nil, err
		}
		raffles = append(raffles, r)
	}
	return raffles, rows.Err()
}

// Entries returns all user entries ordered by first purchase time.
func (s *Store) Entries() ([]*UserEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, raffle_id, tickets_bought, status, outcome, purchased_at
		FROM entries
		ORDER BY purchased_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*UserEntry
	for rows.Next() {
		var e UserEntry
		if err := rows.Scan(&e.ID, &e.RaffleID, &e.TicketsBought, &e.Status, &e.Outcome, &e.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// EntryByRaffle retrieves the entry for a raffle; returns nil, nil when
// the wallet holds none.
func (s *Store) EntryByRaffle(raffleID string) (*UserEntry, error) {
	var e UserEntry
	err := s.db.QueryRow(`
		SELECT id, raffle_id, tickets_bought, status, outcome, purchased_at
		FROM entries
		WHERE raffle_id = ?
	`, raffleID).Scan(&e.ID, &e.RaffleID, &e.TicketsBought, &e.Status, &e.Outcome, &e.PurchasedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &e, nil
}

// UpsertEntry creates a pending entry on first purchase for a raffle,
// or accumulates tickets into the existing one. The purchase timestamp
// is set once and not updated on top-ups.
func (s *Store) UpsertEntry(raffleID string, tickets int64) (*UserEntry, error) {
	_, err := s.db.Exec(`
		INSERT INTO entries (raffle_id, tickets_bought, status, outcome, purchased_at)
		VALUES (?, ?, 'active', 'pending', ?)
		ON CONFLICT(raffle_id) DO UPDATE SET tickets_bought = tickets_bought + excluded.tickets_bought
	`, raffleID, tickets, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}
	return s.EntryByRaffle(raffleID)
}

// FinalizeEntry sets the entry for raffleID to finalized with the given
// outcome. Missing entries are a no-op, and an outcome already set to
// won/lost is never overwritten.
func (s *Store) FinalizeEntry(raffleID string, outcome EntryOutcome) error {
	_, err := s.db.Exec(`
		UPDATE entries
		SET status = 'finalized', outcome = ?
		WHERE raffle_id = ? AND outcome = 'pending'
	`, string(outcome), raffleID)
	if err != nil {
		return fmt.Errorf("failed to finalize entry: %w", err)
	}
	return nil
}

// PurchaseResult reports the state after a committed purchase.
type PurchaseResult struct {
	NewBalance int64
	Pool       int64
	Entry      *UserEntry
}

// ApplyPurchase applies a ticket purchase atomically: balance deduction,
// pool credit, entry upsert and ledger row all commit together or not at
// all. The affordability and raffle checks run inside the transaction,
// before anything is mutated.
func (s *Store) ApplyPurchase(ctx context.Context, raffleID string, tickets, cost int64) (*PurchaseResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM raffles WHERE id = ?`, raffleID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if status != string(RaffleStatusActive) {
		return nil, ErrRaffleFinalized
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, `SELECT balance FROM wallet WHERE id = 1`).Scan(&balance); err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if balance < cost {
		return nil, ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallet
		SET balance = MAX(0, balance - ?), updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, cost); err != nil {
		return nil, fmt.Errorf("failed to deduct balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE raffles
		SET pool = pool + ?
		WHERE id = ?
	`, cost, raffleID); err != nil {
		return nil, fmt.Errorf("failed to credit pool: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entries (raffle_id, tickets_bought, status, outcome, purchased_at)
		VALUES (?, ?, 'active', 'pending', ?)
		ON CONFLICT(raffle_id) DO UPDATE SET tickets_bought = tickets_bought + excluded.tickets_bought
	`, raffleID, tickets, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (amount, source_type, description)
		VALUES (?, ?, ?)
	`, -cost, SourceTicketPurchase, fmt.Sprintf("%d ticket(s) for raffle %s", tickets, raffleID)); err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	result := &PurchaseResult{}
	if err := tx.QueryRowContext(ctx, `SELECT balance FROM wallet WHERE id = 1`).Scan(&result.NewBalance); err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT pool FROM raffles WHERE id = ?`, raffleID).Scan(&result.Pool); err != nil {
		return nil, fmt.Errorf("failed to read pool: %w", err)
	}
	var e UserEntry
	if err := tx.QueryRowContext(ctx, `
		SELECT id, raffle_id, tickets_bought, status, outcome, purchased_at
		FROM entries
		WHERE raffle_id = ?
	`, raffleID).Scan(&e.ID, &e.RaffleID, &e.TicketsBought, &e.Status, &e.Outcome, &e.PurchasedAt); err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}
	result.Entry = &e

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}
