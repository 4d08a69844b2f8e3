package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	pq "github.com/lib/pq"

	"github.com/guttosm/flexledger/internal/domain/models"
)

// Supported database/sql driver names.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// sync_state keys.
const (
	keyHighWaterMark     = "high_water_mark"
	keyReconciledThrough = "reconciled_through_seq"
)

// PositionFilter narrows a positions listing. Zero values match everything.
type PositionFilter struct {
	Status models.PositionStatus
	Symbol string
}

// Repository defines contract for DB operations.
type Repository interface {
	// Ledger
	HighWaterMark(ctx context.Context) (string, bool, error)
	PrependExecutions(ctx context.Context, execs []models.Execution, highWaterMark string) error
	ReadLedger(ctx context.Context, limit int) ([]models.LedgerEntry, error)

	// Positions and journal
	Positions(ctx context.Context, filter PositionFilter) ([]models.Position, error)
	Journal(ctx context.Context, limit int) ([]models.JournalEntry, error)
	ReconciledThrough(ctx context.Context) (int64, error)
	ApplyReconciliation(ctx context.Context, batch models.ReconciliationBatch) error

	Ping(ctx context.Context) error
}

type sqlRepository struct {
	db      *sql.DB
	dialect string
}

// NewRepository returns a Repository over db. dialect selects the bulk-load path:
// postgres uses COPY, every other driver uses a prepared INSERT.
func NewRepository(db *sql.DB, dialect string) Repository {
	return &sqlRepository{db: db, dialect: dialect}
}

// HighWaterMark returns the persisted high-water-mark verbatim.
func (r *sqlRepository) HighWaterMark(ctx context.Context) (string, bool, error) {
	v, ok, err := r.state(ctx, keyHighWaterMark)
	if err != nil {
		return "", false, fmt.Errorf("read high-water-mark: %w", err)
	}
	return v, ok, nil
}

// ReconciledThrough returns the highest ledger sequence already folded into positions, or 0.
func (r *sqlRepository) ReconciledThrough(ctx context.Context) (int64, error) {
	v, ok, err := r.state(ctx, keyReconciledThrough)
	if err != nil || !ok {
		return 0, err
	}
	seq, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", keyReconciledThrough, v, err)
	}
	return seq, nil
}

func (r *sqlRepository) state(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

const upsertState = `INSERT INTO sync_state (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

// PrependExecutions inserts execs (newest first) at the head of the ledger and stores the
// new high-water-mark in the same transaction. Sequences are assigned so that the oldest
// execution of the batch gets the lowest one. An empty highWaterMark leaves the stored one as is.
func (r *sqlRepository) PrependExecutions(ctx context.Context, execs []models.Execution, highWaterMark string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var head int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM ledger`).Scan(&head); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read ledger head: %w", err)
	}

	if r.dialect == DialectPostgres {
		err = r.copyLedger(ctx, tx, execs, head)
	} else {
		err = r.insertLedger(ctx, tx, execs, head)
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if highWaterMark != "" {
		if _, err := tx.ExecContext(ctx, upsertState, keyHighWaterMark, highWaterMark); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write high-water-mark: %w", err)
		}
	}
	return tx.Commit()
}

// copyLedger bulk loads rows through COPY FROM STDIN.
func (r *sqlRepository) copyLedger(ctx context.Context, tx *sql.Tx, execs []models.Execution, head int64) error {
	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"ledger",
		"seq",
		"symbol",
		"quantity",
		"price",
		"side",
		"asset_category",
		"buy_sell",
		"traded_at",
	))
	if err != nil {
		return err
	}

	for i := len(execs) - 1; i >= 0; i-- {
		e := execs[i]
		head++
		if _, err := stmt.ExecContext(ctx, head, e.Symbol, e.Quantity, e.Price, string(e.Side),
			e.AssetCategory, e.BuySell, nullTime(e.TradedAt)); err != nil {
			_ = stmt.Close()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

func (r *sqlRepository) insertLedger(ctx context.Context, tx *sql.Tx, execs []models.Execution, head int64) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger (seq, symbol, quantity, price, side, asset_category, buy_sell, traded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i := len(execs) - 1; i >= 0; i-- {
		e := execs[i]
		head++
		if _, err := stmt.ExecContext(ctx, head, e.Symbol, e.Quantity, e.Price, string(e.Side),
			e.AssetCategory, e.BuySell, nullTime(e.TradedAt)); err != nil {
			return fmt.Errorf("insert ledger seq %d: %w", head, err)
		}
	}
	return nil
}

// ReadLedger returns ledger entries newest first. limit <= 0 reads the whole ledger.
func (r *sqlRepository) ReadLedger(ctx context.Context, limit int) ([]models.LedgerEntry, error) {
	query := `SELECT seq, symbol, quantity, price, side, asset_category, buy_sell, traded_at FROM ledger ORDER BY seq DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.LedgerEntry
	for rows.Next() {
		var (
			e      models.LedgerEntry
			side   string
			traded sql.NullTime
		)
		if err := rows.Scan(&e.Seq, &e.Symbol, &e.Quantity, &e.Price, &side, &e.AssetCategory, &e.BuySell, &traded); err != nil {
			return nil, err
		}
		e.Side = models.Side(side)
		e.TradedAt = fromNullTime(traded)
		out = append(out, e)
	}
	return out, rows.Err()
}

const positionColumns = `id, symbol, status, quantity_remaining, open_quantity, close_quantity,
	sum_entry_notional, sum_exit_notional, avg_entry_price, avg_exit_price, asset_category, entry_at, last_touched_at`

// Positions returns aggregates newest first.
func (r *sqlRepository) Positions(ctx context.Context, filter PositionFilter) ([]models.Position, error) {
	// Build dynamic conditions; placeholders are numbered in order of appearance.
	conditions := "1 = 1"
	var args []interface{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		conditions += fmt.Sprintf(" AND symbol = $%d", len(args))
	}

	query := fmt.Sprintf(`SELECT %s FROM positions WHERE %s ORDER BY id DESC`, positionColumns, conditions)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Position
	for rows.Next() {
		var (
			p              models.Position
			status         string
			entry, touched sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Symbol, &status, &p.QuantityRemaining, &p.OpenQuantity, &p.CloseQuantity,
			&p.SumEntryNotional, &p.SumExitNotional, &p.AvgEntryPrice, &p.AvgExitPrice, &p.AssetCategory,
			&entry, &touched); err != nil {
			return nil, err
		}
		p.Status = models.PositionStatus(status)
		p.EntryAt = fromNullTime(entry)
		p.LastTouchedAt = fromNullTime(touched)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Journal returns journal rows newest first. limit <= 0 reads every row.
func (r *sqlRepository) Journal(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	query := `SELECT position_id, entry_date, entry_time, status, symbol, open_quantity, avg_entry_price, avg_exit_price
		FROM journal ORDER BY position_id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.JournalEntry
	for rows.Next() {
		var (
			j      models.JournalEntry
			status string
		)
		if err := rows.Scan(&j.PositionID, &j.EntryDate, &j.EntryTime, &status, &j.Symbol, &j.OpenQuantity,
			&j.AvgEntryPrice, &j.AvgExitPrice); err != nil {
			return nil, err
		}
		j.Status = models.PositionStatus(status)
		out = append(out, j)
	}
	return out, rows.Err()
}

// ApplyReconciliation persists one reconciliation pass atomically: every aggregate and
// journal mutation plus the advanced cursor, or nothing.
func (r *sqlRepository) ApplyReconciliation(ctx context.Context, batch models.ReconciliationBatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := applyBatch(ctx, tx, batch); err != nil {
		_ = tx.Rollback()
		return err
	}

	cursor := strconv.FormatInt(batch.ReconciledThrough, 10)
	if _, err := tx.ExecContext(ctx, upsertState, keyReconciledThrough, cursor); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write reconciliation cursor: %w", err)
	}
	return tx.Commit()
}

func applyBatch(ctx context.Context, tx *sql.Tx, batch models.ReconciliationBatch) error {
	if batch.Rebuild {
		if _, err := tx.ExecContext(ctx, `DELETE FROM journal`); err != nil {
			return fmt.Errorf("clear journal: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
			return fmt.Errorf("clear positions: %w", err)
		}
	}

	for _, p := range batch.UpdatedPositions {
		if _, err := tx.ExecContext(ctx, `
			UPDATE positions SET status = $1, quantity_remaining = $2, open_quantity = $3, close_quantity = $4,
				sum_entry_notional = $5, sum_exit_notional = $6, avg_entry_price = $7, avg_exit_price = $8,
				last_touched_at = $9
			WHERE id = $10`,
			string(p.Status), p.QuantityRemaining, p.OpenQuantity, p.CloseQuantity,
			p.SumEntryNotional, p.SumExitNotional, p.AvgEntryPrice, p.AvgExitPrice,
			nullTime(p.LastTouchedAt), p.ID); err != nil {
			return fmt.Errorf("update position %d: %w", p.ID, err)
		}
	}
	for _, p := range batch.NewPositions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions (`+positionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			p.ID, p.Symbol, string(p.Status), p.QuantityRemaining, p.OpenQuantity, p.CloseQuantity,
			p.SumEntryNotional, p.SumExitNotional, p.AvgEntryPrice, p.AvgExitPrice, p.AssetCategory,
			nullTime(p.EntryAt), nullTime(p.LastTouchedAt)); err != nil {
			return fmt.Errorf("insert position %d: %w", p.ID, err)
		}
	}

	for _, j := range batch.UpdatedJournal {
		if _, err := tx.ExecContext(ctx, `
			UPDATE journal SET status = $1, open_quantity = $2, avg_entry_price = $3, avg_exit_price = $4
			WHERE position_id = $5`,
			string(j.Status), j.OpenQuantity, j.AvgEntryPrice, j.AvgExitPrice, j.PositionID); err != nil {
			return fmt.Errorf("update journal row %d: %w", j.PositionID, err)
		}
	}
	for _, j := range batch.NewJournal {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO journal (position_id, entry_date, entry_time, status, symbol, open_quantity, avg_entry_price, avg_exit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			j.PositionID, j.EntryDate, j.EntryTime, string(j.Status), j.Symbol, j.OpenQuantity,
			j.AvgEntryPrice, j.AvgExitPrice); err != nil {
			return fmt.Errorf("insert journal row %d: %w", j.PositionID, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (r *sqlRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// helpers to map zero-value times to NULL (nil) and back
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func fromNullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}
