package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/database"
	"github.com/quantfolio/quantfolio/internal/domain"
)

// ordersColumns is the list of columns for the orders table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match scanOrder() expectations.
const ordersColumns = `order_id, symbol, action, shares, price, value, allocation_percent, execution_time, session_type, status`

// Repository handles order ledger database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// Init creates the orders table if it does not exist
func (r *Repository) Init() error {
	if _, err := r.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return nil
}

// Append inserts a single order record and returns it with the
// assigned OrderID.
func (r *Repository) Append(record domain.OrderRecord) (domain.OrderRecord, error) {
	if err := validateRecord(record); err != nil {
		return domain.OrderRecord{}, err
	}

	query := `
		INSERT INTO orders
		(symbol, action, shares, price, value, allocation_percent,
		 execution_time, session_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Exec(query,
		strings.ToUpper(strings.TrimSpace(record.Symbol)),
		string(record.Action),
		record.Shares,
		record.Price.String(),
		record.EffectiveValue().String(),
		record.AllocationPercent,
		record.ExecutionTime,
		string(record.SessionType),
		string(record.Status),
		time.Now().Unix(),
	)
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("failed to append order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("failed to get order id: %w", err)
	}

	record.OrderID = id
	record.Symbol = strings.ToUpper(strings.TrimSpace(record.Symbol))
	record.Value = record.EffectiveValue()

	r.log.Debug().
		Int64("order_id", id).
		Str("symbol", record.Symbol).
		Str("action", string(record.Action)).
		Int64("shares", record.Shares).
		Msg("Order appended to ledger")

	return record, nil
}

// AppendAll inserts a batch of order records in a single transaction.
// Either every record is persisted or none are.
func (r *Repository) AppendAll(records []domain.OrderRecord) ([]domain.OrderRecord, error) {
	for _, rec := range records {
		if err := validateRecord(rec); err != nil {
			return nil, err
		}
	}

	out := make([]domain.OrderRecord, 0, len(records))
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO orders
			(symbol, action, shares, price, value, allocation_percent,
			 execution_time, session_type, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		now := time.Now().Unix()
		for _, rec := range records {
			res, err := tx.Exec(query,
				strings.ToUpper(strings.TrimSpace(rec.Symbol)),
				string(rec.Action),
				rec.Shares,
				rec.Price.String(),
				rec.EffectiveValue().String(),
				rec.AllocationPercent,
				rec.ExecutionTime,
				string(rec.SessionType),
				string(rec.Status),
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to append order for %s: %w", rec.Symbol, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get order id for %s: %w", rec.Symbol, err)
			}
			rec.OrderID = id
			rec.Symbol = strings.ToUpper(strings.TrimSpace(rec.Symbol))
			rec.Value = rec.EffectiveValue()
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().Int("count", len(out)).Msg("Order batch appended to ledger")
	return out, nil
}

// All returns every order record sorted by OrderID ascending
func (r *Repository) All() ([]domain.OrderRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders ORDER BY order_id ASC`, ordersColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var records []domain.OrderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return records, nil
}

// UpdateStatus advances the lifecycle state of an order
func (r *Repository) UpdateStatus(orderID int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, status)
	}

	res, err := r.db.Exec(`UPDATE orders SET status = ? WHERE order_id = ?`, string(status), orderID)
	if err != nil {
		return fmt.Errorf("failed to update order %d status: %w", orderID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %d not found", orderID)
	}

	r.log.Info().Int64("order_id", orderID).Str("status", string(status)).Msg("Order status updated")
	return nil
}

// Count returns the total number of ledger records
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func validateRecord(rec domain.OrderRecord) error {
	if strings.TrimSpace(rec.Symbol) == "" {
		return fmt.Errorf("%w: empty symbol", domain.ErrInvalidInput)
	}
	if !rec.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, rec.Action)
	}
	if rec.Shares <= 0 {
		return fmt.Errorf("%w: shares must be positive, got %d", domain.ErrInvalidInput, rec.Shares)
	}
	if !rec.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", domain.ErrInvalidInput, rec.Price)
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, rec.Status)
	}
	return nil
}

func scanOrder(rows *sql.Rows) (domain.OrderRecord, error) {
	var (
		rec     domain.OrderRecord
		action  string
		price   string
		value   string
		session string
		status  string
	)
	if err := rows.Scan(
		&rec.OrderID,
		&rec.Symbol,
		&action,
		&rec.Shares,
		&price,
		&value,
		&rec.AllocationPercent,
		&rec.ExecutionTime,
		&session,
		&status,
	); err != nil {
		return domain.OrderRecord{}, fmt.Errorf("failed to scan order: %w", err)
	}

	priceDec, err := decimal.NewFromString(price)
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("invalid price %q for order %d: %w", price, rec.OrderID, err)
	}
	valueDec, err := decimal.NewFromString(value)
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("invalid value %q for order %d: %w", value, rec.OrderID, err)
	}

	rec.Action = domain.Action(action)
	rec.Price = priceDec
	rec.Value = valueDec
	rec.SessionType = domain.SessionType(session)
	rec.Status = domain.OrderStatus(status)
	return rec, nil
}
