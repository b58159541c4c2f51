// Package sqlite keeps the append-only invoice log in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dejobratic/puravida/internal/orders/domain"
	"go.opentelemetry.io/otel/trace"

	// Pure-Go driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS invoice_log (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id      TEXT    NOT NULL,
    path          TEXT    NOT NULL,
    control_code  TEXT    NOT NULL,
    total         REAL    NOT NULL,
    trace_id      TEXT    NOT NULL DEFAULT '',
    issued_at     TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoice_log_order_id ON invoice_log(order_id, issued_at);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z"

// InvoiceLog records every invoice written, one row per issue.
type InvoiceLog struct {
	db *sql.DB
}

// Open creates or opens the log at path in WAL mode.
func Open(path string) (*InvoiceLog, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &InvoiceLog{db: db}, nil
}

func (l *InvoiceLog) Close() error {
	return l.db.Close()
}

// Append stores invoice along with the trace id of the active span, if any.
func (l *InvoiceLog) Append(ctx context.Context, invoice domain.Invoice) error {
	const q = `
		INSERT INTO invoice_log (order_id, path, control_code, total, trace_id, issued_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	var traceID string
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	_, err := l.db.ExecContext(ctx, q,
		invoice.OrderID,
		invoice.Path,
		invoice.ControlCode,
		invoice.Total,
		traceID,
		invoice.IssuedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append invoice for %q: %w", invoice.OrderID, err)
	}
	return nil
}

// ListByOrder returns the invoices of orderID, oldest first.
func (l *InvoiceLog) ListByOrder(ctx context.Context, orderID string) ([]domain.Invoice, error) {
	const q = `
		SELECT order_id, path, control_code, total, issued_at
		FROM   invoice_log
		WHERE  order_id = ?
		ORDER  BY issued_at ASC, id ASC`

	rows, err := l.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list invoices for %q: %w", orderID, err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		var issuedAt string
		if err := rows.Scan(&inv.OrderID, &inv.Path, &inv.ControlCode, &inv.Total, &issuedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan invoice: %w", err)
		}
		if inv.IssuedAt, err = time.Parse(timeLayout, issuedAt); err != nil {
			return nil, fmt.Errorf("sqlite: parse issued_at %q: %w", issuedAt, err)
		}
		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}
