package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/anand-venkat/invoice-guard/internal/entity"
)

// OpenSQLite opens (and bootstraps) a SQLite store. Use ":memory:"
// for the local batch mode and for tests.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// an in-memory database exists per connection; keep the pool at one
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS invoices (
			id              TEXT PRIMARY KEY,
			source_name     TEXT NOT NULL DEFAULT '',
			doc             TEXT NOT NULL,
			invoice_no      TEXT,
			gstin_company   TEXT,
			invoice_date    TEXT,
			summary_total   REAL,
			invoice_amount  REAL,
			created_at      TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS invoice_embeddings (
			id          TEXT PRIMARY KEY,
			invoice_id  TEXT,
			file_name   TEXT NOT NULL DEFAULT '',
			vector      TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap sqlite schema: %w", err)
	}
	return db, nil
}

type sqliteInvoiceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteInvoiceRepository returns a SQLite-backed invoice store.
func NewSQLiteInvoiceRepository(db *sql.DB, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqliteInvoiceRepository{db: db, logger: logger}
}

func (r *sqliteInvoiceRepository) FindFirst(ctx context.Context, f InvoiceFilter) (*entity.StoredInvoice, error) {
	if f.Empty() {
		return nil, nil
	}

	var (
		clauses []string
		args    []any
	)
	if f.InvoiceNo != "" {
		clauses = append(clauses, "invoice_no = ?")
		args = append(args, f.InvoiceNo)
	}
	if f.VendorGSTIN != "" {
		clauses = append(clauses, "gstin_company = ?")
		args = append(args, f.VendorGSTIN)
	}
	if f.InvoiceDate != "" {
		clauses = append(clauses, "invoice_date = ?")
		args = append(args, f.InvoiceDate)
	}
	if f.Total != nil {
		clauses = append(clauses, "(summary_total = ? OR invoice_amount = ?)")
		args = append(args, *f.Total, *f.Total)
	}

	query := `SELECT id, source_name, doc, created_at FROM invoices WHERE ` +
		strings.Join(clauses, " AND ") + ` LIMIT 1`

	var (
		rec       entity.StoredInvoice
		idText    string
		doc       string
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&idText, &rec.SourceName, &doc, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("invoice lookup failed", "error", err)
		return nil, err
	}
	if rec.ID, err = uuid.Parse(idText); err != nil {
		return nil, fmt.Errorf("decode invoice id: %w", err)
	}
	if err := json.Unmarshal([]byte(doc), &rec.Invoice); err != nil {
		return nil, fmt.Errorf("decode invoice doc: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &rec, nil
}

func (r *sqliteInvoiceRepository) Insert(ctx context.Context, inv *entity.Invoice, sourceName string) (uuid.UUID, error) {
	doc, err := json.Marshal(inv)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode invoice: %w", err)
	}

	id := uuid.New()
	keys := extractKeys(inv)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invoices (id, source_name, doc, invoice_no, gstin_company, invoice_date, summary_total, invoice_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), sourceName, string(doc),
		nullString(keys.invoiceNo), nullString(keys.gstin), nullString(keys.invoiceDate),
		keys.summaryTotal, keys.invoiceAmount, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("invoice insert failed", "source", sourceName, "error", err)
		return uuid.Nil, err
	}
	return id, nil
}

type sqliteEmbeddingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteEmbeddingRepository returns a SQLite-backed embedding store.
func NewSQLiteEmbeddingRepository(db *sql.DB, logger *slog.Logger) EmbeddingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqliteEmbeddingRepository{db: db, logger: logger}
}

func (r *sqliteEmbeddingRepository) ListAll(ctx context.Context) ([]entity.EmbeddingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, invoice_id, file_name, vector, created_at FROM invoice_embeddings`)
	if err != nil {
		r.logger.Error("embedding list failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.EmbeddingRecord
	for rows.Next() {
		var (
			rec       entity.EmbeddingRecord
			idText    string
			invoiceID sql.NullString
			raw       string
			createdAt string
		)
		if err := rows.Scan(&idText, &invoiceID, &rec.FileName, &raw, &createdAt); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(idText); err != nil {
			return nil, fmt.Errorf("decode embedding id: %w", err)
		}
		if invoiceID.Valid {
			v, err := uuid.Parse(invoiceID.String)
			if err != nil {
				return nil, fmt.Errorf("decode embedding invoice_id: %w", err)
			}
			rec.InvoiceID = &v
		}
		if err := json.Unmarshal([]byte(raw), &rec.Vector); err != nil {
			return nil, fmt.Errorf("decode vector: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *sqliteEmbeddingRepository) Insert(ctx context.Context, rec entity.EmbeddingRecord) (uuid.UUID, error) {
	raw, err := json.Marshal(rec.Vector)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode vector: %w", err)
	}
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	var invoiceID *string
	if rec.InvoiceID != nil {
		s := rec.InvoiceID.String()
		invoiceID = &s
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invoice_embeddings (id, invoice_id, file_name, vector, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id.String(), invoiceID, rec.FileName, string(raw), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("embedding insert failed", "file_name", rec.FileName, "error", err)
		return uuid.Nil, err
	}
	return id, nil
}
