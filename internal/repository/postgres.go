package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anand-venkat/invoice-guard/internal/entity"
)

type pgInvoiceRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewInvoiceRepository returns a Postgres-backed invoice store.
func NewInvoiceRepository(pool *pgxpool.Pool, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgInvoiceRepository{pool: pool, logger: logger}
}

func (r *pgInvoiceRepository) FindFirst(ctx context.Context, f InvoiceFilter) (*entity.StoredInvoice, error) {
	if f.Empty() {
		return nil, nil
	}

	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.InvoiceNo != "" {
		clauses = append(clauses, "invoice_no = "+arg(f.InvoiceNo))
	}
	if f.VendorGSTIN != "" {
		clauses = append(clauses, "gstin_company = "+arg(f.VendorGSTIN))
	}
	if f.InvoiceDate != "" {
		clauses = append(clauses, "invoice_date = "+arg(f.InvoiceDate))
	}
	if f.Total != nil {
		p := arg(*f.Total)
		clauses = append(clauses, fmt.Sprintf("(summary_total = %s OR invoice_amount = %s)", p, p))
	}

	query := `SELECT id, source_name, doc, created_at FROM invoices WHERE ` +
		strings.Join(clauses, " AND ") + ` LIMIT 1`

	row := r.pool.QueryRow(ctx, query, args...)
	rec, err := scanStoredInvoice(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("invoice lookup failed", "error", err)
		return nil, err
	}
	return rec, nil
}

func (r *pgInvoiceRepository) Insert(ctx context.Context, inv *entity.Invoice, sourceName string) (uuid.UUID, error) {
	doc, err := json.Marshal(inv)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode invoice: %w", err)
	}

	id := uuid.New()
	keys := extractKeys(inv)
	_, err = r.pool.Exec(ctx, `
		INSERT INTO invoices (id, source_name, doc, invoice_no, gstin_company, invoice_date, summary_total, invoice_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, sourceName, doc,
		nullString(keys.invoiceNo), nullString(keys.gstin), nullString(keys.invoiceDate),
		keys.summaryTotal, keys.invoiceAmount, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("invoice insert failed", "source", sourceName, "error", err)
		return uuid.Nil, err
	}
	return id, nil
}

type pgEmbeddingRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewEmbeddingRepository returns a Postgres-backed embedding store.
func NewEmbeddingRepository(pool *pgxpool.Pool, logger *slog.Logger) EmbeddingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgEmbeddingRepository{pool: pool, logger: logger}
}

func (r *pgEmbeddingRepository) ListAll(ctx context.Context) ([]entity.EmbeddingRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, invoice_id, file_name, vector, created_at FROM invoice_embeddings`)
	if err != nil {
		r.logger.Error("embedding list failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.EmbeddingRecord
	for rows.Next() {
		var (
			rec entity.EmbeddingRecord
			raw []byte
		)
		if err := rows.Scan(&rec.ID, &rec.InvoiceID, &rec.FileName, &raw, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &rec.Vector); err != nil {
			return nil, fmt.Errorf("decode vector: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *pgEmbeddingRepository) Insert(ctx context.Context, rec entity.EmbeddingRecord) (uuid.UUID, error) {
	raw, err := json.Marshal(rec.Vector)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode vector: %w", err)
	}
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO invoice_embeddings (id, invoice_id, file_name, vector, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, rec.InvoiceID, rec.FileName, raw, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("embedding insert failed", "file_name", rec.FileName, "error", err)
		return uuid.Nil, err
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoredInvoice(row rowScanner) (*entity.StoredInvoice, error) {
	var (
		rec entity.StoredInvoice
		doc []byte
	)
	if err := row.Scan(&rec.ID, &rec.SourceName, &doc, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, &rec.Invoice); err != nil {
		return nil, fmt.Errorf("decode invoice doc: %w", err)
	}
	return &rec, nil
}

type invoiceKeys struct {
	invoiceNo     string
	gstin         string
	invoiceDate   string
	summaryTotal  *float64
	invoiceAmount *float64
}

// extractKeys pulls the exact-match columns out of the document so
// duplicate lookups stay plain SQL.
func extractKeys(inv *entity.Invoice) invoiceKeys {
	k := invoiceKeys{
		invoiceNo:   inv.InvoiceNo,
		gstin:       inv.VendorGSTIN,
		invoiceDate: inv.InvoiceDate,
	}
	if inv.Summary.TotalAmount.Present() {
		v := inv.Summary.TotalAmount.Float()
		k.summaryTotal = &v
	}
	if inv.InvoiceAmount.Present() {
		v := inv.InvoiceAmount.Float()
		k.invoiceAmount = &v
	}
	return k
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
