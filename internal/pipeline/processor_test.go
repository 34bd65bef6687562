package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand-venkat/invoice-guard/constants"
	"github.com/anand-venkat/invoice-guard/internal/dedupe"
	"github.com/anand-venkat/invoice-guard/internal/entity"
	"github.com/anand-venkat/invoice-guard/internal/extract"
	"github.com/anand-venkat/invoice-guard/internal/repository"
	"github.com/anand-venkat/invoice-guard/internal/validate"
)

type fakeInvoiceRepo struct {
	existing  *entity.StoredInvoice
	findErr   error
	insertErr error
	inserted  []*entity.Invoice
}

func (f *fakeInvoiceRepo) FindFirst(_ context.Context, _ repository.InvoiceFilter) (*entity.StoredInvoice, error) {
	return f.existing, f.findErr
}

func (f *fakeInvoiceRepo) Insert(_ context.Context, inv *entity.Invoice, _ string) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	f.inserted = append(f.inserted, inv)
	return uuid.New(), nil
}

type fakeEmbeddingRepo struct {
	stored   []entity.EmbeddingRecord
	inserted []entity.EmbeddingRecord
}

func (f *fakeEmbeddingRepo) ListAll(_ context.Context) ([]entity.EmbeddingRecord, error) {
	return f.stored, nil
}

func (f *fakeEmbeddingRepo) Insert(_ context.Context, rec entity.EmbeddingRecord) (uuid.UUID, error) {
	f.inserted = append(f.inserted, rec)
	return uuid.New(), nil
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func (f *fakeEmbedder) Close() error { return nil }

func validInvoice(t *testing.T) *entity.Invoice {
	t.Helper()
	var inv entity.Invoice
	raw := `{
		"invoice_no": "INV-1",
		"gstin_company": "27AAPFU0939F1ZV",
		"invoice_date": "20-Aug-25",
		"items": [{"description": "Product A", "quantity": 10, "rate": 10000, "amount": 100000}],
		"summary": {"subtotal": 100000, "cgst": 9, "sgst": 9, "igst": 0, "tax_amount": 18000, "total_amount": 118000}
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &inv))
	return &inv
}

func newPipeline(invoices *fakeInvoiceRepo, embRepo *fakeEmbeddingRepo, embedder *fakeEmbedder, threshold float64) *Pipeline {
	return New(
		invoices, embRepo,
		validate.NewValidator(),
		dedupe.NewExactMatcher(invoices, nil),
		dedupe.NewFuzzyMatcher(embedder, threshold, 5, nil),
		nil,
	)
}

func TestProcessAccepted(t *testing.T) {
	invoices := &fakeInvoiceRepo{}
	embRepo := &fakeEmbeddingRepo{}
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	p := newPipeline(invoices, embRepo, embedder, 0.9)

	res, err := p.Process(context.Background(), validInvoice(t), "16.json")

	require.NoError(t, err)
	assert.Equal(t, constants.DecisionAccepted, res.Decision)
	require.NotNil(t, res.InsertedID)
	require.NotNil(t, res.Validation)
	assert.True(t, res.Validation.Status)
	require.Len(t, invoices.inserted, 1)
	require.Len(t, embRepo.inserted, 1)
	require.NotNil(t, embRepo.inserted[0].InvoiceID)
	assert.Equal(t, *res.InsertedID, *embRepo.inserted[0].InvoiceID)
	assert.Equal(t, "16.json", embRepo.inserted[0].FileName)
}

func TestProcessExactDuplicateShortCircuits(t *testing.T) {
	existing := &entity.StoredInvoice{ID: uuid.New()}
	invoices := &fakeInvoiceRepo{existing: existing}
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	p := newPipeline(invoices, &fakeEmbeddingRepo{}, embedder, 0.9)

	res, err := p.Process(context.Background(), validInvoice(t), "16.json")

	require.NoError(t, err)
	assert.Equal(t, constants.DecisionExactDuplicate, res.Decision)
	require.NotNil(t, res.ExactID)
	assert.Equal(t, existing.ID, *res.ExactID)
	assert.Nil(t, res.Validation, "arithmetic stage must not run")
	assert.Zero(t, embedder.calls, "no embedding call for an exact duplicate")
	assert.Empty(t, invoices.inserted)
}

func TestProcessFuzzyDuplicate(t *testing.T) {
	storedID := uuid.New()
	invoices := &fakeInvoiceRepo{}
	embRepo := &fakeEmbeddingRepo{stored: []entity.EmbeddingRecord{
		{InvoiceID: &storedID, FileName: "old.json", Vector: []float32{1, 0}},
	}}
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	p := newPipeline(invoices, embRepo, embedder, 0.9)

	res, err := p.Process(context.Background(), validInvoice(t), "new.json")

	require.NoError(t, err)
	assert.Equal(t, constants.DecisionFuzzyDuplicate, res.Decision)
	require.Len(t, res.Fuzzy, 1)
	assert.InDelta(t, 1.0, res.Fuzzy[0].Score, 1e-9)
	assert.Empty(t, invoices.inserted, "fuzzy duplicates are not persisted")
	assert.Empty(t, embRepo.inserted, "a fuzzy duplicate's embedding is not stored")
}

func TestProcessEmbedFailureSkipsFuzzy(t *testing.T) {
	invoices := &fakeInvoiceRepo{}
	embRepo := &fakeEmbeddingRepo{stored: []entity.EmbeddingRecord{
		{FileName: "old.json", Vector: []float32{1, 0}},
	}}
	embedder := &fakeEmbedder{err: errors.New("model down")}
	p := newPipeline(invoices, embRepo, embedder, 0.9)

	res, err := p.Process(context.Background(), validInvoice(t), "16.json")

	require.NoError(t, err)
	assert.Equal(t, constants.DecisionAccepted, res.Decision)
	assert.Empty(t, res.Fuzzy)
	require.Len(t, invoices.inserted, 1)
	assert.Empty(t, embRepo.inserted, "no vector to store when embedding failed")
}

func TestProcessInvalidPolicy(t *testing.T) {
	broken := validInvoice(t)
	broken.Summary.TotalAmount = "999999"

	t.Run("default persists with warnings", func(t *testing.T) {
		invoices := &fakeInvoiceRepo{}
		p := newPipeline(invoices, &fakeEmbeddingRepo{}, &fakeEmbedder{vec: []float32{1}}, 0.9)

		res, err := p.Process(context.Background(), broken, "16.json")

		require.NoError(t, err)
		assert.Equal(t, constants.DecisionAccepted, res.Decision)
		require.NotNil(t, res.Validation)
		assert.False(t, res.Validation.Status)
		assert.NotEmpty(t, res.Validation.Errors)
		assert.Len(t, invoices.inserted, 1)
	})

	t.Run("blocking policy rejects", func(t *testing.T) {
		invoices := &fakeInvoiceRepo{}
		embedder := &fakeEmbedder{vec: []float32{1}}
		p := newPipeline(invoices, &fakeEmbeddingRepo{}, embedder, 0.9)
		p.BlockOnInvalid = true

		res, err := p.Process(context.Background(), broken, "16.json")

		require.NoError(t, err)
		assert.Equal(t, constants.DecisionRejectedInvalid, res.Decision)
		assert.Empty(t, invoices.inserted)
		assert.Zero(t, embedder.calls)
	})
}

func TestProcessStoreFailureIsFatalForRecord(t *testing.T) {
	invoices := &fakeInvoiceRepo{insertErr: errors.New("connection reset")}
	p := newPipeline(invoices, &fakeEmbeddingRepo{}, &fakeEmbedder{vec: []float32{1}}, 0.9)

	_, err := p.Process(context.Background(), validInvoice(t), "16.json")
	require.Error(t, err)
}

type stubExtractor struct {
	inv *entity.Invoice
	err error
}

func (s stubExtractor) Extract(_ context.Context, _ string) (*entity.Invoice, error) {
	return s.inv, s.err
}

func TestProcessPathExtractionFailure(t *testing.T) {
	p := newPipeline(&fakeInvoiceRepo{}, &fakeEmbeddingRepo{}, &fakeEmbedder{vec: []float32{1}}, 0.9)

	res, err := p.ProcessPath(context.Background(), stubExtractor{err: extract.ErrFailedExtraction}, "broken.pdf")

	require.NoError(t, err)
	assert.Equal(t, constants.DecisionExtractionFailed, res.Decision)
	assert.Nil(t, res.Validation)
}

func TestProcessPathSuccess(t *testing.T) {
	p := newPipeline(&fakeInvoiceRepo{}, &fakeEmbeddingRepo{}, &fakeEmbedder{vec: []float32{1}}, 0.9)

	res, err := p.ProcessPath(context.Background(), stubExtractor{inv: validInvoice(t)}, "16.json")

	require.NoError(t, err)
	assert.Equal(t, constants.DecisionAccepted, res.Decision)
}
