// Package pipeline orders the checks for one invoice: exact duplicate
// first (cheapest, most certain), then arithmetic, then the embedding
// call and fuzzy match, then persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anand-venkat/invoice-guard/constants"
	"github.com/anand-venkat/invoice-guard/internal/dedupe"
	"github.com/anand-venkat/invoice-guard/internal/entity"
	"github.com/anand-venkat/invoice-guard/internal/extract"
	"github.com/anand-venkat/invoice-guard/internal/repository"
	"github.com/anand-venkat/invoice-guard/internal/validate"
)

// Result is the terminal outcome for one processed invoice.
type Result struct {
	Source     string             `json:"source"`
	Decision   constants.Decision `json:"decision"`
	Validation *validate.Result   `json:"validation,omitempty"`
	ExactID    *uuid.UUID         `json:"exact_duplicate_id,omitempty"`
	Fuzzy      []dedupe.Match     `json:"fuzzy_matches,omitempty"`
	InsertedID *uuid.UUID         `json:"inserted_id,omitempty"`
	Invoice    *entity.Invoice    `json:"-"`
	Error      string             `json:"error,omitempty"`
}

// Pipeline coordinates the validators, matchers and stores for one
// record at a time. It holds no mutable state of its own; the only
// shared resource is the store, and duplicate-check-then-insert is not
// atomic across concurrent records.
type Pipeline struct {
	Invoices   repository.InvoiceRepository
	Embeddings repository.EmbeddingRepository
	Validator  *validate.Validator
	Exact      *dedupe.ExactMatcher
	Fuzzy      *dedupe.FuzzyMatcher
	Logger     *slog.Logger

	// BlockOnInvalid rejects arithmetic-invalid records instead of
	// persisting them with their error list attached.
	BlockOnInvalid bool
}

func New(invoices repository.InvoiceRepository, embeddings repository.EmbeddingRepository,
	validator *validate.Validator, exact *dedupe.ExactMatcher, fuzzy *dedupe.FuzzyMatcher,
	logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Invoices:   invoices,
		Embeddings: embeddings,
		Validator:  validator,
		Exact:      exact,
		Fuzzy:      fuzzy,
		Logger:     logger,
	}
}

// Process runs one invoice through exact check, arithmetic validation,
// embedding and fuzzy check, and decides. Returned errors are store
// failures, fatal for this record only.
func (p *Pipeline) Process(ctx context.Context, inv *entity.Invoice, source string) (*Result, error) {
	res := &Result{Source: source, Invoice: inv}

	// 1) exact duplicate: short-circuits everything else
	existing, err := p.Exact.FindExact(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("exact duplicate check: %w", err)
	}
	if existing != nil {
		p.Logger.Info("pipeline.exact.hit", "source", source, "existing_id", existing.ID)
		res.Decision = constants.DecisionExactDuplicate
		res.ExactID = &existing.ID
		return res, nil
	}

	// 2) arithmetic consistency
	validation := p.Validator.Validate(inv)
	res.Validation = &validation
	if !validation.Status {
		p.Logger.Warn("pipeline.arith.failed", "source", source, "errors", len(validation.Errors))
		if p.BlockOnInvalid {
			res.Decision = constants.DecisionRejectedInvalid
			return res, nil
		}
	}

	// 3) embed the projection; failure degrades to a skipped fuzzy check
	vec := p.Fuzzy.EmbedProjection(ctx, dedupe.Project(inv))
	if vec == nil {
		p.Logger.Warn("pipeline.embed.skipped", "source", source)
	} else {
		stored, err := p.Embeddings.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list embeddings: %w", err)
		}
		res.Fuzzy = p.Fuzzy.FindMatches(vec, stored)
		if len(res.Fuzzy) > 0 {
			// not persisted, so its embedding is not stored either
			p.Logger.Info("pipeline.fuzzy.hit", "source", source,
				"best_score", res.Fuzzy[0].Score, "candidates", len(res.Fuzzy))
			res.Decision = constants.DecisionFuzzyDuplicate
			return res, nil
		}
	}

	// 4) persist, then link the embedding to the new identifier
	id, err := p.Invoices.Insert(ctx, inv, source)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	res.InsertedID = &id

	if vec != nil {
		if _, err := p.Embeddings.Insert(ctx, entity.EmbeddingRecord{
			InvoiceID: &id,
			FileName:  source,
			Vector:    vec,
		}); err != nil {
			return nil, fmt.Errorf("insert embedding: %w", err)
		}
	}

	p.Logger.Info("pipeline.accepted", "source", source, "id", id, "valid", validation.Status)
	res.Decision = constants.DecisionAccepted
	return res, nil
}

// ProcessPath extracts the document at path and processes it. The
// extraction failure sentinel becomes an ExtractionFailed result, not
// an error: no validator runs on a failed extraction.
func (p *Pipeline) ProcessPath(ctx context.Context, extractor extract.Extractor, path string) (*Result, error) {
	inv, err := extractor.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, extract.ErrFailedExtraction) {
			p.Logger.Warn("pipeline.extract.failed", "path", path)
			return &Result{
				Source:   path,
				Decision: constants.DecisionExtractionFailed,
				Error:    err.Error(),
			}, nil
		}
		return nil, err
	}
	return p.Process(ctx, inv, path)
}
