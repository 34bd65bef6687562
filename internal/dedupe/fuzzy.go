package dedupe

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/anand-venkat/invoice-guard/internal/embeddings"
	"github.com/anand-venkat/invoice-guard/internal/entity"
)

const (
	// DefaultThreshold is the similarity cutoff for a fuzzy duplicate.
	DefaultThreshold = 0.88
	// DefaultTopK bounds the candidate list.
	DefaultTopK = 5
)

// Match is a fuzzy-duplicate candidate above the threshold.
type Match struct {
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
	Score     float64    `json:"score"`
}

// FuzzyMatcher embeds invoice projections and ranks stored embeddings
// by cosine similarity.
type FuzzyMatcher struct {
	embedder  embeddings.Embedder
	threshold float64
	topK      int
	logger    *slog.Logger
}

func NewFuzzyMatcher(embedder embeddings.Embedder, threshold float64, topK int, logger *slog.Logger) *FuzzyMatcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FuzzyMatcher{embedder: embedder, threshold: threshold, topK: topK, logger: logger}
}

// EmbedProjection computes the embedding for a projection. Failure is
// not fatal: it returns nil and the caller skips the fuzzy check.
func (m *FuzzyMatcher) EmbedProjection(ctx context.Context, p Projection) []float32 {
	vec, err := m.embedder.Embed(ctx, p.CanonicalText())
	if err != nil {
		m.logger.Warn("dedupe.embed.failed", "error", err)
		return nil
	}
	return vec
}

// FindMatches linearly scans the stored embeddings, keeps those with
// similarity at or above the threshold, and returns the topK ranked
// descending. Linear scan is fine at the expected collection size;
// an ANN index would change scale, not the contract.
func (m *FuzzyMatcher) FindMatches(vec []float32, stored []entity.EmbeddingRecord) []Match {
	if len(vec) == 0 {
		return nil
	}

	var candidates []Match
	for _, rec := range stored {
		if len(rec.Vector) == 0 {
			continue
		}
		score := Cosine(vec, rec.Vector)
		if score >= m.threshold {
			candidates = append(candidates, Match{
				InvoiceID: rec.InvoiceID,
				FileName:  rec.FileName,
				Score:     score,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > m.topK {
		candidates = candidates[:m.topK]
	}
	return candidates
}

// Cosine returns the cosine similarity of a and b, 0 when either has
// zero norm. Vectors of differing length compare over the shorter
// prefix.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
