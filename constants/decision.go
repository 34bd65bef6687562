package constants

// Decision is the terminal outcome for a processed invoice.
type Decision string

// Stable values (store these exact strings in DB / reports).
const (
	DecisionAccepted         Decision = "ACCEPTED"          // persisted, embedding stored
	DecisionExactDuplicate   Decision = "EXACT_DUPLICATE"   // matched on identifying fields + total
	DecisionFuzzyDuplicate   Decision = "FUZZY_DUPLICATE"   // embedding similarity above threshold
	DecisionRejectedInvalid  Decision = "REJECTED_INVALID"  // arithmetic validation failed, blocking policy
	DecisionExtractionFailed Decision = "EXTRACTION_FAILED" // extractor returned the failure sentinel
	DecisionProcessingError  Decision = "PROCESSING_ERROR"  // fatal record error (store failure, timeout)
)
