package trip

import (
	"context"
	"log"
	"strings"
	"time"

	"tripflow/internal/ai"
)

// Extractor runs one round of slot extraction and merges the result into the
// current record. It never returns an error to its caller: when the
// collaborator fails or produces unparsable output it hands back the record
// untouched together with a deterministic reply listing what is still
// missing.
type Extractor struct {
	provider ai.Provider
}

// NewExtractor wraps the AI provider as a slot extractor.
func NewExtractor(provider ai.Provider) Extractor {
	return Extractor{provider: provider}
}

// Extract merges whatever the collaborator found in the utterance into
// current. A nil extracted field never clears a collected value, even when
// the collaborator reports a validation issue for it; issues come back as
// advisory warnings and the merge stands.
func (e Extractor) Extract(ctx context.Context, utterance string, current Record, today time.Time) (Record, string, []string) {
	result, err := e.provider.ExtractTripDetails(ctx, utterance, current.details(), today)
	if err != nil || result == nil {
		log.Printf("trip extraction failed, keeping current record: %v", err)
		return current, fallbackReply(current), nil
	}
	return current.merge(result.ExtractedInfo), result.Response, result.ValidationIssues
}

func fallbackReply(current Record) string {
	if missing := current.MissingFields(); len(missing) > 0 {
		return "I still need the following details: " + strings.Join(missing, ", ") + "."
	}
	return "Perfect! I have all the information I need."
}
