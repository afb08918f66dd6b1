package trip

import (
	"context"
	"log"

	"tripflow/internal/ai"
)

// Classifier gates utterances on subject matter. It fails open: a
// collaborator error or malformed payload lets the utterance through with an
// empty reason, so a transient outage never blocks a legitimate conversation.
type Classifier struct {
	provider ai.Provider
}

// NewClassifier wraps the AI provider as a topic gate.
func NewClassifier(provider ai.Provider) Classifier {
	return Classifier{provider: provider}
}

// Classify labels the utterance as in-domain or not, with a reason when it
// is rejected.
func (c Classifier) Classify(ctx context.Context, utterance string) (bool, string) {
	result, err := c.provider.ClassifyTopic(ctx, utterance)
	if err != nil || result == nil {
		log.Printf("topic classification failed, allowing message: %v", err)
		return true, ""
	}
	return result.IsTravelRelated, result.Reason
}
