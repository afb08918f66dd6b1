// README: Quick destination tips: AI-generated, optionally enriched with Places data.
package tips

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tripflow/internal/ai"
	tripmaps "tripflow/internal/maps"
)

// attractionLimit caps the Places highlights appended to the tips.
const attractionLimit = 3

// Places is the slice of the Places client the tips service needs.
type Places interface {
	TopAttractions(ctx context.Context, destination string, limit int) ([]tripmaps.Place, error)
}

// Service generates quick tips for a destination. The AI text is the core of
// the answer; Places highlights are an optional garnish, and a Places failure
// (or a nil client) silently degrades to AI-only output.
type Service struct {
	provider ai.Provider
	places   Places
}

// NewService wires the tips generator. places may be nil when no Maps key is
// configured.
func NewService(provider ai.Provider, places Places) *Service {
	return &Service{provider: provider, places: places}
}

// Tips produces the tip text for a destination.
func (s *Service) Tips(ctx context.Context, destination string) (string, error) {
	text, err := s.provider.GenerateQuickTips(ctx, destination)
	if err != nil {
		return "", fmt.Errorf("generate tips: %w", err)
	}

	if s.places == nil {
		return text, nil
	}

	attractions, err := s.places.TopAttractions(ctx, destination, attractionLimit)
	if err != nil {
		log.Printf("places lookup failed for %q: %v", destination, err)
		return text, nil
	}
	if len(attractions) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nTop-rated spots:\n")
	for _, p := range attractions {
		fmt.Fprintf(&b, "- %s (%.1f, %d reviews)\n", p.Name, p.Rating, p.UserRatingsTotal)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
