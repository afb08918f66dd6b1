package ai

import (
	"context"
	"time"
)

// Provider defines the contract for the conversational AI collaborator.
// This interface allows for swapping different AI providers (Gemini, OpenAI, etc.) in the future.
type Provider interface {
	// ClassifyTopic labels an utterance as travel-related or not, with a
	// human-readable reason when it is rejected.
	ClassifyTopic(ctx context.Context, utterance string) (*TopicResult, error)

	// ExtractTripDetails performs one round of incremental extraction: given
	// the partial details collected so far and a new utterance, it returns
	// the field values it could extract, a conversational reply, and any
	// validation issues (bad ranges, dates in the past, return before
	// departure). today anchors relative date expressions ("next Friday").
	ExtractTripDetails(ctx context.Context, utterance string, current TripDetails, today time.Time) (*ExtractionResult, error)

	// GenerateRecommendations produces free-text recommendations for a fully
	// collected trip.
	GenerateRecommendations(ctx context.Context, details TripDetails) (string, error)

	// GenerateQuickTips produces short practical tips for a destination.
	GenerateQuickTips(ctx context.Context, destination string) (string, error)
}
