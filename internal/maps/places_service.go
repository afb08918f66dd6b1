package maps

import (
	"context"
	"fmt"
	"sort"

	"googlemaps.github.io/maps"
)

// Place represents a simplified attraction result.
type Place struct {
	Name             string
	Address          string
	Rating           float32
	UserRatingsTotal int
}

// PlacesService handles interactions with the Google Places API.
type PlacesService struct {
	client *maps.Client
}

// NewPlacesService creates a new PlacesService with the given API key.
func NewPlacesService(apiKey string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// TopAttractions returns up to limit highest-rated tourist attractions in the
// destination, ordered by rating.
func (s *PlacesService) TopAttractions(ctx context.Context, destination string, limit int) ([]Place, error) {
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query: fmt.Sprintf("tourist attraction in %s", destination),
		Type:  "tourist_attraction",
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	places := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, Place{
			Name:             r.Name,
			Address:          r.FormattedAddress,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
		})
	}

	// TextSearch ranks by prominence; re-rank by rating so the list reads as
	// a "best of" rather than a proximity dump.
	sort.SliceStable(places, func(i, j int) bool {
		return places[i].Rating > places[j].Rating
	})

	if limit > 0 && len(places) > limit {
		places = places[:limit]
	}
	return places, nil
}
