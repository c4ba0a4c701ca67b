// Package normalize folds a terminal AgentCore payload into the canonical
// result shape the presentation layer consumes.
package normalize

import (
	"time"

	"github.com/tripagent/tripagent/internal/identity"
	"github.com/tripagent/tripagent/pkg/types"
)

// Outcome is everything a terminal payload contributes to the conversation:
// the kind-tagged result (nil for conversation-only turns), the message text,
// and the session identifier the service associated with the turn.
type Outcome struct {
	Result         *types.NormalizedResult
	Message        string
	SessionID      string
	ResponseType   string
	ResponseStatus string
}

// Normalize converts a terminal payload into an Outcome. It is pure and
// total: it never fails, whatever discriminant/collection combination the
// service sent. A declared response type whose collection is absent or empty
// yields no structured result; the message text is still delivered.
// Unrecognized discriminants fall through to the conversation case.
func Normalize(p *types.FinalResponsePayload) Outcome {
	if p == nil {
		return Outcome{SessionID: identity.NewSessionID()}
	}

	out := Outcome{
		Message:        p.Message,
		SessionID:      sessionID(p),
		ResponseType:   p.ResponseType,
		ResponseStatus: p.ResponseStatus,
	}

	now := time.Now()
	switch p.ResponseType {
	case "flights":
		if len(p.FlightResults) > 0 {
			out.Result = &types.NormalizedResult{
				Kind:    types.ResultFlights,
				Flights: p.FlightResults,
				Created: now.UnixMilli(),
			}
		}
	case "accommodations":
		if len(p.AccommodationResults) > 0 {
			out.Result = &types.NormalizedResult{
				Kind:           types.ResultAccommodations,
				Accommodations: p.AccommodationResults,
				Created:        now.UnixMilli(),
			}
		}
	case "restaurants":
		if len(p.RestaurantResults) > 0 {
			out.Result = &types.NormalizedResult{
				Kind:        types.ResultRestaurants,
				Restaurants: p.RestaurantResults,
				Created:     now.UnixMilli(),
			}
		}
	case "attractions":
		if len(p.AttractionResults) > 0 {
			out.Result = &types.NormalizedResult{
				Kind:        types.ResultAttractions,
				Attractions: p.AttractionResults,
				Created:     now.UnixMilli(),
			}
		}
	case "itinerary":
		if p.Itinerary != nil {
			out.Result = &types.NormalizedResult{
				Kind:      types.ResultItinerary,
				Itinerary: withItineraryDefaults(p.Itinerary, p.Message, now),
				Created:   now.UnixMilli(),
			}
		}
	}

	return out
}

// sessionID extracts the session identifier from the payload, synthesizing
// a fresh contract-conformant one when the service omitted it.
func sessionID(p *types.FinalResponsePayload) string {
	if p.SessionMetadata != nil && len(p.SessionMetadata.SessionID) >= types.MinSessionIDLength {
		return p.SessionMetadata.SessionID
	}
	return identity.NewSessionID()
}

// withItineraryDefaults fills the structural fields some upstream variants
// omit. The input is copied, never mutated.
func withItineraryDefaults(it *types.Itinerary, message string, now time.Time) *types.Itinerary {
	filled := *it
	if filled.Summary == "" {
		filled.Summary = message
	}
	if filled.Summary == "" {
		filled.Summary = "Your travel itinerary"
	}
	if filled.CreatedAt == "" {
		filled.CreatedAt = now.Format(time.RFC3339)
	}
	if filled.Days == nil {
		filled.Days = []types.ItineraryDay{}
	}
	return &filled
}
