package mockcore

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tripagent/tripagent/pkg/types"
)

// ScriptFor builds a canned event sequence for a prompt. The specialist is
// chosen by keyword so development sessions exercise every result kind.
func ScriptFor(prompt, sessionID string) []types.Envelope {
	switch {
	case containsAny(prompt, "flight", "fly"):
		return flightScript(sessionID)
	case containsAny(prompt, "hotel", "stay", "accommodation"):
		return accommodationScript(sessionID)
	case containsAny(prompt, "restaurant", "eat", "dinner"):
		return restaurantScript(sessionID)
	case containsAny(prompt, "attraction", "things to do", "see"):
		return attractionScript(sessionID)
	case containsAny(prompt, "itinerary", "plan"):
		return itineraryScript(sessionID)
	default:
		return conversationScript(sessionID)
	}
}

func containsAny(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func envelope(t types.EventType, payload any) types.Envelope {
	data, _ := json.Marshal(payload)
	return types.Envelope{Type: t, Data: data}
}

func status(msg string) types.Envelope {
	return envelope(types.EventStatus, types.StatusPayload{Message: msg})
}

func toolStart(id, name, desc string) types.Envelope {
	return envelope(types.EventToolStart, types.ToolStartPayload{ToolID: id, ToolName: name, Description: desc})
}

func toolDone(id, preview string) types.Envelope {
	return envelope(types.EventToolComplete, types.ToolCompletePayload{ToolID: id, Status: "completed", ResultPreview: preview})
}

func final(sessionID string, p types.FinalResponsePayload) types.Envelope {
	p.ResponseStatus = "success"
	p.SessionMetadata = &types.SessionMetadata{SessionID: sessionID}
	return envelope(types.EventFinalResponse, p)
}

func flightScript(sessionID string) []types.Envelope {
	return []types.Envelope{
		status("Searching for flights..."),
		toolStart("search_flights", "Flight Search", "Searching flight offers"),
		toolDone("search_flights", "2 flights found"),
		final(sessionID, types.FinalResponsePayload{
			Message:      "I found 2 flights for you.",
			ResponseType: "flights",
			FlightResults: []types.FlightOffer{
				{
					Airline: "Air France", FlightNumber: "AF007",
					Origin: "JFK", Destination: "CDG",
					DepartureTime: "2026-09-01T18:30:00Z", ArrivalTime: "2026-09-02T07:45:00Z",
					Duration: "7h15m", Stops: 0, Price: 612.40, Currency: "USD",
				},
				{
					Airline: "Delta", FlightNumber: "DL264",
					Origin: "JFK", Destination: "CDG",
					DepartureTime: "2026-09-01T22:10:00Z", ArrivalTime: "2026-09-02T11:40:00Z",
					Duration: "7h30m", Stops: 0, Price: 587.00, Currency: "USD",
				},
			},
		}),
	}
}

func accommodationScript(sessionID string) []types.Envelope {
	return []types.Envelope{
		status("Looking for places to stay..."),
		toolStart("search_stays", "Stay Search", "Searching accommodations"),
		toolDone("search_stays", "2 properties found"),
		final(sessionID, types.FinalResponsePayload{
			Message:      "Here are 2 places to stay.",
			ResponseType: "accommodations",
			AccommodationResults: []types.Accommodation{
				{Name: "Hotel Lutetia", Address: "45 Bd Raspail, Paris", Rating: 4.7, PricePerNight: 540, Currency: "EUR", Amenities: []string{"spa", "wifi"}},
				{Name: "Le Citizen", Address: "96 Quai de Jemmapes, Paris", Rating: 4.3, PricePerNight: 180, Currency: "EUR", Amenities: []string{"wifi", "breakfast"}},
			},
		}),
	}
}

func restaurantScript(sessionID string) []types.Envelope {
	return []types.Envelope{
		status("Finding restaurants..."),
		toolStart("search_restaurants", "Dining Search", "Searching restaurants"),
		toolDone("search_restaurants", "2 restaurants found"),
		final(sessionID, types.FinalResponsePayload{
			Message:      "Here are 2 restaurants you might like.",
			ResponseType: "restaurants",
			RestaurantResults: []types.Restaurant{
				{Name: "Le Comptoir du Relais", Cuisine: "French", Address: "9 Carrefour de l'Odeon", Rating: 4.5, PriceRange: "$$$"},
				{Name: "Breizh Cafe", Cuisine: "Creperie", Address: "109 Rue Vieille du Temple", Rating: 4.4, PriceRange: "$$"},
			},
		}),
	}
}

func attractionScript(sessionID string) []types.Envelope {
	return []types.Envelope{
		status("Finding attractions..."),
		toolStart("search_attractions", "Activity Search", "Searching attractions"),
		toolDone("search_attractions", "2 attractions found"),
		final(sessionID, types.FinalResponsePayload{
			Message:      "Here are 2 attractions worth a visit.",
			ResponseType: "attractions",
			AttractionResults: []types.Attraction{
				{Name: "Musee d'Orsay", Category: "Museum", Rating: 4.8, Duration: "3h"},
				{Name: "Jardin du Luxembourg", Category: "Park", Rating: 4.7, Duration: "2h"},
			},
		}),
	}
}

func itineraryScript(sessionID string) []types.Envelope {
	return []types.Envelope{
		status("Assembling your itinerary..."),
		toolStart("build_itinerary", "Itinerary Planner", "Combining specialist results"),
		toolDone("build_itinerary", "3-day plan ready"),
		final(sessionID, types.FinalResponsePayload{
			Message:      "Here is a 3-day plan.",
			ResponseType: "itinerary",
			Itinerary: &types.Itinerary{
				Destination: "Paris",
				Summary:     "Three days of classics and good food.",
				CreatedAt:   time.Now().Format(time.RFC3339),
				Days: []types.ItineraryDay{
					{Day: 1, Title: "Arrival and the Left Bank", Activities: []string{"Check in", "Walk Saint-Germain", "Dinner at Le Comptoir"}},
					{Day: 2, Title: "Museums", Activities: []string{"Musee d'Orsay", "Tuileries", "Seine cruise"}},
					{Day: 3, Title: "Montmartre", Activities: []string{"Sacre-Coeur", "Flea market", "Farewell dinner"}},
				},
			},
		}),
	}
}

func conversationScript(sessionID string) []types.Envelope {
	return []types.Envelope{
		status("Thinking..."),
		final(sessionID, types.FinalResponsePayload{
			Message:      "I can help with flights, stays, restaurants, attractions, and itineraries. What are you planning?",
			ResponseType: "conversation",
		}),
	}
}
