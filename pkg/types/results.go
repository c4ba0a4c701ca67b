package types

// ResultKind tags a NormalizedResult with the specialist domain it came from.
type ResultKind string

const (
	ResultFlights        ResultKind = "flights"
	ResultAccommodations ResultKind = "accommodations"
	ResultRestaurants    ResultKind = "restaurants"
	ResultAttractions    ResultKind = "attractions"
	ResultItinerary      ResultKind = "itinerary"
	ResultConversation   ResultKind = "conversation"
)

// NormalizedResult is the canonical shape every specialist payload is folded
// into. Exactly one kind-specific field is populated, selected by Kind.
// The store holds at most one current result; a new terminal event replaces
// it wholesale, never merges.
type NormalizedResult struct {
	Kind           ResultKind      `json:"kind"`
	Flights        []FlightOffer   `json:"flights,omitempty"`
	Accommodations []Accommodation `json:"accommodations,omitempty"`
	Restaurants    []Restaurant    `json:"restaurants,omitempty"`
	Attractions    []Attraction    `json:"attractions,omitempty"`
	Itinerary      *Itinerary      `json:"itinerary,omitempty"`

	// Created is the fold time in Unix milliseconds.
	Created int64 `json:"created"`
}

// Len returns the size of the kind-selected collection. Itineraries count
// days; conversation results count zero.
func (r *NormalizedResult) Len() int {
	switch r.Kind {
	case ResultFlights:
		return len(r.Flights)
	case ResultAccommodations:
		return len(r.Accommodations)
	case ResultRestaurants:
		return len(r.Restaurants)
	case ResultAttractions:
		return len(r.Attractions)
	case ResultItinerary:
		if r.Itinerary == nil {
			return 0
		}
		return len(r.Itinerary.Days)
	default:
		return 0
	}
}

// FlightOffer is one flight option returned by the flight specialist.
// Field names follow the AgentCore wire format.
type FlightOffer struct {
	Airline       string  `json:"airline"`
	FlightNumber  string  `json:"flight_number"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Duration      string  `json:"duration,omitempty"`
	Stops         int     `json:"stops"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency,omitempty"`
}

// Accommodation is one lodging option returned by the stay specialist.
type Accommodation struct {
	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	PricePerNight float64  `json:"price_per_night,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
}

// Restaurant is one dining option returned by the dining specialist.
type Restaurant struct {
	Name        string  `json:"name"`
	Cuisine     string  `json:"cuisine,omitempty"`
	Address     string  `json:"address,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	PriceRange  string  `json:"price_range,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Attraction is one point of interest returned by the activities specialist.
type Attraction struct {
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Address     string  `json:"address,omitempty"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Duration    string  `json:"duration,omitempty"`
}

// Itinerary is a structured day-by-day plan assembled by the planner.
type Itinerary struct {
	Destination string         `json:"destination,omitempty"`
	Summary     string         `json:"summary"`
	Days        []ItineraryDay `json:"days"`
	CreatedAt   string         `json:"created_at"`
}

// ItineraryDay is one day of an itinerary.
type ItineraryDay struct {
	Day        int      `json:"day"`
	Title      string   `json:"title,omitempty"`
	Activities []string `json:"activities,omitempty"`
}
