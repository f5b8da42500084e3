package models

// EventRequest is the payload for user-submitted events. Date and Expiry are
// strings in the wire format the mobile client sends ("2006-01-02", optionally
// with a time part for expiry).
type EventRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Location         string `json:"location"`
	City             string `json:"city"`
	College          string `json:"college"`
	Category         string `json:"category"`
	Date             string `json:"date"`
	Expiry           string `json:"expiry"`
	RegistrationLink string `json:"registration_link"`
	// Some clients send camelCase; the handler falls back to this field.
	RegistrationLinkAlt string `json:"registrationLink"`
}

// FilterRequest is the POST /api/events/filter payload. Matching here is
// exact (not case-folded), unlike the GET listing endpoint.
type FilterRequest struct {
	City      string   `json:"city"`
	College   string   `json:"college"`
	Interests []string `json:"interests"`
}

type NotInterestedRequest struct {
	UserID string `json:"userId"`
}

type RateRequest struct {
	Rating int `json:"rating"`
}

type BotRequest struct {
	Message string `json:"message"`
}

type BotResponse struct {
	Reply string `json:"reply"`
}
