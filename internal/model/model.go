package model

// Event is the canonical, source-shape-independent event record.
// Empty strings stand for absent values.
type Event struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	Location string `json:"location,omitempty"`

	// StartDate is an ISO-8601 UTC instant ("2024-03-01T18:00:00.000Z").
	// Its fixed width makes lexical order equal to chronological order.
	StartDate string `json:"startDate,omitempty"`
}

// Series is a named collection of events loaded from one source document.
// Events keep the order given in the document.
type Series struct {
	ID     string  `json:"id"`
	Events []Event `json:"events"`
}
