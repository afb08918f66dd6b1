package ai

// TripDetails mirrors the six nullable trip parameters on the wire. A nil
// field means "not yet known"; the extraction prompt instructs the model to
// return null for anything the utterance does not mention.
type TripDetails struct {
	Passengers      *int     `json:"passengers"`
	Origin          *string  `json:"origin"`
	Destination     *string  `json:"destination"`
	DepartureDate   *string  `json:"departure_date"`
	ReturnDate      *string  `json:"return_date"`
	BudgetPerPerson *float64 `json:"budget_per_person"`
}

// TopicResult is the structured output of the topic gate.
type TopicResult struct {
	// IsTravelRelated is true when the utterance stays within trip logistics.
	IsTravelRelated bool `json:"is_travel_related"`

	// Reason is a short explanation, populated only on rejection.
	Reason string `json:"reason"`
}

// ExtractionResult captures the structured output of one extraction round.
type ExtractionResult struct {
	// ExtractedInfo holds the fields found in this utterance; null fields
	// were not mentioned and must not overwrite previously collected values.
	ExtractedInfo TripDetails `json:"extracted_info"`

	// Response is the natural-language reply to keep the conversation going.
	Response string `json:"response"`

	// ValidationIssues lists problems the model detected (e.g. return date
	// before departure). They are advisory; the merge is never rolled back.
	ValidationIssues []string `json:"validation_issues"`
}
