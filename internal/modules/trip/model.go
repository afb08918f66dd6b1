// README: Trip record (six slot-filled parameters) and conversation states.
package trip

import "tripflow/internal/ai"

// Record is the per-identity slot-filling state. A nil field has not been
// collected yet; a non-nil field holds a value that passed the extractor's
// validation. The record itself does not police cross-field ordering
// (departure before return); the extraction step reports such problems as
// validation issues.
type Record struct {
	Passengers      *int     `json:"passengers"`
	Origin          *string  `json:"origin"`
	Destination     *string  `json:"destination"`
	DepartureDate   *string  `json:"departure_date"`
	ReturnDate      *string  `json:"return_date"`
	BudgetPerPerson *float64 `json:"budget_per_person"`
}

// IsComplete reports whether all six parameters have been collected. Derived,
// never stored.
func (r Record) IsComplete() bool {
	return r.Passengers != nil &&
		r.Origin != nil &&
		r.Destination != nil &&
		r.DepartureDate != nil &&
		r.ReturnDate != nil &&
		r.BudgetPerPerson != nil
}

// MissingFields returns human-readable labels for the parameters still to be
// collected, in declaration order.
func (r Record) MissingFields() []string {
	var missing []string
	if r.Passengers == nil {
		missing = append(missing, "number of passengers")
	}
	if r.Origin == nil {
		missing = append(missing, "origin city")
	}
	if r.Destination == nil {
		missing = append(missing, "destination city")
	}
	if r.DepartureDate == nil {
		missing = append(missing, "departure date")
	}
	if r.ReturnDate == nil {
		missing = append(missing, "return date")
	}
	if r.BudgetPerPerson == nil {
		missing = append(missing, "budget per person")
	}
	return missing
}

// merge folds one round of extracted values into the record. Extracted
// non-nil values win; nil never clears a previously collected field.
func (r Record) merge(extracted ai.TripDetails) Record {
	if extracted.Passengers != nil {
		r.Passengers = extracted.Passengers
	}
	if extracted.Origin != nil {
		r.Origin = extracted.Origin
	}
	if extracted.Destination != nil {
		r.Destination = extracted.Destination
	}
	if extracted.DepartureDate != nil {
		r.DepartureDate = extracted.DepartureDate
	}
	if extracted.ReturnDate != nil {
		r.ReturnDate = extracted.ReturnDate
	}
	if extracted.BudgetPerPerson != nil {
		r.BudgetPerPerson = extracted.BudgetPerPerson
	}
	return r
}

func (r Record) details() ai.TripDetails {
	return ai.TripDetails{
		Passengers:      r.Passengers,
		Origin:          r.Origin,
		Destination:     r.Destination,
		DepartureDate:   r.DepartureDate,
		ReturnDate:      r.ReturnDate,
		BudgetPerPerson: r.BudgetPerPerson,
	}
}

// State describes where an identity's conversation stands. It is derived
// from session existence and record completeness: no session is Idle, a
// session with gaps is Collecting, and a full record is Complete. Complete
// is transient: the same turn that reaches it hands the record to
// recommendation generation and tears the session down.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateComplete   State = "complete"
)

func stateOf(rec Record, exists bool) State {
	switch {
	case !exists:
		return StateIdle
	case rec.IsComplete():
		return StateComplete
	default:
		return StateCollecting
	}
}
