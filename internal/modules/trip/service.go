// README: Dialogue orchestrator: per-turn gating, slot filling, completion handoff.
package trip

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tripflow/internal/ai"
	"tripflow/internal/modules/auth"
	"tripflow/internal/modules/quota"
)

var (
	// ErrUnauthorized means the identity is not on the allow-list. Terminal
	// for the turn; nothing is mutated.
	ErrUnauthorized = errors.New("identity not authorized")

	// ErrQuotaExceeded means the identity's turn counter is at the ceiling.
	// Terminal for the turn; nothing is mutated.
	ErrQuotaExceeded = errors.New("turn quota exhausted")
)

// TipsGenerator produces quick destination tips. Implemented by the tips
// module; kept as an interface here so tests can stub it.
type TipsGenerator interface {
	Tips(ctx context.Context, destination string) (string, error)
}

// Service is the dialogue orchestrator. Every user-facing turn flows through
// the same gate order: allow-list, quota ceiling, quota consumption, then the
// actual work. Commands that only report or discard state (status, cancel,
// admin) skip the quota entirely.
//
// A keyed mutex serializes turns per identity so concurrent turns for one
// caller cannot race the read-merge-write of the record or the quota
// counter. Turns for different identities proceed independently; no global
// lock is held across a collaborator round-trip.
type Service struct {
	gate       *auth.Gate
	quota      quota.Tracker
	store      Store
	classifier Classifier
	extractor  Extractor
	provider   ai.Provider
	tips       TipsGenerator
	ceiling    int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService wires the orchestrator. ceiling is the quota ceiling, used only
// for reporting (the tracker enforces it).
func NewService(gate *auth.Gate, tracker quota.Tracker, store Store, provider ai.Provider, tips TipsGenerator, ceiling int) *Service {
	if ceiling <= 0 {
		ceiling = quota.DefaultCeiling
	}
	return &Service{
		gate:       gate,
		quota:      tracker,
		store:      store,
		classifier: NewClassifier(provider),
		extractor:  NewExtractor(provider),
		provider:   provider,
		tips:       tips,
		ceiling:    ceiling,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockIdentity acquires the per-identity mutex and returns its release func.
// The lock map grows with the identity population and is never pruned, like
// the quota counters.
func (s *Service) lockIdentity(identity string) func() {
	s.locksMu.Lock()
	lk, ok := s.locks[identity]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[identity] = lk
	}
	s.locksMu.Unlock()

	lk.Lock()
	return lk.Unlock
}

// consumeTurn runs the authorization and quota gates and, when both pass,
// spends one turn. It returns the number of turns left after this one.
func (s *Service) consumeTurn(ctx context.Context, identity string) (int, error) {
	if !s.gate.IsAuthorized(identity) {
		return 0, ErrUnauthorized
	}
	ok, left, err := s.quota.Remaining(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("quota check: %w", err)
	}
	if !ok {
		return 0, ErrQuotaExceeded
	}
	if err := s.quota.Consume(ctx, identity); err != nil {
		return 0, fmt.Errorf("quota consume: %w", err)
	}
	return left - 1, nil
}

// Start opens a fresh session for the identity, overwriting any in-progress
// record. Idle -> Collecting.
func (s *Service) Start(ctx context.Context, identity string) (string, error) {
	unlock := s.lockIdentity(identity)
	defer unlock()

	left, err := s.consumeTurn(ctx, identity)
	if err != nil {
		return "", err
	}

	if err := s.store.Put(ctx, identity, Record{}); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return fmt.Sprintf(`Hi! I'm your travel planning assistant.

Tell me about your trip in your own words. For example:
- "I want to go to Paris from Madrid, two of us"
- "I need a trip from the 15th to the 22nd of August with a budget of 800 per person"
- Or just give me the details one at a time.

What trip are you planning?

Messages remaining: %d`, left), nil
}

// Message processes one free-text turn. The gate order is fixed: allow-list,
// quota, consume, session check, topic check, extraction. Off-topic turns
// and turns without a session still cost a message, matching the original
// accounting.
func (s *Service) Message(ctx context.Context, identity, text string) (string, error) {
	unlock := s.lockIdentity(identity)
	defer unlock()

	left, err := s.consumeTurn(ctx, identity)
	if err != nil {
		return "", err
	}

	current, exists, err := s.store.Get(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if !exists {
		return fmt.Sprintf("You don't have a trip in progress. Use start to begin one.\n\nMessages remaining: %d", left), nil
	}

	utterance := strings.TrimSpace(text)

	inDomain, reason := s.classifier.Classify(ctx, utterance)
	if !inDomain {
		return offTopicReply(reason, left), nil
	}

	merged, reply, warnings := s.extractor.Extract(ctx, utterance, current, time.Now())
	if err := s.store.Put(ctx, identity, merged); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	if len(warnings) > 0 {
		reply += "\n\nNote: " + strings.Join(warnings, "; ")
	}
	reply += fmt.Sprintf("\n\nMessages remaining: %d", left)

	// Collecting -> Complete happens inside the turn: generate
	// recommendations and tear the session down before replying.
	if merged.IsComplete() {
		recommendations := s.recommend(ctx, merged)
		if err := s.store.Delete(ctx, identity); err != nil {
			return "", fmt.Errorf("close session: %w", err)
		}
		reply += "\n\n" + summaryText(merged) + "\n\n" + recommendations +
			"\n\nEnjoy your trip! Use start whenever you want to plan another one."
	}

	return reply, nil
}

// recommend hands the completed record to the generation collaborator. On
// failure it degrades to a fixed message; the session is torn down either way.
func (s *Service) recommend(ctx context.Context, rec Record) string {
	text, err := s.provider.GenerateRecommendations(ctx, rec.details())
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("recommendation generation failed: %v", err)
		return "I couldn't generate recommendations right now, but your trip looks great!"
	}
	return "Recommendations for your trip:\n\n" + text
}

// Status reports the conversation state and quota usage. It never consumes
// quota.
func (s *Service) Status(ctx context.Context, identity string) (string, error) {
	if !s.gate.IsAuthorized(identity) {
		return "", ErrUnauthorized
	}

	_, left, err := s.quota.Remaining(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("quota check: %w", err)
	}
	used := s.ceiling - left

	rec, exists, err := s.store.Get(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	if stateOf(rec, exists) == StateIdle {
		return fmt.Sprintf(`You don't have a trip in progress. Use start to begin one.

Message usage:
- Messages used: %d/%d
- Messages remaining: %d`, used, s.ceiling, left), nil
	}

	var b strings.Builder
	b.WriteString("Current trip status:\n\n")
	fmt.Fprintf(&b, "- Passengers: %s\n", orMissing(formatInt(rec.Passengers)))
	fmt.Fprintf(&b, "- Origin: %s\n", orMissing(formatString(rec.Origin)))
	fmt.Fprintf(&b, "- Destination: %s\n", orMissing(formatString(rec.Destination)))
	fmt.Fprintf(&b, "- Departure: %s\n", orMissing(formatString(rec.DepartureDate)))
	fmt.Fprintf(&b, "- Return: %s\n", orMissing(formatString(rec.ReturnDate)))
	fmt.Fprintf(&b, "- Budget per person: %s\n\n", orMissing(formatFloat(rec.BudgetPerPerson)))

	if missing := rec.MissingFields(); len(missing) > 0 {
		fmt.Fprintf(&b, "Still to collect: %s\n\n", strings.Join(missing, ", "))
	} else {
		b.WriteString("All information collected!\n\n")
	}

	fmt.Fprintf(&b, "Message usage:\n- Messages used: %d/%d\n- Messages remaining: %d", used, s.ceiling, left)
	return b.String(), nil
}

// Cancel discards the in-progress record, if any, returning the identity to
// Idle. Quota is untouched: counters outlive sessions.
func (s *Service) Cancel(ctx context.Context, identity string) (string, error) {
	unlock := s.lockIdentity(identity)
	defer unlock()

	if !s.gate.IsAuthorized(identity) {
		return "", ErrUnauthorized
	}

	_, exists, err := s.store.Get(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if !exists {
		return "You don't have a trip in progress.", nil
	}
	if err := s.store.Delete(ctx, identity); err != nil {
		return "", fmt.Errorf("close session: %w", err)
	}
	return "Trip cancelled. Use start to begin a new one.", nil
}

// ResetQuota zeroes the identity's own turn counter. Administrative command.
func (s *Service) ResetQuota(ctx context.Context, identity string) (string, error) {
	if !s.gate.IsAuthorized(identity) {
		return "", ErrUnauthorized
	}
	if err := s.quota.Reset(ctx, identity); err != nil {
		return "", fmt.Errorf("quota reset: %w", err)
	}
	return fmt.Sprintf("Counter reset. You now have %d messages available.", s.ceiling), nil
}

// AdminInfo reports the allow-list roster with per-identity usage and the
// number of active sessions. Administrative command.
func (s *Service) AdminInfo(ctx context.Context, identity string) (string, error) {
	if !s.gate.IsAuthorized(identity) {
		return "", ErrUnauthorized
	}

	roster := s.gate.Authorized()
	active, err := s.store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count sessions: %w", err)
	}

	var b strings.Builder
	b.WriteString("System information:\n\n")
	fmt.Fprintf(&b, "Authorized identities: %d\n", len(roster))
	for _, id := range roster {
		used, err := s.quota.Used(ctx, id)
		if err != nil {
			return "", fmt.Errorf("quota usage for %s: %w", id, err)
		}
		fmt.Fprintf(&b, "- %s: %d/%d messages (%d remaining)\n", id, used, s.ceiling, s.ceiling-used)
	}
	fmt.Fprintf(&b, "\nConfiguration:\n- Limit per identity: %d messages\n- Active sessions: %d", s.ceiling, active)
	return b.String(), nil
}

// QuickTips returns short tips for a destination. It costs a turn like any
// other paid interaction.
func (s *Service) QuickTips(ctx context.Context, identity, destination string) (string, error) {
	unlock := s.lockIdentity(identity)
	defer unlock()

	left, err := s.consumeTurn(ctx, identity)
	if err != nil {
		return "", err
	}

	destination = strings.TrimSpace(destination)
	if destination == "" {
		return fmt.Sprintf("Usage: quick tips needs a destination, e.g. \"Paris\".\n\nMessages remaining: %d", left), nil
	}

	text, err := s.tips.Tips(ctx, destination)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("quick tips generation failed for %q: %v", destination, err)
		return fmt.Sprintf("I couldn't generate tips for %s right now. Please try again.\n\nMessages remaining: %d", destination, left), nil
	}

	return fmt.Sprintf("Quick tips for %s:\n\n%s\n\nMessages remaining: %d\n\nWant to plan a full trip? Use start.", destination, text, left), nil
}

// Help lists the available commands.
func (s *Service) Help(_ context.Context, identity string) (string, error) {
	if !s.gate.IsAuthorized(identity) {
		return "", ErrUnauthorized
	}
	return fmt.Sprintf(`Available commands:

- start: begin planning a new trip
- status: see your trip progress and message usage
- cancel: discard the trip in progress
- tips <destination>: quick tips for a destination
- help: this overview

Administrative commands:
- reset: reset your message counter
- info: system and usage overview

You can write naturally ("I want to go to Paris from Madrid"), use
YYYY-MM-DD dates, and give all the details at once or step by step.

Limits:
- At most %d messages per identity
- Access restricted to authorized identities
- Travel topics only`, s.ceiling), nil
}

func offTopicReply(reason string, left int) string {
	var b strings.Builder
	b.WriteString("That topic isn't related to travel.\n")
	if reason != "" {
		b.WriteString("\n" + reason + "\n")
	}
	b.WriteString(`
I'm a travel planning assistant. I can help you with:
- Destinations and cities
- Trip dates and duration
- Number of passengers
- Travel budgets
- Tourist recommendations

What can I help you with for your next trip?`)
	fmt.Fprintf(&b, "\n\nMessages remaining: %d", left)
	return b.String()
}

func summaryText(rec Record) string {
	return fmt.Sprintf(`Your trip summary:

- Passengers: %s
- Origin: %s
- Destination: %s
- Departure: %s
- Return: %s
- Budget per person: %s

All the information is complete!`,
		formatInt(rec.Passengers),
		formatString(rec.Origin),
		formatString(rec.Destination),
		formatString(rec.DepartureDate),
		formatString(rec.ReturnDate),
		formatFloat(rec.BudgetPerPerson))
}

func orMissing(v string) string {
	if v == "" {
		return "missing"
	}
	return v
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
