package trip

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tripflow/internal/ai"
	"tripflow/internal/modules/auth"
	"tripflow/internal/modules/quota"
)

// stubProvider is a test double for ai.Provider. Unset hooks fall back to
// benign defaults (on-topic, extract nothing, canned recommendation).
type stubProvider struct {
	classify func(utterance string) (*ai.TopicResult, error)
	extract  func(utterance string, current ai.TripDetails) (*ai.ExtractionResult, error)

	recommendCalls int
	recommendErr   error
}

func (s *stubProvider) ClassifyTopic(_ context.Context, utterance string) (*ai.TopicResult, error) {
	if s.classify != nil {
		return s.classify(utterance)
	}
	return &ai.TopicResult{IsTravelRelated: true}, nil
}

func (s *stubProvider) ExtractTripDetails(_ context.Context, utterance string, current ai.TripDetails, _ time.Time) (*ai.ExtractionResult, error) {
	if s.extract != nil {
		return s.extract(utterance, current)
	}
	return &ai.ExtractionResult{Response: "Tell me more."}, nil
}

func (s *stubProvider) GenerateRecommendations(_ context.Context, _ ai.TripDetails) (string, error) {
	s.recommendCalls++
	if s.recommendErr != nil {
		return "", s.recommendErr
	}
	return "Stay near the river and try the local pastries.", nil
}

func (s *stubProvider) GenerateQuickTips(_ context.Context, _ string) (string, error) {
	return "Carry cash.", nil
}

type stubTips struct {
	text string
	err  error
}

func (s *stubTips) Tips(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

type testEnv struct {
	svc     *Service
	store   *MemoryStore
	tracker *quota.Memory
}

func newTestEnv(provider *stubProvider, ceiling int) testEnv {
	store := NewMemoryStore()
	tracker := quota.NewMemory(ceiling)
	gate := auth.NewGate("alice,bob")
	svc := NewService(gate, tracker, store, provider, &stubTips{text: "Carry cash."}, ceiling)
	return testEnv{svc: svc, store: store, tracker: tracker}
}

func mustUsed(t *testing.T, tracker *quota.Memory, id string) int {
	t.Helper()
	used, err := tracker.Used(context.Background(), id)
	if err != nil {
		t.Fatalf("used: %v", err)
	}
	return used
}

func TestTwoTurnCompletionFiresRecommendationOnce(t *testing.T) {
	provider := &stubProvider{}
	turn := 0
	provider.extract = func(_ string, _ ai.TripDetails) (*ai.ExtractionResult, error) {
		turn++
		switch turn {
		case 1:
			return &ai.ExtractionResult{
				ExtractedInfo: ai.TripDetails{
					Passengers:  intPtr(2),
					Origin:      strPtr("Madrid, Spain"),
					Destination: strPtr("Paris, France"),
				},
				Response: "Great, when are you travelling?",
			}, nil
		default:
			return &ai.ExtractionResult{
				ExtractedInfo: ai.TripDetails{
					DepartureDate:   strPtr("2025-08-15"),
					ReturnDate:      strPtr("2025-08-22"),
					BudgetPerPerson: floatPtr(800),
				},
				Response: "All set!",
			}, nil
		}
	}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := env.svc.Message(ctx, "alice", "2 passengers, Madrid to Paris"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	rec, exists, _ := env.store.Get(ctx, "alice")
	if !exists || rec.IsComplete() {
		t.Fatalf("after first turn: exists=%v complete=%v, want in-progress partial record", exists, rec.IsComplete())
	}

	reply, err := env.svc.Message(ctx, "alice", "15th to 22nd August, 800 per person")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if provider.recommendCalls != 1 {
		t.Errorf("recommendation generation fired %d times, want 1", provider.recommendCalls)
	}
	if _, exists, _ := env.store.Get(ctx, "alice"); exists {
		t.Error("session should be destroyed after completion")
	}
	if !strings.Contains(reply, "local pastries") {
		t.Errorf("reply missing recommendations: %q", reply)
	}
	if !strings.Contains(reply, "Paris, France") {
		t.Errorf("reply missing trip summary: %q", reply)
	}
}

func TestExtractorFailureKeepsRecordAndListsMissing(t *testing.T) {
	provider := &stubProvider{
		extract: func(_ string, _ ai.TripDetails) (*ai.ExtractionResult, error) {
			return nil, errors.New("collaborator down")
		},
	}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := Record{Passengers: intPtr(2), Origin: strPtr("Madrid, Spain")}
	if err := env.store.Put(ctx, "alice", before); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	reply, err := env.svc.Message(ctx, "alice", "going to Paris")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	after, exists, _ := env.store.Get(ctx, "alice")
	if !exists {
		t.Fatal("session vanished on extractor failure")
	}
	if *after.Passengers != 2 || *after.Origin != "Madrid, Spain" ||
		after.Destination != nil || after.DepartureDate != nil ||
		after.ReturnDate != nil || after.BudgetPerPerson != nil {
		t.Errorf("record changed on extractor failure: %+v", after)
	}

	// The fallback reply enumerates exactly the fields missing from the
	// pre-existing record.
	for _, want := range []string{"destination city", "departure date", "return date", "budget per person"} {
		if !strings.Contains(reply, want) {
			t.Errorf("fallback reply missing %q: %q", want, reply)
		}
	}
	for _, gone := range []string{"number of passengers", "origin city"} {
		if strings.Contains(reply, gone) {
			t.Errorf("fallback reply lists already collected field %q: %q", gone, reply)
		}
	}
}

func TestOffTopicConsumesQuotaButKeepsRecord(t *testing.T) {
	provider := &stubProvider{
		classify: func(_ string) (*ai.TopicResult, error) {
			return &ai.TopicResult{IsTravelRelated: false, Reason: "politics is off limits"}, nil
		},
	}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := Record{Origin: strPtr("Madrid, Spain")}
	_ = env.store.Put(ctx, "alice", before)
	usedBefore := mustUsed(t, env.tracker, "alice")

	reply, err := env.svc.Message(ctx, "alice", "who should I vote for?")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !strings.Contains(reply, "politics is off limits") {
		t.Errorf("reply missing classifier reason: %q", reply)
	}
	if used := mustUsed(t, env.tracker, "alice"); used != usedBefore+1 {
		t.Errorf("quota used = %d, want %d (off-topic still costs a turn)", used, usedBefore+1)
	}
	after, _, _ := env.store.Get(ctx, "alice")
	if after.Origin == nil || *after.Origin != "Madrid, Spain" || after.Destination != nil {
		t.Errorf("record changed on off-topic turn: %+v", after)
	}
}

func TestClassifierFailureFailsOpen(t *testing.T) {
	provider := &stubProvider{
		classify: func(_ string) (*ai.TopicResult, error) {
			return nil, errors.New("classifier down")
		},
		extract: func(_ string, _ ai.TripDetails) (*ai.ExtractionResult, error) {
			return &ai.ExtractionResult{
				ExtractedInfo: ai.TripDetails{Destination: strPtr("Paris, France")},
				Response:      "Noted.",
			}, nil
		},
	}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	_, _ = env.svc.Start(ctx, "alice")
	if _, err := env.svc.Message(ctx, "alice", "to Paris"); err != nil {
		t.Fatalf("turn: %v", err)
	}
	rec, _, _ := env.store.Get(ctx, "alice")
	if rec.Destination == nil {
		t.Error("classifier outage blocked a legitimate turn")
	}
}

func TestUnauthorizedMutatesNothing(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	entryPoints := map[string]func() (string, error){
		"start":   func() (string, error) { return env.svc.Start(ctx, "mallory") },
		"message": func() (string, error) { return env.svc.Message(ctx, "mallory", "hi") },
		"status":  func() (string, error) { return env.svc.Status(ctx, "mallory") },
		"cancel":  func() (string, error) { return env.svc.Cancel(ctx, "mallory") },
		"reset":   func() (string, error) { return env.svc.ResetQuota(ctx, "mallory") },
		"info":    func() (string, error) { return env.svc.AdminInfo(ctx, "mallory") },
		"tips":    func() (string, error) { return env.svc.QuickTips(ctx, "mallory", "Paris") },
		"help":    func() (string, error) { return env.svc.Help(ctx, "mallory") },
	}
	for name, call := range entryPoints {
		if _, err := call(); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s: err = %v, want ErrUnauthorized", name, err)
		}
	}
	if used := mustUsed(t, env.tracker, "mallory"); used != 0 {
		t.Errorf("quota mutated for unauthorized identity: %d", used)
	}
	if _, exists, _ := env.store.Get(ctx, "mallory"); exists {
		t.Error("session created for unauthorized identity")
	}
}

func TestQuotaCeilingBlocksSixteenthTurn(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 14; i++ {
		if _, err := env.svc.Message(ctx, "alice", "still thinking"); err != nil {
			t.Fatalf("turn %d: %v", i+2, err)
		}
	}
	if used := mustUsed(t, env.tracker, "alice"); used != 15 {
		t.Fatalf("used = %d, want 15", used)
	}

	_, err := env.svc.Message(ctx, "alice", "one more")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("16th turn: err = %v, want ErrQuotaExceeded", err)
	}
	if used := mustUsed(t, env.tracker, "alice"); used != 15 {
		t.Errorf("rejected turn consumed quota: used = %d, want 15", used)
	}
}

func TestMessageWithoutSessionConsumesQuotaAndPrompts(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	reply, err := env.svc.Message(ctx, "alice", "2 people to Rome")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !strings.Contains(reply, "start") {
		t.Errorf("reply should prompt to start: %q", reply)
	}
	if used := mustUsed(t, env.tracker, "alice"); used != 1 {
		t.Errorf("used = %d, want 1 (idle turns still cost a message)", used)
	}
	if _, exists, _ := env.store.Get(ctx, "alice"); exists {
		t.Error("idle turn created a session")
	}
}

func TestStartOverwritesInProgressRecord(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	_, _ = env.svc.Start(ctx, "alice")
	_ = env.store.Put(ctx, "alice", Record{Origin: strPtr("Madrid, Spain")})

	if _, err := env.svc.Start(ctx, "alice"); err != nil {
		t.Fatalf("re-start: %v", err)
	}
	rec, exists, _ := env.store.Get(ctx, "alice")
	if !exists {
		t.Fatal("re-start should leave a session in place")
	}
	if rec.Origin != nil {
		t.Error("re-start should discard the prior record")
	}
}

func TestCancelDestroysSessionKeepsQuota(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	_, _ = env.svc.Start(ctx, "alice")
	usedBefore := mustUsed(t, env.tracker, "alice")

	reply, err := env.svc.Cancel(ctx, "alice")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(reply, "cancelled") {
		t.Errorf("unexpected cancel reply: %q", reply)
	}
	if _, exists, _ := env.store.Get(ctx, "alice"); exists {
		t.Error("cancel left the session in place")
	}
	if used := mustUsed(t, env.tracker, "alice"); used != usedBefore {
		t.Errorf("cancel changed quota: %d -> %d", usedBefore, used)
	}

	// Cancelling again reports there is nothing to cancel.
	reply, err = env.svc.Cancel(ctx, "alice")
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if !strings.Contains(reply, "don't have a trip") {
		t.Errorf("unexpected idle cancel reply: %q", reply)
	}
}

func TestStatusNeverConsumesQuota(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	if _, err := env.svc.Status(ctx, "alice"); err != nil {
		t.Fatalf("idle status: %v", err)
	}

	_, _ = env.svc.Start(ctx, "alice")
	_ = env.store.Put(ctx, "alice", Record{Origin: strPtr("Madrid, Spain")})
	usedBefore := mustUsed(t, env.tracker, "alice")

	reply, err := env.svc.Status(ctx, "alice")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(reply, "Madrid, Spain") || !strings.Contains(reply, "destination city") {
		t.Errorf("status reply missing progress detail: %q", reply)
	}
	if used := mustUsed(t, env.tracker, "alice"); used != usedBefore {
		t.Errorf("status consumed quota: %d -> %d", usedBefore, used)
	}
}

func TestRecommendationFailureStillDestroysSession(t *testing.T) {
	provider := &stubProvider{
		recommendErr: errors.New("generator down"),
		extract: func(_ string, _ ai.TripDetails) (*ai.ExtractionResult, error) {
			rec := completeRecord()
			return &ai.ExtractionResult{ExtractedInfo: rec.details(), Response: "Done!"}, nil
		},
	}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	_, _ = env.svc.Start(ctx, "alice")
	reply, err := env.svc.Message(ctx, "alice", "everything at once")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !strings.Contains(reply, "couldn't generate recommendations") {
		t.Errorf("reply missing fallback message: %q", reply)
	}
	if _, exists, _ := env.store.Get(ctx, "alice"); exists {
		t.Error("session must be destroyed even when generation fails")
	}
}

func TestValidationWarningsSurfacedWithoutRollback(t *testing.T) {
	provider := &stubProvider{
		extract: func(_ string, _ ai.TripDetails) (*ai.ExtractionResult, error) {
			return &ai.ExtractionResult{
				ExtractedInfo:    ai.TripDetails{DepartureDate: strPtr("2025-08-22")},
				Response:         "Noted the departure.",
				ValidationIssues: []string{"return date is before departure"},
			}, nil
		},
	}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	_, _ = env.svc.Start(ctx, "alice")
	reply, err := env.svc.Message(ctx, "alice", "leaving the 22nd")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !strings.Contains(reply, "return date is before departure") {
		t.Errorf("warnings not surfaced: %q", reply)
	}
	rec, _, _ := env.store.Get(ctx, "alice")
	if rec.DepartureDate == nil || *rec.DepartureDate != "2025-08-22" {
		t.Error("warning rolled back the merge")
	}
}

func TestQuickTipsDegradesOnGeneratorFailure(t *testing.T) {
	provider := &stubProvider{}
	store := NewMemoryStore()
	tracker := quota.NewMemory(15)
	svc := NewService(auth.NewGate("alice"), tracker, store, provider, &stubTips{err: errors.New("tips down")}, 15)
	ctx := context.Background()

	reply, err := svc.QuickTips(ctx, "alice", "Paris")
	if err != nil {
		t.Fatalf("tips: %v", err)
	}
	if !strings.Contains(reply, "couldn't generate tips") {
		t.Errorf("reply missing degradation message: %q", reply)
	}
	if used, _ := tracker.Used(ctx, "alice"); used != 1 {
		t.Errorf("tips turn should consume quota, used = %d", used)
	}
}

func TestQuickTipsRequiresDestination(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 15)

	reply, err := env.svc.QuickTips(context.Background(), "alice", "  ")
	if err != nil {
		t.Fatalf("tips: %v", err)
	}
	if !strings.Contains(reply, "Usage") {
		t.Errorf("expected usage hint, got %q", reply)
	}
}

func TestAdminInfoListsRosterAndSessions(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 15)
	ctx := context.Background()

	_, _ = env.svc.Start(ctx, "alice")

	reply, err := env.svc.AdminInfo(ctx, "bob")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"alice", "bob", "Active sessions: 1"} {
		if !strings.Contains(reply, want) {
			t.Errorf("admin info missing %q: %q", want, reply)
		}
	}
}

func TestResetQuotaRestoresAllowance(t *testing.T) {
	provider := &stubProvider{}
	env := newTestEnv(provider, 3)
	ctx := context.Background()

	_, _ = env.svc.Start(ctx, "alice")
	_, _ = env.svc.Message(ctx, "alice", "hmm")
	_, _ = env.svc.Message(ctx, "alice", "hmm")
	if _, err := env.svc.Message(ctx, "alice", "hmm"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota exhaustion, got %v", err)
	}

	if _, err := env.svc.ResetQuota(ctx, "alice"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := env.svc.Message(ctx, "alice", "back again"); err != nil {
		t.Errorf("turn after reset: %v", err)
	}
}
