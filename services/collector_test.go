package services

import (
	"context"
	"errors"
	"testing"

	"github.com/devmarked/feedbackiq/models"
)

type stubCollectorStore struct {
	inserted     []*models.SurveyResponse
	insertErr    error
	increments   int
	incrementErr error
	activities   []*models.Activity
}

func (s *stubCollectorStore) InsertResponse(ctx context.Context, r *models.SurveyResponse) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	r.ID = "resp-1"
	s.inserted = append(s.inserted, r)
	return nil
}

func (s *stubCollectorStore) IncrementResponseCount(ctx context.Context, surveyID string) error {
	if s.incrementErr != nil {
		return s.incrementErr
	}
	s.increments++
	return nil
}

func (s *stubCollectorStore) AppendActivity(ctx context.Context, a *models.Activity) error {
	s.activities = append(s.activities, a)
	return nil
}

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	survey := testSurvey(t, []models.Question{
		{ID: "q1", Type: models.QuestionText, Title: "Name one thing you like", Required: true},
		{ID: "q2", Type: models.QuestionCheckbox, Title: "Pick features", Required: true, Options: []string{"A", "B"}},
		{ID: "q3", Type: models.QuestionTextarea, Title: "Anything else?"},
	})
	c, err := NewCollector(survey)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	return c
}

func TestContactGateOpensFirst(t *testing.T) {
	c := newTestCollector(t)
	if !c.ContactGateOpen() {
		t.Fatal("contact gate must open at session start")
	}
	c.SetContactPreference(models.ContactPreference{Anonymous: true, Name: "leak", Email: "leak@x"})
	if c.ContactGateOpen() {
		t.Fatal("gate should close after a choice")
	}
	if c.contact.Name != "" || c.contact.Email != "" {
		t.Fatalf("anonymous preference must not carry name/email: %+v", c.contact)
	}
}

func TestRequiredQuestionBlocksForward(t *testing.T) {
	c := newTestCollector(t)
	if c.CanProceed() {
		t.Fatal("required question with no answer must block")
	}
	if c.Next() {
		t.Fatal("forward navigation must be gated")
	}

	if err := c.RecordAnswer("q1", ""); err != nil {
		t.Fatalf("record: %v", err)
	}
	if c.CanProceed() {
		t.Fatal("empty string must still block a required question")
	}

	if err := c.RecordAnswer("q1", "the editor"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !c.Next() {
		t.Fatal("answered required question must allow forward")
	}

	// checkbox: empty array blocks, non-empty passes
	if err := c.RecordAnswer("q2", []any{}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if c.CanProceed() {
		t.Fatal("empty array must block a required checkbox")
	}
	if err := c.RecordAnswer("q2", []any{"A"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !c.Next() {
		t.Fatal("non-empty array must pass")
	}

	// q3 is not required
	if !c.CanProceed() {
		t.Fatal("non-required question must never block")
	}
}

func TestBackAlwaysAllowed(t *testing.T) {
	c := newTestCollector(t)
	if c.Back() {
		t.Fatal("back at index 0 should not move")
	}
	_ = c.RecordAnswer("q1", "x")
	c.Next()
	if !c.Back() {
		t.Fatal("back must be allowed without validation")
	}
	if c.Index() != 0 {
		t.Fatalf("index = %d, want 0", c.Index())
	}
}

func TestKeyboardContract(t *testing.T) {
	c := newTestCollector(t)

	if got := c.KeyAction(KeyEvent{Key: "Enter"}); got != KeyNone {
		t.Fatalf("Enter on blocked question = %v, want none", got)
	}
	_ = c.RecordAnswer("q1", "x")
	if got := c.KeyAction(KeyEvent{Key: "Enter"}); got != KeyAdvance {
		t.Fatalf("Enter mid-form = %v, want advance", got)
	}
	if got := c.KeyAction(KeyEvent{Key: "Enter", Shift: true}); got != KeyNone {
		t.Fatalf("Shift+Enter = %v, want none", got)
	}
	if got := c.KeyAction(KeyEvent{Key: "ArrowUp"}); got != KeyBack {
		t.Fatalf("ArrowUp = %v, want back", got)
	}
	if got := c.KeyAction(KeyEvent{Key: "ArrowLeft", Meta: true}); got != KeyBack {
		t.Fatalf("Cmd+ArrowLeft = %v, want back", got)
	}
	if got := c.KeyAction(KeyEvent{Key: "ArrowLeft"}); got != KeyNone {
		t.Fatalf("bare ArrowLeft = %v, want none", got)
	}
	if got := c.KeyAction(KeyEvent{Key: "ArrowDown"}); got != KeyAdvance {
		t.Fatalf("ArrowDown = %v, want advance", got)
	}

	// walk to the last question; Enter should submit there
	c.Next()
	_ = c.RecordAnswer("q2", []any{"B"})
	c.Next()
	if got := c.KeyAction(KeyEvent{Key: "Enter"}); got != KeySubmit {
		t.Fatalf("Enter on last question = %v, want submit", got)
	}
}

func TestSubmitBlockedWithoutContactPreference(t *testing.T) {
	c := newTestCollector(t)
	store := &stubCollectorStore{}
	_ = c.RecordAnswer("q1", "x")
	_ = c.RecordAnswer("q2", []any{"A"})

	_, err := c.Submit(context.Background(), store, "test-agent")
	if !errors.Is(err, ErrContactPreferenceRequired) {
		t.Fatalf("want ErrContactPreferenceRequired, got %v", err)
	}
	if !c.ContactGateOpen() {
		t.Fatal("gate must re-open when submission lacks a preference")
	}
	if len(store.inserted) != 0 {
		t.Fatal("no response row may be written before the preference is recorded")
	}
}

func TestSubmitWritesRowAndIncrements(t *testing.T) {
	c := newTestCollector(t)
	store := &stubCollectorStore{}
	c.SetContactPreference(models.ContactPreference{Anonymous: true})
	_ = c.RecordAnswer("q1", "fast")
	_ = c.RecordAnswer("q2", []any{"A", "B"})

	resp, err := c.Submit(context.Background(), store, "test-agent")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.IsComplete {
		t.Fatal("is_complete must be true on submission")
	}
	if store.increments != 1 {
		t.Fatalf("counter increments = %d, want 1", store.increments)
	}
	if len(store.activities) != 1 || store.activities[0].Kind != models.ActivityResponseReceived {
		t.Fatalf("expected a response_received activity, got %+v", store.activities)
	}

	meta, err := resp.Meta()
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.ContactPreference == nil || !meta.ContactPreference.Anonymous {
		t.Fatalf("metadata must carry the anonymous preference: %+v", meta)
	}
	if meta.ContactPreference.Name != "" || meta.ContactPreference.Email != "" {
		t.Fatal("anonymous metadata must not carry name/email")
	}
	if meta.QuestionsAnswered != 2 || meta.TotalQuestions != 3 {
		t.Fatalf("answer counts wrong: %+v", meta)
	}

	if _, err := c.Submit(context.Background(), store, "test-agent"); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second submit should fail, got %v", err)
	}
}

func TestSubmitValidatesRequiredAnswers(t *testing.T) {
	c := newTestCollector(t)
	store := &stubCollectorStore{}
	c.SetContactPreference(models.ContactPreference{Anonymous: true})
	_ = c.RecordAnswer("q1", "x") // q2 left unanswered

	if _, err := c.Submit(context.Background(), store, ""); !errors.Is(err, ErrAnswerRequired) {
		t.Fatalf("want ErrAnswerRequired, got %v", err)
	}
}

func TestSubmitInsertFailureIsResubmittable(t *testing.T) {
	c := newTestCollector(t)
	store := &stubCollectorStore{insertErr: errors.New("db down")}
	c.SetContactPreference(models.ContactPreference{Anonymous: true})
	_ = c.RecordAnswer("q1", "x")
	_ = c.RecordAnswer("q2", []any{"A"})

	if _, err := c.Submit(context.Background(), store, ""); err == nil {
		t.Fatal("insert failure must surface")
	}
	if c.Completed() {
		t.Fatal("session must stay answering after a failed insert")
	}

	store.insertErr = nil
	if _, err := c.Submit(context.Background(), store, ""); err != nil {
		t.Fatalf("resubmission should succeed: %v", err)
	}
}

func TestSubmitIncrementFailureNonFatal(t *testing.T) {
	c := newTestCollector(t)
	store := &stubCollectorStore{incrementErr: errors.New("rpc down")}
	c.SetContactPreference(models.ContactPreference{Anonymous: false, Name: "Pat", Email: "pat@example.com"})
	_ = c.RecordAnswer("q1", "x")
	_ = c.RecordAnswer("q2", []any{"A"})

	resp, err := c.Submit(context.Background(), store, "")
	if err != nil {
		t.Fatalf("counter failure must not fail submission: %v", err)
	}
	if resp == nil || !c.Completed() {
		t.Fatal("response should be durable despite the counter failure")
	}
}
