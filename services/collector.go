package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/devmarked/feedbackiq/models"
)

var (
	// ErrContactPreferenceRequired blocks submission until the respondent
	// makes a contact choice; the gate is re-opened, never defaulted.
	ErrContactPreferenceRequired = errors.New("contact preference required before submission")
	ErrAlreadySubmitted          = errors.New("response already submitted")
	ErrAnswerRequired            = errors.New("a required question has no answer")
)

// CollectorStore is what submission needs from persistence.
type CollectorStore interface {
	InsertResponse(ctx context.Context, r *models.SurveyResponse) error
	IncrementResponseCount(ctx context.Context, surveyID string) error
	AppendActivity(ctx context.Context, a *models.Activity) error
}

// Collector holds one respondent session: the contact-preference gate, the
// current question index, recorded answers and the submission assembly.
type Collector struct {
	mu sync.Mutex

	survey    *models.Survey
	questions []models.Question

	index       int
	answers     map[string]any
	contact     *models.ContactPreference
	contactOpen bool
	completed   bool
	startedAt   time.Time
}

// NewCollector starts a session over an active survey. The contact gate
// opens immediately and cannot be dismissed without a choice.
func NewCollector(survey *models.Survey) (*Collector, error) {
	doc, err := survey.Document()
	if err != nil {
		return nil, err
	}
	if len(doc.Questions) == 0 {
		return nil, errors.New("survey has no questions")
	}
	return &Collector{
		survey:      survey,
		questions:   doc.Questions,
		answers:     map[string]any{},
		contactOpen: true,
		startedAt:   time.Now(),
	}, nil
}

func (c *Collector) Survey() *models.Survey { return c.survey }

func (c *Collector) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Collector) TotalQuestions() int { return len(c.questions) }

// Current returns the question being answered.
func (c *Collector) Current() models.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.questions[c.index]
}

func (c *Collector) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

func (c *Collector) ContactGateOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contactOpen
}

// SetContactPreference records the respondent's choice and closes the gate.
// Anonymous choices carry no name or email.
func (c *Collector) SetContactPreference(p models.ContactPreference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.Anonymous {
		p.Name = ""
		p.Email = ""
	}
	c.contact = &p
	c.contactOpen = false
}

// RecordAnswer stores the answer for a question of this survey.
func (c *Collector) RecordAnswer(questionID string, answer any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed {
		return ErrAlreadySubmitted
	}
	for i := range c.questions {
		if c.questions[i].ID == questionID {
			c.answers[questionID] = answer
			return nil
		}
	}
	return fmt.Errorf("unknown question %s", questionID)
}

// CanProceed gates forward navigation and submission on the current
// question: non-required questions always pass; required questions need a
// non-empty answer (non-empty array for checkbox).
func (c *Collector) CanProceed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canProceedLocked()
}

func (c *Collector) canProceedLocked() bool {
	q := c.questions[c.index]
	if !q.Required {
		return true
	}
	return answerPresent(c.answers[q.ID])
}

func answerPresent(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []string:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// Next advances when allowed; Back always succeeds except at the first
// question. Both report whether the index moved.
func (c *Collector) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed || !c.canProceedLocked() || c.index >= len(c.questions)-1 {
		return false
	}
	c.index++
	return true
}

func (c *Collector) Back() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed || c.index == 0 {
		return false
	}
	c.index--
	return true
}

// KeyEvent mirrors the collector's keyboard contract.
type KeyEvent struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
	Meta  bool   `json:"meta"`
}

type KeyAction int

const (
	KeyNone KeyAction = iota
	KeyAdvance
	KeyBack
	KeySubmit
)

// KeyAction maps a key event to a navigation action: Enter (without Shift)
// advances, or submits on the last question, when CanProceed; ArrowUp and
// Cmd+ArrowLeft go back; ArrowDown and Cmd+ArrowRight advance when
// CanProceed.
func (c *Collector) KeyAction(ev KeyEvent) KeyAction {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case ev.Key == "Enter" && !ev.Shift:
		if !c.canProceedLocked() {
			return KeyNone
		}
		if c.index == len(c.questions)-1 {
			return KeySubmit
		}
		return KeyAdvance
	case ev.Key == "ArrowUp" || (ev.Key == "ArrowLeft" && ev.Meta):
		return KeyBack
	case ev.Key == "ArrowDown" || (ev.Key == "ArrowRight" && ev.Meta):
		if c.canProceedLocked() {
			return KeyAdvance
		}
		return KeyNone
	}
	return KeyNone
}

// Submit validates every required question, assembles the response row and
// writes it. If no contact preference is recorded the gate re-opens and
// submission is blocked. Insert failures leave the session answering and
// resubmittable. The counter increment and activity append run after the row
// is durable; their failures are logged, not returned.
func (c *Collector) Submit(ctx context.Context, store CollectorStore, userAgent string) (*models.SurveyResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.completed {
		return nil, ErrAlreadySubmitted
	}
	if c.contact == nil {
		c.contactOpen = true
		return nil, ErrContactPreferenceRequired
	}
	for _, q := range c.questions {
		if q.Required && !answerPresent(c.answers[q.ID]) {
			return nil, fmt.Errorf("%w: %s", ErrAnswerRequired, q.ID)
		}
	}

	response, err := buildResponse(c.survey.ID, c.answers, len(c.questions), c.startedAt, userAgent, c.contact)
	if err != nil {
		return nil, err
	}
	if err := store.InsertResponse(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to submit response: %w", err)
	}
	c.completed = true

	if err := store.IncrementResponseCount(ctx, c.survey.ID); err != nil {
		log.Printf("failed to increment response count for survey %s: %v", c.survey.ID, err)
	}
	surveyID := c.survey.ID
	if err := store.AppendActivity(ctx, &models.Activity{
		BusinessID: c.survey.BusinessID,
		SurveyID:   &surveyID,
		Kind:       models.ActivityResponseReceived,
		Message:    fmt.Sprintf("New response for %q", c.survey.Title),
	}); err != nil {
		log.Printf("failed to append activity for survey %s: %v", c.survey.ID, err)
	}

	return response, nil
}

// SubmitDirect is the sessionless submission path: same validation and row
// assembly as Collector.Submit, with the completion time supplied by the
// caller.
func SubmitDirect(ctx context.Context, store CollectorStore, survey *models.Survey, answers map[string]any, contact *models.ContactPreference, userAgent string, completionSeconds int) (*models.SurveyResponse, error) {
	doc, err := survey.Document()
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, ErrContactPreferenceRequired
	}
	if contact.Anonymous {
		contact.Name = ""
		contact.Email = ""
	}
	for _, q := range doc.Questions {
		if q.Required && !answerPresent(answers[q.ID]) {
			return nil, fmt.Errorf("%w: %s", ErrAnswerRequired, q.ID)
		}
	}
	for id := range answers {
		if doc.Question(id) == nil {
			return nil, fmt.Errorf("unknown question %s", id)
		}
	}

	response, err := buildResponse(survey.ID, answers, len(doc.Questions), time.Now(), userAgent, contact)
	if err != nil {
		return nil, err
	}
	if completionSeconds > 0 {
		response.CompletionTime = completionSeconds
	}
	if err := store.InsertResponse(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to submit response: %w", err)
	}

	if err := store.IncrementResponseCount(ctx, survey.ID); err != nil {
		log.Printf("failed to increment response count for survey %s: %v", survey.ID, err)
	}
	surveyID := survey.ID
	if err := store.AppendActivity(ctx, &models.Activity{
		BusinessID: survey.BusinessID,
		SurveyID:   &surveyID,
		Kind:       models.ActivityResponseReceived,
		Message:    fmt.Sprintf("New response for %q", survey.Title),
	}); err != nil {
		log.Printf("failed to append activity for survey %s: %v", survey.ID, err)
	}
	return response, nil
}

// buildResponse assembles the immutable response row: completion time is
// whole seconds since session start, is_complete is always true (there is no
// partial-save path), metadata carries the contact preference and counts.
func buildResponse(surveyID string, answers map[string]any, totalQuestions int, startedAt time.Time, userAgent string, contact *models.ContactPreference) (*models.SurveyResponse, error) {
	data, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(models.ResponseMetadata{
		UserAgent:         userAgent,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		QuestionsAnswered: len(answers),
		TotalQuestions:    totalQuestions,
		ContactPreference: contact,
	})
	if err != nil {
		return nil, err
	}
	return &models.SurveyResponse{
		SurveyID:       surveyID,
		ResponseData:   datatypes.JSON(data),
		IsComplete:     true,
		CompletionTime: int(math.Round(time.Since(startedAt).Seconds())),
		Metadata:       datatypes.JSON(meta),
	}, nil
}
