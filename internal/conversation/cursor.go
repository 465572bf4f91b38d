package conversation

import (
	"context"
	"fmt"

	"github.com/onurcolak/survey-campaign-bot/internal/domain"
)

// QuestionCatalog returns the ordered questions of a survey.
type QuestionCatalog interface {
	GetQuestions(ctx context.Context, surveyID string) ([]domain.Question, error)
}

// Progress tracks one contact's position in the question list.
// len(Answers) == CurrentIndex whenever no answer is being recorded.
type Progress struct {
	Questions    []domain.Question
	CurrentIndex int
	Answers      []domain.Answer
}

// Current returns the question awaiting an answer, or false once all
// questions have been answered.
func (p *Progress) Current() (domain.Question, bool) {
	if p.CurrentIndex >= len(p.Questions) {
		return domain.Question{}, false
	}
	return p.Questions[p.CurrentIndex], true
}

func (p *Progress) Done() bool {
	return p.CurrentIndex >= len(p.Questions)
}

// record appends the answer and moves the cursor forward in one step.
// Callers hold the store lock.
func (p *Progress) record(answer domain.Answer) bool {
	if p.Done() {
		return true
	}
	p.Answers = append(p.Answers, answer)
	p.CurrentIndex++
	return p.Done()
}

// Cursor creates question progress from the catalog.
type Cursor struct {
	catalog QuestionCatalog
}

func NewCursor(catalog QuestionCatalog) *Cursor {
	return &Cursor{catalog: catalog}
}

// Begin fetches the survey's questions. It fails with ErrNoQuestions when
// the survey is unknown or empty, and ErrCatalogUnavailable when the
// catalog cannot be reached.
func (c *Cursor) Begin(ctx context.Context, surveyID string) (*Progress, error) {
	if surveyID == "" {
		return nil, fmt.Errorf("missing survey id: %w", ErrNoQuestions)
	}

	questions, err := c.catalog.GetQuestions(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("survey %s: %w: %v", surveyID, ErrCatalogUnavailable, err)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("survey %s: %w", surveyID, ErrNoQuestions)
	}

	fixed := make([]domain.Question, len(questions))
	copy(fixed, questions)

	return &Progress{
		Questions: fixed,
		Answers:   make([]domain.Answer, 0, len(fixed)),
	}, nil
}
