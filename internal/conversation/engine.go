package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
	"github.com/onurcolak/survey-campaign-bot/pkg/phone"
)

// Messenger delivers a text to a normalized contact.
type Messenger interface {
	SendText(ctx context.Context, contact, text string) error
}

// ContactDirectory resolves contacts and records the terminal status.
// FindByNumber returns (nil, nil) when the contact is unknown.
type ContactDirectory interface {
	FindByNumber(ctx context.Context, number string) (*domain.Client, error)
	MarkResponded(ctx context.Context, number string) error
}

type ResponseStore interface {
	SaveAnswer(ctx context.Context, answer domain.Answer) error
}

// CompletionChecker reports whether the contact finished the external survey.
type CompletionChecker interface {
	HasCompleted(ctx context.Context, client domain.Client) (bool, error)
}

// LinkShortener never fails: it falls back to the long link.
type LinkShortener interface {
	Shorten(ctx context.Context, longURL string) string
}

// Timers schedules delayed callbacks keyed by contact.
type Timers interface {
	After(key, name string, delay time.Duration, run func(ctx context.Context)) uint64
	Cancel(id uint64) bool
}

type Outcome string

const (
	OutcomeIgnored        Outcome = "ignored"
	OutcomeNotRegistered  Outcome = "not_registered"
	OutcomeAcknowledged   Outcome = "acknowledged"
	OutcomeSurveyOffered  Outcome = "survey_offered"
	OutcomeAnswerRecorded Outcome = "answer_recorded"
	OutcomeCompleted      Outcome = "completed"
	OutcomeFailed         Outcome = "failed"
)

type Dependencies struct {
	Store      *Store
	Directory  ContactDirectory
	Responses  ResponseStore
	Catalog    QuestionCatalog
	Completion CompletionChecker
	Links      LinkShortener
	Messenger  Messenger
	Timers     Timers
}

// Engine drives every contact through greeting, survey link and
// question-by-question fallback.
//
// Timer callbacks carry only the contact key and the round they were armed
// for. When they fire they take the contact's lock and re-check the phase,
// so a timer that lost the race against an inbound message does nothing.
type Engine struct {
	store      *Store
	directory  ContactDirectory
	responses  ResponseStore
	cursor     *Cursor
	completion CompletionChecker
	links      LinkShortener
	messenger  Messenger
	timers     Timers
	normalizer phone.Normalizer
	config     environments.ConversationConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewEngine(deps Dependencies, config environments.ConversationConfig) *Engine {
	store := deps.Store
	if store == nil {
		store = NewStore()
	}

	completion := deps.Completion
	if completion == nil {
		completion = NeverCompleted{}
	}

	links := deps.Links
	if links == nil {
		links = identityShortener{}
	}

	return &Engine{
		store:      store,
		directory:  deps.Directory,
		responses:  deps.Responses,
		cursor:     NewCursor(deps.Catalog),
		completion: completion,
		links:      links,
		messenger:  deps.Messenger,
		timers:     deps.Timers,
		normalizer: phone.NewNormalizer(config.DefaultCountryCode),
		config:     config,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func (e *Engine) Store() *Store {
	return e.store
}

func (e *Engine) Normalize(raw string) string {
	return e.normalizer.Normalize(raw)
}

func (e *Engine) Snapshot() domain.ActiveSnapshot {
	return e.store.Snapshot()
}

// StartContact sends the greeting and arms the escalation timer. An
// already active contact is restarted from scratch.
func (e *Engine) StartContact(ctx context.Context, client domain.Client) bool {
	contact := e.normalizer.Normalize(client.Number)
	if contact == "" {
		logger.Warnf("Cannot start workflow for %q: empty contact number", client.FirstName)
		return false
	}
	client.Number = contact

	started := false
	e.store.With(contact, func(sl *Slot) {
		if err := e.send(ctx, contact, greetingText(client.FirstName)); err != nil {
			return
		}

		if prev := sl.Conversation(); prev != nil {
			logger.Infof("Restarting workflow for %s (was %s)", contact, prev.Phase())
			e.cancelTimer(prev)
		}

		conv := sl.Start(client, e.now())
		e.arm(sl, conv, "escalation", e.config.EscalationDelay, e.onEscalation)

		logger.Infof("Waiting for %s (%s) to reply, survey link in %v", client.FirstName, contact, e.config.EscalationDelay)
		started = true
	})

	return started
}

// HandleInbound processes one inbound text from a raw sender identifier.
func (e *Engine) HandleInbound(ctx context.Context, rawSender, text string) Outcome {
	contact := e.normalizer.Normalize(rawSender)
	if contact == "" {
		logger.Warnf("Ignoring inbound message from unparseable sender %q", rawSender)
		return OutcomeIgnored
	}

	log := logger.With("contact", contact)
	log.Info("message received", "text", text)

	// Every inbound message must come from a known client, whatever the phase.
	client, outcome := e.resolveSender(ctx, contact)
	if client == nil {
		return outcome
	}

	outcome = OutcomeIgnored
	e.store.With(contact, func(sl *Slot) {
		conv := sl.Conversation()
		if conv == nil {
			outcome = e.acknowledge(ctx, contact, client)
			return
		}

		switch conv.Phase() {
		case domain.PhaseInQandA:
			outcome = e.handleAnswer(ctx, sl, text)

		case domain.PhaseAwaitingInitialResponse:
			log.Info("replied to the greeting, sending survey link now")
			if err := e.offerSurvey(ctx, sl, conv); err != nil {
				outcome = OutcomeFailed
				return
			}
			outcome = OutcomeSurveyOffered

		default:
			log.Debug("nothing to do in current phase", "phase", conv.Phase())
		}
	})

	return outcome
}

// resolveSender looks the contact up in the directory. A nil client means
// the sender was answered already (not registered or apology) and nothing
// else may happen for this message.
func (e *Engine) resolveSender(ctx context.Context, contact string) (*domain.Client, Outcome) {
	client, err := e.directory.FindByNumber(ctx, contact)
	if err != nil {
		logger.Errorf("Directory lookup failed for %s: %v", contact, err)
		_ = e.send(ctx, contact, apologyText)
		return nil, OutcomeFailed
	}

	if client == nil {
		logger.Infof("%v: %s", ErrContactNotFound, contact)
		if err := e.send(ctx, contact, notRegisteredText); err != nil {
			return nil, OutcomeFailed
		}
		return nil, OutcomeNotRegistered
	}

	return client, ""
}

func (e *Engine) acknowledge(ctx context.Context, contact string, client *domain.Client) Outcome {
	logger.Infof("Out-of-workflow message from %s (%s)", client.FirstName, contact)
	if err := e.send(ctx, contact, outOfWorkflowText); err != nil {
		return OutcomeFailed
	}
	return OutcomeAcknowledged
}

func (e *Engine) handleAnswer(ctx context.Context, sl *Slot, text string) Outcome {
	contact := sl.contact

	progress := sl.Progress()
	if progress == nil {
		logger.Warnf("No question progress for %s in Q&A", contact)
		return OutcomeIgnored
	}

	question, ok := progress.Current()
	if !ok {
		logger.Warnf("Question cursor already exhausted for %s", contact)
		return OutcomeIgnored
	}

	answer := domain.Answer{
		Contact:      contact,
		QuestionID:   question.ID,
		QuestionText: question.Text,
		Text:         text,
		ReceivedAt:   e.now(),
	}

	if err := e.responses.SaveAnswer(ctx, answer); err != nil {
		logger.Errorf("Failed to save answer of %s to %s: %v", contact, question.ID, err)
	} else {
		logger.Infof("Answer saved for %s: Q%s = %q", contact, question.ID, text)
	}

	done, err := sl.RecordAnswer(answer)
	if err != nil {
		logger.Errorf("%v", err)
		return OutcomeFailed
	}

	if done {
		logger.Infof("All questions answered by %s", contact)
		if err := e.send(ctx, contact, thanksText); err != nil {
			logger.Warnf("Closing %s without a thank-you: %v", contact, err)
		}
		e.markResponded(ctx, contact)
		sl.Close()
		return OutcomeCompleted
	}

	if err := e.sleep(ctx, e.config.QuestionPacing); err != nil {
		return OutcomeAnswerRecorded
	}
	_ = e.sendCurrentQuestion(ctx, sl)

	return OutcomeAnswerRecorded
}

func (e *Engine) onEscalation(ctx context.Context, contact string, round uint64) {
	e.store.With(contact, func(sl *Slot) {
		conv := sl.Conversation()
		if !e.stillArmed(conv, round, eventOfferSurvey) {
			logger.Infof("Escalation timer for %s is stale, contact already moved on", contact)
			return
		}

		logger.Infof("No reply from %s within %v, sending survey link", contact, e.config.EscalationDelay)
		_ = e.offerSurvey(ctx, sl, conv)
	})
}

func (e *Engine) offerSurvey(ctx context.Context, sl *Slot, conv *Conversation) error {
	link := e.links.Shorten(ctx, conv.Client.SurveyLink)

	if err := e.send(ctx, sl.contact, surveyLinkText(link)); err != nil {
		return err
	}

	e.cancelTimer(conv)
	if err := sl.Advance(ctx, eventOfferSurvey, e.now()); err != nil {
		logger.Errorf("%v", err)
		return err
	}

	e.arm(sl, conv, "completion-check", e.config.CompletionCheckDelay, e.onCompletionCheck)
	logger.Infof("Survey link sent to %s, completion check in %v", sl.contact, e.config.CompletionCheckDelay)

	return nil
}

func (e *Engine) onCompletionCheck(ctx context.Context, contact string, round uint64) {
	e.store.With(contact, func(sl *Slot) {
		conv := sl.Conversation()
		if !e.stillArmed(conv, round, eventStartQandA) {
			logger.Infof("Completion check for %s is stale, contact already moved on", contact)
			return
		}

		completed, err := e.completion.HasCompleted(ctx, conv.Client)
		if err != nil {
			logger.Warnf("Survey completion check failed for %s, assuming not completed: %v", contact, err)
			completed = false
		}

		if completed {
			logger.Infof("%s completed the external survey", contact)
			e.markResponded(ctx, contact)
			sl.Close()
			return
		}

		logger.Infof("%s has not completed the external survey, switching to individual questions", contact)
		e.startQandA(ctx, sl, conv)
	})
}

func (e *Engine) startQandA(ctx context.Context, sl *Slot, conv *Conversation) {
	contact := sl.contact

	surveyID := conv.Client.SurveyID
	if surveyID == "" {
		surveyID = e.lookupSurveyID(ctx, contact)
	}

	progress, err := e.cursor.Begin(ctx, surveyID)
	if err != nil {
		logger.Errorf("Cannot start questions for %s: %v", contact, err)
		sl.MarkStalled()
		_ = e.send(ctx, contact, noQuestionsText)
		return
	}

	logger.Infof("%d questions found for %s (survey %s)", len(progress.Questions), contact, surveyID)

	if err := e.send(ctx, contact, introText(len(progress.Questions))); err != nil {
		return
	}

	if err := sl.BeginQandA(ctx, progress, e.now()); err != nil {
		logger.Errorf("%v", err)
		return
	}

	if err := e.sleep(ctx, e.config.IntroPacing); err != nil {
		return
	}
	_ = e.sendCurrentQuestion(ctx, sl)
}

func (e *Engine) lookupSurveyID(ctx context.Context, contact string) string {
	client, err := e.directory.FindByNumber(ctx, contact)
	if err != nil {
		logger.Warnf("Survey id lookup failed for %s: %v", contact, err)
		return ""
	}
	if client == nil {
		return ""
	}
	return client.SurveyID
}

func (e *Engine) sendCurrentQuestion(ctx context.Context, sl *Slot) error {
	progress := sl.Progress()
	if progress == nil {
		return fmt.Errorf("no progress for %s: %w", sl.contact, ErrPhaseMismatch)
	}

	question, ok := progress.Current()
	if !ok {
		return nil
	}

	total := len(progress.Questions)
	logger.Infof("Sending question %d/%d to %s", progress.CurrentIndex+1, total, sl.contact)

	return e.send(ctx, sl.contact, questionText(progress.CurrentIndex, total, question.Text))
}

func (e *Engine) markResponded(ctx context.Context, contact string) {
	if err := e.directory.MarkResponded(ctx, contact); err != nil {
		logger.Errorf("Failed to mark %s as responded: %v", contact, err)
		return
	}
	logger.Infof("Status updated for %s: %s", contact, domain.ClientStatusResponded)
}

func (e *Engine) send(ctx context.Context, contact, text string) error {
	if err := e.messenger.SendText(ctx, contact, text); err != nil {
		wrapped := fmt.Errorf("send to %s: %w: %v", contact, ErrSendFailed, err)
		logger.Errorf("%v", wrapped)
		return wrapped
	}
	return nil
}

// arm schedules fn for the conversation's current round.
func (e *Engine) arm(
	sl *Slot,
	conv *Conversation,
	name string,
	delay time.Duration,
	fn func(ctx context.Context, contact string, round uint64),
) {
	contact, round := sl.contact, conv.Round
	id := e.timers.After(contact, name, delay, func(ctx context.Context) {
		fn(ctx, contact, round)
	})
	sl.SetTimer(id)
}

func (e *Engine) cancelTimer(conv *Conversation) {
	if conv.timerID != 0 {
		e.timers.Cancel(conv.timerID)
	}
}

func (e *Engine) stillArmed(conv *Conversation, round uint64, event string) bool {
	return conv != nil && conv.Round == round && conv.can(event)
}

// NeverCompleted is the completion predicate used when no external check
// is configured.
type NeverCompleted struct{}

func (NeverCompleted) HasCompleted(ctx context.Context, client domain.Client) (bool, error) {
	return false, nil
}

type identityShortener struct{}

func (identityShortener) Shorten(ctx context.Context, longURL string) string {
	return longURL
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
