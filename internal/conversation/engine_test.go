package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/onurcolak/survey-campaign-bot/internal/domain"
)

const contact = "212612345678"

func sampleClient() domain.Client {
	return domain.Client{
		FirstName:  "Amina",
		LastName:   "Benali",
		Number:     "0612345678",
		SurveyID:   "42",
		SurveyLink: "https://survey.example.com/s/42?token=abc",
	}
}

func twoQuestions() []domain.Question {
	return []domain.Question{
		{ID: "Q1", Text: "Q1?"},
		{ID: "Q2", Text: "Q2?"},
	}
}

func TestEngine_FullScenario(t *testing.T) {
	h := newHarness()
	client := sampleClient()
	h.register(domain.Client{FirstName: "Amina", Number: contact, SurveyID: "42"})
	h.catalog.questions["42"] = twoQuestions()

	ctx := context.Background()

	if !h.engine.StartContact(ctx, client) {
		t.Fatalf("expected StartContact to succeed")
	}
	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseAwaitingInitialResponse {
		t.Fatalf("expected awaiting initial response, got %q", phase)
	}
	if task := h.timers.last(t, contact, "escalation"); task.delay != 2*time.Minute {
		t.Fatalf("expected escalation in 2m, got %v", task.delay)
	}

	// No reply within T1.
	h.timers.fire(t, contact, "escalation")
	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseSurveyOffered {
		t.Fatalf("expected survey offered, got %q", phase)
	}
	if h.messenger.count(contact, client.SurveyLink) != 1 {
		t.Fatalf("expected survey link to be sent once")
	}

	// Not completed: Q&A starts.
	h.timers.fire(t, contact, "completion-check")
	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseInQandA {
		t.Fatalf("expected Q&A, got %q", phase)
	}
	if h.messenger.count(contact, "Question 1/2: Q1?") != 1 {
		t.Fatalf("expected first question, got %v", h.messenger.texts(contact))
	}

	if got := h.engine.HandleInbound(ctx, "212612345678@s.whatsapp.net", "yes"); got != OutcomeAnswerRecorded {
		t.Fatalf("expected answer recorded, got %q", got)
	}
	if h.messenger.count(contact, "Question 2/2: Q2?") != 1 {
		t.Fatalf("expected second question, got %v", h.messenger.texts(contact))
	}

	if got := h.engine.HandleInbound(ctx, "+212 612-345-678", "no"); got != OutcomeCompleted {
		t.Fatalf("expected completion, got %q", got)
	}

	answers := h.responses.saved()
	if len(answers) != 2 {
		t.Fatalf("expected 2 saved answers, got %d", len(answers))
	}
	if answers[0].QuestionID != "Q1" || answers[0].Text != "yes" {
		t.Errorf("unexpected first answer %+v", answers[0])
	}
	if answers[1].QuestionID != "Q2" || answers[1].Text != "no" {
		t.Errorf("unexpected second answer %+v", answers[1])
	}
	if answers[0].Contact != contact || answers[0].QuestionText != "Q1?" {
		t.Errorf("expected answer keyed by contact with question text, got %+v", answers[0])
	}

	if n := h.messenger.count(contact, thanksText); n != 1 {
		t.Errorf("expected exactly one thank-you, got %d", n)
	}
	if n := h.directory.respondedCount(); n != 1 {
		t.Errorf("expected exactly one status update, got %d", n)
	}
	if _, ok := h.engine.Store().Phase(contact); ok {
		t.Errorf("expected conversation record to be removed")
	}
	if _, ok := h.engine.Store().Progress(contact); ok {
		t.Errorf("expected question progress to be removed")
	}

	want := []string{
		greetingText("Amina"),
		surveyLinkText(client.SurveyLink),
		introText(2),
		"Question 1/2: Q1?",
		"Question 2/2: Q2?",
		thanksText,
	}
	got := h.messenger.texts(contact)
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestEngine_ReplyBeforeEscalationMakesTimerNoop(t *testing.T) {
	h := newHarness()
	client := sampleClient()
	h.register(domain.Client{FirstName: "Amina", Number: contact})
	ctx := context.Background()

	h.engine.StartContact(ctx, client)

	if got := h.engine.HandleInbound(ctx, "0612345678", "hello"); got != OutcomeSurveyOffered {
		t.Fatalf("expected survey offered, got %q", got)
	}

	// The late T1 fires anyway.
	h.timers.fire(t, contact, "escalation")

	if n := h.messenger.count(contact, client.SurveyLink); n != 1 {
		t.Fatalf("expected exactly one survey link, got %d", n)
	}
	if n := h.timers.armed(contact, "completion-check"); n != 1 {
		t.Fatalf("expected one completion check armed, got %d", n)
	}

	esc := h.timers.last(t, contact, "escalation")
	if !h.timers.cancelled[esc.id] {
		t.Errorf("expected escalation timer to be cancelled on reply")
	}
}

func TestEngine_ReplyUsesSnapshottedClient(t *testing.T) {
	h := newHarness()
	client := sampleClient()
	// Directory knows the contact but without the link.
	h.register(domain.Client{FirstName: "Amina", Number: contact})
	ctx := context.Background()

	h.engine.StartContact(ctx, client)
	h.engine.HandleInbound(ctx, contact, "hi")

	if n := h.messenger.count(contact, client.SurveyLink); n != 1 {
		t.Fatalf("expected the snapshotted link to be sent, got %v", h.messenger.texts(contact))
	}
}

func TestEngine_UnregisteredSender(t *testing.T) {
	h := newHarness()

	got := h.engine.HandleInbound(context.Background(), "0699999999", "hello?")
	if got != OutcomeNotRegistered {
		t.Fatalf("expected not registered, got %q", got)
	}

	texts := h.messenger.texts("212699999999")
	if len(texts) != 1 || texts[0] != notRegisteredText {
		t.Fatalf("expected exactly the not-registered message, got %v", texts)
	}

	if snap := h.engine.Snapshot(); snap.Total != 0 || len(snap.ActiveQuestions) != 0 {
		t.Fatalf("expected no state to be created, got %+v", snap)
	}
}

func TestEngine_OutOfWorkflowAcknowledgement(t *testing.T) {
	h := newHarness()
	h.register(domain.Client{FirstName: "Amina", Number: contact})

	got := h.engine.HandleInbound(context.Background(), contact, "hello")
	if got != OutcomeAcknowledged {
		t.Fatalf("expected acknowledgement, got %q", got)
	}

	texts := h.messenger.texts(contact)
	if len(texts) != 1 || texts[0] != outOfWorkflowText {
		t.Fatalf("expected the acknowledgement text, got %v", texts)
	}
	if h.engine.Snapshot().Total != 0 {
		t.Fatalf("expected no state to be created")
	}
}

func TestEngine_UnregisteredReplyDuringGreetingDoesNotAdvance(t *testing.T) {
	h := newHarness()
	delete(h.directory.clients, contact)
	ctx := context.Background()

	// Started from request data only, the way a reminder for an unknown
	// number is.
	client := sampleClient()
	if !h.engine.StartContact(ctx, client) {
		t.Fatalf("expected StartContact to succeed")
	}

	if got := h.engine.HandleInbound(ctx, contact, "hi"); got != OutcomeNotRegistered {
		t.Fatalf("expected not registered, got %q", got)
	}

	if n := h.messenger.count(contact, client.SurveyLink); n != 0 {
		t.Fatalf("expected no survey link, got %v", h.messenger.texts(contact))
	}
	if n := h.messenger.count(contact, notRegisteredText); n != 1 {
		t.Fatalf("expected the not-registered message, got %v", h.messenger.texts(contact))
	}
	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseAwaitingInitialResponse {
		t.Fatalf("expected phase to stay awaiting reply, got %q", phase)
	}
	if h.directory.lookups != 1 {
		t.Fatalf("expected one directory lookup, got %d", h.directory.lookups)
	}
}

func TestEngine_DirectoryErrorDuringQandAKeepsCursor(t *testing.T) {
	h := newHarness()
	h.catalog.questions["42"] = twoQuestions()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	h.directory.err = fmt.Errorf("connection refused")
	if got := h.engine.HandleInbound(ctx, contact, "yes"); got != OutcomeFailed {
		t.Fatalf("expected failure outcome, got %q", got)
	}

	if len(h.responses.saved()) != 0 {
		t.Fatalf("expected no answer to be recorded")
	}
	q, ok := h.engine.Store().CurrentQuestion(contact)
	if !ok || q.ID != "Q1" {
		t.Fatalf("expected cursor to stay on Q1, got %+v (ok=%v)", q, ok)
	}
	if n := h.messenger.count(contact, apologyText); n != 1 {
		t.Fatalf("expected one apology, got %v", h.messenger.texts(contact))
	}
}

func TestEngine_DirectoryErrorApologizes(t *testing.T) {
	h := newHarness()
	h.directory.err = fmt.Errorf("connection refused")

	if got := h.engine.HandleInbound(context.Background(), contact, "hello"); got != OutcomeFailed {
		t.Fatalf("expected failure outcome, got %q", got)
	}

	texts := h.messenger.texts(contact)
	if len(texts) != 1 || texts[0] != apologyText {
		t.Fatalf("expected apology, got %v", texts)
	}
}

func TestEngine_GreetingSendFailureCreatesNoState(t *testing.T) {
	h := newHarness()
	h.messenger.failWhen = func(contact, text string) bool { return true }

	if h.engine.StartContact(context.Background(), sampleClient()) {
		t.Fatalf("expected StartContact to report failure")
	}
	if _, ok := h.engine.Store().Phase(contact); ok {
		t.Fatalf("expected no conversation after failed greeting")
	}
	if n := h.timers.armed(contact, "escalation"); n != 0 {
		t.Fatalf("expected no timer to be armed, got %d", n)
	}
}

func TestEngine_SurveyLinkSendFailureDoesNotAdvance(t *testing.T) {
	h := newHarness()
	client := sampleClient()
	ctx := context.Background()

	h.engine.StartContact(ctx, client)
	h.messenger.failWhen = func(contact, text string) bool { return text == surveyLinkText(client.SurveyLink) }

	h.timers.fire(t, contact, "escalation")

	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseAwaitingInitialResponse {
		t.Fatalf("expected to stay awaiting initial response, got %q", phase)
	}
	if n := h.timers.armed(contact, "completion-check"); n != 0 {
		t.Fatalf("expected no completion check to be armed, got %d", n)
	}
	if n := h.timers.armed(contact, "escalation"); n != 1 {
		t.Fatalf("expected no automatic re-arm, got %d escalation timers", n)
	}
}

func TestEngine_CompletedExternalSurveyCloses(t *testing.T) {
	h := newHarness()
	h.completion.completed = true
	h.catalog.questions["42"] = twoQuestions()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	if _, ok := h.engine.Store().Phase(contact); ok {
		t.Fatalf("expected conversation to be closed")
	}
	if n := h.directory.respondedCount(); n != 1 {
		t.Fatalf("expected one status update, got %d", n)
	}
	if len(h.catalog.calls) != 0 {
		t.Fatalf("expected no catalog fetch, got %v", h.catalog.calls)
	}
}

func TestEngine_CompletionCheckErrorFallsBackToQuestions(t *testing.T) {
	h := newHarness()
	h.completion.err = fmt.Errorf("survey service down")
	h.catalog.questions["42"] = twoQuestions()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseInQandA {
		t.Fatalf("expected Q&A, got %q", phase)
	}
}

func TestEngine_NoQuestionsLeavesConversationStalled(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	if n := h.messenger.count(contact, noQuestionsText); n != 1 {
		t.Fatalf("expected apology, got %v", h.messenger.texts(contact))
	}
	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseSurveyOffered {
		t.Fatalf("expected to stay in survey offered, got %q", phase)
	}
	if _, ok := h.engine.Store().Progress(contact); ok {
		t.Fatalf("expected no question progress")
	}

	snap := h.engine.Snapshot()
	if len(snap.ActiveClients) != 1 || !snap.ActiveClients[0].Stalled {
		t.Fatalf("expected stalled conversation in snapshot, got %+v", snap.ActiveClients)
	}
}

func TestEngine_CatalogUnavailable(t *testing.T) {
	h := newHarness()
	h.catalog.err = fmt.Errorf("timeout")
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	if n := h.messenger.count(contact, noQuestionsText); n != 1 {
		t.Fatalf("expected apology, got %v", h.messenger.texts(contact))
	}
	if _, ok := h.engine.Store().Progress(contact); ok {
		t.Fatalf("expected no question progress")
	}
}

func TestEngine_MissingSurveyIDResolvedFromDirectory(t *testing.T) {
	h := newHarness()
	h.register(domain.Client{FirstName: "Amina", Number: contact, SurveyID: "7"})
	h.catalog.questions["7"] = twoQuestions()
	ctx := context.Background()

	client := sampleClient()
	client.SurveyID = ""
	h.engine.StartContact(ctx, client)
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	if len(h.catalog.calls) != 1 || h.catalog.calls[0] != "7" {
		t.Fatalf("expected catalog fetch for survey 7, got %v", h.catalog.calls)
	}
	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseInQandA {
		t.Fatalf("expected Q&A, got %q", phase)
	}
}

func TestEngine_IntroSendFailureKeepsSurveyOffered(t *testing.T) {
	h := newHarness()
	h.catalog.questions["42"] = twoQuestions()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")

	h.messenger.failWhen = func(contact, text string) bool { return text == introText(2) }
	h.timers.fire(t, contact, "completion-check")

	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseSurveyOffered {
		t.Fatalf("expected survey offered, got %q", phase)
	}
	if _, ok := h.engine.Store().Progress(contact); ok {
		t.Fatalf("expected no progress without a delivered intro")
	}
}

func TestEngine_PersistenceFailureStillAdvances(t *testing.T) {
	h := newHarness()
	h.catalog.questions["42"] = twoQuestions()
	h.responses.err = fmt.Errorf("disk full")
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	h.engine.HandleInbound(ctx, contact, "yes")

	p, ok := h.engine.Store().Progress(contact)
	if !ok {
		t.Fatalf("expected progress to exist")
	}
	if p.CurrentIndex != 1 || len(p.Answers) != 1 {
		t.Fatalf("expected cursor at 1 with one answer, got %d/%d", p.CurrentIndex, len(p.Answers))
	}
}

func TestEngine_MessageWhileSurveyOfferedIsIgnored(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	before := len(h.messenger.texts(contact))

	if got := h.engine.HandleInbound(ctx, contact, "done!"); got != OutcomeIgnored {
		t.Fatalf("expected ignored, got %q", got)
	}
	if after := len(h.messenger.texts(contact)); after != before {
		t.Fatalf("expected no message to be sent, got %d new", after-before)
	}
}

func TestEngine_RestartDropsProgressAndStaleTimers(t *testing.T) {
	h := newHarness()
	h.catalog.questions["42"] = twoQuestions()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	staleCheck := h.timers.last(t, contact, "completion-check")

	// Restart before T2 fires.
	h.engine.StartContact(ctx, sampleClient())
	staleCheck.run(ctx)

	if phase, _ := h.engine.Store().Phase(contact); phase != domain.PhaseAwaitingInitialResponse {
		t.Fatalf("expected restarted conversation to await a reply, got %q", phase)
	}
	if len(h.catalog.calls) != 0 {
		t.Fatalf("expected stale completion check to be a no-op")
	}

	// Drive into Q&A, then restart: progress must go too.
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")
	if _, ok := h.engine.Store().Progress(contact); !ok {
		t.Fatalf("expected progress after Q&A start")
	}

	h.engine.StartContact(ctx, sampleClient())
	if _, ok := h.engine.Store().Progress(contact); ok {
		t.Fatalf("expected restart to drop question progress")
	}
}

func TestEngine_ConcurrentAnswersSerializePerContact(t *testing.T) {
	h := newHarness()

	const n = 8
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{ID: fmt.Sprintf("Q%d", i+1), Text: fmt.Sprintf("Question text %d", i+1)}
	}
	h.catalog.questions["42"] = questions
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.engine.HandleInbound(ctx, contact, fmt.Sprintf("answer %d", i))
		}(i)
	}
	wg.Wait()

	answers := h.responses.saved()
	if len(answers) != n {
		t.Fatalf("expected %d answers, got %d", n, len(answers))
	}
	for i, a := range answers {
		if a.QuestionID != questions[i].ID {
			t.Errorf("answer %d recorded against %s, want %s", i, a.QuestionID, questions[i].ID)
		}
	}
	if c := h.messenger.count(contact, thanksText); c != 1 {
		t.Errorf("expected one thank-you, got %d", c)
	}
	if c := h.directory.respondedCount(); c != 1 {
		t.Errorf("expected one status update, got %d", c)
	}
}

func TestEngine_SlowContactDoesNotBlockOthers(t *testing.T) {
	h := newHarness()
	gate := make(chan struct{})
	h.messenger.block = map[string]chan struct{}{contact: gate}
	ctx := context.Background()

	done := make(chan bool, 1)
	go func() {
		done <- h.engine.StartContact(ctx, sampleClient())
	}()

	other := domain.Client{FirstName: "Youssef", Number: "0611111111", SurveyLink: "https://survey.example.com/s/1"}
	finished := make(chan bool, 1)
	go func() {
		finished <- h.engine.StartContact(ctx, other)
	}()

	select {
	case ok := <-finished:
		if !ok {
			t.Fatalf("expected second contact to start")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second contact blocked behind the first")
	}

	close(gate)
	if !<-done {
		t.Fatalf("expected first contact to start once unblocked")
	}
}

func TestEngine_EmptyAnswerAdvancesCursor(t *testing.T) {
	h := newHarness()
	h.catalog.questions["42"] = twoQuestions()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	h.engine.HandleInbound(ctx, contact, "")

	q, ok := h.engine.Store().CurrentQuestion(contact)
	if !ok || q.ID != "Q2" {
		t.Fatalf("expected cursor on Q2, got %+v (ok=%v)", q, ok)
	}
}

func TestEngine_EmptySenderIgnored(t *testing.T) {
	h := newHarness()

	if got := h.engine.HandleInbound(context.Background(), "status@broadcast", "x"); got != OutcomeIgnored {
		t.Fatalf("expected ignored, got %q", got)
	}
	if h.directory.lookups != 0 {
		t.Fatalf("expected no directory lookup")
	}
}

func TestEngine_ThanksSendFailureStillCloses(t *testing.T) {
	h := newHarness()
	h.catalog.questions["42"] = twoQuestions()
	ctx := context.Background()

	h.engine.StartContact(ctx, sampleClient())
	h.timers.fire(t, contact, "escalation")
	h.timers.fire(t, contact, "completion-check")

	h.messenger.failWhen = func(contact, text string) bool { return text == thanksText }

	h.engine.HandleInbound(ctx, contact, "yes")
	if got := h.engine.HandleInbound(ctx, contact, "no"); got != OutcomeCompleted {
		t.Fatalf("expected completed, got %q", got)
	}

	if _, ok := h.engine.Store().Phase(contact); ok {
		t.Fatalf("expected the conversation to be closed")
	}
	if c := h.directory.respondedCount(); c != 1 {
		t.Fatalf("expected one status update, got %d", c)
	}
}
