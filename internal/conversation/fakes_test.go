package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
)

//
// Test fakes shared by the conversation tests.
//

type sentMessage struct {
	contact string
	text    string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage

	// failWhen makes SendText fail for matching messages.
	failWhen func(contact, text string) bool

	// block, when set for a contact, holds its sends until closed.
	block map[string]chan struct{}
}

func (m *fakeMessenger) SendText(ctx context.Context, contact, text string) error {
	m.mu.Lock()
	gate := m.block[contact]
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWhen != nil && m.failWhen(contact, text) {
		return fmt.Errorf("simulated transport error")
	}

	m.sent = append(m.sent, sentMessage{contact: contact, text: text})
	return nil
}

func (m *fakeMessenger) texts(contact string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, s := range m.sent {
		if s.contact == contact {
			out = append(out, s.text)
		}
	}
	return out
}

func (m *fakeMessenger) count(contact, substr string) int {
	n := 0
	for _, text := range m.texts(contact) {
		if strings.Contains(text, substr) {
			n++
		}
	}
	return n
}

type fakeDirectory struct {
	mu        sync.Mutex
	clients   map[string]*domain.Client
	err       error
	responded []string
	lookups   int
}

func (d *fakeDirectory) FindByNumber(ctx context.Context, number string) (*domain.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lookups++
	if d.err != nil {
		return nil, d.err
	}

	c, ok := d.clients[number]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (d *fakeDirectory) MarkResponded(ctx context.Context, number string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.responded = append(d.responded, number)
	return nil
}

func (d *fakeDirectory) respondedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.responded)
}

type fakeResponses struct {
	mu      sync.Mutex
	answers []domain.Answer
	err     error
}

func (r *fakeResponses) SaveAnswer(ctx context.Context, answer domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.answers = append(r.answers, answer)
	return nil
}

func (r *fakeResponses) saved() []domain.Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Answer(nil), r.answers...)
}

type fakeCatalog struct {
	questions map[string][]domain.Question
	err       error
	calls     []string
}

func (c *fakeCatalog) GetQuestions(ctx context.Context, surveyID string) ([]domain.Question, error) {
	c.calls = append(c.calls, surveyID)
	if c.err != nil {
		return nil, c.err
	}
	return c.questions[surveyID], nil
}

type fakeCompletion struct {
	completed bool
	err       error
}

func (c *fakeCompletion) HasCompleted(ctx context.Context, client domain.Client) (bool, error) {
	return c.completed, c.err
}

type fakeTask struct {
	id    uint64
	key   string
	name  string
	delay time.Duration
	run   func(ctx context.Context)
}

// fakeTimers never fires on its own; tests fire tasks explicitly, including
// tasks that were cancelled, to simulate a timer losing a race.
type fakeTimers struct {
	mu        sync.Mutex
	tasks     []*fakeTask
	nextID    uint64
	cancelled map[uint64]bool
}

func (f *fakeTimers) After(key, name string, delay time.Duration, run func(ctx context.Context)) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.tasks = append(f.tasks, &fakeTask{id: f.nextID, key: key, name: name, delay: delay, run: run})
	return f.nextID
}

func (f *fakeTimers) Cancel(id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelled == nil {
		f.cancelled = make(map[uint64]bool)
	}
	f.cancelled[id] = true
	return true
}

// last returns the most recently armed task with the given name for key.
func (f *fakeTimers) last(t *testing.T, key, name string) *fakeTask {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.tasks) - 1; i >= 0; i-- {
		if f.tasks[i].key == key && f.tasks[i].name == name {
			return f.tasks[i]
		}
	}
	t.Fatalf("no %s timer armed for %s", name, key)
	return nil
}

func (f *fakeTimers) fire(t *testing.T, key, name string) {
	t.Helper()
	f.last(t, key, name).run(context.Background())
}

func (f *fakeTimers) armed(key, name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, task := range f.tasks {
		if task.key == key && task.name == name {
			n++
		}
	}
	return n
}

type harness struct {
	engine     *Engine
	messenger  *fakeMessenger
	directory  *fakeDirectory
	responses  *fakeResponses
	catalog    *fakeCatalog
	completion *fakeCompletion
	timers     *fakeTimers
}

func testConfig() environments.ConversationConfig {
	return environments.ConversationConfig{
		EscalationDelay:      2 * time.Minute,
		CompletionCheckDelay: time.Minute,
		IntroPacing:          2 * time.Second,
		QuestionPacing:       time.Second,
		DefaultCountryCode:   "212",
	}
}

func newHarness() *harness {
	h := &harness{
		messenger:  &fakeMessenger{},
		directory:  &fakeDirectory{clients: make(map[string]*domain.Client)},
		responses:  &fakeResponses{},
		catalog:    &fakeCatalog{questions: make(map[string][]domain.Question)},
		completion: &fakeCompletion{},
		timers:     &fakeTimers{},
	}

	h.engine = NewEngine(Dependencies{
		Directory:  h.directory,
		Responses:  h.responses,
		Catalog:    h.catalog,
		Completion: h.completion,
		Messenger:  h.messenger,
		Timers:     h.timers,
	}, testConfig())

	// The directory knows the sample contact; tests that need an unknown
	// sender use another number or clear the directory.
	h.register(domain.Client{
		FirstName:  "Amina",
		LastName:   "Benali",
		Number:     "212612345678",
		SurveyID:   "42",
		SurveyLink: "https://survey.example.com/s/42?token=abc",
	})

	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	h.engine.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	h.engine.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	return h
}

func (h *harness) register(c domain.Client) {
	h.directory.clients[c.Number] = &c
}
