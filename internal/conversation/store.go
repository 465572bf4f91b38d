package conversation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/onurcolak/survey-campaign-bot/internal/domain"
)

// Conversation is the record of one contact currently being driven.
type Conversation struct {
	Client    domain.Client
	EnteredAt time.Time
	Round     uint64
	Stalled   bool

	machine *fsm.FSM
	timerID uint64
}

func (c *Conversation) Phase() domain.Phase {
	return domain.Phase(c.machine.Current())
}

// can reports whether event is valid from the current phase.
func (c *Conversation) can(event string) bool {
	return c.machine.Can(event)
}

// Store owns the contact->conversation and contact->progress tables.
//
// Two levels of locking: a per-contact mutex serializes whole transitions
// (including the network calls made during them), and mu guards the maps
// and record fields so snapshots never observe a half-written record.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	progress      map[string]*Progress
	rounds        uint64

	locksMu sync.Mutex
	locks   map[string]*contactLock
}

type contactLock struct {
	mu   sync.Mutex
	refs int
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*Conversation),
		progress:      make(map[string]*Progress),
		locks:         make(map[string]*contactLock),
	}
}

// With runs fn while holding the contact's lock. Transitions for the same
// contact never interleave; other contacts proceed in parallel.
func (s *Store) With(contact string, fn func(sl *Slot)) {
	l := s.acquire(contact)
	defer s.release(contact, l)

	fn(&Slot{store: s, contact: contact})
}

func (s *Store) acquire(contact string) *contactLock {
	s.locksMu.Lock()
	l, ok := s.locks[contact]
	if !ok {
		l = &contactLock{}
		s.locks[contact] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return l
}

func (s *Store) release(contact string, l *contactLock) {
	l.mu.Unlock()

	s.locksMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, contact)
	}
	s.locksMu.Unlock()
}

// Phase returns the contact's current phase, if a conversation exists.
func (s *Store) Phase(contact string) (domain.Phase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[contact]
	if !ok {
		return "", false
	}
	return conv.Phase(), true
}

// CurrentQuestion returns the question the contact is expected to answer.
func (s *Store) CurrentQuestion(contact string) (domain.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[contact]
	if !ok {
		return domain.Question{}, false
	}
	return p.Current()
}

// Progress returns a copy of the contact's question progress.
func (s *Store) Progress(contact string) (Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[contact]
	if !ok {
		return Progress{}, false
	}

	return Progress{
		Questions:    append([]domain.Question(nil), p.Questions...),
		CurrentIndex: p.CurrentIndex,
		Answers:      append([]domain.Answer(nil), p.Answers...),
	}, true
}

func (s *Store) Snapshot() domain.ActiveSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.ActiveSnapshot{
		ActiveClients:   make([]domain.ActiveClient, 0, len(s.conversations)),
		ActiveQuestions: make([]domain.ActiveQuestions, 0, len(s.progress)),
	}

	for contact, conv := range s.conversations {
		snap.ActiveClients = append(snap.ActiveClients, domain.ActiveClient{
			Number:    contact,
			FirstName: conv.Client.FirstName,
			State:     conv.Phase(),
			Timestamp: conv.EnteredAt,
			Stalled:   conv.Stalled,
		})
	}

	for contact, p := range s.progress {
		snap.ActiveQuestions = append(snap.ActiveQuestions, domain.ActiveQuestions{
			Number:         contact,
			CurrentIndex:   p.CurrentIndex,
			TotalQuestions: len(p.Questions),
		})
	}

	sort.Slice(snap.ActiveClients, func(i, j int) bool {
		return snap.ActiveClients[i].Number < snap.ActiveClients[j].Number
	})
	sort.Slice(snap.ActiveQuestions, func(i, j int) bool {
		return snap.ActiveQuestions[i].Number < snap.ActiveQuestions[j].Number
	})

	snap.Total = len(snap.ActiveClients)

	return snap
}

// Slot is one contact's view of the store, valid only inside Store.With.
type Slot struct {
	store   *Store
	contact string
}

func (sl *Slot) Conversation() *Conversation {
	sl.store.mu.RLock()
	defer sl.store.mu.RUnlock()
	return sl.store.conversations[sl.contact]
}

func (sl *Slot) Progress() *Progress {
	sl.store.mu.RLock()
	defer sl.store.mu.RUnlock()
	return sl.store.progress[sl.contact]
}

// Start replaces any existing records with a fresh conversation awaiting
// the initial response.
func (sl *Slot) Start(client domain.Client, now time.Time) *Conversation {
	s := sl.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds++
	conv := &Conversation{
		Client:    client,
		EnteredAt: now,
		Round:     s.rounds,
		machine:   newPhaseMachine(),
	}

	s.conversations[sl.contact] = conv
	delete(s.progress, sl.contact)

	return conv
}

// Advance fires a phase event on the contact's conversation.
func (sl *Slot) Advance(ctx context.Context, event string, now time.Time) error {
	s := sl.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[sl.contact]
	if !ok {
		return fmt.Errorf("advance %s for %s: %w", event, sl.contact, ErrPhaseMismatch)
	}

	if err := conv.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("advance %s for %s: %w: %v", event, sl.contact, ErrPhaseMismatch, err)
	}

	conv.EnteredAt = now
	conv.Stalled = false

	return nil
}

// BeginQandA moves the conversation into Q&A and installs its progress
// in the same critical section, so neither record exists without the other.
func (sl *Slot) BeginQandA(ctx context.Context, progress *Progress, now time.Time) error {
	s := sl.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[sl.contact]
	if !ok {
		return fmt.Errorf("begin Q&A for %s: %w", sl.contact, ErrPhaseMismatch)
	}

	if err := conv.machine.Event(ctx, eventStartQandA); err != nil {
		return fmt.Errorf("begin Q&A for %s: %w: %v", sl.contact, ErrPhaseMismatch, err)
	}

	conv.EnteredAt = now
	conv.Stalled = false
	s.progress[sl.contact] = progress

	return nil
}

// RecordAnswer appends the answer and advances the cursor. It reports
// whether every question has now been answered.
func (sl *Slot) RecordAnswer(answer domain.Answer) (bool, error) {
	s := sl.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.progress[sl.contact]
	if !ok {
		return false, fmt.Errorf("record answer for %s: %w", sl.contact, ErrPhaseMismatch)
	}

	return p.record(answer), nil
}

func (sl *Slot) MarkStalled() {
	s := sl.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[sl.contact]; ok {
		conv.Stalled = true
	}
}

// SetTimer remembers the pending timer so it can be cancelled early.
func (sl *Slot) SetTimer(id uint64) {
	s := sl.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[sl.contact]; ok {
		conv.timerID = id
	}
}

// Close removes both records for the contact.
func (sl *Slot) Close() {
	s := sl.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, sl.contact)
	delete(s.progress, sl.contact)
}
