package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

// Task is a delayed action keyed by the contact it belongs to. The task
// does not carry any conversation state; whoever runs it is expected to
// re-read the current state before acting.
type Task struct {
	ID   uint64
	Key  string
	Name string
	At   time.Time
	Run  func(ctx context.Context)

	index int
}

// Scheduler fires delayed tasks from a single timer loop. Tasks may be
// scheduled before Start; they fire once the loop runs. Each fired task
// runs on its own goroutine so a slow contact never delays another.
type Scheduler struct {
	queue  taskQueue
	byID   map[uint64]*Task
	nextID uint64
	wake   chan struct{}
	now    func() time.Time

	// Internal state
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	inFlight sync.WaitGroup
	mu       sync.RWMutex

	// Statistics
	scheduledCount int64
	firedCount     int64
	cancelledCount int64
	lastFiredAt    time.Time
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		byID: make(map[uint64]*Task),
		wake: make(chan struct{}, 1),
		now:  time.Now,
	}
}

// After schedules run to fire once delay has elapsed and returns the task id.
func (s *Scheduler) After(key, name string, delay time.Duration, run func(ctx context.Context)) uint64 {
	s.mu.Lock()
	s.nextID++
	task := &Task{
		ID:   s.nextID,
		Key:  key,
		Name: name,
		At:   s.now().Add(delay),
		Run:  run,
	}
	heap.Push(&s.queue, task)
	s.byID[task.ID] = task
	s.scheduledCount++
	s.mu.Unlock()

	logger.Debugf("Scheduled %s for %s in %v (task #%d)", name, key, delay, task.ID)
	s.signal()

	return task.ID
}

// Cancel removes a pending task. It reports false when the task already
// fired or never existed.
func (s *Scheduler) Cancel(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.byID[id]
	if !ok {
		return false
	}

	heap.Remove(&s.queue, task.index)
	delete(s.byID, id)
	s.cancelledCount++

	return true
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is already running")
		return nil
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.mu.Unlock()

	logger.Infof("Starting timer scheduler")

	go s.run(ctx)

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneChan)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.fireDue(ctx)

		if wait, ok := s.untilNext(); ok {
			timer.Reset(wait)
		} else {
			timer.Reset(time.Hour)
		}

		select {
		case <-timer.C:

		case <-s.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}

		case <-s.stopChan:
			logger.Warnf("Scheduler received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Scheduler context cancelled")
			return
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*Task
	for s.queue.Len() > 0 && !s.queue[0].At.After(now) {
		task := heap.Pop(&s.queue).(*Task)
		delete(s.byID, task.ID)
		due = append(due, task)
	}
	if len(due) > 0 {
		s.firedCount += int64(len(due))
		s.lastFiredAt = now
	}
	s.mu.Unlock()

	for _, task := range due {
		logger.Debugf("Firing %s for %s (task #%d)", task.Name, task.Key, task.ID)

		s.inFlight.Add(1)
		go func(t *Task) {
			defer s.inFlight.Done()
			t.Run(ctx)
		}(task)
	}
}

func (s *Scheduler) untilNext() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.queue.Len() == 0 {
		return 0, false
	}

	wait := s.queue[0].At.Sub(s.now())
	if wait < 0 {
		wait = 0
	}

	return wait, true
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stop halts the timer loop and waits for tasks that already fired.
// Pending tasks stay queued and fire after a later Start.
func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is not running")
		return nil
	}

	s.running = false
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	// Send stop signal
	close(stopChan)

	// Wait for goroutine to finish
	<-doneChan
	s.inFlight.Wait()

	logger.Infof("Scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) GetStatus() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		Running:        s.running,
		Pending:        s.queue.Len(),
		ScheduledCount: s.scheduledCount,
		FiredCount:     s.firedCount,
		CancelledCount: s.cancelledCount,
		LastFiredAt:    s.lastFiredAt,
	}

	if s.queue.Len() > 0 {
		status.NextDueAt = s.queue[0].At
	}

	return status
}

type SchedulerStatus struct {
	Running        bool      `json:"running"`
	Pending        int       `json:"pending"`
	ScheduledCount int64     `json:"scheduledCount"`
	FiredCount     int64     `json:"firedCount"`
	CancelledCount int64     `json:"cancelledCount"`
	NextDueAt      time.Time `json:"nextDueAt,omitempty"`
	LastFiredAt    time.Time `json:"lastFiredAt,omitempty"`
}

// taskQueue is a min-heap ordered by due time, then by id.
type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].At.Equal(q[j].At) {
		return q[i].ID < q[j].ID
	}
	return q[i].At.Before(q[j].At)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	task := x.(*Task)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[:n-1]
	return task
}
