package inbound

import (
	"context"
	"sync"

	"github.com/onurcolak/survey-campaign-bot/internal/conversation"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

type inboundHandler interface {
	HandleInbound(ctx context.Context, rawSender, text string) conversation.Outcome
	Normalize(raw string) string
}

// Router filters transport events and hands text messages to the engine.
type Router struct {
	handler inboundHandler
	lanes   *lanes
}

func NewRouter(handler inboundHandler) *Router {
	return &Router{handler: handler, lanes: newLanes()}
}

// Route handles one event synchronously.
func (r *Router) Route(ctx context.Context, msg domain.InboundMessage) conversation.Outcome {
	if !accept(msg) {
		return conversation.OutcomeIgnored
	}
	return r.handler.HandleInbound(ctx, msg.From, msg.Text)
}

// Enqueue handles the event asynchronously. Events from the same sender
// run in arrival order; different senders run concurrently. done, if not
// nil, is called with the outcome.
func (r *Router) Enqueue(ctx context.Context, msg domain.InboundMessage, done func(conversation.Outcome)) {
	if !accept(msg) {
		if done != nil {
			done(conversation.OutcomeIgnored)
		}
		return
	}

	key := r.handler.Normalize(msg.From)
	if key == "" {
		key = msg.From
	}

	r.lanes.run(key, func() {
		outcome := r.handler.HandleInbound(ctx, msg.From, msg.Text)
		if done != nil {
			done(outcome)
		}
	})
}

// Wait blocks until every queued event has been handled.
func (r *Router) Wait() {
	r.lanes.wait()
}

func accept(msg domain.InboundMessage) bool {
	if msg.FromMe {
		logger.Debugf("Ignoring own message to %s", msg.From)
		return false
	}
	if msg.Text == "" {
		logger.Debugf("Ignoring non-text event from %s", msg.From)
		return false
	}
	return true
}

// lanes runs jobs one at a time per key.
type lanes struct {
	mu     sync.Mutex
	queues map[string][]func()
	wg     sync.WaitGroup
}

func newLanes() *lanes {
	return &lanes{queues: make(map[string][]func())}
}

func (l *lanes) run(key string, job func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.wg.Add(1)

	if queue, busy := l.queues[key]; busy {
		l.queues[key] = append(queue, job)
		return
	}

	l.queues[key] = []func(){}
	go l.drain(key, job)
}

func (l *lanes) drain(key string, job func()) {
	for job != nil {
		job()
		l.wg.Done()

		l.mu.Lock()
		queue := l.queues[key]
		if len(queue) == 0 {
			delete(l.queues, key)
			job = nil
		} else {
			job = queue[0]
			l.queues[key] = queue[1:]
		}
		l.mu.Unlock()
	}
}

func (l *lanes) wait() {
	l.wg.Wait()
}
