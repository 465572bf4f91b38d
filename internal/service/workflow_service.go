package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/onurcolak/survey-campaign-bot/internal/conversation"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

// Small internal interfaces so we can test without touching the engine,
// the database or the survey back office.
type pendingClientSource interface {
	ListPendingClients(ctx context.Context) ([]domain.Client, error)
}

type clientDirectory interface {
	FindByNumber(ctx context.Context, number string) (*domain.Client, error)
}

type responseReader interface {
	ListByContact(ctx context.Context, contact string) ([]domain.Answer, error)
}

type workflowEngine interface {
	StartContact(ctx context.Context, client domain.Client) bool
	Normalize(raw string) string
	Snapshot() domain.ActiveSnapshot
}

type campaignRunner interface {
	Run(ctx context.Context, clients []domain.Client) conversation.CampaignResult
}

var ErrInvalidNumber = errors.New("invalid phone number")

type WorkflowService struct {
	pending   pendingClientSource
	directory clientDirectory
	responses responseReader
	engine    workflowEngine
	campaign  campaignRunner
}

func NewWorkflowService(
	pending pendingClientSource,
	directory clientDirectory,
	responses responseReader,
	engine workflowEngine,
	campaign campaignRunner,
) *WorkflowService {
	return &WorkflowService{
		pending:   pending,
		directory: directory,
		responses: responses,
		engine:    engine,
		campaign:  campaign,
	}
}

// StartWorkflow greets every client who has not responded yet.
func (s *WorkflowService) StartWorkflow(ctx context.Context) (conversation.CampaignResult, error) {
	clients, err := s.pending.ListPendingClients(ctx)
	if err != nil {
		return conversation.CampaignResult{}, fmt.Errorf("%w: %v", conversation.ErrDirectoryUnavailable, err)
	}

	if len(clients) == 0 {
		logger.Infof("No pending clients found")
		return conversation.CampaignResult{Results: []conversation.ContactResult{}}, nil
	}

	logger.Infof("Starting workflow for %d pending clients", len(clients))

	return s.campaign.Run(ctx, clients), nil
}

// SendReminder starts the workflow for one contact. The stored client
// record is used when the number is known; otherwise a minimal record is
// built from the request.
func (s *WorkflowService) SendReminder(ctx context.Context, number, firstName, link string) (bool, error) {
	contact := s.engine.Normalize(number)
	if contact == "" {
		return false, fmt.Errorf("%w: %q", ErrInvalidNumber, number)
	}

	client, err := s.directory.FindByNumber(ctx, contact)
	if err != nil {
		logger.Warnf("Client lookup failed for %s, using request data: %v", contact, err)
		client = nil
	}

	if client == nil {
		client = &domain.Client{
			Number:     contact,
			FirstName:  firstName,
			SurveyLink: link,
		}
	}

	logger.Infof("Starting workflow for %s (%s)", firstName, contact)

	return s.engine.StartContact(ctx, *client), nil
}

func (s *WorkflowService) ActiveClients() domain.ActiveSnapshot {
	return s.engine.Snapshot()
}

func (s *WorkflowService) GetResponses(ctx context.Context, number string) ([]domain.Answer, error) {
	contact := s.engine.Normalize(number)
	if contact == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, number)
	}

	return s.responses.ListByContact(ctx, contact)
}
