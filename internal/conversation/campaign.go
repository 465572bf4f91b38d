package conversation

import (
	"context"
	"time"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

// contactStarter is the part of Engine the campaign needs.
type contactStarter interface {
	StartContact(ctx context.Context, client domain.Client) bool
}

type ContactResult struct {
	Client  domain.Client
	Success bool
}

type CampaignResult struct {
	SuccessCount int
	Total        int
	Results      []ContactResult
}

// Campaign greets a batch of contacts one after another.
type Campaign struct {
	starter contactStarter
	pacing  time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewCampaign(starter contactStarter, config environments.CampaignConfig) *Campaign {
	return &Campaign{
		starter: starter,
		pacing:  config.SendPacing,
		sleep:   sleepContext,
	}
}

// Run attempts every contact even when some sends fail, waiting the
// configured pacing between two contacts. A cancelled context stops the
// batch; contacts not attempted count as failures.
func (c *Campaign) Run(ctx context.Context, clients []domain.Client) CampaignResult {
	result := CampaignResult{
		Total:   len(clients),
		Results: make([]ContactResult, 0, len(clients)),
	}

	for i, client := range clients {
		if ctx.Err() != nil {
			logger.Warnf("Campaign interrupted after %d/%d contacts: %v", i, len(clients), ctx.Err())
			break
		}

		logger.Infof("Sending to %s (%s)", client.FirstName, client.Number)
		ok := c.starter.StartContact(ctx, client)
		if ok {
			result.SuccessCount++
		}
		result.Results = append(result.Results, ContactResult{Client: client, Success: ok})

		if i < len(clients)-1 {
			_ = c.sleep(ctx, c.pacing)
		}
	}

	logger.Infof("Campaign finished: %d/%d contacts started", result.SuccessCount, result.Total)

	return result
}
