package surveyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

const (
	pendingClientsPath = "/api/clients/non-respondus"
	questionsPath      = "/api/clients/questions/{surveyId}"
	completionPath     = "/api/clients/{number}/survey-status"
)

// Client reads from the survey back office: pending clients, survey
// questions and completion status.
type Client struct {
	httpClient *resty.Client
}

func NewSurveyAPIClient(cfg environments.SurveyAPIConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client}
}

// clientDTO is the back office's client payload.
type clientDTO struct {
	ID         int64      `json:"id"`
	LastName   string     `json:"nom"`
	FirstName  string     `json:"prenom"`
	Number     string     `json:"numeroWhatsapp"`
	SurveyID   flexibleID `json:"surveyId"`
	SurveyLink string     `json:"surveyLink"`
	Status     string     `json:"statut"`
}

func (d clientDTO) toDomain() domain.Client {
	return domain.Client{
		ID:         d.ID,
		LastName:   d.LastName,
		FirstName:  d.FirstName,
		Number:     d.Number,
		SurveyID:   string(d.SurveyID),
		SurveyLink: d.SurveyLink,
		Status:     domain.ClientStatus(d.Status),
	}
}

type questionDTO struct {
	QID      flexibleID `json:"qid"`
	Question string     `json:"question"`
}

// flexibleID accepts both JSON numbers and strings.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*f = flexibleID(n.String())
	return nil
}

// ListPendingClients enumerates clients who have not responded yet.
func (c *Client) ListPendingClients(ctx context.Context) ([]domain.Client, error) {
	var payload []clientDTO

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&payload).
		Get(pendingClientsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending clients: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch pending clients: unexpected status code %d", resp.StatusCode())
	}

	clients := make([]domain.Client, 0, len(payload))
	for _, dto := range payload {
		clients = append(clients, dto.toDomain())
	}

	logger.Infof("%d pending clients found", len(clients))

	return clients, nil
}

// GetQuestions returns the survey's questions in catalog order. An unknown
// survey yields an empty list.
func (c *Client) GetQuestions(ctx context.Context, surveyID string) ([]domain.Question, error) {
	var payload []questionDTO

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("surveyId", surveyID).
		SetResult(&payload).
		Get(questionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return []domain.Question{}, nil
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch questions: unexpected status code %d", resp.StatusCode())
	}

	questions := make([]domain.Question, 0, len(payload))
	for _, dto := range payload {
		questions = append(questions, domain.Question{ID: string(dto.QID), Text: dto.Question})
	}

	return questions, nil
}

// CompletionChecker asks the back office whether a client completed the
// external survey.
type CompletionChecker struct {
	client *Client
}

func NewCompletionChecker(client *Client) *CompletionChecker {
	return &CompletionChecker{client: client}
}

func (c *CompletionChecker) HasCompleted(ctx context.Context, client domain.Client) (bool, error) {
	var body struct {
		Completed bool `json:"completed"`
	}

	resp, err := c.client.httpClient.R().
		SetContext(ctx).
		SetPathParam("number", client.Number).
		SetResult(&body).
		Get(completionPath)
	if err != nil {
		return false, fmt.Errorf("failed to check survey completion: %w", err)
	}

	if resp.IsError() {
		return false, fmt.Errorf("failed to check survey completion: unexpected status code %d", resp.StatusCode())
	}

	return body.Completed, nil
}
