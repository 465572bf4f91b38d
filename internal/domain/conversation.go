package domain

import "time"

type Phase string

const (
	PhaseAwaitingInitialResponse Phase = "awaiting_initial_response"
	PhaseSurveyOffered           Phase = "survey_offered"
	PhaseInQandA                 Phase = "in_qanda"
)

// InboundMessage is a text event delivered by the chat transport.
type InboundMessage struct {
	From   string `json:"from" validate:"required"`
	Text   string `json:"text"`
	FromMe bool   `json:"fromMe"`
}

type ActiveClient struct {
	Number    string    `json:"numero"`
	FirstName string    `json:"prenom"`
	State     Phase     `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Stalled   bool      `json:"stalled,omitempty"`
}

type ActiveQuestions struct {
	Number         string `json:"numero"`
	CurrentIndex   int    `json:"currentIndex"`
	TotalQuestions int    `json:"totalQuestions"`
}

type ActiveSnapshot struct {
	ActiveClients   []ActiveClient    `json:"activeClients"`
	ActiveQuestions []ActiveQuestions `json:"activeQuestions"`
	Total           int               `json:"total"`
}
