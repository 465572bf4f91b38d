package domain

import "time"

type ClientStatus string

const (
	ClientStatusPending   ClientStatus = "Pending"
	ClientStatusResponded ClientStatus = "Responded"
)

// Client is the canonical client record. Every source (database rows,
// directory service payloads, reminder requests) is converted into this
// shape before it reaches the conversation engine.
type Client struct {
	ID         int64        `db:"id" json:"id"`
	LastName   string       `db:"last_name" json:"lastName"`
	FirstName  string       `db:"first_name" json:"firstName"`
	Number     string       `db:"phone_number" json:"number"`
	SurveyID   string       `db:"survey_id" json:"surveyId,omitempty"`
	SurveyLink string       `db:"survey_link" json:"surveyLink"`
	Status     ClientStatus `db:"status" json:"status"`
}

type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Answer is one persisted row per (contact, question).
type Answer struct {
	Contact      string    `db:"phone_number" json:"contact"`
	QuestionID   string    `db:"question_id" json:"questionId"`
	QuestionText string    `db:"question_text" json:"questionText"`
	Text         string    `db:"answer" json:"text"`
	ReceivedAt   time.Time `db:"received_at" json:"receivedAt"`
}
