package domain

type SendTextRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type SendTextResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"messageId"`
}
