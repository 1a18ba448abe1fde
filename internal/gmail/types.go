package gmail

// MessageSummary is the flat record returned by the list operations.
type MessageSummary struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Snippet string `json:"snippet"`
}

// MessageDetail is the flat record returned by ReadMessage.
type MessageDetail struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	Body    string `json:"body"`
}
