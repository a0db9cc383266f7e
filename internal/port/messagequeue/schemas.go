package messagequeue

// QueryPayload is the schema for canvas.query messages.
type QueryPayload struct {
	RequestID string `json:"request_id"`
	Query     string `json:"query"`
}

// QueryResultPayload is the schema for canvas.query.result messages.
type QueryResultPayload struct {
	RequestID string            `json:"request_id"`
	Query     string            `json:"query"`
	Responses map[string]string `json:"responses"`
	Error     string            `json:"error,omitempty"`
}
