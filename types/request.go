package types

// QARequest is the body of POST /api/v1/hackrx/run
type QARequest struct {
	Documents string   `json:"documents" binding:"required"`
	Questions []string `json:"questions"`
}
