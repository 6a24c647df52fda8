package types

type QAResponse struct {
	Document string   `json:"document"`
	Status   string   `json:"status"`
	Answers  []Answer `json:"answers"`
}

type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Error    string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
