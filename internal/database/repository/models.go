package repository

import "time"

// StateEntry is a durable key/value row of local_state.
type StateEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// CacheEntry is a cached HTTP response body.
type CacheEntry struct {
	Key       string
	Body      []byte
	FetchedAt time.Time
}

// Submission is a confirmed issuance request.
type Submission struct {
	ID         string
	FormType   string
	OperatorID string
	BrokerCode string
	Locale     string
	Payload    string // JSON of step -> field -> value
	CreatedAt  time.Time
}
