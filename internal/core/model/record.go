package model

// Record is a stored item together with its embedding.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Values      []float32 `json:"values,omitempty"`
}

// RecordSummary is the listing projection of a Record.
type RecordSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type RecordMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Match struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata RecordMetadata `json:"metadata"`
}

type Page struct {
	Items      []RecordSummary `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}
