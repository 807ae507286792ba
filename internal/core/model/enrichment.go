package model

type Summary struct {
	SummaryText string `json:"summary_text"`
}

type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Labels is the envelope prompt-driven classifiers answer with.
type Labels struct {
	Labels []Label `json:"labels"`
}

// Media is generated audio or image content.
type Media struct {
	Data        []byte
	ContentType string
	Artifact    *Artifact
}

// Artifact describes a persisted copy of generated media.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Location    string `json:"location,omitempty"`
}
