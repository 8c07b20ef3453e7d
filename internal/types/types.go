package types

import "time"

const (
	StatusPlanned   = "planned"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// VisibilityPrivate is the only visibility the orchestrator submits with.
// YouTube flips the video public at PublishAt.
const VisibilityPrivate = "private"

// Artifact is a produced video waiting in the queue
type Artifact struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// Slot is one computed publish timestamp
type Slot struct {
	Index int       `json:"index"`
	At    time.Time `json:"at"`
}

// VideoMetadata holds the YouTube upload metadata for one artifact
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"category_id"`
	Credits     []string `json:"credits,omitempty"`
}

// PublishResult is the outcome of one artifact in a publish run
type PublishResult struct {
	Artifact Artifact `json:"artifact"`
	Slot     Slot     `json:"slot"`
	Status   string   `json:"status"`
	Title    string   `json:"title,omitempty"`
	VideoID  string   `json:"video_id,omitempty"`
	Kind     Kind     `json:"error_kind,omitempty"`
	Error    string   `json:"error,omitempty"`
	// Retained is set when the publish succeeded but the file could not be deleted.
	Retained bool `json:"retained,omitempty"`
}

func (r PublishResult) Succeeded() bool { return r.Status == StatusPublished }

func (r PublishResult) Failed() bool { return r.Status == StatusFailed }

// Summary aggregates a batch of results
type Summary struct {
	Planned   int `json:"planned"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

func Summarize(results []PublishResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusPlanned:
			s.Planned++
		case StatusPublished:
			s.Published++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
