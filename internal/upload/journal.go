package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"shorts-pipeline/internal/types"
)

// Journal writes one JSON record per successful upload into a logs directory
type Journal struct {
	dir string
	now func() time.Time
}

type journalEntry struct {
	VideoID      string `json:"video_id"`
	VideoURL     string `json:"video_url"`
	Title        string `json:"title"`
	Artifact     string `json:"artifact"`
	ScheduledUTC string `json:"scheduled_utc"`
	UploadedAt   string `json:"uploaded_at"`
	Retained     bool   `json:"retained,omitempty"`
}

func NewJournal(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

// Observe records published results and ignores everything else
func (j *Journal) Observe(_ context.Context, r types.PublishResult) error {
	if !r.Succeeded() {
		return nil
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("create upload log dir %s: %w", j.dir, err)
	}

	now := j.now().UTC()
	entry := journalEntry{
		VideoID:      r.VideoID,
		VideoURL:     WatchURL(r.VideoID),
		Title:        r.Title,
		Artifact:     r.Artifact.Name,
		ScheduledUTC: r.Slot.At.UTC().Format(time.RFC3339),
		UploadedAt:   now.Format(time.RFC3339),
		Retained:     r.Retained,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	logFile := filepath.Join(j.dir, fmt.Sprintf("upload_%s_%s.json", now.Format("20060102_150405"), r.VideoID))
	if err := os.WriteFile(logFile, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write upload log %s: %w", logFile, err)
	}
	log.Debug().Str("component", "upload").Str("file", logFile).Msg("upload log saved")
	return nil
}
