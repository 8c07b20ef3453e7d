// Package notify announces publish results on a NATS subject.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"shorts-pipeline/internal/types"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON payload sent for each result
type Event struct {
	Artifact  string     `json:"artifact"`
	Status    string     `json:"status"`
	VideoID   string     `json:"video_id,omitempty"`
	PublishAt time.Time  `json:"publish_at"`
	Kind      types.Kind `json:"error_kind,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// NATS sends events to one subject
type NATS struct {
	nc      *nats.Conn
	pub     publisher
	subject string
}

func Connect(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("shorts-pipeline"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("error connecting to NATS: %w", err)
	}
	return &NATS{nc: nc, pub: nc, subject: subject}, nil
}

func (n *NATS) Observe(_ context.Context, r types.PublishResult) error {
	data, err := json.Marshal(Event{
		Artifact:  r.Artifact.Name,
		Status:    r.Status,
		VideoID:   r.VideoID,
		PublishAt: r.Slot.At,
		Kind:      r.Kind,
		Error:     r.Error,
	})
	if err != nil {
		return err
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

// Close flushes buffered events before disconnecting
func (n *NATS) Close() {
	if n.nc == nil {
		return
	}
	_ = n.nc.Flush()
	n.nc.Close()
}
