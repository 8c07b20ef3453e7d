package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorts-pipeline/internal/types"
)

type capture struct {
	subject string
	data    []byte
	err     error
}

func (c *capture) Publish(subject string, data []byte) error {
	c.subject, c.data = subject, data
	return c.err
}

func TestObservePublishesEvent(t *testing.T) {
	c := &capture{}
	n := &NATS{pub: c, subject: "shorts.publish.result"}
	at := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	require.NoError(t, n.Observe(context.Background(), types.PublishResult{
		Artifact: types.Artifact{Name: "b.mp4"},
		Slot:     types.Slot{At: at},
		Status:   types.StatusFailed,
		Kind:     types.KindAuth,
		Error:    "token revoked",
	}))

	assert.Equal(t, "shorts.publish.result", c.subject)
	var ev Event
	require.NoError(t, json.Unmarshal(c.data, &ev))
	assert.Equal(t, "b.mp4", ev.Artifact)
	assert.Equal(t, types.KindAuth, ev.Kind)
	assert.True(t, at.Equal(ev.PublishAt))
}

func TestObserveWrapsPublishError(t *testing.T) {
	n := &NATS{pub: &capture{err: errors.New("nats: connection closed")}, subject: "s"}
	err := n.Observe(context.Background(), types.PublishResult{Status: types.StatusPublished})
	assert.ErrorContains(t, err, "connection closed")
	n.Close()
}
