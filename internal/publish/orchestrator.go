// Package publish drains the pending-work queue into scheduled uploads.
package publish

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"shorts-pipeline/internal/config"
	"shorts-pipeline/internal/schedule"
	"shorts-pipeline/internal/types"
)

// ErrNoPublisher is returned by a live run without a publish capability
var ErrNoPublisher = errors.New("publishing capability is not configured")

// Queue is the part of the pending-work queue the orchestrator needs
type Queue interface {
	ListPending() []types.Artifact
	Remove(a types.Artifact) error
	ReadMetadata(a types.Artifact) (types.VideoMetadata, bool, error)
}

// Publisher uploads one file and schedules its reveal at publishAt
type Publisher interface {
	Publish(ctx context.Context, path string, meta types.VideoMetadata, visibility string, publishAt time.Time) (string, error)
}

// Observer is told about every result. Its errors never affect the batch.
type Observer interface {
	Observe(ctx context.Context, r types.PublishResult) error
}

type Option func(*Orchestrator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Orchestrator pairs queued artifacts with computed slots and publishes them one by one
type Orchestrator struct {
	queue     Queue
	publisher Publisher
	schedule  config.ScheduleConfig
	defaults  types.VideoMetadata
	now       func() time.Time
	observers []Observer
}

// New creates an Orchestrator. publisher may be nil for dry runs.
func New(q Queue, p Publisher, cfg *config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		queue:     q,
		publisher: p,
		schedule:  cfg.Schedule,
		defaults: types.VideoMetadata{
			Title:       cfg.Upload.Title,
			Description: cfg.Upload.Description,
			Tags:        cfg.Upload.Tags,
			CategoryID:  cfg.Upload.CategoryID,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan snapshots the queue and pairs each artifact, oldest first, with a slot
func (o *Orchestrator) Plan() []types.PublishResult {
	artifacts := o.queue.ListPending()
	slots := schedule.Compute(len(artifacts), o.now(), o.schedule)

	plan := make([]types.PublishResult, len(artifacts))
	for i, a := range artifacts {
		plan[i] = types.PublishResult{Artifact: a, Slot: slots[i], Status: types.StatusPlanned}
	}
	return plan
}

// PublishAll publishes every pending artifact at its slot. A failed item keeps
// its file in the queue and the batch moves on. The only error returned is a
// missing publisher on a live run.
func (o *Orchestrator) PublishAll(ctx context.Context, dryRun bool) ([]types.PublishResult, error) {
	logger := log.With().Str("component", "publish").Bool("dry_run", dryRun).Logger()

	if !dryRun && o.publisher == nil {
		return nil, ErrNoPublisher
	}

	plan := o.Plan()
	if len(plan) == 0 {
		logger.Info().Msg("queue is empty, nothing to publish")
		return []types.PublishResult{}, nil
	}
	logger.Info().Int("count", len(plan)).Time("first_slot", plan[0].Slot.At).Msg("publish batch planned")

	if dryRun {
		for _, r := range plan {
			logger.Info().Str("artifact", r.Artifact.Name).Time("publish_at", r.Slot.At).Msg("would schedule")
		}
		return plan, nil
	}

	results := make([]types.PublishResult, 0, len(plan))
	for _, item := range plan {
		r := o.publishOne(ctx, item)
		results = append(results, r)
		o.notify(ctx, r)
	}

	sum := types.Summarize(results)
	logger.Info().Int("published", sum.Published).Int("failed", sum.Failed).Msg("publish batch finished")
	return results, nil
}

func (o *Orchestrator) publishOne(ctx context.Context, item types.PublishResult) types.PublishResult {
	a := item.Artifact
	logger := log.With().Str("component", "publish").Str("artifact", a.Name).Int("slot", item.Slot.Index).Logger()

	meta := o.metadataFor(a)
	item.Title = meta.Title
	logger.Info().Time("publish_at", item.Slot.At).Str("title", meta.Title).Msg("uploading")

	id, err := o.publisher.Publish(ctx, a.Path, meta, types.VisibilityPrivate, item.Slot.At)
	if err != nil {
		item.Status = types.StatusFailed
		item.Kind = types.KindOf(err)
		item.Error = err.Error()
		logger.Error().Err(err).Str("kind", string(item.Kind)).Msg("publish failed, artifact stays queued")
		return item
	}

	item.Status = types.StatusPublished
	item.VideoID = id
	logger.Info().Str("video_id", id).Msg("published")

	// delete only after the upload is confirmed
	if err := o.queue.Remove(a); err != nil {
		item.Retained = true
		logger.Error().Err(err).Msg("published but could not remove artifact, it will be uploaded again next run")
	}
	return item
}

func (o *Orchestrator) metadataFor(a types.Artifact) types.VideoMetadata {
	meta, ok, err := o.queue.ReadMetadata(a)
	if err != nil {
		log.Warn().Str("component", "publish").Str("artifact", a.Name).Err(err).Msg("unreadable metadata sidecar, using defaults")
	}
	if !ok || err != nil {
		return o.defaults
	}
	if meta.Title == "" {
		meta.Title = o.defaults.Title
	}
	if meta.Description == "" {
		meta.Description = o.defaults.Description
	}
	if len(meta.Tags) == 0 {
		meta.Tags = o.defaults.Tags
	}
	if meta.CategoryID == "" {
		meta.CategoryID = o.defaults.CategoryID
	}
	return meta
}

func (o *Orchestrator) notify(ctx context.Context, r types.PublishResult) {
	for _, obs := range o.observers {
		if err := obs.Observe(ctx, r); err != nil {
			log.Warn().Str("component", "publish").Err(err).Str("artifact", r.Artifact.Name).Msg("result observer failed")
		}
	}
}
