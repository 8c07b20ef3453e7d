// Package produce builds one short per cycle and appends it to the queue.
package produce

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"shorts-pipeline/internal/config"
	"shorts-pipeline/internal/media"
	"shorts-pipeline/internal/render"
	"shorts-pipeline/internal/sources"
	"shorts-pipeline/internal/types"
)

type ImagePicker interface {
	Pick(ctx context.Context, n int) ([]sources.Image, error)
}

type ImageFetcher interface {
	Fetch(ctx context.Context, img sources.Image, outFile string) error
}

type Composer interface {
	Compose(ctx context.Context, in render.Inputs, outFile string) error
}

// Sink is where finished artifacts land
type Sink interface {
	Queued(name string) bool
	Commit(src, name string) (types.Artifact, error)
	WriteMetadata(name string, meta types.VideoMetadata) error
	RemoveMetadata(name string) error
}

type Option func(*Producer)

func WithRand(rng *rand.Rand) Option {
	return func(p *Producer) { p.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(p *Producer) { p.now = now }
}

// Producer runs one production cycle at a time
type Producer struct {
	cfg         *config.Config
	picker      ImagePicker
	fetcher     ImageFetcher
	composer    Composer
	backgrounds *media.Library
	music       *media.Library
	sink        Sink
	rng         *rand.Rand
	now         func() time.Time
}

func New(cfg *config.Config, picker ImagePicker, fetcher ImageFetcher, composer Composer, sink Sink, opts ...Option) *Producer {
	p := &Producer{
		cfg:         cfg,
		picker:      picker,
		fetcher:     fetcher,
		composer:    composer,
		backgrounds: media.NewLibrary(cfg.Paths.Backgrounds, cfg.Media.VideoExtensions),
		music:       media.NewLibrary(cfg.Paths.Music, cfg.Media.AudioExtensions),
		sink:        sink,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Produce renders one short and commits it to the queue. On any error the
// queue is left untouched.
func (p *Producer) Produce(ctx context.Context) (types.Artifact, error) {
	runID := uuid.NewString()[:8]
	logger := log.With().Str("component", "produce").Str("run_id", runID).Logger()
	logger.Info().Msg("production cycle starting")

	background, err := p.backgrounds.Pick(p.rng)
	if err != nil {
		return types.Artifact{}, fmt.Errorf("pick background: %w", err)
	}
	audio, err := p.music.Pick(p.rng)
	if err != nil {
		if !errors.Is(err, media.ErrEmpty) {
			return types.Artifact{}, fmt.Errorf("pick soundtrack: %w", err)
		}
		logger.Info().Msg("no soundtrack available, rendering silent")
		audio = ""
	}

	if err := os.MkdirAll(p.cfg.Paths.Work, 0o755); err != nil {
		return types.Artifact{}, fmt.Errorf("create work dir: %w", err)
	}
	workDir, err := os.MkdirTemp(p.cfg.Paths.Work, "run-"+runID+"-")
	if err != nil {
		return types.Artifact{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	images, err := p.picker.Pick(ctx, 2)
	if err != nil {
		return types.Artifact{}, fmt.Errorf("discover images: %w", err)
	}
	local := make([]string, len(images))
	for i, img := range images {
		out := filepath.Join(workDir, fmt.Sprintf("overlay_%d%s", i, imageExt(img.URL)))
		if err := p.fetcher.Fetch(ctx, img, out); err != nil {
			return types.Artifact{}, fmt.Errorf("fetch image %d: %w", i, err)
		}
		local[i] = out
	}
	logger.Info().Str("background", filepath.Base(background)).Str("audio", filepath.Base(audio)).
		Str("top", images[0].URL).Str("bottom", images[1].URL).Msg("inputs ready")

	rendered := filepath.Join(workDir, "short"+p.cfg.Compose.ArtifactFormat)
	if err := p.composer.Compose(ctx, render.Inputs{
		Background:  background,
		TopImage:    local[0],
		BottomImage: local[1],
		Audio:       audio,
	}, rendered); err != nil {
		return types.Artifact{}, fmt.Errorf("compose: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", p.now().UTC().Format("20060102-150405"), runID, p.cfg.Compose.ArtifactFormat)

	// an existing artifact and its sidecar are never touched
	if p.sink.Queued(name) {
		return types.Artifact{}, fmt.Errorf("commit artifact: %s already queued", name)
	}
	// the sidecar goes first so a visible artifact always has its metadata
	if err := p.sink.WriteMetadata(name, p.metadata(images)); err != nil {
		return types.Artifact{}, fmt.Errorf("write metadata: %w", err)
	}
	artifact, err := p.sink.Commit(rendered, name)
	if err != nil {
		if rmErr := p.sink.RemoveMetadata(name); rmErr != nil {
			logger.Warn().Err(rmErr).Str("artifact", name).Msg("could not remove orphaned sidecar")
		}
		return types.Artifact{}, fmt.Errorf("commit artifact: %w", err)
	}

	logger.Info().Str("artifact", artifact.Name).Msg("production cycle finished")
	return artifact, nil
}

func (p *Producer) metadata(images []sources.Image) types.VideoMetadata {
	credits := make([]string, 0, len(images))
	for _, img := range images {
		credits = append(credits, img.Credit())
	}
	return types.VideoMetadata{
		Title:       p.cfg.Upload.Title,
		Description: p.cfg.Upload.Description,
		Tags:        p.cfg.Upload.Tags,
		CategoryID:  p.cfg.Upload.CategoryID,
		Credits:     credits,
	}
}

func imageExt(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	ext := strings.ToLower(path.Ext(raw))
	if ext == "" {
		return ".jpg"
	}
	return ext
}
