package cli

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"shorts-pipeline/internal/config"
	"shorts-pipeline/internal/logging"
	"shorts-pipeline/internal/metrics"
	"shorts-pipeline/internal/notify"
	"shorts-pipeline/internal/produce"
	"shorts-pipeline/internal/publish"
	"shorts-pipeline/internal/queue"
	"shorts-pipeline/internal/render"
	"shorts-pipeline/internal/sources"
	"shorts-pipeline/internal/upload"
)

// env is everything one command invocation shares
type env struct {
	cfg      *config.Config
	queue    *queue.Queue
	recorder *metrics.Recorder
	notifier *notify.NATS
}

func setup(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)

	e := &env{
		cfg:      cfg,
		queue:    queue.New(cfg.Paths.Queue, cfg.Compose.ArtifactFormat),
		recorder: metrics.NewRecorder(),
	}
	return e, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// publisher returns nil for dry runs. Missing credentials fail here, before
// any queue work starts.
func (e *env) publisher(ctx context.Context, dryRun bool) (publish.Publisher, error) {
	if dryRun {
		return nil, nil
	}
	yt, err := upload.New(ctx, e.cfg)
	if err != nil {
		return nil, err
	}
	return yt, nil
}

func (e *env) orchestrator(p publish.Publisher, live bool) *publish.Orchestrator {
	opts := []publish.Option{publish.WithObserver(e.recorder)}
	if live {
		opts = append(opts, publish.WithObserver(upload.NewJournal(e.cfg.Paths.Logs)))
		if n := e.connectNotifier(); n != nil {
			opts = append(opts, publish.WithObserver(n))
		}
	}
	return publish.New(e.queue, p, e.cfg, opts...)
}

// notifications are best effort, a broker outage never blocks publishing
func (e *env) connectNotifier() *notify.NATS {
	if e.cfg.Notify.NATSURL == "" {
		return nil
	}
	if e.notifier != nil {
		return e.notifier
	}
	n, err := notify.Connect(e.cfg.Notify.NATSURL, e.cfg.Notify.Subject)
	if err != nil {
		log.Warn().Err(err).Str("component", "notify").Msg("result notifications disabled")
		return nil
	}
	e.notifier = n
	return n
}

func (e *env) producer() (*produce.Producer, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var feeds []sources.Source
	if len(e.cfg.Sources.Subreddits) > 0 {
		r, err := sources.NewReddit(e.cfg.Sources)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, r)
	}
	if len(e.cfg.Sources.URLs) > 0 {
		feeds = append(feeds, sources.NewStatic(e.cfg.Sources.URLs))
	}

	return produce.New(
		e.cfg,
		sources.NewPicker(rng, e.cfg.Sources.ImageExtensions, feeds...),
		sources.NewDownloader(e.cfg.Sources.DownloadRetries, e.cfg.Sources.MinImageBytes, e.cfg.Sources.MaxImageBytes),
		render.New(e.cfg.Compose),
		e.queue,
		produce.WithRand(rng),
	), nil
}

// finish records the queue depth, pushes metrics and closes connections.
// Failures are logged only.
func (e *env) finish() {
	e.recorder.SetQueueDepth(len(e.queue.ListPending()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.recorder.Push(ctx, e.cfg.Metrics.PushgatewayURL, e.cfg.Metrics.Job); err != nil {
		log.Warn().Err(err).Str("component", "metrics").Msg("metrics push failed")
	}
	if e.notifier != nil {
		e.notifier.Close()
	}
}
