package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Sources  SourcesConfig  `yaml:"sources"`
	Media    MediaConfig    `yaml:"media"`
	Compose  ComposeConfig  `yaml:"compose"`
	Upload   UploadConfig   `yaml:"upload"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
}

type PathsConfig struct {
	Queue       string `yaml:"queue"`
	Work        string `yaml:"work"`
	Backgrounds string `yaml:"backgrounds"`
	Music       string `yaml:"music"`
	Logs        string `yaml:"logs"`
}

type SourcesConfig struct {
	Subreddits      []string `yaml:"subreddits"`
	PostLimit       int      `yaml:"post_limit"`
	AllowNSFW       bool     `yaml:"allow_nsfw"`
	URLs            []string `yaml:"urls"`
	ImageExtensions []string `yaml:"image_extensions"`
	DownloadRetries int      `yaml:"download_retries"`
	MinImageBytes   int      `yaml:"min_image_bytes"`
	MaxImageBytes   int64    `yaml:"max_image_bytes"`
}

type MediaConfig struct {
	VideoExtensions []string `yaml:"video_extensions"`
	AudioExtensions []string `yaml:"audio_extensions"`
}

type ComposeConfig struct {
	FFmpegPath     string  `yaml:"ffmpeg_path"`
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	FPS            int     `yaml:"fps"`
	DurationSec    float64 `yaml:"duration_sec"`
	OverlayWidth   int     `yaml:"overlay_width"`
	OverlayMargin  int     `yaml:"overlay_margin"`
	MusicVolume    float64 `yaml:"music_volume"`
	ArtifactFormat string  `yaml:"artifact_format"`
}

type UploadConfig struct {
	Title             string   `yaml:"title"`
	Description       string   `yaml:"description"`
	Tags              []string `yaml:"tags"`
	CategoryID        string   `yaml:"category_id"`
	DefaultLanguage   string   `yaml:"default_language"`
	MadeForKids       bool     `yaml:"made_for_kids"`
	NotifySubscribers bool     `yaml:"notify_subscribers"`
}

type ScheduleConfig struct {
	PeakStartHour  int    `yaml:"peak_start_hour"`
	GapMinutes     int    `yaml:"gap_minutes"`
	MinLeadMinutes int    `yaml:"min_lead_minutes"`
	UTCOffset      string `yaml:"utc_offset"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with every documented default filled in
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Queue:       "queue",
			Work:        "work",
			Backgrounds: "assets/backgrounds",
			Music:       "assets/music",
			Logs:        "logs",
		},
		Sources: SourcesConfig{
			Subreddits:      []string{"memes"},
			PostLimit:       50,
			ImageExtensions: []string{".jpg", ".jpeg", ".png"},
			DownloadRetries: 3,
			MinImageBytes:   100,
			MaxImageBytes:   20 << 20,
		},
		Media: MediaConfig{
			VideoExtensions: []string{".mp4", ".mov", ".webm"},
			AudioExtensions: []string{".mp3", ".m4a", ".wav"},
		},
		Compose: ComposeConfig{
			FFmpegPath:     "ffmpeg",
			Width:          1080,
			Height:         1920,
			FPS:            30,
			DurationSec:    10,
			OverlayWidth:   960,
			OverlayMargin:  160,
			MusicVolume:    0.6,
			ArtifactFormat: ".mp4",
		},
		Upload: UploadConfig{
			Title:           "Daily memes #shorts",
			Description:     "#shorts #memes",
			Tags:            []string{"shorts", "memes"},
			CategoryID:      "23",
			DefaultLanguage: "en",
		},
		Schedule: ScheduleConfig{
			PeakStartHour:  18,
			GapMinutes:     30,
			MinLeadMinutes: 15,
			UTCOffset:      "-05:00",
		},
		Metrics: MetricsConfig{
			Job: "shorts_pipeline",
		},
		Notify: NotifyConfig{
			Subject: "shorts.publish.result",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Paths.Queue) == "" {
		errs = append(errs, errors.New("paths.queue is required"))
	}
	if !strings.HasPrefix(c.Compose.ArtifactFormat, ".") {
		errs = append(errs, fmt.Errorf("compose.artifact_format %q must start with a dot", c.Compose.ArtifactFormat))
	}
	if err := c.Schedule.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Compose.Width <= 0 || c.Compose.Height <= 0 {
		errs = append(errs, errors.New("compose.width and compose.height must be positive"))
	}
	if c.Compose.DurationSec <= 0 {
		errs = append(errs, errors.New("compose.duration_sec must be positive"))
	}
	return errors.Join(errs...)
}

func (s ScheduleConfig) Validate() error {
	var errs []error
	if s.PeakStartHour < 0 || s.PeakStartHour > 23 {
		errs = append(errs, fmt.Errorf("schedule.peak_start_hour %d out of range 0-23", s.PeakStartHour))
	}
	if s.GapMinutes <= 0 {
		errs = append(errs, fmt.Errorf("schedule.gap_minutes must be positive, got %d", s.GapMinutes))
	}
	if s.MinLeadMinutes < 0 {
		errs = append(errs, fmt.Errorf("schedule.min_lead_minutes must not be negative, got %d", s.MinLeadMinutes))
	}
	if _, err := s.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location returns the fixed reference offset as a *time.Location
func (s ScheduleConfig) Location() (*time.Location, error) {
	raw := strings.TrimSpace(s.UTCOffset)
	if raw == "" || raw == "Z" {
		return time.UTC, nil
	}
	t, err := time.Parse("-07:00", raw)
	if err != nil {
		return nil, fmt.Errorf("schedule.utc_offset %q: expected +HH:MM or -HH:MM", s.UTCOffset)
	}
	_, offset := t.Zone()
	return time.FixedZone("UTC"+raw, offset), nil
}
