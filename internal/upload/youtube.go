package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"shorts-pipeline/internal/config"
	"shorts-pipeline/internal/types"
)

// ErrMissingCredentials means the OAuth environment is not set up
var ErrMissingCredentials = errors.New("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")

// YouTube publishes videos through the YouTube Data API v3
type YouTube struct {
	cfg config.UploadConfig
	svc *youtube.Service
}

// New authenticates with the refresh token from the environment
func New(ctx context.Context, cfg *config.Config) (*YouTube, error) {
	client, err := oauthClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube auth: %w", err)
	}
	return NewWithOptions(ctx, cfg, option.WithHTTPClient(client))
}

// NewWithOptions builds the service from explicit client options
func NewWithOptions(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*YouTube, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTube{cfg: cfg.Upload, svc: svc}, nil
}

// Publish uploads path as a private video that YouTube makes public at publishAt
func (y *YouTube) Publish(ctx context.Context, path string, meta types.VideoMetadata, visibility string, publishAt time.Time) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &types.PublishError{Kind: types.KindMalformed, Message: fmt.Sprintf("open video file: %v", err), Err: err}
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Debug().Str("component", "upload").Str("file", path).
			Float64("size_mb", float64(fi.Size())/1024/1024).Msg("uploading file")
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                truncateTitle(meta.Title),
			Description:          describe(meta),
			Tags:                 meta.Tags,
			CategoryId:           firstNonEmpty(meta.CategoryID, y.cfg.CategoryID),
			DefaultLanguage:      y.cfg.DefaultLanguage,
			DefaultAudioLanguage: y.cfg.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           firstNonEmpty(visibility, types.VisibilityPrivate),
			SelfDeclaredMadeForKids: y.cfg.MadeForKids,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
	// scheduling only works on private videos
	if !publishAt.IsZero() {
		video.Status.PrivacyStatus = types.VisibilityPrivate
		video.Status.PublishAt = publishAt.UTC().Format(time.RFC3339)
	}

	call := y.svc.Videos.Insert([]string{"snippet", "status"}, video).
		NotifySubscribers(y.cfg.NotifySubscribers).
		Media(f).
		Context(ctx)

	uploaded, err := call.Do()
	if err != nil {
		return "", Classify(fmt.Errorf("youtube upload: %w", err))
	}

	log.Info().Str("component", "upload").Str("video_id", uploaded.Id).
		Str("url", WatchURL(uploaded.Id)).Str("publish_at", video.Status.PublishAt).Msg("upload accepted")
	return uploaded.Id, nil
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/shorts/" + videoID
}

// oauthClient exchanges the stored refresh token for an authorized client
func oauthClient(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")

	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, ErrMissingCredentials
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return conf.Client(ctx, token), nil
}

func describe(meta types.VideoMetadata) string {
	if len(meta.Credits) == 0 {
		return meta.Description
	}
	var sb strings.Builder
	sb.WriteString(meta.Description)
	if meta.Description != "" {
		sb.WriteString("\n\n")
	}
	sb.WriteString("Credits:\n")
	for _, c := range meta.Credits {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// YouTube rejects titles over 100 characters
func truncateTitle(title string) string {
	r := []rune(title)
	if len(r) <= 100 {
		return title
	}
	return string(r[:97]) + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
