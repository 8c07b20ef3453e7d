package sources

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/vartanbeno/go-reddit/v2/reddit"

	"shorts-pipeline/internal/config"
)

const defaultUserAgent = "shorts-pipeline/1.0"

// Reddit lists image posts from the hot feed of configured subreddits
type Reddit struct {
	client     *reddit.Client
	subreddits []string
	limit      int
	allowNSFW  bool
}

// NewReddit builds a read-only client. Extra options are for tests.
func NewReddit(cfg config.SourcesConfig, opts ...reddit.Opt) (*Reddit, error) {
	ua := os.Getenv("REDDIT_USER_AGENT")
	if ua == "" {
		ua = defaultUserAgent
	}
	opts = append([]reddit.Opt{reddit.WithUserAgent(ua)}, opts...)

	client, err := reddit.NewReadonlyClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	limit := cfg.PostLimit
	if limit <= 0 {
		limit = 25
	}
	return &Reddit{client: client, subreddits: cfg.Subreddits, limit: limit, allowNSFW: cfg.AllowNSFW}, nil
}

func (r *Reddit) Name() string { return "reddit" }

// Candidates returns image posts across all subreddits. One failing
// subreddit is skipped; all of them failing is an error.
func (r *Reddit) Candidates(ctx context.Context) ([]Image, error) {
	var images []Image
	var lastErr error
	failed := 0

	for _, sub := range r.subreddits {
		posts, _, err := r.client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{Limit: r.limit})
		if err != nil {
			log.Warn().Str("component", "sources").Str("subreddit", sub).Err(err).Msg("reddit fetch failed")
			lastErr = err
			failed++
			continue
		}
		for _, post := range posts {
			if post == nil || post.IsSelfPost || post.URL == "" {
				continue
			}
			if post.NSFW && !r.allowNSFW {
				continue
			}
			images = append(images, Image{
				URL:    post.URL,
				Title:  post.Title,
				Author: post.Author,
				Origin: "r/" + sub,
			})
		}
	}

	if failed > 0 && failed == len(r.subreddits) {
		return nil, fmt.Errorf("reddit: all %d subreddits failed: %w", failed, lastErr)
	}
	return images, nil
}
