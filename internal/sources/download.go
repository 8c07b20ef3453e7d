package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultMaxImageBytes = 20 << 20

// Downloader saves remote images to local files
type Downloader struct {
	httpClient *http.Client
	retries    int
	minBytes   int
	maxBytes   int64
	backoff    time.Duration
}

// NewDownloader builds a Downloader. maxBytes <= 0 means DefaultMaxImageBytes.
func NewDownloader(retries, minBytes int, maxBytes int64) *Downloader {
	if retries <= 0 {
		retries = 1
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retries:    retries,
		minBytes:   minBytes,
		maxBytes:   maxBytes,
		backoff:    3 * time.Second,
	}
}

// Fetch downloads img into outFile, retrying with a linear backoff
func (d *Downloader) Fetch(ctx context.Context, img Image, outFile string) error {
	var err error
	for attempt := 1; attempt <= d.retries; attempt++ {
		err = d.download(ctx, img.URL, outFile)
		if err == nil {
			return nil
		}
		log.Warn().Str("component", "sources").Int("attempt", attempt).Str("url", img.URL).Err(err).Msg("image download failed")
		if attempt == d.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * d.backoff):
		}
	}
	return fmt.Errorf("download %s failed after %d attempts: %w", img.URL, d.retries, err)
}

func (d *Downloader) download(ctx context.Context, imageURL, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; "+defaultUserAgent+")")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}

	if resp.ContentLength > d.maxBytes {
		return fmt.Errorf("response too large (%d bytes, limit %d)", resp.ContentLength, d.maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > d.maxBytes {
		return fmt.Errorf("response too large (over %d bytes)", d.maxBytes)
	}
	// error pages are small, real images are not
	if len(data) < d.minBytes {
		return fmt.Errorf("response too small (%d bytes)", len(data))
	}
	return os.WriteFile(outFile, data, 0o644)
}
