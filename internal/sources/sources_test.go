package sources

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vartanbeno/go-reddit/v2/reddit"

	"shorts-pipeline/internal/config"
)

type fakeSource struct {
	name   string
	images []Image
	err    error
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Candidates(context.Context) ([]Image, error) { return f.images, f.err }

var imageExts = []string{".jpg", "png"}

func TestPickFiltersByTypeAndDedupes(t *testing.T) {
	src := fakeSource{name: "a", images: []Image{
		{URL: "https://i.example.com/one.jpg"},
		{URL: "https://i.example.com/one.jpg"},
		{URL: "https://i.example.com/two.PNG?width=640"},
		{URL: "https://i.example.com/clip.gifv"},
		{URL: "https://example.com/comments/abc"},
		{URL: "ftp://example.com/three.jpg"},
	}}
	p := NewPicker(rand.New(rand.NewSource(1)), imageExts, src)

	got, err := p.Pick(context.Background(), 2)
	require.NoError(t, err)

	urls := []string{got[0].URL, got[1].URL}
	assert.ElementsMatch(t, []string{"https://i.example.com/one.jpg", "https://i.example.com/two.PNG?width=640"}, urls)
}

func TestPickSkipsFailingSourceAndReportsExhaustion(t *testing.T) {
	broken := fakeSource{name: "broken", err: errors.New("503")}
	small := fakeSource{name: "small", images: []Image{{URL: "https://i.example.com/only.jpg"}}}
	p := NewPicker(rand.New(rand.NewSource(1)), imageExts, broken, small)

	got, err := p.Pick(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://i.example.com/only.jpg", got[0].URL)

	_, err = p.Pick(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestPickIsDeterministicForSeed(t *testing.T) {
	var images []Image
	for _, c := range "abcdefghij" {
		images = append(images, Image{URL: "https://i.example.com/" + string(c) + ".jpg"})
	}
	pick := func() []Image {
		p := NewPicker(rand.New(rand.NewSource(42)), imageExts, NewStatic(nil), fakeSource{name: "f", images: images})
		got, err := p.Pick(context.Background(), 3)
		require.NoError(t, err)
		return got
	}
	assert.Equal(t, pick(), pick())
}

func TestCredit(t *testing.T) {
	assert.Equal(t, "u/bob in r/memes", Image{Author: "bob", Origin: "r/memes"}.Credit())
	assert.Equal(t, "static", Image{Origin: "static", URL: "u"}.Credit())
	assert.Equal(t, "https://x/y.jpg", Image{URL: "https://x/y.jpg"}.Credit())
}

func TestDownloaderRetriesThenSucceeds(t *testing.T) {
	var calls int32
	payload := strings.Repeat("x", 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	d := NewDownloader(3, 100, 0)
	d.backoff = time.Millisecond
	out := filepath.Join(t.TempDir(), "img.jpg")

	require.NoError(t, d.Fetch(context.Background(), Image{URL: srv.URL + "/img.jpg"}, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDownloaderRejectsTinyResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	d := NewDownloader(2, 100, 0)
	d.backoff = time.Millisecond
	out := filepath.Join(t.TempDir(), "img.jpg")

	err := d.Fetch(context.Background(), Image{URL: srv.URL + "/img.jpg"}, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRedditCandidatesKeepsLinkPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/r/memes/hot")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"kind":"Listing","data":{"after":"","before":"","children":[
			{"kind":"t3","data":{"id":"a1","name":"t3_a1","title":"funny","author":"bob","url":"https://i.redd.it/a1.jpg","subreddit":"memes","is_self":false,"over_18":false}},
			{"kind":"t3","data":{"id":"a2","name":"t3_a2","title":"text post","author":"amy","url":"https://www.reddit.com/r/memes/comments/a2","subreddit":"memes","is_self":true,"over_18":false}},
			{"kind":"t3","data":{"id":"a3","name":"t3_a3","title":"nsfw","author":"zed","url":"https://i.redd.it/a3.jpg","subreddit":"memes","is_self":false,"over_18":true}}
		]}}`))
	}))
	defer srv.Close()

	r, err := NewReddit(config.SourcesConfig{Subreddits: []string{"memes"}, PostLimit: 10}, reddit.WithBaseURL(srv.URL))
	require.NoError(t, err)

	images, err := r.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "https://i.redd.it/a1.jpg", images[0].URL)
	assert.Equal(t, "u/bob in r/memes", images[0].Credit())
}

func TestRedditAllSubredditsFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, err := NewReddit(config.SourcesConfig{Subreddits: []string{"a", "b"}}, reddit.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = r.Candidates(context.Background())
	assert.Error(t, err)
}

func TestDownloaderRejectsOversizedResponses(t *testing.T) {
	tests := []struct {
		name    string
		chunked bool
	}{
		{name: "declared length"},
		{name: "chunked body", chunked: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("x", 4096)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.chunked {
					_, _ = w.Write([]byte(body[:2048]))
					w.(http.Flusher).Flush()
					_, _ = w.Write([]byte(body[2048:]))
					return
				}
				w.Header().Set("Content-Length", strconv.Itoa(len(body)))
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			d := NewDownloader(1, 100, 1024)
			out := filepath.Join(t.TempDir(), "img.jpg")

			err := d.Fetch(context.Background(), Image{URL: srv.URL + "/img.jpg"}, out)
			assert.ErrorContains(t, err, "too large")
			assert.NoFileExists(t, out)
		})
	}
}
