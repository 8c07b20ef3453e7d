// Package sources discovers candidate overlay images on remote feeds.
package sources

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
)

// Image is one remote candidate
type Image struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// Credit renders the attribution line put in the video description
func (i Image) Credit() string {
	switch {
	case i.Author != "" && i.Origin != "":
		return fmt.Sprintf("u/%s in %s", i.Author, i.Origin)
	case i.Origin != "":
		return i.Origin
	default:
		return i.URL
	}
}

// Source lists candidate images
type Source interface {
	Name() string
	Candidates(ctx context.Context) ([]Image, error)
}

// Picker merges sources, keeps allowed image types and picks at random
type Picker struct {
	sources []Source
	exts    map[string]bool
	rng     *rand.Rand
}

func NewPicker(rng *rand.Rand, exts []string, sources ...Source) *Picker {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}
	return &Picker{sources: sources, exts: allowed, rng: rng}
}

// Pick returns n distinct images. A source that fails is skipped; running out
// of candidates is an error.
func (p *Picker) Pick(ctx context.Context, n int) ([]Image, error) {
	var candidates []Image
	seen := make(map[string]bool)

	for _, src := range p.sources {
		images, err := src.Candidates(ctx)
		if err != nil {
			log.Warn().Str("component", "sources").Str("source", src.Name()).Err(err).Msg("source failed, skipping")
			continue
		}
		kept := 0
		for _, img := range images {
			if seen[img.URL] || !p.allowed(img.URL) {
				continue
			}
			seen[img.URL] = true
			candidates = append(candidates, img)
			kept++
		}
		log.Debug().Str("component", "sources").Str("source", src.Name()).
			Int("found", len(images)).Int("kept", kept).Msg("candidates collected")
	}

	if len(candidates) < n {
		return nil, fmt.Errorf("remote sources exhausted: need %d images, found %d", n, len(candidates))
	}

	p.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[:n], nil
}

func (p *Picker) allowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return p.exts[strings.ToLower(path.Ext(u.Path))]
}

// Static serves a fixed pool of image URLs from the config
type Static struct {
	urls []string
}

func NewStatic(urls []string) *Static {
	return &Static{urls: urls}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Candidates(context.Context) ([]Image, error) {
	images := make([]Image, 0, len(s.urls))
	for _, u := range s.urls {
		images = append(images, Image{URL: u, Origin: "static"})
	}
	return images, nil
}
