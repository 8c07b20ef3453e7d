// Package media samples local background clips and soundtracks.
package media

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmpty means the library directory holds no usable file
var ErrEmpty = errors.New("media library is empty")

// Library is a directory of media files with allowed extensions
type Library struct {
	dir  string
	exts map[string]bool
}

func NewLibrary(dir string, exts []string) *Library {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}
	return &Library{dir: dir, exts: allowed}
}

func (l *Library) Dir() string { return l.dir }

// Files lists the usable files in name order
func (l *Library) Files() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrEmpty, l.dir)
		}
		return nil, fmt.Errorf("read media dir %s: %w", l.dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !l.exts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(l.dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, l.dir)
	}
	return files, nil
}

// Pick returns one file at random
func (l *Library) Pick(rng *rand.Rand) (string, error) {
	files, err := l.Files()
	if err != nil {
		return "", err
	}
	return files[rng.Intn(len(files))], nil
}
