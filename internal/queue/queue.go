// Package queue is the directory-backed pending-work queue. Membership is
// defined purely by the directory contents; there is no manifest.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"shorts-pipeline/internal/types"
)

const (
	partialPrefix   = ".partial-"
	metadataSuffix  = ".json"
	defaultVideoExt = ".mp4"
)

// Queue lists and mutates artifacts inside one directory
type Queue struct {
	dir string
	ext string
}

// New creates a Queue over dir recognizing files with extension ext
func New(dir, ext string) *Queue {
	if ext == "" {
		ext = defaultVideoExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Queue{dir: dir, ext: strings.ToLower(ext)}
}

func (q *Queue) Dir() string { return q.dir }

// ListPending returns the queued artifacts, oldest modification time first.
// An unreadable or missing directory is an empty queue.
func (q *Queue) ListPending() []types.Artifact {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("component", "queue").Err(err).Str("dir", q.dir).Msg("queue directory unreadable, treating as empty")
		}
		return []types.Artifact{}
	}

	artifacts := make([]types.Artifact, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || e.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(name)) != q.ext {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Stat
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		path, err := filepath.Abs(filepath.Join(q.dir, name))
		if err != nil {
			path = filepath.Join(q.dir, name)
		}
		artifacts = append(artifacts, types.Artifact{
			Path:      path,
			Name:      name,
			CreatedAt: info.ModTime(),
			SizeBytes: info.Size(),
		})
	}

	// ReadDir is name ordered, so a stable sort breaks mtime ties by name
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.Before(artifacts[j].CreatedAt)
	})
	return artifacts
}

// Remove deletes an artifact and its metadata sidecar. Already absent is success.
func (q *Queue) Remove(a types.Artifact) error {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove artifact %s: %w", a.Path, err)
	}
	if err := os.Remove(metadataPath(a.Path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove metadata for %s: %w", a.Path, err)
	}
	return nil
}

// Commit copies a fully rendered file into the queue. The data lands in a
// hidden partial file first and is renamed into place once flushed, so a
// listing never sees a half-written artifact.
func (q *Queue) Commit(src, name string) (types.Artifact, error) {
	if name == "" {
		name = uuid.NewString() + q.ext
	}
	name = q.withExt(name)
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return types.Artifact{}, fmt.Errorf("create queue directory %s: %w", q.dir, err)
	}

	final := filepath.Join(q.dir, name)
	if _, err := os.Stat(final); err == nil {
		return types.Artifact{}, fmt.Errorf("artifact %s already queued", name)
	}

	partial := filepath.Join(q.dir, partialPrefix+uuid.NewString()+q.ext)
	if err := copyFileSync(src, partial); err != nil {
		_ = os.Remove(partial)
		return types.Artifact{}, err
	}
	if err := os.Rename(partial, final); err != nil {
		_ = os.Remove(partial)
		return types.Artifact{}, fmt.Errorf("atomic rename for %s: %w", final, err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return types.Artifact{}, fmt.Errorf("stat committed artifact %s: %w", final, err)
	}
	abs, err := filepath.Abs(final)
	if err != nil {
		abs = final
	}
	log.Info().Str("component", "queue").Str("artifact", name).Int64("bytes", info.Size()).Msg("artifact queued")
	return types.Artifact{Path: abs, Name: name, CreatedAt: info.ModTime(), SizeBytes: info.Size()}, nil
}

// Queued reports whether an artifact called name is already in the queue
func (q *Queue) Queued(name string) bool {
	_, err := os.Stat(filepath.Join(q.dir, q.withExt(name)))
	return err == nil
}

// RemoveMetadata deletes only the sidecar for name. Already absent is success.
func (q *Queue) RemoveMetadata(name string) error {
	path := metadataPath(filepath.Join(q.dir, q.withExt(name)))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove metadata %s: %w", path, err)
	}
	return nil
}

func (q *Queue) withExt(name string) string {
	if strings.ToLower(filepath.Ext(name)) != q.ext {
		return name + q.ext
	}
	return name
}

// WriteMetadata stores the sidecar for an artifact that will be committed as name
func (q *Queue) WriteMetadata(name string, meta types.VideoMetadata) error {
	name = q.withExt(name)
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata for %s: %w", name, err)
	}
	return writeFileAtomic(metadataPath(filepath.Join(q.dir, name)), append(data, '\n'))
}

// ReadMetadata loads the sidecar of a. ok is false when none exists.
func (q *Queue) ReadMetadata(a types.Artifact) (meta types.VideoMetadata, ok bool, err error) {
	data, err := os.ReadFile(metadataPath(a.Path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.VideoMetadata{}, false, nil
		}
		return types.VideoMetadata{}, false, fmt.Errorf("read metadata for %s: %w", a.Name, err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return types.VideoMetadata{}, false, fmt.Errorf("parse metadata for %s: %w", a.Name, err)
	}
	return meta, true, nil
}

func metadataPath(artifactPath string) string {
	return strings.TrimSuffix(artifactPath, filepath.Ext(artifactPath)) + metadataSuffix
}

func copyFileSync(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("sync %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, partialPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
