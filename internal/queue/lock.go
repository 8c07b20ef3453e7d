package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	lockDirName   = ".queue.lock"
	lockOwnerFile = "owner.json"
)

// Lock guards a queue directory against a second concurrent producer or publisher
type Lock struct {
	dir string
}

type lockOwner struct {
	PID       int    `json:"pid"`
	Command   string `json:"command,omitempty"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

// AcquireLock takes the queue lock for command. It fails while another holder exists.
func (q *Queue) AcquireLock(command string) (*Lock, error) {
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create queue directory %s: %w", q.dir, err)
	}

	lockDir := filepath.Join(q.dir, lockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			var owner lockOwner
			if data, readErr := os.ReadFile(filepath.Join(lockDir, lockOwnerFile)); readErr == nil &&
				json.Unmarshal(data, &owner) == nil && owner.PID > 0 {
				return nil, fmt.Errorf("queue is locked: %s (command=%s pid=%d created_at=%s host=%s)",
					q.dir, owner.Command, owner.PID, owner.CreatedAt, owner.Hostname)
			}
			return nil, fmt.Errorf("queue is locked: %s", q.dir)
		}
		return nil, fmt.Errorf("acquire queue lock for %s: %w", q.dir, err)
	}

	owner := lockOwner{
		PID:       os.Getpid(),
		Command:   command,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	data, _ := json.MarshalIndent(owner, "", "  ")
	if err := writeFileAtomic(filepath.Join(lockDir, lockOwnerFile), data); err != nil {
		_ = os.Remove(lockDir)
		return nil, fmt.Errorf("write queue lock owner for %s: %w", q.dir, err)
	}
	return &Lock{dir: lockDir}, nil
}

func (l *Lock) Release() error {
	if l == nil || strings.TrimSpace(l.dir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.dir, lockOwnerFile))
	if err := os.Remove(l.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release queue lock %s: %w", l.dir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		return "unknown"
	}
	return strings.TrimSpace(host)
}
