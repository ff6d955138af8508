package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"

	"github.com/fyrsmithlabs/taskflow/internal/config"
)

// lockRetry is how often a contended session lock is retried.
const lockRetry = 25 * time.Millisecond

// Store persists session state. Load on a store that has never been saved
// returns the zero State and no error.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Clear(ctx context.Context) error
}

// sessionFile is the on-disk form. config.Secret refuses to marshal its
// value, so the token is written as a plain string here and nowhere else.
type sessionFile struct {
	Token   string   `toml:"token"`
	Profile *Profile `toml:"profile,omitempty"`
}

// FileStore keeps the session in a TOML file readable only by its owner.
// Reads and writes hold an advisory lock on a sibling ".lock" file so
// concurrent processes never observe a partial write.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the session file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the session file.
func (f *FileStore) Load(ctx context.Context) (State, error) {
	if err := f.ensureDir(); err != nil {
		return State{}, err
	}
	locked, err := f.lock.TryRLockContext(ctx, lockRetry)
	if err != nil {
		return State{}, fmt.Errorf("locking session file: %w", err)
	}
	if !locked {
		return State{}, fmt.Errorf("locking session file: %w", ctx.Err())
	}
	defer func() { _ = f.lock.Unlock() }()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("reading session file: %w", err)
	}

	var sf sessionFile
	if _, err := toml.Decode(string(data), &sf); err != nil {
		return State{}, fmt.Errorf("parsing session file %s: %w", f.path, err)
	}
	if sf.Token == "" {
		return State{}, nil
	}
	return State{Token: config.Secret(sf.Token), Profile: sf.Profile}, nil
}

// Save replaces the session file. The new file is written next to the old
// one and renamed into place.
func (f *FileStore) Save(ctx context.Context, s State) error {
	if !s.Authenticated() {
		return f.Clear(ctx)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(sessionFile{Token: s.Token.Value(), Profile: s.Profile}); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	return f.withLock(ctx, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
		if err != nil {
			return fmt.Errorf("creating session file: %w", err)
		}
		defer func() { _ = os.Remove(tmp.Name()) }()

		if err := tmp.Chmod(0600); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("setting session file permissions: %w", err)
		}
		if _, err := tmp.Write(buf.Bytes()); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("writing session file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("writing session file: %w", err)
		}
		if err := os.Rename(tmp.Name(), f.path); err != nil {
			return fmt.Errorf("replacing session file: %w", err)
		}
		return nil
	})
}

// Clear removes the session file.
func (f *FileStore) Clear(ctx context.Context) error {
	return f.withLock(ctx, func() error {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing session file: %w", err)
		}
		return nil
	})
}

func (f *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := f.ensureDir(); err != nil {
		return err
	}
	locked, err := f.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("locking session file: %w", err)
	}
	if !locked {
		return fmt.Errorf("locking session file: %w", ctx.Err())
	}
	defer func() { _ = f.lock.Unlock() }()
	return fn()
}

func (f *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in memory.
type MemoryStore struct {
	mu    sync.Mutex
	state State
	// FailSave, when set, is returned by Save.
	FailSave error
}

// NewMemoryStore creates a store holding s.
func NewMemoryStore(s State) *MemoryStore {
	return &MemoryStore{state: s}
}

// Load returns the held state.
func (m *MemoryStore) Load(context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

// Save replaces the held state.
func (m *MemoryStore) Save(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.state = s
	return nil
}

// Clear drops the held state.
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{}
	return nil
}
