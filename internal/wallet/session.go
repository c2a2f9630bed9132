package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Session caches unlocked keys on disk (0600) so that authorizing a wallet
// survives across invocations until `wallet lock`. It also remembers which
// wallet is selected.
//
// The file is re-read on every call; it is small and other processes may
// change it.
type Session struct {
	path string
	mu   sync.Mutex
}

type sessionData struct {
	Selected string            `json:"selected,omitempty"`
	Keys     map[string]string `json:"keys"`
}

// NewSession returns a session backed by the file at path.
func NewSession(path string) *Session {
	return &Session{path: path}
}

// Get returns a cached key for ref, or ("", false) if not cached.
func (s *Session) Get(ref string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.load().Keys[ref]
	return v, ok
}

// Put caches a key for ref.
func (s *Session) Put(ref, hexKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.load()
	d.Keys[ref] = hexKey
	return s.save(d)
}

// Remove evicts a single key. A selected wallet whose key is removed stays
// selected; the provider skips it until re-authorized.
func (s *Session) Remove(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.load()
	if _, ok := d.Keys[ref]; !ok {
		return nil
	}
	delete(d.Keys, ref)
	return s.save(d)
}

// Selected returns the name of the selected wallet, or "".
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Selected
}

// Select records name as the selected wallet.
func (s *Session) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.load()
	d.Selected = name
	return s.save(d)
}

// Snapshot returns a copy of every cached key in a single file read.
func (s *Session) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Keys
}

// Active reports whether any key is cached.
func (s *Session) Active() bool {
	return len(s.Snapshot()) > 0
}

// Clear removes all cached keys by deleting the session file.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// load never returns a nil key map; unreadable files count as empty.
func (s *Session) load() sessionData {
	d := sessionData{Keys: make(map[string]string)}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return d
	}
	if err := json.Unmarshal(data, &d); err != nil || d.Keys == nil {
		return sessionData{Keys: make(map[string]string)}
	}
	return d
}

func (s *Session) save(d sessionData) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	// Restrict an already existing file too.
	return os.Chmod(s.path, 0o600)
}
