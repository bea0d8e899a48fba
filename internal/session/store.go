// Package session holds per-visitor connection, listing and selection state
// together with the session expiry policy.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/damacus/s3ducky/internal/models"
)

// State is a point-in-time copy of a Store
type State struct {
	Credentials *models.Credentials
	Files       []models.FileEntry
	Selected    []string
	Connected   bool
	Loading     bool
	Error       string
	Expiry      time.Time
}

// IsSelected reports whether key is in the selection
func (s State) IsSelected(key string) bool {
	i := sort.SearchStrings(s.Selected, key)
	return i < len(s.Selected) && s.Selected[i] == key
}

// Store is the single source of truth for one browser session.
// All methods are safe for concurrent use.
type Store struct {
	mu sync.Mutex

	credentials *models.Credentials
	files       []models.FileEntry
	selected    map[string]struct{}
	connected   bool
	loading     bool
	errMsg      string
	expiry      time.Time

	// epoch advances on every ClearSession so late results can be discarded
	epoch uint64

	policy Policy
	now    func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPolicy overrides the default session policy
func WithPolicy(p Policy) Option {
	return func(s *Store) { s.policy = p }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		selected: make(map[string]struct{}),
		policy:   DefaultPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the store's session policy
func (s *Store) Policy() Policy {
	return s.policy
}

// Now returns the store's current time
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) SetCredentials(c models.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().SetCredentials(c)
}

// SetFiles replaces the listing and drops selections that are no longer listed
func (s *Store) SetFiles(files []models.FileEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().SetFiles(files)
}

// ToggleFileSelection flips key in or out of the selection. A key that is not
// in the current listing is never added, so toggling it is a no-op.
func (s *Store) ToggleFileSelection(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().ToggleFileSelection(key)
}

func (s *Store) SelectAllFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().SelectAllFiles()
}

// SelectFiles adds the listed keys among keys to the selection
func (s *Store) SelectFiles(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().SelectFiles(keys)
}

func (s *Store) DeselectAllFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().DeselectAllFiles()
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().SetLoading(loading)
}

func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().SetError(msg)
}

func (s *Store) ClearError() {
	s.SetError("")
}

func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().SetConnected(connected)
}

// InitSession starts the session clock: expiry = now + policy duration
func (s *Store) InitSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txn().InitSession()
}

// ClearSession resets everything except the loading flag. Calling it on an
// already cleared store leaves the same state.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.credentials = nil
	s.files = nil
	s.selected = make(map[string]struct{})
	s.connected = false
	s.errMsg = ""
	s.expiry = time.Time{}
	s.epoch++
}

// Epoch identifies the current session incarnation
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Update applies fn atomically, but only if the session has not been cleared
// since epoch was read. It reports whether fn ran.
func (s *Store) Update(epoch uint64, fn func(tx *Txn)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	fn(s.txn())
	return true
}

// Snapshot copies the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Connected: s.connected,
		Loading:   s.loading,
		Error:     s.errMsg,
		Expiry:    s.expiry,
	}
	if s.credentials != nil {
		c := *s.credentials
		st.Credentials = &c
	}
	if s.files != nil {
		st.Files = make([]models.FileEntry, len(s.files))
		copy(st.Files, s.files)
	}
	st.Selected = make([]string, 0, len(s.selected))
	for k := range s.selected {
		st.Selected = append(st.Selected, k)
	}
	sort.Strings(st.Selected)
	return st
}

// SelectedKeys returns the selection in key order
func (s *Store) SelectedKeys() []string {
	return s.Snapshot().Selected
}

// Credentials returns a copy of the stored credentials, or nil
func (s *Store) Credentials() *models.Credentials {
	return s.Snapshot().Credentials
}

// Connected reports whether a validated session exists
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Store) txn() *Txn {
	return &Txn{s: s}
}

// Txn exposes the store mutators to Update callbacks. The store lock is held.
type Txn struct {
	s *Store
}

func (t *Txn) SetCredentials(c models.Credentials) {
	t.s.credentials = &c
}

func (t *Txn) SetFiles(files []models.FileEntry) {
	s := t.s
	if len(files) == 0 {
		s.files = nil
	} else {
		s.files = make([]models.FileEntry, len(files))
		copy(s.files, files)
	}

	present := make(map[string]struct{}, len(s.files))
	for _, f := range s.files {
		present[f.Key] = struct{}{}
	}
	for k := range s.selected {
		if _, ok := present[k]; !ok {
			delete(s.selected, k)
		}
	}
}

// ToggleFileSelection flips membership of key. Keys that are not in the
// current listing are never added.
func (t *Txn) ToggleFileSelection(key string) {
	if _, ok := t.s.selected[key]; ok {
		delete(t.s.selected, key)
		return
	}
	for _, f := range t.s.files {
		if f.Key == key {
			t.s.selected[key] = struct{}{}
			return
		}
	}
}

func (t *Txn) SelectAllFiles() {
	t.s.selected = make(map[string]struct{}, len(t.s.files))
	for _, f := range t.s.files {
		t.s.selected[f.Key] = struct{}{}
	}
}

func (t *Txn) SelectFiles(keys []string) {
	present := make(map[string]struct{}, len(t.s.files))
	for _, f := range t.s.files {
		present[f.Key] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := present[k]; ok {
			t.s.selected[k] = struct{}{}
		}
	}
}

func (t *Txn) DeselectAllFiles() {
	t.s.selected = make(map[string]struct{})
}

func (t *Txn) SetLoading(loading bool) {
	t.s.loading = loading
}

func (t *Txn) SetError(msg string) {
	t.s.errMsg = msg
}

func (t *Txn) SetConnected(connected bool) {
	t.s.connected = connected
}

func (t *Txn) InitSession() {
	t.s.expiry = t.s.now().Add(t.s.policy.Duration)
}
