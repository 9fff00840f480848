// ABOUTME: Upload queue state container with id-targeted mutations
// ABOUTME: Owns the visible queue and the in-flight handle table used for cancellation

package upload

import (
	"context"
	"slices"
	"sync"
)

// Status is the lifecycle state of one queue entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// rank orders statuses so transitions only move forward
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusUploading:
		return 1
	default:
		return 2
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// UploadFile is one visible queue entry.
type UploadFile struct {
	ID       string `json:"id"`
	Path     string `json:"path,omitempty"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Progress int    `json:"progress"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Snapshot is an immutable copy of the queue. Version increases with every
// mutation so subscribers can drop out-of-order deliveries.
type Snapshot struct {
	Version uint64
	Files   []UploadFile
}

// handle is one outgoing transfer; members are the entry ids it carries.
type handle struct {
	cancel  context.CancelCauseFunc
	members []string
}

// Store holds the upload queue. All mutations are targeted by entry id.
type Store struct {
	mu       sync.Mutex
	files    []UploadFile
	version  uint64
	inflight map[string]*handle // handle id -> transfer
	owner    map[string]string  // entry id -> handle id
	subs     map[int]func(Snapshot)
	nextSub  int
}

// NewStore creates an empty queue.
func NewStore() *Store {
	return &Store{
		inflight: make(map[string]*handle),
		owner:    make(map[string]string),
		subs:     make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to receive a snapshot after every mutation.
// The returned func unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current queue.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns a copy of one entry.
func (s *Store) Get(id string) (UploadFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.files[i], true
	}
	return UploadFile{}, false
}

// InFlight reports whether an outgoing transfer carries the entry.
func (s *Store) InFlight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owner[id]
	return ok
}

// InFlightCount returns the number of outgoing transfers.
func (s *Store) InFlightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

func (s *Store) append(entries []UploadFile) {
	s.mutate(func() bool {
		s.files = append(s.files, entries...)
		return true
	})
}

// update applies fn to a copy of the entry and stores the result when it is
// a legal transition: status never moves backwards, progress never
// decreases and terminal entries are frozen.
func (s *Store) update(id string, fn func(*UploadFile)) {
	s.mutate(func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		cur := s.files[i]
		if cur.Status.Terminal() {
			return false
		}

		next := cur
		fn(&next)
		if next.Status.rank() < cur.Status.rank() {
			next.Status = cur.Status
		}
		if next.Progress < cur.Progress {
			next.Progress = cur.Progress
		}
		if next.Progress > 100 {
			next.Progress = 100
		}
		if next == cur {
			return false
		}
		s.files[i] = next
		return true
	})
}

// acquire registers an outgoing transfer carrying members.
func (s *Store) acquire(handleID string, cancel context.CancelCauseFunc, members ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[handleID] = &handle{cancel: cancel, members: members}
	for _, m := range members {
		s.owner[m] = handleID
	}
}

// release drops a settled transfer. Safe to call more than once.
func (s *Store) release(handleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(handleID)
}

func (s *Store) releaseLocked(handleID string) {
	h, ok := s.inflight[handleID]
	if !ok {
		return
	}
	delete(s.inflight, handleID)
	for _, m := range h.members {
		if s.owner[m] == handleID {
			delete(s.owner, m)
		}
	}
}

// remove aborts the transfer carrying id, if any, then drops the entry.
func (s *Store) remove(id string, cause error) {
	var cancel context.CancelCauseFunc

	s.mutate(func() bool {
		if handleID, ok := s.owner[id]; ok {
			cancel = s.inflight[handleID].cancel
			s.releaseLocked(handleID)
		}
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		s.files = slices.Delete(s.files, i, i+1)
		return true
	})

	if cancel != nil {
		cancel(cause)
	}
}

// clear aborts every transfer and empties the queue.
func (s *Store) clear(cause error) {
	var cancels []context.CancelCauseFunc

	s.mutate(func() bool {
		for id, h := range s.inflight {
			cancels = append(cancels, h.cancel)
			delete(s.inflight, id)
		}
		clear(s.owner)
		had := len(s.files) > 0
		s.files = nil
		return had
	})

	for _, cancel := range cancels {
		cancel(cause)
	}
}

// mutate runs fn under the lock and, if it changed the queue, publishes a
// snapshot to subscribers outside the lock.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	s.version++
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Files: slices.Clone(s.files)}
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.files, func(f UploadFile) bool { return f.ID == id })
}
