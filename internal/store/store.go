// Package store is the console's single source of client-side state: entity
// collections fetched from the backend, the record shown by each detail view,
// search results, the user profile and the shared loading flag.
//
// State is written only through mutation methods. Actions (Fetch*, Search*,
// ...) do one backend call and then commit mutations. Failures are logged and
// swallowed; the affected slice keeps whatever it held before.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

// Backend is the part of apiclient.Client the store needs.
type Backend interface {
	Get(ctx context.Context, path string, params any, out any) error
	Post(ctx context.Context, path string, params any, body any, out any) error
	Put(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Persister saves the user profile somewhere that survives a restart.
type Persister interface {
	SaveUser(ctx context.Context, u domain.User) error
}

type state struct {
	user domain.User

	schools       []domain.Record
	professors    []domain.Record
	applications  []domain.Record
	emails        []domain.Record
	documents     []domain.Record
	notifications []domain.Record

	loading            bool
	currentSchool      domain.Record
	currentProfessor   domain.Record
	currentApplication domain.Record
	searchResults      domain.SearchResults
}

type Store struct {
	backend   Backend
	persister Persister
	log       logrus.FieldLogger
	sequenced bool

	mu     sync.RWMutex
	st     state
	issued map[string]uint64

	subMu sync.Mutex
	subs  map[string]func(Mutation)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets where action failures are reported.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// WithPersister makes UpdateSettings save the user after merging.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithSequencedFetches gates responses by issue order: a fetch response is
// applied only when no newer request for the same slice has been issued.
// Without it the last response to arrive wins.
func WithSequencedFetches() Option {
	return func(s *Store) { s.sequenced = true }
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		log:     logrus.StandardLogger(),
		issued:  make(map[string]uint64),
		subs:    make(map[string]func(Mutation)),
		st: state{
			user:          domain.User{Settings: domain.DefaultSettings()},
			searchResults: domain.SearchResults{},
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn to be called after every committed mutation. fn runs
// on the goroutine that committed and must not block. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(Mutation)) (unsubscribe func()) {
	id := uuid.NewString()
	s.subMu.Lock()
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(m Mutation) {
	s.subMu.Lock()
	fns := make([]func(Mutation), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(m)
	}
}

// commit applies one mutation under the lock and then tells subscribers.
func (s *Store) commit(m Mutation, apply func(*state)) {
	s.mu.Lock()
	apply(&s.st)
	s.mu.Unlock()
	s.notify(m)
}

// begin hands out the next sequence number for a slice.
func (s *Store) begin(slice string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[slice]++
	return s.issued[slice]
}

// commitLatest is commit, except that in sequenced mode a response whose
// request has been overtaken by a newer one is dropped. It reports whether
// the mutation was applied.
func (s *Store) commitLatest(slice string, seq uint64, m Mutation, apply func(*state)) bool {
	s.mu.Lock()
	if s.sequenced && s.issued[slice] != seq {
		s.mu.Unlock()
		return false
	}
	apply(&s.st)
	s.mu.Unlock()
	s.notify(m)
	return true
}
