package store

import (
	"maps"
	"slices"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.loading
}

func (s *Store) User() domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.user
}

func (s *Store) AllSchools() []domain.Record {
	return s.list(func(st *state) []domain.Record { return st.schools })
}

func (s *Store) AllProfessors() []domain.Record {
	return s.list(func(st *state) []domain.Record { return st.professors })
}

func (s *Store) AllApplications() []domain.Record {
	return s.list(func(st *state) []domain.Record { return st.applications })
}

func (s *Store) AllEmails() []domain.Record {
	return s.list(func(st *state) []domain.Record { return st.emails })
}

func (s *Store) AllDocuments() []domain.Record {
	return s.list(func(st *state) []domain.Record { return st.documents })
}

func (s *Store) AllNotifications() []domain.Record {
	return s.list(func(st *state) []domain.Record { return st.notifications })
}

// UnreadNotifications is AllNotifications filtered to is_read == false.
func (s *Store) UnreadNotifications() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var unread []domain.Record
	for _, n := range s.st.notifications {
		if !n.IsRead() {
			unread = append(unread, n)
		}
	}
	return unread
}

func (s *Store) CurrentSchool() domain.Record {
	return s.current(func(st *state) domain.Record { return st.currentSchool })
}

func (s *Store) CurrentProfessor() domain.Record {
	return s.current(func(st *state) domain.Record { return st.currentProfessor })
}

func (s *Store) CurrentApplication() domain.Record {
	return s.current(func(st *state) domain.Record { return st.currentApplication })
}

func (s *Store) SearchResults() domain.SearchResults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.st.searchResults)
}

func (s *Store) list(get func(*state) []domain.Record) []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(get(&s.st))
}

func (s *Store) current(get func(*state) domain.Record) domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(&s.st)
}
