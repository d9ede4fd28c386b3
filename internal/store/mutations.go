package store

import (
	"maps"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

type MutationType string

const (
	MutSetUser               MutationType = "SET_USER"
	MutUpdateUserSettings    MutationType = "UPDATE_USER_SETTINGS"
	MutSetSchools            MutationType = "SET_SCHOOLS"
	MutSetProfessors         MutationType = "SET_PROFESSORS"
	MutSetApplications       MutationType = "SET_APPLICATIONS"
	MutSetEmails             MutationType = "SET_EMAILS"
	MutSetDocuments          MutationType = "SET_DOCUMENTS"
	MutSetNotifications      MutationType = "SET_NOTIFICATIONS"
	MutSetCurrentSchool      MutationType = "SET_CURRENT_SCHOOL"
	MutSetCurrentProfessor   MutationType = "SET_CURRENT_PROFESSOR"
	MutSetCurrentApplication MutationType = "SET_CURRENT_APPLICATION"
	MutSetSearchResults      MutationType = "SET_SEARCH_RESULTS"
	MutSetLoading            MutationType = "SET_LOADING"
)

// Mutation describes one committed state change.
type Mutation struct {
	Type    MutationType `json:"type"`
	Payload any          `json:"payload"`
}

func (s *Store) SetUser(u domain.User) {
	s.commit(Mutation{MutSetUser, u}, func(st *state) { st.user = u })
}

// UpdateUserSettings shallow-merges patch into the current settings.
func (s *Store) UpdateUserSettings(patch domain.SettingsPatch) {
	var merged domain.Settings
	s.mu.Lock()
	s.st.user.Settings = domain.MergeSettings(s.st.user.Settings, patch)
	merged = s.st.user.Settings
	s.mu.Unlock()
	s.notify(Mutation{MutUpdateUserSettings, merged})
}

func (s *Store) SetSchools(recs []domain.Record) {
	s.commit(Mutation{MutSetSchools, recs}, func(st *state) { st.schools = recs })
}

func (s *Store) SetProfessors(recs []domain.Record) {
	s.commit(Mutation{MutSetProfessors, recs}, func(st *state) { st.professors = recs })
}

func (s *Store) SetApplications(recs []domain.Record) {
	s.commit(Mutation{MutSetApplications, recs}, func(st *state) { st.applications = recs })
}

func (s *Store) SetEmails(recs []domain.Record) {
	s.commit(Mutation{MutSetEmails, recs}, func(st *state) { st.emails = recs })
}

func (s *Store) SetDocuments(recs []domain.Record) {
	s.commit(Mutation{MutSetDocuments, recs}, func(st *state) { st.documents = recs })
}

func (s *Store) SetNotifications(recs []domain.Record) {
	s.commit(Mutation{MutSetNotifications, recs}, func(st *state) { st.notifications = recs })
}

func (s *Store) SetCurrentSchool(r domain.Record) {
	s.commit(Mutation{MutSetCurrentSchool, r}, func(st *state) { st.currentSchool = r })
}

func (s *Store) SetCurrentProfessor(r domain.Record) {
	s.commit(Mutation{MutSetCurrentProfessor, r}, func(st *state) { st.currentProfessor = r })
}

func (s *Store) SetCurrentApplication(r domain.Record) {
	s.commit(Mutation{MutSetCurrentApplication, r}, func(st *state) { st.currentApplication = r })
}

// SetSearchResults replaces the whole search results map.
func (s *Store) SetSearchResults(res domain.SearchResults) {
	res = maps.Clone(res)
	if res == nil {
		res = domain.SearchResults{}
	}
	s.commit(Mutation{MutSetSearchResults, res}, func(st *state) { st.searchResults = res })
}

func (s *Store) SetLoading(loading bool) {
	s.commit(Mutation{MutSetLoading, loading}, func(st *state) { st.loading = loading })
}
