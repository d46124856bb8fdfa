package usecases

import (
	"github.com/sophialabs/testlabadvisor/internal/domain/match"
	"github.com/sophialabs/testlabadvisor/internal/domain/session"
)

// SessionView is everything an operator screen needs for one session.
type SessionView struct {
	Session   session.Session    `json:"session"`
	Results   match.SearchResult `json:"results"`
	Selectors Selectors          `json:"selectors"`
	Lookup    LookupResult       `json:"lookup"`
	Version   uint64             `json:"version"`
}

// SessionUseCase drives per-operator sessions over the lookup use case.
type SessionUseCase struct {
	store  *session.Store
	lookup *LookupUseCase
}

// NewSessionUseCase creates a new use case.
func NewSessionUseCase(store *session.Store, lookup *LookupUseCase) *SessionUseCase {
	return &SessionUseCase{store: store, lookup: lookup}
}

// Start opens a new session.
func (uc *SessionUseCase) Start() SessionView {
	return uc.view(uc.store.Create())
}

// View returns the current state of session id.
func (uc *SessionUseCase) View(id string) (SessionView, error) {
	s, err := uc.store.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(s), nil
}

// SetQuery changes the search text. A changed query clears the selection.
func (uc *SessionUseCase) SetQuery(id, query string) (SessionView, error) {
	s, err := uc.store.SetQuery(id, query)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(s), nil
}

// Select sets the exact-match selectors.
func (uc *SessionUseCase) Select(id string, sel match.Selector) (SessionView, error) {
	s, err := uc.store.SetSelection(id, sel)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(s), nil
}

// End removes session id.
func (uc *SessionUseCase) End(id string) error {
	return uc.store.Delete(id)
}

// view reads every part from one snapshot so a reload in between cannot mix
// datasets.
func (uc *SessionUseCase) view(s session.Session) SessionView {
	snap := uc.lookup.handle.Current()
	v := SessionView{
		Session:   s,
		Results:   uc.lookup.search(snap, s.ID, s.Query),
		Selectors: selectors(snap, s.Query),
		Version:   snap.Version,
	}
	if s.Selection.IsEmpty() {
		v.Lookup = LookupResult{Resolution: match.Resolution{Status: match.StatusNoSelection, Index: -1}}
	} else {
		v.Lookup = uc.lookup.resolve(snap, s.ID, s.Query, s.Selection)
	}
	return v
}
