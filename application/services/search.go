package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"itravel/domain/travel"
)

const (
	DefaultMinQueryLength = 2
	DefaultHistorySize    = 10
)

// ErrSearchSuperseded is returned to a search whose results arrived after a
// newer search had started
var ErrSearchSuperseded = errors.New("search superseded by a newer query")

// TravelSearcher is the read a SearchSession issues
type TravelSearcher interface {
	SearchTravels(ctx context.Context, query string, opts ...ReadOption) (Result[[]travel.Travel], error)
}

// SearchState is the last published search outcome
type SearchState struct {
	Query      string
	Results    []travel.Travel
	Stale      bool
	Err        error
	Generation uint64
}

// SearchSession runs searches for one interactive user. Starting a search
// cancels the previous one, and only the newest generation publishes results.
type SearchSession struct {
	searcher       TravelSearcher
	minQueryLength int
	historySize    int

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      SearchState
	history    []string
}

// NewSearchSession creates a session with the default limits
func NewSearchSession(searcher TravelSearcher) *SearchSession {
	return &SearchSession{
		searcher:       searcher,
		minQueryLength: DefaultMinQueryLength,
		historySize:    DefaultHistorySize,
	}
}

// Search runs query. Queries shorter than the minimum length clear the
// results without reaching the repository.
func (s *SearchSession) Search(ctx context.Context, query string, opts ...ReadOption) (SearchState, error) {
	trimmed := strings.TrimSpace(query)

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	if len([]rune(trimmed)) < s.minQueryLength {
		return s.publish(gen, SearchState{Query: trimmed})
	}

	result, err := s.searcher.SearchTravels(ctx, trimmed, opts...)
	if err != nil {
		return s.publish(gen, SearchState{Query: trimmed, Err: err})
	}

	state, pubErr := s.publish(gen, SearchState{
		Query:   trimmed,
		Results: result.Value,
		Stale:   result.Stale,
	})
	if pubErr == nil {
		s.remember(trimmed)
	}
	return state, pubErr
}

// publish stores state if gen is still the newest search
func (s *SearchSession) publish(gen uint64, state SearchState) (SearchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return SearchState{Query: state.Query, Generation: gen}, ErrSearchSuperseded
	}

	state.Generation = gen
	s.state = state
	return state, state.Err
}

// remember records a successful query, most recent first, without duplicates
func (s *SearchSession) remember(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := []string{query}
	for _, q := range s.history {
		if !strings.EqualFold(q, query) {
			history = append(history, q)
		}
	}
	if len(history) > s.historySize {
		history = history[:s.historySize]
	}
	s.history = history
}

// State returns the last published outcome
func (s *SearchSession) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// History returns recent successful queries, most recent first
func (s *SearchSession) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Clear cancels any in-flight search and resets the published state
func (s *SearchSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = SearchState{Generation: s.generation}
}
