package build

import (
	"context"
	"sync"
)

// SpyStore is an in-memory Store that records calls.
type SpyStore struct {
	mu     sync.Mutex
	builds []*Build
	Calls  []string

	StartErr error
}

func (s *SpyStore) Current(_ context.Context) (*Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "Current")

	if len(s.builds) == 0 {
		s.builds = append(s.builds, &Build{ID: 1, Status: StatusIdle})
	}
	b := *s.builds[len(s.builds)-1]
	return &b, nil
}

func (s *SpyStore) Get(_ context.Context, params *LedgerGetParams) (*Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "Get")

	for _, b := range s.builds {
		if b.ID == params.ID {
			c := *b
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *SpyStore) Start(_ context.Context, params *LedgerStartParams) (*Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "Start")

	if s.StartErr != nil {
		return nil, s.StartErr
	}
	for _, b := range s.builds {
		if b.Status == StatusBuilding {
			return nil, ErrAlreadyBuilding
		}
	}
	b := &Build{ID: int64(len(s.builds) + 1), Status: StatusBuilding, TriggeredBy: params.TriggeredBy}
	s.builds = append(s.builds, b)
	c := *b
	return &c, nil
}

func (s *SpyStore) Complete(_ context.Context, params *LedgerCompleteParams) (*Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "Complete")

	for _, b := range s.builds {
		if b.ID != params.ID {
			continue
		}
		if b.Status != StatusBuilding {
			c := *b
			return &c, ErrAlreadyDone
		}
		b.Status = params.Status
		if params.Status == StatusFailed {
			m := params.ErrorMessage
			b.ErrorMessage = &m
		}
		c := *b
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *SpyStore) building() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.builds {
		if b.Status == StatusBuilding {
			n++
		}
	}
	return n
}

func (s *SpyStore) last() *Build {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.builds[len(s.builds)-1]
	return &c
}
