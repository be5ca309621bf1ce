package store

import (
	"context"
	"sync"

	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

// Memory keeps everything in maps. It backs tests and exists so services
// never know which driver they run against.
type Memory struct {
	mu    sync.Mutex
	users map[users.UserID]*users.User
	data  map[users.UserID]*analysis.Stats
}

func NewMemory() *Memory {
	return &Memory{
		users: map[users.UserID]*users.User{},
		data:  map[users.UserID]*analysis.Stats{},
	}
}

func (s *Memory) Ping(ctx context.Context) error { return nil }

func (s *Memory) Save(ctx context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Memory) Get(ctx context.Context, id users.UserID) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Memory) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *Memory) FindByToken(ctx context.Context, token string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Token != "" && u.Token == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *Memory) Init(ctx context.Context, id users.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		s.data[id] = &analysis.Stats{AnalysisHistory: []analysis.Record{}}
	}
	return nil
}

func (s *Memory) Append(ctx context.Context, id users.UserID, rec analysis.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data[id]
	if !ok {
		st = &analysis.Stats{}
		s.data[id] = st
	}
	st.AnalysisHistory = append([]analysis.Record{rec}, st.AnalysisHistory...)
	if len(st.AnalysisHistory) > analysis.HistoryLimit {
		st.AnalysisHistory = st.AnalysisHistory[:analysis.HistoryLimit]
	}
	st.DocumentsAnalyzed++
	st.ReportsGenerated++
	ts := rec.Timestamp
	st.LastAnalysis = &ts
	return nil
}

func (s *Memory) Record(ctx context.Context, id users.UserID, recordID string) (*analysis.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.data[id]; ok {
		for i := range st.AnalysisHistory {
			if st.AnalysisHistory[i].ID == recordID {
				cp := st.AnalysisHistory[i]
				return &cp, nil
			}
		}
	}
	return nil, analysis.ErrNotFound
}

func (s *Memory) DeleteRecord(ctx context.Context, id users.UserID, recordID string) (*analysis.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data[id]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	for i := range st.AnalysisHistory {
		if st.AnalysisHistory[i].ID == recordID {
			removed := st.AnalysisHistory[i]
			st.AnalysisHistory = append(st.AnalysisHistory[:i], st.AnalysisHistory[i+1:]...)
			return &removed, nil
		}
	}
	return nil, analysis.ErrNotFound
}

func (s *Memory) History(ctx context.Context, id users.UserID) ([]analysis.Record, error) {
	st, err := s.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.AnalysisHistory, nil
}

func (s *Memory) Stats(ctx context.Context, id users.UserID) (*analysis.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data[id]
	if !ok {
		return &analysis.Stats{AnalysisHistory: []analysis.Record{}}, nil
	}
	cp := *st
	cp.AnalysisHistory = append([]analysis.Record(nil), st.AnalysisHistory...)
	if cp.AnalysisHistory == nil {
		cp.AnalysisHistory = []analysis.Record{}
	}
	return &cp, nil
}
