// Package store persists users and per-user stats/history. The JSON store
// mirrors the two-document layout the service has always used: users.json
// (id → user) and user_data.json (id → stats). Whole-file read-modify-write
// under a single mutex; last-write-wins races are gone by construction.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

type JSONStore struct {
	mu        sync.Mutex
	usersPath string
	dataPath  string
}

func NewJSON(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JSONStore{
		usersPath: filepath.Join(dir, "users.json"),
		dataPath:  filepath.Join(dir, "user_data.json"),
	}, nil
}

// Ping reports whether the data directory is reachable.
func (s *JSONStore) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(s.usersPath))
	return err
}

//
// ==== users.Repository ====
//

func (s *JSONStore) Save(ctx context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadUsers()
	if err != nil {
		return err
	}
	cp := *u
	m[u.ID] = &cp
	return writeJSON(s.usersPath, m)
}

func (s *JSONStore) Get(ctx context.Context, id users.UserID) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	u, ok := m[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *JSONStore) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findUser(s, func(u *users.User) bool { return u.Email == email })
}

func (s *JSONStore) FindByToken(ctx context.Context, token string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findUser(s, func(u *users.User) bool { return u.Token != "" && u.Token == token })
}

func findUser(s *JSONStore, match func(*users.User) bool) (*users.User, error) {
	m, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range m {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

//
// ==== analysis.Ledger ====
//

func (s *JSONStore) Init(ctx context.Context, id users.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadData()
	if err != nil {
		return err
	}
	if _, ok := data[id]; !ok {
		data[id] = &analysis.Stats{AnalysisHistory: []analysis.Record{}}
	}
	return writeJSON(s.dataPath, data)
}

func (s *JSONStore) Append(ctx context.Context, id users.UserID, rec analysis.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadData()
	if err != nil {
		return err
	}
	st, ok := data[id]
	if !ok {
		st = &analysis.Stats{}
		data[id] = st
	}

	st.AnalysisHistory = append([]analysis.Record{rec}, st.AnalysisHistory...)
	if len(st.AnalysisHistory) > analysis.HistoryLimit {
		st.AnalysisHistory = st.AnalysisHistory[:analysis.HistoryLimit]
	}
	st.DocumentsAnalyzed++
	st.ReportsGenerated++
	ts := rec.Timestamp
	st.LastAnalysis = &ts

	return writeJSON(s.dataPath, data)
}

func (s *JSONStore) Record(ctx context.Context, id users.UserID, recordID string) (*analysis.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadData()
	if err != nil {
		return nil, err
	}
	if st, ok := data[id]; ok {
		for i := range st.AnalysisHistory {
			if st.AnalysisHistory[i].ID == recordID {
				cp := st.AnalysisHistory[i]
				return &cp, nil
			}
		}
	}
	return nil, analysis.ErrNotFound
}

func (s *JSONStore) DeleteRecord(ctx context.Context, id users.UserID, recordID string) (*analysis.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadData()
	if err != nil {
		return nil, err
	}
	st, ok := data[id]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	for i := range st.AnalysisHistory {
		if st.AnalysisHistory[i].ID == recordID {
			removed := st.AnalysisHistory[i]
			st.AnalysisHistory = append(st.AnalysisHistory[:i], st.AnalysisHistory[i+1:]...)
			if err := writeJSON(s.dataPath, data); err != nil {
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, analysis.ErrNotFound
}

func (s *JSONStore) History(ctx context.Context, id users.UserID) ([]analysis.Record, error) {
	st, err := s.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.AnalysisHistory, nil
}

func (s *JSONStore) Stats(ctx context.Context, id users.UserID) (*analysis.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadData()
	if err != nil {
		return nil, err
	}
	st, ok := data[id]
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

//
// ==== file helpers ====
//

func (s *JSONStore) loadUsers() (map[users.UserID]*users.User, error) {
	m := map[users.UserID]*users.User{}
	if err := readJSON(s.usersPath, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *JSONStore) loadData() (map[users.UserID]*analysis.Stats, error) {
	m := map[users.UserID]*analysis.Stats{}
	if err := readJSON(s.dataPath, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
