package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/academia/core/remedial"
)

type remedialRepository struct {
	db *DB
}

var _ remedial.Repository = (*remedialRepository)(nil)

func NewRemedialRepository(db *DB) *remedialRepository {
	return &remedialRepository{db: db}
}

func copySession(s remedial.Session) remedial.Session {
	s.Students = copyStrings(s.Students)
	return s
}

func (repo *remedialRepository) CreateSession(_ context.Context, s remedial.Session) (remedial.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.New().String()
	stored := copySession(s)
	repo.db.sessions[s.ID] = &stored
	return copySession(stored), nil
}

func (repo *remedialRepository) GetSessionByID(_ context.Context, id string) (remedial.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return copySession(*s), nil
	}
	return remedial.Session{}, remedial.ErrNotFound
}

func (repo *remedialRepository) QuerySessions(_ context.Context, filter remedial.Filter) ([]remedial.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sessions := make([]remedial.Session, 0)
	for _, s := range repo.db.sessions {
		if filter.FacultyID == "" || s.FacultyID == filter.FacultyID {
			sessions = append(sessions, copySession(*s))
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return newestFirst(sessions[i].CreatedAt, sessions[j].CreatedAt, sessions[i].ID, sessions[j].ID)
	})
	return sessions, nil
}
