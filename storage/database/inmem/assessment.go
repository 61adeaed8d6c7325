package inmemdb

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/academia/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(db *DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

// newestFirst orders by creation time, then by ID for equal timestamps.
func newestFirst(ti, tj time.Time, idi, idj string) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi < idj
}

func copyAAT2(a assessment.AAT2) assessment.AAT2 {
	questions := make([]json.RawMessage, 0, len(a.Questions))
	for _, q := range a.Questions {
		questions = append(questions, append(json.RawMessage(nil), q...))
	}
	a.Questions = questions
	return a
}

func (repo *assessmentRepository) CreateAAT1(_ context.Context, a assessment.AAT1) (assessment.AAT1, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	repo.db.aat1s[a.ID] = &a
	return a, nil
}

func (repo *assessmentRepository) GetAAT1ByID(_ context.Context, id string) (assessment.AAT1, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.aat1s[id]; ok {
		return *a, nil
	}
	return assessment.AAT1{}, assessment.ErrAAT1NotFound
}

func (repo *assessmentRepository) QueryAAT1s(_ context.Context, filter assessment.Filter) ([]assessment.AAT1, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	aats := make([]assessment.AAT1, 0)
	for _, a := range repo.db.aat1s {
		if filter.FacultyID == "" || a.FacultyID == filter.FacultyID {
			aats = append(aats, *a)
		}
	}
	sort.Slice(aats, func(i, j int) bool {
		return newestFirst(aats[i].CreatedAt, aats[j].CreatedAt, aats[i].ID, aats[j].ID)
	})
	return aats, nil
}

func (repo *assessmentRepository) CreateAAT2(_ context.Context, a assessment.AAT2) (assessment.AAT2, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	stored := copyAAT2(a)
	repo.db.aat2s[a.ID] = &stored
	return copyAAT2(stored), nil
}

func (repo *assessmentRepository) GetAAT2ByID(_ context.Context, id string) (assessment.AAT2, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.aat2s[id]; ok {
		return copyAAT2(*a), nil
	}
	return assessment.AAT2{}, assessment.ErrAAT2NotFound
}

func (repo *assessmentRepository) QueryAAT2s(_ context.Context, filter assessment.Filter) ([]assessment.AAT2, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	aats := make([]assessment.AAT2, 0)
	for _, a := range repo.db.aat2s {
		if filter.FacultyID == "" || a.FacultyID == filter.FacultyID {
			aats = append(aats, copyAAT2(*a))
		}
	}
	sort.Slice(aats, func(i, j int) bool {
		return newestFirst(aats[i].CreatedAt, aats[j].CreatedAt, aats[i].ID, aats[j].ID)
	})
	return aats, nil
}
