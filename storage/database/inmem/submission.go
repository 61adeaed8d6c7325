package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/academia/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func copySubmission(s submission.Submission) submission.Submission {
	s.Grade = copyStringPtr(s.Grade)
	return s
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = uuid.New().String()
	stored := copySubmission(s)
	repo.db.submissions[s.ID] = &stored
	return copySubmission(stored), nil
}

func (repo *submissionRepository) GetSubmissionByID(_ context.Context, id string) (submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return copySubmission(*s), nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) QueryViews(_ context.Context) ([]submission.View, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	views := make([]submission.View, 0, len(repo.db.submissions))
	for _, s := range repo.db.submissions {
		v := submission.View{
			ID:          s.ID,
			StudentName: submission.UnknownPlaceholder,
			CourseTitle: submission.UnknownPlaceholder,
			Certificate: s.Certificate,
			Grade:       copyStringPtr(s.Grade),
			SubmittedAt: s.CreatedAt,
		}
		if usr, ok := repo.db.users[s.StudentID]; ok && usr.Name != "" {
			v.StudentName = usr.Name
		}
		if a, ok := repo.db.aat1s[s.AAT1ID]; ok && a.CourseLink != "" {
			v.CourseTitle = a.CourseLink
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool {
		return newestFirst(views[i].SubmittedAt, views[j].SubmittedAt, views[i].ID, views[j].ID)
	})
	return views, nil
}

func (repo *submissionRepository) SetGrade(_ context.Context, id, grade string) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.submissions[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	prev := copySubmission(*s)
	s.Grade = &grade
	s.UpdatedAt = time.Now().UTC()
	return prev, nil
}
