package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
)

const (
	aat1Columns = "id, course_link, deadline, faculty_id, created_at"
	aat2Columns = "id, title, questions, start_time, end_time, duration, faculty_id, created_at"
)

var newestFirst = []core.DBOrdering{{Field: "created_at"}, {Field: "id", Ascending: true}}

type (
	aat1Row struct {
		ID         string    `db:"id"`
		CourseLink string    `db:"course_link"`
		Deadline   time.Time `db:"deadline"`
		FacultyID  string    `db:"faculty_id"`
		CreatedAt  time.Time `db:"created_at"`
	}

	aat2Row struct {
		ID        string         `db:"id"`
		Title     string         `db:"title"`
		Questions types.JSONText `db:"questions"`
		StartTime time.Time      `db:"start_time"`
		EndTime   time.Time      `db:"end_time"`
		Duration  int            `db:"duration"`
		FacultyID string         `db:"faculty_id"`
		CreatedAt time.Time      `db:"created_at"`
	}
)

type assessmentRepository struct {
	exec core.DBExecutor
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(exec core.DBExecutor) *assessmentRepository {
	return &assessmentRepository{exec: exec}
}

func (repo assessmentRepository) unboilAAT1(row aat1Row) assessment.AAT1 {
	return assessment.AAT1{
		ID:         row.ID,
		CourseLink: row.CourseLink,
		Deadline:   row.Deadline.UTC(),
		FacultyID:  row.FacultyID,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

func (repo assessmentRepository) boilAAT2(a assessment.AAT2) (aat2Row, error) {
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return aat2Row{}, err
	}
	return aat2Row{
		ID:        a.ID,
		Title:     a.Title,
		Questions: questions,
		StartTime: a.StartTime.UTC(),
		EndTime:   a.EndTime.UTC(),
		Duration:  a.Duration,
		FacultyID: a.FacultyID,
		CreatedAt: a.CreatedAt.UTC(),
	}, nil
}

func (repo assessmentRepository) unboilAAT2(row aat2Row) (assessment.AAT2, error) {
	var questions []json.RawMessage
	if err := row.Questions.Unmarshal(&questions); err != nil {
		return assessment.AAT2{}, err
	}
	return assessment.AAT2{
		ID:        row.ID,
		Title:     row.Title,
		Questions: questions,
		StartTime: row.StartTime.UTC(),
		EndTime:   row.EndTime.UTC(),
		Duration:  row.Duration,
		FacultyID: row.FacultyID,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

func (repo assessmentRepository) CreateAAT1(ctx context.Context, a assessment.AAT1) (assessment.AAT1, error) {
	row := aat1Row{
		ID:         uuid.New().String(),
		CourseLink: a.CourseLink,
		Deadline:   a.Deadline.UTC(),
		FacultyID:  a.FacultyID,
		CreatedAt:  a.CreatedAt.UTC(),
	}
	q := `INSERT INTO aat1 (` + aat1Columns + `) VALUES (:id, :course_link, :deadline, :faculty_id, :created_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return assessment.AAT1{}, core.NewStorageError("inserting aat1", err)
	}
	return repo.unboilAAT1(row), nil
}

func (repo assessmentRepository) GetAAT1ByID(ctx context.Context, id string) (assessment.AAT1, error) {
	var row aat1Row
	q := `SELECT ` + aat1Columns + ` FROM aat1 WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return assessment.AAT1{}, trapNoRowsErr(err, assessment.ErrAAT1NotFound, "finding aat1 by ID")
	}
	return repo.unboilAAT1(row), nil
}

func (repo assessmentRepository) QueryAAT1s(ctx context.Context, filter assessment.Filter) ([]assessment.AAT1, error) {
	var rows []aat1Row
	q, args := ownedQuery(`SELECT `+aat1Columns+` FROM aat1`, filter.FacultyID)
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, core.NewStorageError("querying aat1s", err)
	}
	aats := make([]assessment.AAT1, 0, len(rows))
	for _, row := range rows {
		aats = append(aats, repo.unboilAAT1(row))
	}
	return aats, nil
}

func (repo assessmentRepository) CreateAAT2(ctx context.Context, a assessment.AAT2) (assessment.AAT2, error) {
	a.ID = uuid.New().String()
	row, err := repo.boilAAT2(a)
	if err != nil {
		return assessment.AAT2{}, core.NewStorageError("encoding aat2 questions", err)
	}
	q := `INSERT INTO aat2 (` + aat2Columns + `)
		VALUES (:id, :title, :questions, :start_time, :end_time, :duration, :faculty_id, :created_at)`
	if _, err = repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return assessment.AAT2{}, core.NewStorageError("inserting aat2", err)
	}
	a.StartTime, a.EndTime, a.CreatedAt = row.StartTime, row.EndTime, row.CreatedAt
	return a, nil
}

func (repo assessmentRepository) GetAAT2ByID(ctx context.Context, id string) (assessment.AAT2, error) {
	var row aat2Row
	q := `SELECT ` + aat2Columns + ` FROM aat2 WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return assessment.AAT2{}, trapNoRowsErr(err, assessment.ErrAAT2NotFound, "finding aat2 by ID")
	}
	a, err := repo.unboilAAT2(row)
	if err != nil {
		return assessment.AAT2{}, core.NewStorageError("decoding aat2 questions", err)
	}
	return a, nil
}

func (repo assessmentRepository) QueryAAT2s(ctx context.Context, filter assessment.Filter) ([]assessment.AAT2, error) {
	var rows []aat2Row
	q, args := ownedQuery(`SELECT `+aat2Columns+` FROM aat2`, filter.FacultyID)
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, core.NewStorageError("querying aat2s", err)
	}
	aats := make([]assessment.AAT2, 0, len(rows))
	for _, row := range rows {
		a, err := repo.unboilAAT2(row)
		if err != nil {
			return nil, core.NewStorageError("decoding aat2 questions", err)
		}
		aats = append(aats, a)
	}
	return aats, nil
}
