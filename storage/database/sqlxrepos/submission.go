package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/submission"
)

const submissionColumns = "id, student_id, aat1_id, certificate, grade, created_at, updated_at"

type (
	submissionRow struct {
		ID          string      `db:"id"`
		StudentID   string      `db:"student_id"`
		AAT1ID      string      `db:"aat1_id"`
		Certificate string      `db:"certificate"`
		Grade       null.String `db:"grade"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}

	viewRow struct {
		ID          string      `db:"id"`
		StudentName string      `db:"student_name"`
		CourseTitle string      `db:"course_title"`
		Certificate string      `db:"certificate"`
		Grade       null.String `db:"grade"`
		SubmittedAt time.Time   `db:"submitted_at"`
	}
)

type submissionRepository struct {
	exec core.DBExecutor
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func (repo submissionRepository) boil(s submission.Submission) submissionRow {
	return submissionRow{
		ID:          s.ID,
		StudentID:   s.StudentID,
		AAT1ID:      s.AAT1ID,
		Certificate: s.Certificate,
		Grade:       null.StringFromPtr(s.Grade),
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
}

func (repo submissionRepository) unboil(row submissionRow) submission.Submission {
	return submission.Submission{
		ID:          row.ID,
		StudentID:   row.StudentID,
		AAT1ID:      row.AAT1ID,
		Certificate: row.Certificate,
		Grade:       row.Grade.Ptr(),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	s.ID = uuid.New().String()
	row := repo.boil(s)
	q := `INSERT INTO student_aat1 (` + submissionColumns + `)
		VALUES (:id, :student_id, :aat1_id, :certificate, :grade, :created_at, :updated_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return submission.Submission{}, core.NewStorageError("inserting submission", err)
	}
	return repo.unboil(row), nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	var row submissionRow
	q := `SELECT ` + submissionColumns + ` FROM student_aat1 WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "finding submission by ID")
	}
	return repo.unboil(row), nil
}

func (repo submissionRepository) QueryViews(ctx context.Context) ([]submission.View, error) {
	var rows []viewRow
	q := `SELECT s.id,
			COALESCE(NULLIF(u.name, ''), $1) AS student_name,
			COALESCE(NULLIF(a.course_link, ''), $1) AS course_title,
			s.certificate, s.grade, s.created_at AS submitted_at
		FROM student_aat1 s
		LEFT JOIN directory_user u ON u.id = s.student_id
		LEFT JOIN aat1 a ON a.id = s.aat1_id
		ORDER BY s.created_at DESC, s.id`
	if err := repo.exec.SelectContext(ctx, &rows, q, submission.UnknownPlaceholder); err != nil {
		return nil, core.NewStorageError("querying submissions", err)
	}
	views := make([]submission.View, 0, len(rows))
	for _, row := range rows {
		views = append(views, submission.View{
			ID:          row.ID,
			StudentName: row.StudentName,
			CourseTitle: row.CourseTitle,
			Certificate: row.Certificate,
			Grade:       row.Grade.Ptr(),
			SubmittedAt: row.SubmittedAt.UTC(),
		})
	}
	return views, nil
}

// SetGrade locks the row, overwrites its grade and returns the row as it was before the update.
func (repo submissionRepository) SetGrade(ctx context.Context, id, grade string) (submission.Submission, error) {
	var row submissionRow
	q := `WITH prev AS (SELECT id, grade FROM student_aat1 WHERE id = $1 FOR UPDATE)
		UPDATE student_aat1 s SET grade = $2, updated_at = $3
		FROM prev WHERE s.id = prev.id
		RETURNING s.id, s.student_id, s.aat1_id, s.certificate, prev.grade, s.created_at, s.updated_at`
	if err := repo.exec.GetContext(ctx, &row, q, id, grade, time.Now().UTC()); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "grading submission")
	}
	return repo.unboil(row), nil
}
