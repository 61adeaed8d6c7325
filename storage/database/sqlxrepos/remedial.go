package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/remedial"
)

const sessionColumns = "id, title, description, start_time, end_time, duration, link, faculty_id, students, created_at"

type sessionRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	StartTime   time.Time      `db:"start_time"`
	EndTime     time.Time      `db:"end_time"`
	Duration    int            `db:"duration"`
	Link        string         `db:"link"`
	FacultyID   string         `db:"faculty_id"`
	Students    pq.StringArray `db:"students"`
	CreatedAt   time.Time      `db:"created_at"`
}

type remedialRepository struct {
	exec core.DBExecutor
}

var _ remedial.Repository = (*remedialRepository)(nil) // interface compliance check

func NewRemedialRepository(exec core.DBExecutor) *remedialRepository {
	return &remedialRepository{exec: exec}
}

func (repo remedialRepository) boil(s remedial.Session) sessionRow {
	students := s.Students
	if students == nil {
		students = []string{}
	}
	return sessionRow{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		StartTime:   s.StartTime.UTC(),
		EndTime:     s.EndTime.UTC(),
		Duration:    s.Duration,
		Link:        s.Link,
		FacultyID:   s.FacultyID,
		Students:    students,
		CreatedAt:   s.CreatedAt.UTC(),
	}
}

func (repo remedialRepository) unboil(row sessionRow) remedial.Session {
	students := []string(row.Students)
	if students == nil {
		students = []string{}
	}
	return remedial.Session{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		StartTime:   row.StartTime.UTC(),
		EndTime:     row.EndTime.UTC(),
		Duration:    row.Duration,
		Link:        row.Link,
		FacultyID:   row.FacultyID,
		Students:    students,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

// CreateSession inserts the session and its invitee array in a single statement.
func (repo remedialRepository) CreateSession(ctx context.Context, s remedial.Session) (remedial.Session, error) {
	s.ID = uuid.New().String()
	row := repo.boil(s)
	q := `INSERT INTO remedial_session (` + sessionColumns + `)
		VALUES (:id, :title, :description, :start_time, :end_time, :duration, :link, :faculty_id, :students, :created_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return remedial.Session{}, core.NewStorageError("inserting remedial session", err)
	}
	return repo.unboil(row), nil
}

func (repo remedialRepository) GetSessionByID(ctx context.Context, id string) (remedial.Session, error) {
	var row sessionRow
	q := `SELECT ` + sessionColumns + ` FROM remedial_session WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return remedial.Session{}, trapNoRowsErr(err, remedial.ErrNotFound, "finding remedial session by ID")
	}
	return repo.unboil(row), nil
}

func (repo remedialRepository) QuerySessions(ctx context.Context, filter remedial.Filter) ([]remedial.Session, error) {
	var rows []sessionRow
	q, args := ownedQuery(`SELECT `+sessionColumns+` FROM remedial_session`, filter.FacultyID)
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, core.NewStorageError("querying remedial sessions", err)
	}
	sessions := make([]remedial.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, repo.unboil(row))
	}
	return sessions, nil
}
