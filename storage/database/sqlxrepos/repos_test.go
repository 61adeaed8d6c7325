package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/remedial"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
)

var (
	ctx = context.Background()
	now = time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestUserRepository_ResolveMany(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	ids := []string{"u1", "ghost", "u2"}
	mock.ExpectQuery(`SELECT (.+) FROM directory_user WHERE id = ANY\(\$1\)`).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at"}).
			AddRow("u1", "Ada", "ada@example.com", user.RoleStudent, now).
			AddRow("u2", "Bob", "bob@example.com", user.RoleStudent, now))

	users, err := repo.ResolveMany(ctx, ids)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada@example.com", users[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ResolveManyEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	users, err := NewUserRepository(db).ResolveMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet()) // no query
}

func TestUserRepository_GetUserByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM directory_user WHERE id = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err := repo.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, user.ErrNotFound)

	mock.ExpectQuery(`FROM directory_user WHERE id = \$1`).WithArgs("u1").WillReturnError(errors.New("conn reset"))
	_, err = repo.GetUserByID(ctx, "u1")
	assert.True(t, core.IsStorage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_QueryByRole(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM directory_user WHERE role = \$1 ORDER BY name, id`).
		WithArgs(user.RoleStudent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at"}).
			AddRow("u1", "Ada", "ada@example.com", user.RoleStudent, now))

	users, err := NewUserRepository(db).QueryByRole(ctx, user.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, []user.User{{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: user.RoleStudent, CreatedAt: now}}, users)
}

func TestAssessmentRepository_CreateAAT2(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssessmentRepository(db)

	questions := []json.RawMessage{json.RawMessage(`{"q":"2+2?"}`)}
	mock.ExpectExec(`INSERT INTO aat2`).
		WithArgs(sqlmock.AnyArg(), "Quiz", []byte(`[{"q":"2+2?"}]`), now, now.Add(time.Hour), 60, "f1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := repo.CreateAAT2(ctx, assessment.AAT2{
		Title: "Quiz", Questions: questions, StartTime: now, EndTime: now.Add(time.Hour),
		Duration: 60, FacultyID: "f1", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "f1", a.FacultyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepository_QueryAAT1s(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssessmentRepository(db)

	mock.ExpectQuery(`FROM aat1 WHERE faculty_id = \$1 ORDER BY created_at DESC, id ASC`).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_link", "deadline", "faculty_id", "created_at"}).
			AddRow("a2", "https://c/2", now, "f1", now.Add(time.Minute)).
			AddRow("a1", "https://c/1", now, "f1", now))
	aats, err := repo.QueryAAT1s(ctx, assessment.Filter{FacultyID: "f1"})
	require.NoError(t, err)
	require.Len(t, aats, 2)
	assert.Equal(t, "a2", aats[0].ID)

	mock.ExpectQuery(`FROM aat1 ORDER BY created_at DESC, id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_link", "deadline", "faculty_id", "created_at"}))
	aats, err = repo.QueryAAT1s(ctx, assessment.Filter{})
	require.NoError(t, err)
	assert.Empty(t, aats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepository_GetAAT2ByID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM aat2 WHERE id = \$1`).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "questions", "start_time", "end_time", "duration", "faculty_id", "created_at"}).
			AddRow("a1", "Quiz", []byte(`[{"q":1},{"q":2}]`), now, now.Add(time.Hour), 60, "f1", now))

	a, err := NewAssessmentRepository(db).GetAAT2ByID(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, a.Questions, 2)
	assert.JSONEq(t, `{"q":2}`, string(a.Questions[1]))
}

func TestRemedialRepository_CreateSession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRemedialRepository(db)

	mock.ExpectExec(`INSERT INTO remedial_session`).
		WithArgs(sqlmock.AnyArg(), "Algebra", "", now, now.Add(time.Hour), 60, "https://meet/x", "f1",
			pq.StringArray{"s1", "ghost"}, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sess, err := repo.CreateSession(ctx, remedial.Session{
		Title: "Algebra", StartTime: now, EndTime: now.Add(time.Hour), Duration: 60,
		Link: "https://meet/x", FacultyID: "f1", Students: []string{"s1", "ghost"}, CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "ghost"}, sess.Students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemedialRepository_CreateSessionFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO remedial_session`).WillReturnError(errors.New("disk full"))

	_, err := NewRemedialRepository(db).CreateSession(ctx, remedial.Session{Title: "x"})
	var sErr *core.StorageError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "inserting remedial session", sErr.Op)
}

func TestSubmissionRepository_QueryViews(t *testing.T) {
	db, mock := newMockDB(t)
	grade := "A"
	mock.ExpectQuery(`FROM student_aat1 s\s+LEFT JOIN directory_user u (.+) ORDER BY s.created_at DESC`).
		WithArgs(submission.UnknownPlaceholder).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_name", "course_title", "certificate", "grade", "submitted_at"}).
			AddRow("s2", "Unknown", "https://c/1", "cert2", nil, now.Add(time.Minute)).
			AddRow("s1", "Ada", "Unknown", "cert1", grade, now))

	views, err := NewSubmissionRepository(db).QueryViews(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Nil(t, views[0].Grade)
	assert.Equal(t, submission.UnknownPlaceholder, views[0].StudentName)
	require.NotNil(t, views[1].Grade)
	assert.Equal(t, grade, *views[1].Grade)
}

func TestSubmissionRepository_SetGrade(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubmissionRepository(db)
	cols := []string{"id", "student_id", "aat1_id", "certificate", "grade", "created_at", "updated_at"}

	mock.ExpectQuery(`WITH prev AS \(SELECT id, grade FROM student_aat1 WHERE id = \$1 FOR UPDATE\)`).
		WithArgs("s1", "B", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("s1", "u1", "a1", "cert", "A", now, now))
	prev, err := repo.SetGrade(ctx, "s1", "B")
	require.NoError(t, err)
	require.NotNil(t, prev.Grade)
	assert.Equal(t, "A", *prev.Grade)

	mock.ExpectQuery(`WITH prev AS`).
		WithArgs("missing", "B", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.SetGrade(ctx, "missing", "B")
	assert.ErrorIs(t, err, submission.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
