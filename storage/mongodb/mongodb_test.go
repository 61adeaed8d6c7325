package mongodb

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

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

// prepareDB connects to MONGO_URI and returns a throwaway database, dropped when the test ends.
func prepareDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	conf := &core.Config{AppName: "academia-test", Mongo: core.MongoConfig{URI: uri, Database: "academia_test_" + uuid.NewString()[:8]}}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := Open(openCtx, conf)
	require.NoError(t, err)
	require.NoError(t, EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = db.Client().Disconnect(ctx)
	})
	return db
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(prepareDB(t))

	bob, err := repo.CreateUser(ctx, user.User{Name: "Bob", Email: "bob@example.com", Role: user.RoleStudent, CreatedAt: now})
	require.NoError(t, err)
	ada, err := repo.CreateUser(ctx, user.User{Name: "Ada", Email: "ada@example.com", Role: user.RoleStudent, CreatedAt: now})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, user.User{Name: "Prof", Email: "prof@example.com", Role: user.RoleFaculty, CreatedAt: now})
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, user.User{Name: "Bob 2", Email: "bob@example.com", Role: user.RoleStudent, CreatedAt: now})
	assert.True(t, core.IsStorage(err))

	got, err := repo.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, ada, got)

	_, err = repo.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrNotFound)

	users, err := repo.ResolveMany(ctx, []string{bob.ID, "ghost", ada.ID})
	require.NoError(t, err)
	assert.Equal(t, []user.User{ada, bob}, users)

	students, err := repo.QueryByRole(ctx, user.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, []user.User{ada, bob}, students)
}

func TestAssessmentRepository(t *testing.T) {
	repo := NewAssessmentRepository(prepareDB(t))

	older, err := repo.CreateAAT1(ctx, assessment.AAT1{CourseLink: "https://a", Deadline: now, FacultyID: "f1", CreatedAt: now})
	require.NoError(t, err)
	newer, err := repo.CreateAAT1(ctx, assessment.AAT1{CourseLink: "https://b", Deadline: now, FacultyID: "f1", CreatedAt: now.Add(time.Minute)})
	require.NoError(t, err)
	_, err = repo.CreateAAT1(ctx, assessment.AAT1{CourseLink: "https://c", Deadline: now, FacultyID: "f2", CreatedAt: now})
	require.NoError(t, err)

	aat1s, err := repo.QueryAAT1s(ctx, assessment.Filter{FacultyID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, []assessment.AAT1{newer, older}, aat1s)

	all, err := repo.QueryAAT1s(ctx, assessment.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	questions := []json.RawMessage{json.RawMessage(`{"q":"first","options":["a","b"]}`), json.RawMessage(`{"q":"second"}`)}
	a2, err := repo.CreateAAT2(ctx, assessment.AAT2{
		Title: "quiz", Questions: questions, StartTime: now, EndTime: now.Add(time.Hour), Duration: 30, FacultyID: "f1", CreatedAt: now,
	})
	require.NoError(t, err)

	got, err := repo.GetAAT2ByID(ctx, a2.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.JSONEq(t, string(questions[0]), string(got.Questions[0]))
	assert.JSONEq(t, string(questions[1]), string(got.Questions[1]))

	_, err = repo.GetAAT2ByID(ctx, "missing")
	assert.ErrorIs(t, err, assessment.ErrAAT2NotFound)
}

func TestRemedialRepository(t *testing.T) {
	repo := NewRemedialRepository(prepareDB(t))

	sess, err := repo.CreateSession(ctx, remedial.Session{
		Title: "recap", StartTime: now, EndTime: now.Add(time.Hour), Duration: 60, Link: "https://meet",
		FacultyID: "f1", Students: []string{"s2", "s1"}, CreatedAt: now,
	})
	require.NoError(t, err)

	got, err := repo.GetSessionByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)
	assert.Equal(t, []string{"s2", "s1"}, got.Students)

	empty, err := repo.CreateSession(ctx, remedial.Session{Title: "empty", FacultyID: "f1", CreatedAt: now.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, []string{}, empty.Students)

	sessions, err := repo.QuerySessions(ctx, remedial.Filter{FacultyID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, []remedial.Session{empty, sess}, sessions)
}

func TestSubmissionRepository(t *testing.T) {
	db := prepareDB(t)
	users := NewUserRepository(db)
	aats := NewAssessmentRepository(db)
	repo := NewSubmissionRepository(db)

	ada, err := users.CreateUser(ctx, user.User{Name: "Ada", Email: "ada@example.com", Role: user.RoleStudent, CreatedAt: now})
	require.NoError(t, err)
	aat1, err := aats.CreateAAT1(ctx, assessment.AAT1{CourseLink: "https://course", Deadline: now, FacultyID: "f1", CreatedAt: now})
	require.NoError(t, err)

	known, err := repo.CreateSubmission(ctx, submission.Submission{StudentID: ada.ID, AAT1ID: aat1.ID, Certificate: "c1", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	orphan, err := repo.CreateSubmission(ctx, submission.Submission{StudentID: "gone", AAT1ID: "gone", Certificate: "c2", CreatedAt: now.Add(time.Hour), UpdatedAt: now})
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, db.Collection(submissionsCollection).FindOne(ctx, bson.M{"certificate": "c1"}).Decode(&raw))
	assert.IsType(t, primitive.ObjectID{}, raw["_id"])
	assert.IsType(t, primitive.ObjectID{}, raw["studentId"])
	assert.IsType(t, primitive.ObjectID{}, raw["aat1Id"])
	assert.Contains(t, raw, "createdAt")
	assert.Nil(t, raw["grade"])

	views, err := repo.QueryViews(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, orphan.ID, views[0].ID)
	assert.Equal(t, submission.UnknownPlaceholder, views[0].StudentName)
	assert.Equal(t, submission.UnknownPlaceholder, views[0].CourseTitle)
	assert.Equal(t, known.ID, views[1].ID)
	assert.Equal(t, "Ada", views[1].StudentName)
	assert.Equal(t, "https://course", views[1].CourseTitle)

	prev, err := repo.SetGrade(ctx, known.ID, "A")
	require.NoError(t, err)
	assert.Nil(t, prev.Grade)
	prev, err = repo.SetGrade(ctx, known.ID, "B")
	require.NoError(t, err)
	require.NotNil(t, prev.Grade)
	assert.Equal(t, "A", *prev.Grade)

	got, err := repo.GetSubmissionByID(ctx, known.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Grade)
	assert.Equal(t, "B", *got.Grade)

	_, err = repo.SetGrade(ctx, "missing", "A")
	assert.ErrorIs(t, err, submission.ErrNotFound)
	count, err := db.Collection(submissionsCollection).CountDocuments(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
