package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
)

// NewValidator returns a validator configured like the application's.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New(validator.WithRequiredStructEnabled())
	core.InitValidators(validate, translator)
	return validate, translator
}

// NopLogger discards every log entry.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

func CreateUser(t *testing.T, repo user.Repository, name, email, role string, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAAT1(t *testing.T, repo assessment.Repository, facultyID, courseLink string, createdAt ...time.Time) assessment.AAT1 {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	a, err := repo.CreateAAT1(context.Background(), assessment.AAT1{
		CourseLink: courseLink,
		Deadline:   tstamp.Add(7 * 24 * time.Hour),
		FacultyID:  facultyID,
		CreatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateAAT1() failed: %v", err)
	}
	return a
}

func CreateSubmission(t *testing.T, repo submission.Repository, studentID, aat1ID, certificate string, createdAt ...time.Time) submission.Submission {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	s, err := repo.CreateSubmission(context.Background(), submission.Submission{
		StudentID:   studentID,
		AAT1ID:      aat1ID,
		Certificate: certificate,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return s
}
