package submission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
)

// UnknownPlaceholder replaces a student name or course title that cannot be resolved.
const UnknownPlaceholder = "Unknown"

// Submission is a student's certificate submitted for an AAT1.
type Submission struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	AAT1ID      string    `json:"aat1_id"`
	Certificate string    `json:"certificate"`
	Grade       *string   `json:"grade"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (s Submission) IsGraded() bool { return s.Grade != nil }

// View is the listing projection of a Submission joined with its student and assessment.
type View struct {
	ID          string    `json:"id"`
	StudentName string    `json:"student_name"`
	CourseTitle string    `json:"course_title"`
	Certificate string    `json:"certificate"`
	Grade       *string   `json:"grade"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

// Grade is the grading input of a Submission.
type Grade struct {
	Grade string `json:"grade" validate:"required,notblank,max=32"`
}

func (g *Grade) Validate(validate *validator.Validate) error {
	g.Grade = core.CleanString(g.Grade)
	return validate.Struct(g)
}

// NewSubmission contains information needed to record a student's submission.
type NewSubmission struct {
	StudentID   string `json:"student_id" validate:"required,notblank"`
	AAT1ID      string `json:"aat1_id" validate:"required,notblank"`
	Certificate string `json:"certificate" validate:"required,notblank"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.AAT1ID = core.CleanString(ns.AAT1ID)
	ns.Certificate = core.CleanString(ns.Certificate)
	return validate.Struct(ns)
}
