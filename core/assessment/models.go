package assessment

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
)

// AAT1 is a course-completion assignment: students submit a certificate for the linked course.
type AAT1 struct {
	ID         string    `json:"id"`
	CourseLink string    `json:"course_link"`
	Deadline   time.Time `json:"deadline"` // UTC
	FacultyID  string    `json:"faculty_id"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// AAT2 is a timed question set.
type AAT2 struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Questions []json.RawMessage `json:"questions"`
	StartTime time.Time         `json:"start_time"` // UTC
	EndTime   time.Time         `json:"end_time"`   // UTC
	Duration  int               `json:"duration"`   // minutes
	FacultyID string            `json:"faculty_id"`
	CreatedAt time.Time         `json:"created_at"` // UTC
}

// NewAAT1 contains information needed to create a new AAT1.
// The owner is always the caller and is never read from the input.
type NewAAT1 struct {
	CourseLink string    `json:"course_link" validate:"required,url"`
	Deadline   time.Time `json:"deadline" validate:"required"`
}

func (na *NewAAT1) Validate(validate *validator.Validate) error {
	na.CourseLink = core.CleanString(na.CourseLink)
	na.Deadline = na.Deadline.UTC()
	return validate.Struct(na)
}

// NewAAT2 contains information needed to create a new AAT2.
type NewAAT2 struct {
	Title     string            `json:"title" validate:"required,notblank"`
	Questions []json.RawMessage `json:"questions" validate:"required,min=1,jsonobjects"`
	StartTime time.Time         `json:"start_time" validate:"required"`
	EndTime   time.Time         `json:"end_time" validate:"required,gtfield=StartTime"`
	Duration  int               `json:"duration" validate:"required,min=1"`
}

func (na *NewAAT2) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.StartTime = na.StartTime.UTC()
	na.EndTime = na.EndTime.UTC()
	return validate.Struct(na)
}
