package remedial

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
)

// Session is a scheduled remedial session and its invitee list.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"` // UTC
	EndTime     time.Time `json:"end_time"`   // UTC
	Duration    int       `json:"duration"`   // minutes
	Link        string    `json:"link"`
	FacultyID   string    `json:"faculty_id"`
	Students    []string  `json:"students"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Invitation is the data rendered in the invitation email.
type Invitation struct {
	Title           string
	Description     string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Link            string
}

func (s Session) Invitation() Invitation {
	return Invitation{
		Title:           s.Title,
		Description:     s.Description,
		StartTime:       s.StartTime.Format(time.RFC3339),
		EndTime:         s.EndTime.Format(time.RFC3339),
		DurationMinutes: s.Duration,
		Link:            s.Link,
	}
}

// NewSession contains information needed to schedule a new Session.
type NewSession struct {
	Title       string    `json:"title" validate:"required,notblank"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Duration    int       `json:"duration" validate:"required,min=1"`
	Link        string    `json:"link" validate:"required,url"`
	Students    []string  `json:"students" validate:"notblank"`
}

// Validate cleans the input and checks it. Duplicate invitees are removed, keeping the first occurrence.
func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	ns.Link = core.CleanString(ns.Link)
	ns.StartTime = ns.StartTime.UTC()
	ns.EndTime = ns.EndTime.UTC()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	ns.Students = core.UniqueStrings(ns.Students)
	return nil
}
