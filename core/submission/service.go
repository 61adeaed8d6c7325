package submission

import (
	"context"
	"fmt"

	"github.com/trezcool/academia/core"
)

// ErrNotFound is returned when a submission does not exist.
var ErrNotFound = fmt.Errorf("submission %w", core.ErrNotFound)

type Repository interface {
	CreateSubmission(ctx context.Context, s Submission) (Submission, error)
	GetSubmissionByID(ctx context.Context, id string) (Submission, error)
	// QueryViews returns every submission joined with its student name and course link, newest first.
	// Unresolvable names and titles are set to UnknownPlaceholder.
	QueryViews(ctx context.Context) ([]View, error)
	// SetGrade overwrites the grade of an existing submission and returns its previous state.
	// It never creates a submission: ErrNotFound is returned when `id` does not exist.
	SetGrade(ctx context.Context, id, grade string) (prev Submission, err error)
}
