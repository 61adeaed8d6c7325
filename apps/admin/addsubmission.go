package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/submission"
)

var errNotStudent = errors.New("only students can submit")

// addSubmission records a student's certificate for an existing AAT1.
func (cli *commandLine) addSubmission(ctx context.Context, ns submission.NewSubmission) error {
	if err := ns.Validate(cli.validate); err != nil {
		return err
	}

	student, err := cli.usrRepo.GetUserByID(ctx, ns.StudentID)
	if err != nil {
		return errors.Wrap(err, "resolving student")
	}
	if !student.IsStudent() {
		return core.NewValidationError(errNotStudent, core.FieldError{Field: "student_id", Error: errNotStudent.Error()})
	}
	if _, err = cli.assessments.GetAAT1ByID(ctx, ns.AAT1ID); err != nil {
		return errors.Wrap(err, "resolving aat1")
	}

	now := time.Now().UTC()
	s, err := cli.submissions.CreateSubmission(ctx, submission.Submission{
		StudentID:   ns.StudentID,
		AAT1ID:      ns.AAT1ID,
		Certificate: ns.Certificate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.output(), "recorded submission %s\n", s.ID)
	return nil
}
