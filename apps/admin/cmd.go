package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	out         io.Writer
	validate    *validator.Validate
	usrSvc      *user.Service
	usrRepo     user.Repository
	assessments assessment.Repository
	submissions submission.Repository

	// openDB connects to the postgres database; only `migrate` needs it.
	openDB func(ctx context.Context) (*sql.DB, error)
	// createDB creates the postgres role and database when missing.
	createDB func(ctx context.Context) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.output(), "Usage:")
	fmt.Fprintln(cli.output(), "  createdb - create the postgres role and database if they do not exist")
	fmt.Fprintln(cli.output(), "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.output(), "  adduser -name NAME -email EMAIL -role ROLE - add a directory user")
	fmt.Fprintln(cli.output(), "  addsubmission -student ID -aat1 ID -certificate LINK - record a student's AAT1 submission")
}

func (cli *commandLine) output() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.output())
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "One of: student, faculty, admin, superadmin.")

	addSubmissionCmd := flag.NewFlagSet("addsubmission", flag.ContinueOnError)
	addSubmissionCmd.SetOutput(cli.output())
	addSubmissionStudent := addSubmissionCmd.String("student", "", "The submitting student's ID.")
	addSubmissionAAT1 := addSubmissionCmd.String("aat1", "", "The AAT1's ID.")
	addSubmissionCert := addSubmissionCmd.String("certificate", "", "The certificate link.")

	switch args[1] {
	case "createdb":
		if cli.createDB == nil {
			return errNotPostgres
		}
		return cli.createDB(ctx)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return errHelp
			}
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, *addUserName, *addUserEmail, *addUserRole)

	case "addsubmission":
		if err := addSubmissionCmd.Parse(args[2:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return errHelp
			}
			return err
		}
		if *addSubmissionStudent == "" || *addSubmissionAAT1 == "" || *addSubmissionCert == "" {
			addSubmissionCmd.Usage()
			return errHelp
		}
		return cli.addSubmission(ctx, submission.NewSubmission{
			StudentID:   *addSubmissionStudent,
			AAT1ID:      *addSubmissionAAT1,
			Certificate: *addSubmissionCert,
		})

	default:
		cli.printUsage()
		return errHelp
	}
}
