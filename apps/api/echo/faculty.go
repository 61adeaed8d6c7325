package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/faculty"
	"github.com/trezcool/academia/core/remedial"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
)

// FacultyService is the set of faculty workflows served over HTTP.
type FacultyService interface {
	CreateAAT1(ctx context.Context, p user.Principal, na assessment.NewAAT1) (assessment.AAT1, error)
	CreateAAT2(ctx context.Context, p user.Principal, na assessment.NewAAT2) (assessment.AAT2, error)
	CreateRemedialSession(ctx context.Context, p user.Principal, ns remedial.NewSession) (remedial.Session, error)
	ListStudents(ctx context.Context, p user.Principal) ([]user.User, error)
	ListSubmissions(ctx context.Context, p user.Principal) ([]submission.View, error)
	GradeSubmission(ctx context.Context, p user.Principal, id string, g submission.Grade) error

	GetAAT1(ctx context.Context, p user.Principal, id string) (assessment.AAT1, error)
	GetAAT2(ctx context.Context, p user.Principal, id string) (assessment.AAT2, error)
	GetRemedialSession(ctx context.Context, p user.Principal, id string) (remedial.Session, error)
	ListAAT1s(ctx context.Context, p user.Principal) ([]assessment.AAT1, error)
	ListAAT2s(ctx context.Context, p user.Principal) ([]assessment.AAT2, error)
	ListRemedialSessions(ctx context.Context, p user.Principal) ([]remedial.Session, error)
}

var _ FacultyService = (*faculty.Service)(nil)

const gradeUpdatedMsg = "Grade updated successfully"

type facultyApi struct {
	svc FacultyService
}

func registerFacultyAPI(g *echo.Group, svc FacultyService) {
	api := facultyApi{svc: svc}

	fg := g.Group("/faculty")
	fg.GET("/students", api.queryStudents)

	fg.POST("/aat1", api.createAAT1)
	fg.GET("/aat1", api.queryAAT1s)
	fg.GET("/aat1/submissions", api.querySubmissions)
	fg.PUT("/aat1/submissions/:id/grade", api.gradeSubmission)
	fg.GET("/aat1/:id", api.retrieveAAT1)

	fg.POST("/aat2", api.createAAT2)
	fg.GET("/aat2", api.queryAAT2s)
	fg.GET("/aat2/:id", api.retrieveAAT2)

	fg.POST("/remedial-sessions", api.createRemedialSession)
	fg.GET("/remedial-sessions", api.queryRemedialSessions)
	fg.GET("/remedial-sessions/:id", api.retrieveRemedialSession)
}

// Handlers

func (api *facultyApi) createAAT1(ctx echo.Context) error {
	var data assessment.NewAAT1
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAAT1")
	}
	aat, err := api.svc.CreateAAT1(ctx.Request().Context(), principal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating aat1")
	}
	return ctx.JSON(http.StatusCreated, aat)
}

func (api *facultyApi) queryAAT1s(ctx echo.Context) error {
	aats, err := api.svc.ListAAT1s(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying aat1s")
	}
	return ctx.JSON(http.StatusOK, aats)
}

func (api *facultyApi) retrieveAAT1(ctx echo.Context) error {
	aat, err := api.svc.GetAAT1(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving aat1")
	}
	return ctx.JSON(http.StatusOK, aat)
}

func (api *facultyApi) createAAT2(ctx echo.Context) error {
	var data assessment.NewAAT2
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAAT2")
	}
	aat, err := api.svc.CreateAAT2(ctx.Request().Context(), principal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating aat2")
	}
	return ctx.JSON(http.StatusCreated, aat)
}

func (api *facultyApi) queryAAT2s(ctx echo.Context) error {
	aats, err := api.svc.ListAAT2s(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying aat2s")
	}
	return ctx.JSON(http.StatusOK, aats)
}

func (api *facultyApi) retrieveAAT2(ctx echo.Context) error {
	aat, err := api.svc.GetAAT2(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving aat2")
	}
	return ctx.JSON(http.StatusOK, aat)
}

func (api *facultyApi) createRemedialSession(ctx echo.Context) error {
	var data remedial.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	sess, err := api.svc.CreateRemedialSession(ctx.Request().Context(), principal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating remedial session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *facultyApi) queryRemedialSessions(ctx echo.Context) error {
	sessions, err := api.svc.ListRemedialSessions(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying remedial sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *facultyApi) retrieveRemedialSession(ctx echo.Context) error {
	sess, err := api.svc.GetRemedialSession(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving remedial session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *facultyApi) queryStudents(ctx echo.Context) error {
	students, err := api.svc.ListStudents(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *facultyApi) querySubmissions(ctx echo.Context) error {
	views, err := api.svc.ListSubmissions(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *facultyApi) gradeSubmission(ctx echo.Context) error {
	var data submission.Grade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grade")
	}
	if err := api.svc.GradeSubmission(ctx.Request().Context(), principal(ctx), ctx.Param("id"), data); err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": gradeUpdatedMsg})
}
