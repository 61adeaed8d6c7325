package faculty

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/remedial"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
)

const (
	// KindRemedialInvitation names the invitation email template and its delivery metrics.
	KindRemedialInvitation = "remedial_invitation"

	remedialInvitationSubject = "Remedial Session Notification"
	resolveTimeout            = 5 * time.Second
)

type (
	// Dispatcher hands a batch of messages over for background delivery without blocking.
	// It reports false when the whole batch was dropped.
	Dispatcher interface {
		Dispatch(kind string, msgs ...*core.EmailMessage) bool
	}

	Options struct {
		Assessments assessment.Repository
		Sessions    remedial.Repository
		Submissions submission.Repository
		Users       user.Repository
		Dispatcher  Dispatcher
		Validate    *validator.Validate
		Logger      core.Logger
	}

	// Service coordinates the faculty workflows. It holds no mutable state.
	Service struct {
		assessments assessment.Repository
		sessions    remedial.Repository
		submissions submission.Repository
		users       user.Repository
		dispatcher  Dispatcher
		validate    *validator.Validate
		logger      core.Logger
	}
)

func NewService(opts Options) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		core.IsNotNil(opts.Assessments, "Assessments"),
		core.IsNotNil(opts.Sessions, "Sessions"),
		core.IsNotNil(opts.Submissions, "Submissions"),
		core.IsNotNil(opts.Users, "Users"),
		core.IsNotNil(opts.Dispatcher, "Dispatcher"),
		core.IsNotNil(opts.Validate, "Validate"),
		core.IsNotNil(opts.Logger, "Logger"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "faculty.NewService")
	}
	return &Service{
		assessments: opts.Assessments,
		sessions:    opts.Sessions,
		submissions: opts.Submissions,
		users:       opts.Users,
		dispatcher:  opts.Dispatcher,
		validate:    opts.Validate,
		logger:      opts.Logger,
	}, nil
}

// CreateAAT1 persists a new AAT1 owned by `p`.
func (svc *Service) CreateAAT1(ctx context.Context, p user.Principal, na assessment.NewAAT1) (assessment.AAT1, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return assessment.AAT1{}, err
	}
	if err := na.Validate(svc.validate); err != nil {
		return assessment.AAT1{}, err
	}

	a, err := svc.assessments.CreateAAT1(context.WithoutCancel(ctx), assessment.AAT1{
		CourseLink: na.CourseLink,
		Deadline:   na.Deadline,
		FacultyID:  p.ID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return assessment.AAT1{}, storageErr("creating aat1", err)
	}
	return a, nil
}

// CreateAAT2 persists a new AAT2 owned by `p`.
func (svc *Service) CreateAAT2(ctx context.Context, p user.Principal, na assessment.NewAAT2) (assessment.AAT2, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return assessment.AAT2{}, err
	}
	if err := na.Validate(svc.validate); err != nil {
		return assessment.AAT2{}, err
	}

	a, err := svc.assessments.CreateAAT2(context.WithoutCancel(ctx), assessment.AAT2{
		Title:     na.Title,
		Questions: na.Questions,
		StartTime: na.StartTime,
		EndTime:   na.EndTime,
		Duration:  na.Duration,
		FacultyID: p.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return assessment.AAT2{}, storageErr("creating aat2", err)
	}
	return a, nil
}

// CreateRemedialSession persists a session with its invitee list, then queues one invitation per
// resolvable invitee. Delivery happens in the background: its failures never fail the creation.
func (svc *Service) CreateRemedialSession(ctx context.Context, p user.Principal, ns remedial.NewSession) (remedial.Session, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return remedial.Session{}, err
	}
	if err := ns.Validate(svc.validate); err != nil {
		return remedial.Session{}, err
	}

	students := ns.Students
	if students == nil {
		students = []string{}
	}
	sess, err := svc.sessions.CreateSession(context.WithoutCancel(ctx), remedial.Session{
		Title:       ns.Title,
		Description: ns.Description,
		StartTime:   ns.StartTime,
		EndTime:     ns.EndTime,
		Duration:    ns.Duration,
		Link:        ns.Link,
		FacultyID:   p.ID,
		Students:    students,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return remedial.Session{}, storageErr("creating remedial session", err)
	}

	svc.notifyInvitees(ctx, p, sess)
	return sess, nil
}

func (svc *Service) notifyInvitees(ctx context.Context, p user.Principal, sess remedial.Session) {
	if len(sess.Students) == 0 {
		return
	}

	// the session is committed: resolution is not tied to the caller anymore
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
	defer cancel()

	invitees, err := svc.users.ResolveMany(rctx, sess.Students)
	if err != nil {
		svc.logger.Error("resolving remedial session invitees", errors.Wrap(err, "resolving invitees"),
			map[string]interface{}{"session": sess.ID, "invitees": len(sess.Students)}, p)
		return
	}
	if len(invitees) < len(sess.Students) {
		svc.logger.Info("some remedial session invitees could not be resolved", map[string]interface{}{
			"session":    sess.ID,
			"invitees":   len(sess.Students),
			"resolved":   len(invitees),
			"unresolved": len(sess.Students) - len(invitees),
		})
	}

	data := sess.Invitation()
	msgs := make([]*core.EmailMessage, 0, len(invitees))
	for _, inv := range invitees {
		if inv.Email == "" {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: inv.Name, Address: inv.Email}},
			Subject:      remedialInvitationSubject,
			TemplateName: KindRemedialInvitation,
			TemplateData: data,
		})
	}
	if !svc.dispatcher.Dispatch(KindRemedialInvitation, msgs...) {
		svc.logger.Warn("remedial session invitations dropped", map[string]interface{}{
			"session":  sess.ID,
			"messages": len(msgs),
		})
	}
}

// ListStudents returns every directory entry with the student role, ordered by name.
func (svc *Service) ListStudents(ctx context.Context, p user.Principal) ([]user.User, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return nil, err
	}
	students, err := svc.users.QueryByRole(ctx, user.RoleStudent)
	if err != nil {
		return nil, storageErr("querying students", err)
	}
	return students, nil
}

// ListSubmissions returns every submission, newest first, with its student name and course title.
func (svc *Service) ListSubmissions(ctx context.Context, p user.Principal) ([]submission.View, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return nil, err
	}
	views, err := svc.submissions.QueryViews(ctx)
	if err != nil {
		return nil, storageErr("querying submissions", err)
	}
	return views, nil
}

// GradeSubmission overwrites the grade of an existing submission. The last write wins.
func (svc *Service) GradeSubmission(ctx context.Context, p user.Principal, id string, g submission.Grade) error {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return err
	}
	if err := g.Validate(svc.validate); err != nil {
		return err
	}

	prev, err := svc.submissions.SetGrade(context.WithoutCancel(ctx), core.CleanString(id), g.Grade)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			return submission.ErrNotFound
		}
		return storageErr("grading submission", err)
	}
	if prev.IsGraded() {
		svc.logger.Info("submission re-graded", map[string]interface{}{
			"submission": prev.ID,
			"previous":   *prev.Grade,
			"grade":      g.Grade,
		}, p)
	}
	return nil
}

// GetAAT1 returns the AAT1 `id` when `p` owns it or is an admin.
func (svc *Service) GetAAT1(ctx context.Context, p user.Principal, id string) (assessment.AAT1, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return assessment.AAT1{}, err
	}
	a, err := svc.assessments.GetAAT1ByID(ctx, core.CleanString(id))
	if err != nil {
		if errors.Is(err, assessment.ErrAAT1NotFound) {
			return assessment.AAT1{}, assessment.ErrAAT1NotFound
		}
		return assessment.AAT1{}, storageErr("getting aat1", err)
	}
	if !canRead(p, a.FacultyID) {
		return assessment.AAT1{}, assessment.ErrAAT1NotFound
	}
	return a, nil
}

// GetAAT2 returns the AAT2 `id` when `p` owns it or is an admin.
func (svc *Service) GetAAT2(ctx context.Context, p user.Principal, id string) (assessment.AAT2, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return assessment.AAT2{}, err
	}
	a, err := svc.assessments.GetAAT2ByID(ctx, core.CleanString(id))
	if err != nil {
		if errors.Is(err, assessment.ErrAAT2NotFound) {
			return assessment.AAT2{}, assessment.ErrAAT2NotFound
		}
		return assessment.AAT2{}, storageErr("getting aat2", err)
	}
	if !canRead(p, a.FacultyID) {
		return assessment.AAT2{}, assessment.ErrAAT2NotFound
	}
	return a, nil
}

// GetRemedialSession returns the session `id` when `p` owns it or is an admin.
func (svc *Service) GetRemedialSession(ctx context.Context, p user.Principal, id string) (remedial.Session, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return remedial.Session{}, err
	}
	sess, err := svc.sessions.GetSessionByID(ctx, core.CleanString(id))
	if err != nil {
		if errors.Is(err, remedial.ErrNotFound) {
			return remedial.Session{}, remedial.ErrNotFound
		}
		return remedial.Session{}, storageErr("getting remedial session", err)
	}
	if !canRead(p, sess.FacultyID) {
		return remedial.Session{}, remedial.ErrNotFound
	}
	return sess, nil
}

// ListAAT1s returns the AAT1s owned by `p` (all of them for admins), newest first.
func (svc *Service) ListAAT1s(ctx context.Context, p user.Principal) ([]assessment.AAT1, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return nil, err
	}
	aats, err := svc.assessments.QueryAAT1s(ctx, assessment.Filter{FacultyID: ownerFilter(p)})
	if err != nil {
		return nil, storageErr("querying aat1s", err)
	}
	return aats, nil
}

// ListAAT2s returns the AAT2s owned by `p` (all of them for admins), newest first.
func (svc *Service) ListAAT2s(ctx context.Context, p user.Principal) ([]assessment.AAT2, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return nil, err
	}
	aats, err := svc.assessments.QueryAAT2s(ctx, assessment.Filter{FacultyID: ownerFilter(p)})
	if err != nil {
		return nil, storageErr("querying aat2s", err)
	}
	return aats, nil
}

// ListRemedialSessions returns the sessions owned by `p` (all of them for admins), newest first.
func (svc *Service) ListRemedialSessions(ctx context.Context, p user.Principal) ([]remedial.Session, error) {
	if err := user.Authorize(p, user.WriterRoles...); err != nil {
		return nil, err
	}
	sessions, err := svc.sessions.QuerySessions(ctx, remedial.Filter{FacultyID: ownerFilter(p)})
	if err != nil {
		return nil, storageErr("querying remedial sessions", err)
	}
	return sessions, nil
}

func canRead(p user.Principal, ownerID string) bool {
	return p.IsAdmin() || p.ID == ownerID
}

func ownerFilter(p user.Principal) string {
	if p.IsAdmin() {
		return ""
	}
	return p.ID
}

// storageErr wraps `err` as a core.StorageError unless it already is one.
func storageErr(op string, err error) error {
	if core.IsStorage(err) {
		return err
	}
	return core.NewStorageError(op, err)
}
