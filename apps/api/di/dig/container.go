package dig_container

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/faculty"
	"github.com/trezcool/academia/core/remedial"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
	emailsvc "github.com/trezcool/academia/services/email"
	logsvc "github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/services/metrics"
	"github.com/trezcool/academia/services/notify"
	"github.com/trezcool/academia/storage/database"
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
	"github.com/trezcool/academia/storage/database/sqlxrepos"
	"github.com/trezcool/academia/storage/mongodb"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// StoreCloser releases the storage backend.
	StoreCloser func(ctx context.Context) error

	Stores struct {
		dig.Out
		Users       user.Repository
		Assessments assessment.Repository
		Sessions    remedial.Repository
		Submissions submission.Repository
		Closer      StoreCloser
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newValidation() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	core.InitValidators(validate, translator)
	return validate, translator
}

func newStores(conf *core.Config, loggerParam DBLoggerParam) (Stores, error) {
	ctx := context.Background()
	logger := loggerParam.Logger

	switch conf.Storage {
	case core.StoragePostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return Stores{}, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return Stores{}, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return Stores{}, err
		}
		logger.Info("postgres storage ready")
		return Stores{
			Users:       sqlxrepos.NewUserRepository(db),
			Assessments: sqlxrepos.NewAssessmentRepository(db),
			Sessions:    sqlxrepos.NewRemedialRepository(db),
			Submissions: sqlxrepos.NewSubmissionRepository(db),
			Closer:      func(context.Context) error { return db.Close() },
		}, nil

	case core.StorageMongo:
		db, err := mongodb.Open(ctx, conf)
		if err != nil {
			return Stores{}, err
		}
		if err = mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return Stores{}, err
		}
		logger.Info("mongo storage ready")
		return Stores{
			Users:       mongodb.NewUserRepository(db),
			Assessments: mongodb.NewAssessmentRepository(db),
			Sessions:    mongodb.NewRemedialRepository(db),
			Submissions: mongodb.NewSubmissionRepository(db),
			Closer:      func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
		}, nil

	case core.StorageMemory:
		db := inmemdb.Open()
		logger.Warn("in-memory storage: data will not survive a restart")
		return Stores{
			Users:       inmemdb.NewUserRepository(db),
			Assessments: inmemdb.NewAssessmentRepository(db),
			Sessions:    inmemdb.NewRemedialRepository(db),
			Submissions: inmemdb.NewSubmissionRepository(db),
			Closer:      func(context.Context) error { return nil },
		}, nil
	}
	return Stores{}, errors.Errorf("unknown storage backend %q", conf.Storage)
}

func newEmailService(conf *core.Config) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(log.New(os.Stdout, "EMAIL : ", log.LstdFlags), conf)
	}
	return emailsvc.NewSendgridService(conf)
}

func newMetrics() (*metrics.Collectors, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg)
}

func newDispatcher(conf *core.Config, mailer core.EmailService, logger core.Logger, col *metrics.Collectors) (*notify.Dispatcher, error) {
	return notify.NewDispatcher(mailer, logger, notify.OptionsFromConfig(conf.Notify), col)
}

func newFacultyService(
	users user.Repository,
	assessments assessment.Repository,
	sessions remedial.Repository,
	submissions submission.Repository,
	dispatcher *notify.Dispatcher,
	validate *validator.Validate,
	logger core.Logger,
) (*faculty.Service, error) {
	return faculty.NewService(faculty.Options{
		Assessments: assessments,
		Sessions:    sessions,
		Submissions: submissions,
		Users:       users,
		Dispatcher:  dispatcher,
		Validate:    validate,
		Logger:      logger,
	})
}

func newServer(
	conf *core.Config,
	svc *faculty.Service,
	translator ut.Translator,
	logger core.Logger,
	col *metrics.Collectors,
) (echoapi.Server, error) {
	return echoapi.NewServer(&echoapi.Options{
		Address:        conf.ServerAddr(),
		Debug:          conf.Debug,
		AllowedOrigins: conf.Server.AllowedOrigins,
		ReadTimeout:    conf.Server.ReadTimeout,
		WriteTimeout:   conf.Server.WriteTimeout,
		JWTSecret:      []byte(conf.SecretKey),
		JWTAudience:    conf.Server.JWTAudience,
		FacultySvc:     svc,
		Translator:     translator,
		Logger:         logger,
		Metrics:        col.EchoMiddleware(),
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newValidation))
	must(c.Provide(newStores))
	must(c.Provide(newEmailService))
	must(c.Provide(newMetrics))
	must(c.Provide(newDispatcher))
	must(c.Provide(newFacultyService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
