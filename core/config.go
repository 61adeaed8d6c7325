package core

import (
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
	StorageMemory   = "memory"
)

type (
	ServerConfig struct {
		Host            string
		Port            int
		DebugHost       string
		AllowedOrigins  []string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		JWTAudience     string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
	}

	MongoConfig struct {
		URI      string
		Database string
	}

	NotifyConfig struct {
		Workers       int
		QueueSize     int
		RatePerSecond float64
		SendTimeout   time.Duration
	}

	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		SendgridAPIKey   string
		RollbarToken     string
		Storage          string
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Mongo    MongoConfig
		Notify   NotifyConfig
	}
)

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

func (conf *Config) ServerAddr() string {
	return net.JoinHostPort(conf.Server.Host, strconv.Itoa(conf.Server.Port))
}

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

// NewConfig loads the configuration for the current ENV.
// Values are read from the environment (prefixed with the ENV name, eg. `PROD_DEBUG=false`),
// falling back to `config/.env.<env>` when it exists, then to defaults.
func NewConfig() (*Config, error) {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	setDefaults(v, env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Storage:          strings.ToLower(v.GetString("storage")),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			DebugHost:       v.GetString("server.debugHost"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			JWTAudience:     v.GetString("server.jwtAudience"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			MaxOpenConns:  v.GetInt("database.maxOpenConns"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
		},
		Notify: NotifyConfig{
			Workers:       v.GetInt("notify.workers"),
			QueueSize:     v.GetInt("notify.queueSize"),
			RatePerSecond: v.GetFloat64("notify.ratePerSecond"),
			SendTimeout:   v.GetDuration("notify.sendTimeout"),
		},
	}

	conf.Server.AllowedOrigins = []string{"http://localhost:5173"}
	if conf.FrontendBaseURL != "" {
		conf.Server.AllowedOrigins = append(conf.Server.AllowedOrigins, conf.FrontendBaseURL)
	}

	if err := conf.check(); err != nil {
		return nil, err
	}
	return conf, nil
}

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Academia")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("secretKey", "z8&q2!vd0n^w6p$t@3fk)yb1h*re9(cm5sx7lu=4g+ja_oi")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "")
	v.SetDefault("sendgridAPIKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("storage", StoragePostgres)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtAudience", "Academia")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "academia")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("database.maxOpenConns", 25)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "academia")

	v.SetDefault("notify.workers", 4)
	v.SetDefault("notify.queueSize", 256)
	v.SetDefault("notify.ratePerSecond", 10.0)
	v.SetDefault("notify.sendTimeout", 10*time.Second)
}

func (conf *Config) check() error {
	switch conf.Storage {
	case StoragePostgres, StorageMongo, StorageMemory:
	default:
		return errors.Errorf("config: unknown storage %q", conf.Storage)
	}
	if conf.Notify.Workers < 1 {
		return errors.Errorf("config: notify.workers must be >= 1 (got %d)", conf.Notify.Workers)
	}
	if conf.Notify.QueueSize < 0 {
		return errors.Errorf("config: notify.queueSize must be >= 0 (got %d)", conf.Notify.QueueSize)
	}
	if !conf.Debug && conf.SendgridAPIKey == "" && !conf.TestMode {
		return errors.New("config: sendgridAPIKey is required outside debug mode")
	}
	return nil
}
