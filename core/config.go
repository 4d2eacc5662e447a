package core

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Storage modes
const (
	AuthModeFile = "file"
	AuthModeDB   = "db"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not set or empty")
	errAuthMode      = errors.New("unsupported auth mode")
)

type (
	Config struct {
		Env     string
		Debug   bool
		Build   string
		AppName string
		// TestMode is on when ENV=TEST.
		TestMode bool

		SecretKey          string
		JWTExpirationDelta time.Duration

		AuthMode string
		LogLevel string

		RollbarToken string
		SentryDSN    string

		Server   ServerConfig
		Storage  StorageConfig
		Schedule ScheduleConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host            string
		Port            int
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	StorageConfig struct {
		DataDir string
	}

	ScheduleConfig struct {
		CatalogFile      string
		Timezone         string
		RejectDuplicates bool
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       int
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}
)

// Address returns the host:port the API server listens on.
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Location resolves the school timezone. Unknown names fall back to time.Local.
func (c ScheduleConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Autoschool")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", time.Hour)
	v.SetDefault("auth.mode", AuthModeFile)
	v.SetDefault("log.level", "info")
	v.SetDefault("rollbar.token", "")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debugHost", "localhost:5001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("storage.dataDir", "data")
	v.SetDefault("catalog.file", filepath.Join("config", "catalog.json"))
	v.SetDefault("schedule.timezone", "Europe/Moscow")
	v.SetDefault("booking.rejectDuplicates", false)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "autoschool")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "autoschool")
	v.SetDefault("database.disableTLS", true)

	// jwt.secret <- JWT_SECRET, auth.mode <- AUTH_MODE, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT")
	return v
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file
// and the environment, in increasing order of precedence.
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}

	v := newViper()
	conf := &Config{
		Env:                env,
		Debug:              v.GetBool("debug"),
		Build:              v.GetString("build"),
		AppName:            v.GetString("appName"),
		TestMode:           env == "TEST",
		SecretKey:          strings.TrimSpace(v.GetString("jwt.secret")),
		JWTExpirationDelta: v.GetDuration("jwt.expiration"),
		AuthMode:           strings.ToLower(v.GetString("auth.mode")),
		LogLevel:           v.GetString("log.level"),
		RollbarToken:       v.GetString("rollbar.token"),
		SentryDSN:          v.GetString("sentry.dsn"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Storage: StorageConfig{
			DataDir: v.GetString("storage.dataDir"),
		},
		Schedule: ScheduleConfig{
			CatalogFile:      v.GetString("catalog.file"),
			Timezone:         v.GetString("schedule.timezone"),
			RejectDuplicates: v.GetBool("booking.rejectDuplicates"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			Name:       v.GetString("database.name"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
	}
	if err := conf.Check(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Check reports settings the application cannot start without.
func (c *Config) Check() error {
	if c.SecretKey == "" {
		return ErrMissingSecret
	}
	switch c.AuthMode {
	case AuthModeFile, AuthModeDB:
	default:
		return errors.Wrap(errAuthMode, fmt.Sprintf("%q", c.AuthMode))
	}
	return nil
}
