package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli"
	_ "modernc.org/sqlite"
)

var (
	defaultDBDriver = "sqlite"
	defaultDBPath   = "functiond.db"
	defaultPort     = "8080"
)

// AppConfiguration is a structure that defines the known configuration format
// for this application.
type AppConfiguration struct {
	DatabaseConnection DatabaseConfiguration       `yaml:"database"`
	ServerSettings     ServerSettingsConfiguration `yaml:"server"`
	ExecutorSettings   ExecutorConfiguration       `yaml:"executor"`
	EventQueue         EventQueueConfiguration     `yaml:"event_queue"`
}

// CommandLineOpts holds command line options parsed on application start. This
// object is passed to higher level constructors, so that command line params
// can override certain configurations.
type CommandLineOpts struct {
	// Conf is a path to our YAML configuration file.
	Conf string
	// Whitelist holds additional allowed CORS origins passed at the command line.
	Whitelist []string
}

// NewCommandLineOpts reads the flags defined on the process into a CommandLineOpts.
func NewCommandLineOpts(clictx *cli.Context) CommandLineOpts {
	confPath := clictx.GlobalString("conf")
	whitelist := clictx.GlobalStringSlice("addOrigin")
	return CommandLineOpts{
		Conf:      confPath,
		Whitelist: whitelist,
	}
}

// DatabaseConfiguration is a structure that defines the attributes
// needed for setting up the database connection.
type DatabaseConfiguration struct {
	// Driver specifies the database driver. Only "sqlite" is supported.
	Driver string `yaml:"driver"`
	// Path is the filesystem location of the database. The special value
	// ":memory:" yields a transient in-process database, used by tests.
	Path string `yaml:"path"`
	// Params are custom connection params injected into the DSN.
	Params string `yaml:"conn_params"`
	// BusyRetryCounter is the number of times to retry statements that fail
	// because the database is locked by a concurrent writer.
	BusyRetryCounter int64 `yaml:"busy_retry_counter"`
	// BusyRetryDelay is the time in milliseconds to wait before retrying a
	// statement that failed because the database was locked.
	BusyRetryDelay int64 `yaml:"busy_retry_delay"`
}

// ServerSettingsConfiguration holds the attributes needed for
// setting up the AppServer listener.
type ServerSettingsConfiguration struct {
	// ListenPort is the port the server listens on.
	ListenPort string `yaml:"port"`
	// ListenBind is the address the server binds to.
	ListenBind string `yaml:"bind"`
	// IdleTimeout is the maximum time in seconds to wait for the next request
	// when keep-alives are enabled.
	IdleTimeout int64 `yaml:"idle_timeout"`
	// ReadTimeout is the maximum duration in seconds for reading the entire request.
	ReadTimeout int64 `yaml:"read_timeout"`
	// ReadHeaderTimeout is the amount of time in seconds allowed to read request headers.
	ReadHeaderTimeout int64 `yaml:"read_header_timeout"`
	// WriteTimeout is the maximum duration in seconds before timing out writes of the response.
	WriteTimeout int64 `yaml:"write_timeout"`
	// AllowedOrigins are CORS origins reflected back on preflight requests.
	// The platform web UI is served on port 3000 by default.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ExecutorConfiguration holds the attributes for the container execution engine.
type ExecutorConfiguration struct {
	// DockerBinary is the docker CLI executable to invoke.
	DockerBinary string `yaml:"docker_binary"`
	// ImagePrefix is prepended to per-language base image names.
	ImagePrefix string `yaml:"image_prefix"`
	// Runtimes lists the OCI runtimes offered to functions.
	Runtimes []string `yaml:"runtimes"`
	// PoolSize is the number of pre-warmed containers kept per language and runtime.
	PoolSize int `yaml:"pool_size"`
	// DefaultTimeout is the execution timeout in seconds applied when a
	// function does not declare one.
	DefaultTimeout int `yaml:"default_timeout"`
	// MaxTimeout caps the per-function execution timeout in seconds.
	MaxTimeout int `yaml:"max_timeout"`
	// SkipImageBuild disables building the base images when the server starts.
	SkipImageBuild bool `yaml:"skip_image_build"`
	// SkipPrewarm disables filling the warm container pools when the server starts.
	SkipPrewarm bool `yaml:"skip_prewarm"`
}

// EventQueueConfiguration configures publishing to our Kafka event queue.
type EventQueueConfiguration struct {
	// KafkaAddrs is a list of host:port pairs of Kafka brokers. If empty,
	// events are discarded by a null publisher.
	KafkaAddrs []string `yaml:"kafka_addrs"`
	// Topic is the Kafka topic the event stream is published to.
	Topic string `yaml:"topic"`
	// PublishSuccessActions is the list of actions which, when successful, are published. "*" for all.
	PublishSuccessActions []string `yaml:"publish_success_actions"`
	// PublishFailureActions is the list of actions which, when failed, are published. "*" for all.
	PublishFailureActions []string `yaml:"publish_failure_actions"`
}

// NewAppConfiguration loads the configuration file pointed to by opts, and
// layers environment variable overrides on top of it.
func NewAppConfiguration(opts CommandLineOpts) AppConfiguration {
	confFile, err := LoadYAMLConfig(opts.Conf)
	if err != nil {
		fmt.Printf("error loading yaml configuration at path %s: %v\n", opts.Conf, err)
		os.Exit(1)
	}
	conf := confFile
	conf.DatabaseConnection = NewDatabaseConfigFromEnv(confFile.DatabaseConnection)
	conf.ServerSettings = NewServerSettingsFromEnv(confFile.ServerSettings, opts)
	conf.ExecutorSettings = NewExecutorConfigFromEnv(confFile.ExecutorSettings)
	conf.EventQueue = NewEventQueueConfigFromEnv(confFile.EventQueue)
	return conf
}

// NewDatabaseConfigFromEnv layers environment variable overrides onto a DatabaseConfiguration.
func NewDatabaseConfigFromEnv(confFile DatabaseConfiguration) DatabaseConfiguration {
	var conf DatabaseConfiguration

	conf.Driver = cascade(FnDBDriver, confFile.Driver, defaultDBDriver)
	conf.Path = cascade(FnDBPath, confFile.Path, defaultDBPath)
	conf.Params = cascade(FnDBConnParams, confFile.Params, "")
	conf.BusyRetryCounter = cascadeInt(FnDBBusyRetryCounter, confFile.BusyRetryCounter, 30)
	conf.BusyRetryDelay = cascadeInt(FnDBBusyRetryDelay, confFile.BusyRetryDelay, 55)

	return conf
}

// NewServerSettingsFromEnv layers environment variable overrides onto a ServerSettingsConfiguration.
func NewServerSettingsFromEnv(confFile ServerSettingsConfiguration, opts CommandLineOpts) ServerSettingsConfiguration {
	var conf ServerSettingsConfiguration

	conf.ListenPort = cascade(FnServerPort, confFile.ListenPort, defaultPort)
	conf.ListenBind = cascade(FnServerBind, confFile.ListenBind, "0.0.0.0")
	conf.IdleTimeout = cascadeInt(FnServerIdleTimeout, confFile.IdleTimeout, 60)
	conf.ReadTimeout = cascadeInt(FnServerReadTimeout, confFile.ReadTimeout, 0)
	conf.ReadHeaderTimeout = cascadeInt(FnServerReadHeaderTimeout, confFile.ReadHeaderTimeout, 5)
	conf.WriteTimeout = cascadeInt(FnServerWriteTimeout, confFile.WriteTimeout, 0)

	conf.AllowedOrigins = confFile.AllowedOrigins
	if envOrigins := os.Getenv(FnServerAllowedOrigins); len(envOrigins) > 0 {
		conf.AllowedOrigins = strings.Split(envOrigins, ",")
	}
	if len(conf.AllowedOrigins) == 0 {
		// The web UI container exposes port 3000.
		conf.AllowedOrigins = []string{"http://localhost:3000"}
	}
	conf.AllowedOrigins = append(conf.AllowedOrigins, opts.Whitelist...)

	return conf
}

// NewExecutorConfigFromEnv layers environment variable overrides onto an ExecutorConfiguration.
func NewExecutorConfigFromEnv(confFile ExecutorConfiguration) ExecutorConfiguration {
	var conf ExecutorConfiguration

	conf.DockerBinary = cascade(FnExecutorDockerBinary, confFile.DockerBinary, "docker")
	conf.ImagePrefix = cascade(FnExecutorImagePrefix, confFile.ImagePrefix, "functiond")
	conf.PoolSize = int(cascadeInt(FnExecutorPoolSize, int64(confFile.PoolSize), 2))
	conf.DefaultTimeout = int(cascadeInt(FnExecutorDefaultTimeout, int64(confFile.DefaultTimeout), 5))
	conf.MaxTimeout = int(cascadeInt(FnExecutorMaxTimeout, int64(confFile.MaxTimeout), 60))

	conf.Runtimes = confFile.Runtimes
	if envRuntimes := os.Getenv(FnExecutorRuntimes); len(envRuntimes) > 0 {
		conf.Runtimes = strings.Split(envRuntimes, ",")
	}
	if len(conf.Runtimes) == 0 {
		conf.Runtimes = []string{"runc", "runsc"}
	}

	conf.SkipImageBuild = cascadeBool(FnExecutorSkipImageBuild, confFile.SkipImageBuild)
	conf.SkipPrewarm = cascadeBool(FnExecutorSkipPrewarm, confFile.SkipPrewarm)

	return conf
}

// NewEventQueueConfigFromEnv layers environment variable overrides onto an EventQueueConfiguration.
func NewEventQueueConfigFromEnv(confFile EventQueueConfiguration) EventQueueConfiguration {
	var conf EventQueueConfiguration

	conf.KafkaAddrs = confFile.KafkaAddrs
	if envAddrs := os.Getenv(FnEventKafkaAddrs); len(envAddrs) > 0 {
		conf.KafkaAddrs = strings.Split(envAddrs, ",")
	}
	conf.Topic = cascade(FnEventTopic, confFile.Topic, "functiond-event")

	conf.PublishSuccessActions = confFile.PublishSuccessActions
	if envActions := os.Getenv(FnEventSuccessActions); len(envActions) > 0 {
		conf.PublishSuccessActions = strings.Split(envActions, ",")
	}
	if len(conf.PublishSuccessActions) == 0 {
		conf.PublishSuccessActions = []string{"*"}
	}
	conf.PublishFailureActions = confFile.PublishFailureActions
	if envActions := os.Getenv(FnEventFailureActions); len(envActions) > 0 {
		conf.PublishFailureActions = strings.Split(envActions, ",")
	}
	if len(conf.PublishFailureActions) == 0 {
		conf.PublishFailureActions = []string{"*"}
	}

	return conf
}

// GetDatabaseHandle opens a connection pool against the configured database.
func (conf DatabaseConfiguration) GetDatabaseHandle() (*sqlx.DB, error) {
	if conf.Driver != defaultDBDriver {
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}
	db, err := sqlx.Open(conf.Driver, conf.buildDSN())
	if err != nil {
		return nil, err
	}
	// SQLite permits a single writer. Funnel everything through one
	// connection so concurrent handlers queue instead of failing.
	db.SetMaxOpenConns(1)
	return db, nil
}

// buildDSN assembles the DSN for the sqlite driver from configuration values.
func (conf DatabaseConfiguration) buildDSN() string {
	dsn := conf.Path
	params := "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	if len(conf.Params) > 0 {
		params = params + "&" + conf.Params
	}
	if dsn == ":memory:" {
		// A unique name keeps separate handles from sharing one database,
		// while cache=shared lets pooled connections see the same data.
		return "file:memdb-" + RandomID() + "?mode=memory&cache=shared&" + params
	}
	return "file:" + dsn + "?" + params
}

func cascade(fromEnv, fromFile, defaultVal string) string {
	if envVal := os.Getenv(fromEnv); len(envVal) > 0 {
		return envVal
	}
	if len(fromFile) > 0 {
		return fromFile
	}
	return defaultVal
}

func cascadeInt(fromEnv string, fromFile int64, defaultVal int64) int64 {
	if envVal := os.Getenv(fromEnv); len(envVal) > 0 {
		if parsed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return parsed
		}
	}
	if fromFile != 0 {
		return fromFile
	}
	return defaultVal
}

func cascadeBool(fromEnv string, fromFile bool) bool {
	if envVal := os.Getenv(fromEnv); len(envVal) > 0 {
		if parsed, err := strconv.ParseBool(envVal); err == nil {
			return parsed
		}
	}
	return fromFile
}
