package config

import (
	"fmt"
	"os"
	"sort"
)

// Environment variables recognized by functiond. Each overrides the
// corresponding value from the YAML configuration file.
const (
	// FnDBDriver overrides database.driver. Only "sqlite" is supported.
	FnDBDriver = "FN_DB_DRIVER"
	// FnDBPath overrides database.path, the sqlite database file.
	FnDBPath = "FN_DB_PATH"
	// FnDBConnParams overrides database.conn_params, extra DSN parameters.
	FnDBConnParams = "FN_DB_CONN_PARAMS"
	// FnDBBusyRetryCounter overrides database.busy_retry_counter.
	FnDBBusyRetryCounter = "FN_DB_BUSY_RETRY_COUNTER"
	// FnDBBusyRetryDelay overrides database.busy_retry_delay in milliseconds.
	FnDBBusyRetryDelay = "FN_DB_BUSY_RETRY_DELAY"

	// FnServerPort overrides server.port.
	FnServerPort = "FN_SERVER_PORT"
	// FnServerBind overrides server.bind.
	FnServerBind = "FN_SERVER_BIND"
	// FnServerIdleTimeout overrides server.idle_timeout in seconds.
	FnServerIdleTimeout = "FN_SERVER_IDLE_TIMEOUT"
	// FnServerReadTimeout overrides server.read_timeout in seconds.
	FnServerReadTimeout = "FN_SERVER_READ_TIMEOUT"
	// FnServerReadHeaderTimeout overrides server.read_header_timeout in seconds.
	FnServerReadHeaderTimeout = "FN_SERVER_READ_HEADER_TIMEOUT"
	// FnServerWriteTimeout overrides server.write_timeout in seconds.
	FnServerWriteTimeout = "FN_SERVER_WRITE_TIMEOUT"
	// FnServerAllowedOrigins overrides server.allowed_origins, comma delimited.
	FnServerAllowedOrigins = "FN_SERVER_ALLOWED_ORIGINS"

	// FnExecutorDockerBinary overrides executor.docker_binary.
	FnExecutorDockerBinary = "FN_EXECUTOR_DOCKER_BINARY"
	// FnExecutorImagePrefix overrides executor.image_prefix.
	FnExecutorImagePrefix = "FN_EXECUTOR_IMAGE_PREFIX"
	// FnExecutorRuntimes overrides executor.runtimes, comma delimited.
	FnExecutorRuntimes = "FN_EXECUTOR_RUNTIMES"
	// FnExecutorPoolSize overrides executor.pool_size.
	FnExecutorPoolSize = "FN_EXECUTOR_POOL_SIZE"
	// FnExecutorDefaultTimeout overrides executor.default_timeout in seconds.
	FnExecutorDefaultTimeout = "FN_EXECUTOR_DEFAULT_TIMEOUT"
	// FnExecutorMaxTimeout overrides executor.max_timeout in seconds.
	FnExecutorMaxTimeout = "FN_EXECUTOR_MAX_TIMEOUT"
	// FnExecutorSkipImageBuild overrides executor.skip_image_build.
	FnExecutorSkipImageBuild = "FN_EXECUTOR_SKIP_IMAGE_BUILD"
	// FnExecutorSkipPrewarm overrides executor.skip_prewarm.
	FnExecutorSkipPrewarm = "FN_EXECUTOR_SKIP_PREWARM"

	// FnEventKafkaAddrs overrides event_queue.kafka_addrs, comma delimited.
	FnEventKafkaAddrs = "FN_EVENT_KAFKA_ADDRS"
	// FnEventTopic overrides event_queue.topic.
	FnEventTopic = "FN_EVENT_TOPIC"
	// FnEventSuccessActions overrides event_queue.publish_success_actions, comma delimited.
	FnEventSuccessActions = "FN_EVENT_PUBLISH_SUCCESS_ACTIONS"
	// FnEventFailureActions overrides event_queue.publish_failure_actions, comma delimited.
	FnEventFailureActions = "FN_EVENT_PUBLISH_FAILURE_ACTIONS"

	// FnLogLevel sets the level of the root logger: debug, info, warn, or error.
	FnLogLevel = "FN_LOG_LEVEL"
)

var allEnvVars = []string{
	FnDBDriver,
	FnDBPath,
	FnDBConnParams,
	FnDBBusyRetryCounter,
	FnDBBusyRetryDelay,
	FnServerPort,
	FnServerBind,
	FnServerIdleTimeout,
	FnServerReadTimeout,
	FnServerReadHeaderTimeout,
	FnServerWriteTimeout,
	FnServerAllowedOrigins,
	FnExecutorDockerBinary,
	FnExecutorImagePrefix,
	FnExecutorRuntimes,
	FnExecutorPoolSize,
	FnExecutorDefaultTimeout,
	FnExecutorMaxTimeout,
	FnExecutorSkipImageBuild,
	FnExecutorSkipPrewarm,
	FnEventKafkaAddrs,
	FnEventTopic,
	FnEventSuccessActions,
	FnEventFailureActions,
	FnLogLevel,
}

// PrintEnvironment writes the recognized FN_* environment variables and their
// current values to stdout.
func PrintEnvironment() {
	fmt.Println("functiond environment variables. Number of vars:", len(allEnvVars))
	vars := make([]string, len(allEnvVars))
	copy(vars, allEnvVars)
	sort.Strings(vars)
	for _, name := range vars {
		fmt.Printf("%s=%s\n", name, os.Getenv(name))
	}
}
