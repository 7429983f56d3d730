package dao

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"

	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/metadata/models"
)

// SchemaVersion marks compatibility with previously created databases.
// On startup, we check the schema and stamp new databases with this value.
var SchemaVersion = "20250304"

// DAO defines the contract our app has with the database.
type DAO interface {
	CreateFunction(fn *models.Function) (models.Function, error)
	GetFunction(guid string) (models.Function, error)
	GetFunctionByRoute(route string) (models.Function, error)
	GetFunctions(pagingRequest PagingRequest) (models.FunctionResultset, error)
	UpdateFunction(fn *models.Function) (models.Function, error)
	DeleteFunction(fn models.Function, deletedBy string) error
	RecordExecution(metric *models.ExecutionMetric) (models.ExecutionMetric, error)
	GetLatestMetricForFunction(functionGUID string) (models.ExecutionMetric, error)
	GetMetricsForFunction(functionGUID string, pagingRequest PagingRequest) (models.ExecutionMetricResultset, error)
	GetMetricsSummary() ([]models.MetricsSummary, error)
	GetDBState() (models.DBState, error)
	GetLogger() *zap.Logger
}

// ErrNoRows is returned from lookups when the requested record does not
// exist, wrapping the driver detail so handlers can map it to a 404.
var ErrNoRows = fmt.Errorf("dao: record not found")

// DataAccessLayer is a concrete DAO implementation with a true DB connection.
type DataAccessLayer struct {
	// MetadataDB is the connection.
	MetadataDB *sqlx.DB
	// Logger has a default, but can be updated by passing options to constructor.
	Logger *zap.Logger
	// BusyRetryCounter is the number of times statements are retried when
	// the database is locked by a concurrent writer.
	BusyRetryCounter int64
	// BusyRetryDelay is the delay in milliseconds between retries.
	BusyRetryDelay int64
}

// Statements failing with any of these fragments are retried. SQLite reports
// write contention as a locked or busy database.
var retryOnErrorMessageContains = []string{"database is locked", "database table is locked", "SQLITE_BUSY"}

// Opt sets an option on DataAccessLayer.
type Opt func(*DataAccessLayer)

// WithLogger sets a custom logger on DataAccessLayer.
func WithLogger(logger *zap.Logger) Opt {
	return func(d *DataAccessLayer) {
		d.Logger = logger
	}
}

// NewDataAccessLayer constructs a new DataAccessLayer with defaults and options.
// A string database identifier is also returned.
func NewDataAccessLayer(conf config.DatabaseConfiguration, opts ...Opt) (*DataAccessLayer, string, error) {

	db, err := conf.GetDatabaseHandle()
	if err != nil {
		return nil, "", err
	}
	d := DataAccessLayer{
		MetadataDB:       db,
		BusyRetryCounter: conf.BusyRetryCounter,
		BusyRetryDelay:   conf.BusyRetryDelay,
	}

	defaults(&d)
	for _, opt := range opts {
		opt(&d)
	}

	if err := pingDB(&d); err != nil {
		return nil, "", fmt.Errorf("could not ping database: %v", err)
	}

	if err := d.initializeSchema(); err != nil {
		return nil, "", fmt.Errorf("could not initialize schema: %v", err)
	}

	state, err := d.GetDBState()
	if err != nil {
		return nil, "", fmt.Errorf("getting db state failed: %v", err)
	}
	if state.SchemaVersion != SchemaVersion {
		d.Logger.Warn("database schema version differs from dao",
			zap.String("db", state.SchemaVersion), zap.String("dao", SchemaVersion))
	}

	return &d, state.Identifier, nil
}

func defaults(d *DataAccessLayer) {
	d.Logger = config.RootLogger
	if d.BusyRetryCounter == 0 {
		d.BusyRetryCounter = 30
	}
	if d.BusyRetryDelay == 0 {
		d.BusyRetryDelay = 55
	}
}

// GetLogger is a logger, probably for this session
func (d *DataAccessLayer) GetLogger() *zap.Logger {
	return d.Logger
}

func daoCompileCheck() DAO {
	// function exists to make compiler complain when interface changes.
	return &DataAccessLayer{}
}

func pingDB(d *DataAccessLayer) error {

	logger := d.GetLogger()

	attempts := 0
	max := 20
	var err error
	for attempts < max {
		attempts++
		err = d.MetadataDB.Ping()
		if err == nil {
			return nil
		}
		logger.Info("db not yet available", zap.Int("attempt", attempts), zap.Error(err))
		time.Sleep(time.Duration(500) * time.Millisecond)
	}
	return err
}
