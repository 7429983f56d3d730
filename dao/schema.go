package dao

import (
	"database/sql"
	"time"

	"github.com/neritic/functiond/util"
)

// Schema for the metadata database. SQLite creates the file on first open,
// so every table is guarded with IF NOT EXISTS and creation is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS functions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guid TEXT NOT NULL UNIQUE,
		createdDate DATETIME NOT NULL,
		createdBy TEXT NOT NULL,
		modifiedDate DATETIME NOT NULL,
		modifiedBy TEXT NOT NULL,
		isDeleted INTEGER NOT NULL DEFAULT 0,
		deletedDate DATETIME,
		deletedBy TEXT,
		changeCount INTEGER NOT NULL DEFAULT 0,
		changeToken TEXT NOT NULL,
		name TEXT NOT NULL,
		route TEXT NOT NULL,
		language TEXT NOT NULL,
		timeout INTEGER NOT NULL,
		runtime TEXT NOT NULL,
		code TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS ix_functions_route ON functions (route)`,
	`CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		createdDate DATETIME NOT NULL,
		functionGuid TEXT NOT NULL,
		functionName TEXT NOT NULL,
		runtime TEXT NOT NULL,
		responseTime INTEGER NOT NULL,
		error INTEGER NOT NULL DEFAULT 0,
		stdout TEXT,
		stderr TEXT,
		memoryUsage REAL NOT NULL DEFAULT 0,
		cpuUsage REAL NOT NULL DEFAULT 0,
		coldStart INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS ix_metrics_functionGuid ON metrics (functionGuid)`,
	`CREATE TABLE IF NOT EXISTS dbstate (
		createdDate DATETIME NOT NULL,
		modifiedDate DATETIME NOT NULL,
		schemaVersion TEXT NOT NULL,
		identifier TEXT NOT NULL
	)`,
}

// initializeSchema creates missing tables and stamps new databases with the
// current schema version and a random identifier.
func (dao *DataAccessLayer) initializeSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := dao.MetadataDB.Exec(stmt); err != nil {
			return err
		}
	}
	var identifier string
	err := dao.MetadataDB.Get(&identifier, `select identifier from dbstate limit 1`)
	if err == sql.ErrNoRows {
		identifier, err = util.NewGUID()
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		_, err = dao.MetadataDB.Exec(
			`insert into dbstate (createdDate, modifiedDate, schemaVersion, identifier) values (?, ?, ?, ?)`,
			now, now, SchemaVersion, identifier)
	}
	return err
}
