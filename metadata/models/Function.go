package models

import "time"

// Function languages and runtimes accepted by the platform. Languages map to
// base images, runtimes to the OCI runtime passed to docker run.
const (
	LanguagePython = "python"
	LanguageNode   = "node"
	RuntimeRunc    = "runc"
	RuntimeRunsc   = "runsc"
)

// Function is a structure defining the attributes of a registered function
// as stored in the metadata database.
type Function struct {
	// ID is the internal autoincrement identifier.
	ID int64 `db:"id"`
	// GUID is the stable external identifier exposed through the API.
	GUID string `db:"guid"`
	// CreatedDate is the timestamp the function was registered.
	CreatedDate time.Time `db:"createdDate"`
	// CreatedBy is the caller that registered the function.
	CreatedBy string `db:"createdBy"`
	// ModifiedDate is the timestamp of the last update.
	ModifiedDate time.Time `db:"modifiedDate"`
	// ModifiedBy is the caller that performed the last update.
	ModifiedBy string `db:"modifiedBy"`
	// IsDeleted marks a soft deleted function.
	IsDeleted bool `db:"isDeleted"`
	// DeletedDate is the timestamp the function was deleted, if it was.
	DeletedDate NullTime `db:"deletedDate"`
	// DeletedBy is the caller that deleted the function, if deleted.
	DeletedBy NullString `db:"deletedBy"`
	// ChangeCount is the number of times the function has been modified.
	ChangeCount int `db:"changeCount"`
	// ChangeToken is a value that must be provided on update requests to
	// guard against accidental overwrites.
	ChangeToken string `db:"changeToken"`
	// Name is the display name of the function.
	Name string `db:"name"`
	// Route is the path fragment the function is addressable by.
	Route string `db:"route"`
	// Language selects the base image, either "python" or "node".
	Language string `db:"language"`
	// Timeout is the maximum execution time in seconds.
	Timeout int `db:"timeout"`
	// Runtime is the OCI runtime used for execution, "runc" or "runsc".
	Runtime string `db:"runtime"`
	// Code is the source of the function payload.
	Code NullString `db:"code"`
}

// FunctionResultset encapsulates an array of Function with resultset metric
// information exposing page size, page number, total rows, and page count
// when retrieving from the database.
type FunctionResultset struct {
	Resultset
	Functions []Function
}
