package types

// Status is a type for the lifecycle status of a persisted record.
// This tracks soft archival/deletion and determines whether a record is
// included in default queries. It is distinct from the domain statuses on
// invoices, payments and subscriptions.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}

// LogLevel is the logging verbosity configured for the process
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// RunMode is the deployment mode of the process
type RunMode string

const (
	ModeLocal RunMode = "local"
	ModeProd  RunMode = "prod"
)
