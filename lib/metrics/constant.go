package metrics

const (
	Namespace        = "dbo"
	SessionSubsystem = "session"
	APISubsystem     = "api"
)

const (
	TableLabel  = "table"
	ResultLabel = "result"

	ResultCommit   = "commit"
	ResultRollback = "rollback"
)
