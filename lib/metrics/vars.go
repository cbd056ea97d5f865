package metrics

var (
	Session = NopSessionMetrics()
	API     = NopAPIMetrics()
)
