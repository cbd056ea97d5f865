package metrics

func InitPrometheusMetrics() {
	Version = PromVersion()
	Session = PromSessionMetrics()
	API = PromAPIMetrics()
}
