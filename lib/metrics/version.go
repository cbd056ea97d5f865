package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"boscoin.io/dbo/lib/version"
)

var Version metrics.Gauge = discard.NewGauge()

func PromVersion() metrics.Gauge {
	return prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information of the running dbo binary.",
	}, []string{"version", "git_commit", "build_date", "go_version"})
}

// SetVersion exposes the build information as a constant 1 gauge.
func SetVersion() {
	info := version.Get()
	Version.With(
		"version", info.Version,
		"git_commit", info.GitCommit,
		"build_date", info.BuildDate,
		"go_version", info.GoVersion,
	).Set(1)
}
