package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	cmdcommon "boscoin.io/dbo/cmd/dbo/common"
	"boscoin.io/dbo/lib/api"
	"boscoin.io/dbo/lib/common"
	"boscoin.io/dbo/lib/metrics"
)

const (
	MetricsHandlerPattern = "/metrics"

	shutdownTimeout = 5 * time.Second
)

var (
	flagListen  string = common.GetENVValue("DBO_LISTEN", common.DefaultListen)
	flagMetrics bool   = common.GetENVValue("DBO_METRICS", "0") == "1"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the documents over http",
	Run: func(c *cobra.Command, args []string) {
		parseFlagsConfig(c)
		parseFlagsServe(c)

		if err := runServe(); err != nil {
			cmdcommon.PrintError(c, err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", flagListen, "address to listen on")
	serveCmd.Flags().BoolVar(&flagMetrics, "metrics", flagMetrics, "serve prometheus metrics at "+MetricsHandlerPattern)

	rootCmd.AddCommand(serveCmd)
}

func parseFlagsServe(c *cobra.Command) {
	if overrideConfig(c, "listen", "DBO_LISTEN") {
		config.Listen = flagListen
	}
	if overrideConfig(c, "metrics", "DBO_METRICS") {
		config.Metrics = flagMetrics
	}

	log.Debug("parsed flags:", "\n\tlisten", config.Listen, "\n\tmetrics", config.Metrics)
}

func newServeHandler() (http.Handler, func() error, error) {
	store, st, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	router := api.NewRouter(api.NewDocumentAPI(store))
	if config.Metrics {
		metrics.InitPrometheusMetrics()
		metrics.SetVersion()
		router.Handle(MetricsHandlerPattern, promhttp.Handler()).Methods("GET")
	}

	return router, st.Close, nil
}

func runServe() error {
	handler, closeStorage, err := newServeHandler()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              config.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var listenErr error
	var g run.Group
	{
		g.Add(func() error {
			log.Info("starting dbo", "listen", config.Listen, "storage", storageConfig)
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				listenErr = err
				return err
			}
			return nil
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				log.Error("failed to shutdown server", "error", err)
			}
		})
	}
	{
		cancel := make(chan struct{})
		g.Add(func() error {
			return cmdcommon.Interrupt(cancel)
		}, func(error) {
			close(cancel)
		})
	}

	err = g.Run()
	log.Info("dbo stopped", "reason", err)

	return listenErr
}
