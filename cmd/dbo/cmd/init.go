package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	cmdcommon "boscoin.io/dbo/cmd/dbo/common"
	"boscoin.io/dbo/lib/api"
	"boscoin.io/dbo/lib/cache"
	"boscoin.io/dbo/lib/common"
	"boscoin.io/dbo/lib/dbo"
	"boscoin.io/dbo/lib/document"
	"boscoin.io/dbo/lib/httputils"
	"boscoin.io/dbo/lib/storage"
)

var (
	flagConfig       string = common.GetENVValue("DBO_CONFIG", "")
	flagStorage      string
	flagLogLevel     string = common.GetENVValue("DBO_LOG_LEVEL", common.DefaultLogLevel.String())
	flagLogOutput    string = common.GetENVValue("DBO_LOG_OUTPUT", "")
	flagCacheAdapter string = common.GetENVValue("DBO_CACHE_ADAPTER", common.CacheNopAdapterName)
	flagFormat       string = common.GetENVValue("DBO_FORMAT", "prettyjson")
)

var (
	config        common.Config
	storageConfig *storage.Config
	logLevel      logging.Lvl
	log           logging.Logger = logging.New("module", "main")
)

var rootCmd = &cobra.Command{
	Use:   filepath.Base(os.Args[0]),
	Short: "dbo keeps documents in leveldb through an identity mapped session",
	Run: func(c *cobra.Command, args []string) {
		if len(args) < 1 {
			c.Usage()
		}
	},
}

func init() {
	currentDirectory, err := os.Getwd()
	if err == nil {
		currentDirectory, err = filepath.Abs(currentDirectory)
	}
	if err != nil {
		currentDirectory = "."
	}
	flagStorage = common.GetENVValue("DBO_STORAGE", fmt.Sprintf("file://%s/db", currentDirectory))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", flagConfig, "yaml config file")
	flags.StringVar(&flagStorage, "storage", flagStorage, "storage uri, 'memory://' or 'file:///<path>'")
	flags.StringVar(&flagLogLevel, "log-level", flagLogLevel, "log level, {crit, error, warn, info, debug}")
	flags.StringVar(&flagLogOutput, "log-output", flagLogOutput, "set log output file")
	flags.StringVar(&flagCacheAdapter, "cache-adapter", flagCacheAdapter, "cache adapter, {nop, mem, redis}")
	flags.StringVar(&flagFormat, "format", flagFormat, "output format, {json, prettyjson, yaml}")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cmdcommon.PrintFlagsError(rootCmd, "", err)
	}
}

func SetArgs(s []string) {
	rootCmd.SetArgs(s)
}

// overrideConfig replaces the value of the config file when the flag or its
// environment variable was given, or when there is no config file at all.
func overrideConfig(c *cobra.Command, name, env string) bool {
	if len(flagConfig) < 1 {
		return true
	}
	if _, found := os.LookupEnv(env); found {
		return true
	}

	return c.Flags().Changed(name)
}

func parseFlagsConfig(c *cobra.Command) {
	var err error

	config = common.NewConfig()
	if len(flagConfig) > 0 {
		if config, err = common.LoadConfig(flagConfig); err != nil {
			cmdcommon.PrintFlagsError(c, "--config", err)
		}
	}

	if overrideConfig(c, "storage", "DBO_STORAGE") {
		config.Storage = flagStorage
	}
	if overrideConfig(c, "log-level", "DBO_LOG_LEVEL") {
		config.LogLevel = flagLogLevel
	}
	if overrideConfig(c, "log-output", "DBO_LOG_OUTPUT") {
		config.LogOutput = flagLogOutput
	}
	if overrideConfig(c, "cache-adapter", "DBO_CACHE_ADAPTER") {
		config.CacheAdapter = flagCacheAdapter
	}

	if storageConfig, err = storage.NewConfigFromString(config.Storage); err != nil {
		cmdcommon.PrintFlagsError(c, "--storage", err)
	}

	if _, found := cmdcommon.DefaultEncodes[flagFormat]; !found {
		cmdcommon.PrintFlagsError(c, "--format", fmt.Errorf("unknown format, %q", flagFormat))
	}

	if logLevel, err = logging.LvlFromString(config.LogLevel); err != nil {
		cmdcommon.PrintFlagsError(c, "--log-level", err)
	}

	var logHandler logging.Handler
	if logHandler, err = common.NewLogHandler(config.LogOutput); err != nil {
		cmdcommon.PrintFlagsError(c, "--log-output", err)
	}

	log.SetHandler(logging.LvlFilterHandler(logLevel, logHandler))
	common.SetLogging(logLevel, logHandler)
	dbo.SetLogging(logLevel, logHandler)
	document.SetLogging(logLevel, logHandler)
	cache.SetLogging(logLevel, logHandler)
	httputils.SetLogging(logLevel, logHandler)
	api.SetLogging(logLevel, logHandler)

	log.Debug(
		"parsed flags:",
		"\n\tconfig", flagConfig,
		"\n\tstorage", storageConfig,
		"\n\tcache-adapter", config.CacheAdapter,
		"\n\tlog-level", config.LogLevel,
		"\n\tlog-output", config.LogOutput,
	)
}

// openStore opens the storage of `storageConfig` with the cache adapter of
// `config`; the returned storage must be closed by the caller.
func openStore() (*document.Store, *storage.LevelDBBackend, error) {
	st, err := storage.NewStorage(storageConfig)
	if err != nil {
		return nil, nil, err
	}

	adapter, err := cache.NewAdapter(config)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return document.NewStore(st, cache.NewLoader(adapter, cache.DefaultExpiration)), st, nil
}

func printOutput(c *cobra.Command, v interface{}) error {
	return cmdcommon.DefaultEncodes[flagFormat](v, c.OutOrStdout())
}
