package cli

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storacha/edgeapp/pkg/config"
)

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

var log = logging.Logger("cmd")

const edgeappShortDescription = `
Run request/response applications as CloudFront edge functions
`

const edgeappLongDescription = `
edgeapp adapts applications written against a synchronous request/response
interface to CloudFront Lambda@Edge events. The CLI runs the bundled
applications against recorded events without deploying them.
`

var (
	cfgFile  string
	logLevel string
	rootCmd  = &cobra.Command{
		Use:           "edgeapp",
		Short:         edgeappShortDescription,
		Long:          edgeappLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initLogging, initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "logging level")
	cobra.CheckErr(viper.BindPFlag(string(config.LogLevel), rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newInvokeCmd())
}

func initConfig() {
	cobra.CheckErr(config.Configure(viper.GetViper(), cfgFile))
}

func initLogging() {
	if logLevel != "" {
		ll, err := logging.LevelFromString(logLevel)
		cobra.CheckErr(err)
		logging.SetAllLoggers(ll)
	} else {
		logging.SetLogLevel("cmd", "info")
		logging.SetLogLevel("config", "error")
		logging.SetLogLevel("edge", "warn")
		logging.SetLogLevel("edge/environ", "warn")
		logging.SetLogLevel("apps", "warn")
		logging.SetLogLevel("telemetry/errors", "error")
	}
}
