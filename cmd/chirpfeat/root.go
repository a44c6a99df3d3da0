package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/logging"
)

const envPrefix = "CHIRPFEAT"

var (
	configFile string
	logLevel   string
	logFormat  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chirpfeat",
	Short: "Feature extraction for ultrasonic chirp recordings",
	Long: `chirpfeat converts single-channel PCM recordings of chirp/reflection
measurements into a fixed, ordered feature vector: time-domain statistics,
spectral shape, MFCCs, wavelet scale energies and STFT statistics.

Settings come from flags, CHIRPFEAT_* environment variables and an optional
YAML config file, in that order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is ./chirpfeat.yaml or $HOME/.config/chirpfeat/chirpfeat.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format (text, json)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	v := viper.GetViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "chirpfeat"))
		}
		v.SetConfigName("chirpfeat")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	config.SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// an explicitly named file must exist; the search paths are optional
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || configFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// bindFlags binds each named flag to its nested config key, so a flag the
// user set overrides the config file and environment
func bindFlags(flags *pflag.FlagSet, bindings map[string]string) {
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("flag %q is not defined", name))
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}

// initializeLogging installs the global logger. Logs always go to stderr so
// the report on stdout stays machine-readable.
func initializeLogging() error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	var logger logging.Logger
	switch logFormat {
	case "text":
		logger = logging.NewDefaultLoggerWithWriters(os.Stderr, os.Stderr)
	case "json":
		logger = logging.NewZapLogger(os.Stderr)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", logFormat)
	}

	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)

	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("Using config file", logging.Fields{"path": used})
	}
	return nil
}
