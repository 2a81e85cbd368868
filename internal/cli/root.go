package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/flagaudit/internal/logging"
	"github.com/ppiankov/flagaudit/internal/model"
)

// version is overridden at build time with -ldflags "-X .../internal/cli.version=..."
var version = "v0.1.0"

var (
	cfgFile string
	logger  = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flagaudit",
	Short: "flagaudit - consistency checks for Mealie flag tags",
	Long: `flagaudit audits the "flag tags" of a Mealie recipe collection.

A flag tag (missing-image, missing-rating, ...) marks a data-quality problem
on a recipe. flagaudit checks every flag tag against the recipe's actual data
and reports tags that are stale (CONFLICT), tags that should be added
(MISSING), and tags a human should double-check (UNKNOWN).

flagaudit never modifies recipes; it only writes a report.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(viper.GetString("log.level"), viper.GetString("log.file"), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = log
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flagaudit %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.flagaudit/config.yaml)")
	rootCmd.PersistentFlags().StringP("verbosity", "V", "INFO", "log level ("+strings.Join(logging.Levels, ", ")+")")
	rootCmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")

	// Bind flags to viper
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("verbosity"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.AddCommand(versionCmd)
}

// configDir returns ~/.flagaudit
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".flagaudit"), nil
}

// envKeys are the config keys that may be set from FLAGAUDIT_* variables
var envKeys = []string{
	"mealie.url",
	"mealie.token",
	"mealie.ca_path",
	"mealie.snapshot",
	"mealie.http_proxy",
	"mealie.https_proxy",
	"mealie.no_proxy",
	"cache.duration",
	"cache.dir",
	"concurrency.workers",
	"log.level",
	"log.file",
	"llm.provider",
	"llm.model",
	"llm.base_url",
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// FLAGAUDIT_MEALIE_TOKEN -> mealie.token
	viper.SetEnvPrefix("FLAGAUDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}
	_ = viper.BindEnv("llm.api_key", "FLAGAUDIT_LLM_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

// loadConfig merges defaults, the config file, the environment and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.APIKey == "" {
		if env := providerKeyEnv[cfg.LLM.Provider]; env != "" {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}
	return cfg, nil
}

// providerKeyEnv names the vendor variable read when FLAGAUDIT_LLM_API_KEY is unset
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
}
