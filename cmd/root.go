package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/sw33tLie/booktrend/internal/utils"
	"github.com/sw33tLie/booktrend/pkg/config"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// configErr is kept so that only commands that need the book list fail
	// on a missing configuration file.
	configErr error
)

const (
	LOGO = `	 _                 _    _                       _
	| |__   ___   ___ | | _| |_ _ __ ___ _ __   __| |
	| '_ \ / _ \ / _ \| |/ / __| '__/ _ \ '_ \ / _' |
	| |_) | (_) | (_) |   <| |_| | |  __/ | | | (_| |
	|_.__/ \___/ \___/|_|\_\\__|_|  \___|_| |_|\__,_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "booktrend",
	Short: "Track how much the web and X talk about your books.",
	Long: LOGO + `booktrend searches the web and X for a list of books, scores the engagement of
the most recent posts, appends one measurement per book and time slot to a CSV
time series and renders interactive HTML reports from it.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		utils.Log.Error(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/books.yaml, then $HOME/.booktrend/books.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in the .env file, the config file and ENV variables if set.
func initConfig() {
	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		utils.Log.Warn(err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Log.Warnf("Could not load .env: %v", err)
	}

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("config")
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".booktrend"))
		}
		viper.SetConfigName("books")
		viper.SetConfigType("yaml")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			configErr = fmt.Errorf("no config file found: %w", config.ErrNoItems)
		} else {
			configErr = fmt.Errorf("reading config: %w", err)
		}
		return
	}
	utils.Log.Debugf("Using config file: %s", viper.ConfigFileUsed())
}

// loadConfig returns the validated configuration, failing on any problem
// with the config file.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	return config.Load(viper.GetViper())
}

// storePath is usable without a valid book list.
func storePath() string {
	return viper.GetString("store.path")
}

func reportDir() string {
	return viper.GetString("report.dir")
}
