/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/deepltr/internal/config"
	"github.com/valpere/deepltr/internal/logger"
)

var version = "0.1.0"

// sampleText is translated when deepltr runs without a subcommand.
const sampleText = "你好，世界！"

var (
	vp      = config.New()
	cfgFile string
	appCfg  *config.Config
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "deepltr",
	Short: "Translate text with the DeepL API",
	Long: `A CLI application that sends text to the DeepL translation API and prints
the result.

Run without arguments to translate a built-in sample (你好，世界！, ZH to EN).

The auth key is read from DEEPL_AUTH_KEY, the config file (auth_key) or the
OS keychain ("deepltr key set"). Keys ending in ":fx" use the free API host.

Use "deepltr translate --help" for translation options.`,
	Version:           version,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranslate(cmd, sampleText)
	},
}

// setup loads configuration for every command and initialises logging.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.ReadFile(vp, cfgFile); err != nil {
		return err
	}
	if err := config.BindFlags(vp, cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg, err := config.Load(vp)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		logFile, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger.Init(level, logFile)
	} else {
		logger.Init(level, nil)
	}

	appCfg = cfg
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $HOME/.deepltr.yaml)")
	pf.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	pf.String("log-file", "", "Also write JSON logs to this file")

	pf.StringP("source-lang", "s", config.DefaultSourceLang, "Source language code (empty or \"auto\" lets the service detect it)")
	pf.StringP("target-lang", "t", config.DefaultTargetLang, "Target language code")
	pf.String("service", "deepl", "Translation service: deepl or google")
	pf.String("base-url", "", "DeepL API base URL (default derived from the key: free for \":fx\" keys, pro otherwise)")
	pf.Duration("timeout", config.DefaultTimeout, "Maximum time to wait for the translation service")
	pf.String("credentials", "", "Path to Google Cloud credentials (google service only)")
	pf.String("project-id", "", "Google Cloud project billed for quota (google service only)")

	pf.String("db", "", "SQLite database for translation memory (disabled when empty)")
	pf.Bool("no-cache", false, "Do not read or write the translation memory")
}
