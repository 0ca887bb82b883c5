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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/valpere/deepltr/internal"
	"github.com/valpere/deepltr/internal/store"
	"github.com/valpere/deepltr/internal/translator"
)

var inputFile string

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text",
	Long: `Translate text with DeepL (or Google) and print the original and the
translation.

The text is taken from the arguments, from --input, or from standard input.

Examples:
  deepltr translate "你好，世界！"
  deepltr translate -s "" -t DE "Good morning"
  echo "Bonjour" | deepltr translate -s FR -t EN`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		return runTranslate(cmd, text)
	},
}

// readInput picks the text to translate: arguments first, then --input,
// then piped stdin.
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if inputFile != "" {
		b, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("no text given: pass it as an argument, with --input, or on stdin")
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimRight(string(b), "\r\n")
	if text == "" {
		return "", fmt.Errorf("no text given: pass it as an argument, with --input, or on stdin")
	}
	return text, nil
}

func runTranslate(cmd *cobra.Command, text string) error {
	cfg := appCfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}

	var db *store.Store
	if cfg.DBPath != "" && !cfg.NoCache {
		db, err = store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	slog.Debug("translating",
		"service", svc.Name(),
		"source_lang", cfg.SourceLang,
		"target_lang", cfg.TargetLang,
		"credential_source", cfg.KeySource,
	)

	req := translator.TranslateRequest{
		Text:       text,
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
	}
	return translateText(ctx, cmd.OutOrStdout(), svc, serviceConfig(cfg), req, db)
}

// translateText performs one translation and reports it on out.
//
// A remote failure (non-200) or an empty translations list is reported on out
// and is not an error. Configuration and transport errors are returned.
func translateText(ctx context.Context, out io.Writer, svc translator.TranslationService, cfg translator.ServiceConfig, req translator.TranslateRequest, db *store.Store) error {
	if db != nil {
		hit, found, err := db.GetCachedTranslation(ctx, req.Text, req.SourceLang, req.TargetLang)
		if err != nil {
			slog.Warn("translation memory lookup failed", "error", err)
		} else if found && hit.ServiceUsed == svc.Name() {
			slog.Info("using cached translation", "service", hit.ServiceUsed)
			printTranslation(out, req.Text, hit.FinalText)
			return nil
		}
	}

	result, err := svc.Translate(ctx, cfg, req)
	if errors.Is(err, translator.ErrMissingAuthKey) {
		return err
	}

	if db != nil {
		record(ctx, db, svc.Name(), req, result, err)
	}

	var remote *translator.RemoteError
	switch {
	case err == nil:
		printTranslation(out, req.Text, result.TranslatedText)
		if db != nil {
			if err := db.SaveToMemory(ctx, req.Text, req.SourceLang, req.TargetLang, result.TranslatedText, result.DetectedLang, svc.Name()); err != nil {
				slog.Warn("failed to save translation memory", "error", err)
			}
		}
		return nil
	case errors.As(err, &remote):
		slog.Warn("remote call failed", "service", svc.Name(), "status", remote.StatusCode)
		fmt.Fprintln(out, "Error:", remote.StatusCode, remote.Body)
		return nil
	case errors.Is(err, translator.ErrNoTranslation):
		slog.Warn("service returned no translation", "service", svc.Name())
		fmt.Fprintln(out, "Error:", err)
		return nil
	default:
		return fmt.Errorf("%s translation failed: %w", svc.Name(), err)
	}
}

func printTranslation(out io.Writer, original, translated string) {
	fmt.Fprintln(out, "Original:", original)
	fmt.Fprintln(out, "Translated:", translated)
}

// record stores the request in the history table. Failures are logged only.
func record(ctx context.Context, db *store.Store, service string, req translator.TranslateRequest, result *translator.ServiceResult, callErr error) {
	entry := internal.TranslationRequest{
		ID:          uuid.New().String(),
		ServiceName: service,
		SourceText:  req.Text,
		SourceLang:  req.SourceLang,
		TargetLang:  req.TargetLang,
		Timestamp:   time.Now(),
	}
	if result != nil {
		entry.LatencyMs = result.Latency.Milliseconds()
	}
	if callErr != nil {
		entry.Error = callErr.Error()
		var remote *translator.RemoteError
		if errors.As(callErr, &remote) {
			entry.StatusCode = remote.StatusCode
		}
	} else {
		entry.StatusCode = 200
		entry.CharsConsumed = utf8.RuneCountInString(req.Text)
	}

	if err := db.SaveRequest(ctx, entry); err != nil {
		slog.Warn("failed to record request", "error", err)
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read the text to translate from this file")
}
