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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show DeepL character usage for the current billing period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := deeplService(appCfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), appCfg.Timeout)
		defer cancel()

		usage, err := svc.Usage(ctx)
		if err != nil {
			return fmt.Errorf("failed to get usage: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Characters used:  %d\n", usage.CharacterCount)
		fmt.Fprintf(out, "Character limit:  %d\n", usage.CharacterLimit)
		if usage.CharacterLimit > 0 {
			fmt.Fprintf(out, "Used:             %.1f%%\n", float64(usage.CharacterCount)*100/float64(usage.CharacterLimit))
		}
		return nil
	},
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List target language codes accepted by the configured service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appCfg.Validate(); err != nil {
			return err
		}
		svc, err := buildService(appCfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), appCfg.Timeout)
		defer cancel()

		langs, err := svc.SupportedLanguages(ctx)
		if err != nil {
			return fmt.Errorf("failed to list languages: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(langs, "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(languagesCmd)
}
