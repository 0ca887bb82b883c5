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

	"github.com/spf13/cobra"

	"github.com/valpere/deepltr/internal/auth"
	"github.com/valpere/deepltr/internal/translator"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the DeepL auth key in the OS keychain",
	Long: `Store, remove, or inspect the DeepL auth key kept in the OS keychain.

DEEPL_AUTH_KEY and the "auth_key" config entry take precedence over the
keychain when set.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Prompt for the auth key and store it in the keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := auth.PromptForKey(cmd.ErrOrStderr(), "DeepL auth key: ")
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
		if err := auth.SaveKey(key); err != nil {
			return fmt.Errorf("failed to store key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Key saved to keychain.")
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the auth key from the keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.DeleteKey(); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Key removed from keychain.")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the auth key is found",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Keychain:    %v\n", auth.HasKey())
		_, inEnv := auth.GetEnvKey()
		fmt.Fprintf(out, "%s: %v\n", auth.EnvVar, inEnv)
		if appCfg.AuthKey == "" {
			fmt.Fprintln(out, "Active:      none")
			return nil
		}
		fmt.Fprintf(out, "Active:      %s (%s tier)\n", appCfg.KeySource, tier(appCfg.AuthKey))
		return nil
	},
}

func tier(key string) string {
	if translator.DeepLBaseURL(key) == translator.DeepLFreeURL {
		return "free"
	}
	return "pro"
}

func init() {
	rootCmd.AddCommand(keyCmd)

	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyDeleteCmd)
	keyCmd.AddCommand(keyStatusCmd)
}
