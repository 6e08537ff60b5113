package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/secrets"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage AI provider API keys",
}

// The key is read from stdin rather than argv so it never lands in shell
// history or process listings.
var keysSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store an API key for a provider (reads the key from stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), "API key: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read key: %w", err)
		}
		apiKey := strings.TrimSpace(line)
		if apiKey == "" {
			return fmt.Errorf("no key provided")
		}

		if err := newKeyring().Save(args[0], apiKey); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("key stored for "+args[0]))
		return nil
	},
}

var keysStatusCmd = &cobra.Command{
	Use:   "status <provider>",
	Short: "Check whether a key is stored for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, found, err := newKeyring().Get(args[0])
		if err != nil {
			return err
		}
		if found {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("key stored for "+args[0]))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Subtle.Render("no key stored for "+args[0]))
		}
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Delete the stored key for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newKeyring().Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("key removed for "+args[0]))
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysStatusCmd)
	keysCmd.AddCommand(keysDeleteCmd)
}

func newKeyring() secrets.Keyring {
	return secrets.Open(cfg.KeyringFile(), logger)
}
