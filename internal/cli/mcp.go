package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/session"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage MCP server configurations",
}

var mcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured MCP servers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		servers, err := newStore().List()
		if err != nil {
			return err
		}
		if len(servers) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Subtle.Render("no servers configured"))
			return nil
		}
		for _, server := range servers {
			printServer(cmd, server)
		}
		return nil
	},
}

var mcpPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in server presets",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, server := range store.Presets() {
			printServer(cmd, server)
		}
	},
}

var mcpDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect MCP configurations from other applications",
	Run: func(cmd *cobra.Command, _ []string) {
		sources := store.DetectExternalConfigs()
		if len(sources) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Subtle.Render("no external configurations found"))
			return
		}
		for _, source := range sources {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				styles.Bold.Render(source.Name),
				styles.Subtle.Render(source.Path))
		}
	},
}

var mcpImportMerge bool

var mcpImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import server configurations from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newStore().ImportFile(args[0], mcpImportMerge)
		if err != nil {
			return err
		}

		if result.Success {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(
				fmt.Sprintf("imported %d server(s), skipped %d", result.ImportedCount, result.SkippedCount)))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Warning.Render(
				fmt.Sprintf("imported %d server(s), skipped %d", result.ImportedCount, result.SkippedCount)))
		}
		for _, msg := range result.Errors {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Subtle.Render("  "+msg))
		}
		return nil
	},
}

var mcpExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export server configurations to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newStore().ExportFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(
			fmt.Sprintf("exported %d server(s) to %s", result.ServerCount, result.FilePath)))
		return nil
	},
}

// mcpToolsCmd is a one-shot probe: connect, list, disconnect. Long-lived
// sessions belong to the serve daemon.
var mcpToolsCmd = &cobra.Command{
	Use:   "tools <server-id>",
	Short: "Connect to a configured server and list its tools",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := newStore().Get(args[0])
		if err != nil {
			return err
		}

		manager := session.NewManager(&session.StdioConnector{
			ClientName:    cfg.MCP.ClientName,
			ClientVersion: cfg.MCP.ClientVersion,
		}, logger)
		defer manager.DisconnectAll()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.MCP.ConnectTimeout)
		defer cancel()
		if _, err := manager.ConnectFromConfig(ctx, session.ServerConfig{
			ID:      record.ID,
			Name:    record.Name,
			Type:    record.Type,
			Command: record.Command,
			Args:    record.Args,
			Env:     record.Env,
			URL:     record.URL,
		}); err != nil {
			return err
		}

		tools, err := manager.ListTools(cmd.Context(), record.ID)
		if err != nil {
			return err
		}
		if len(tools) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), styles.Subtle.Render("server exposes no tools"))
			return nil
		}
		for _, tool := range tools {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				styles.Bold.Render(tool.Name),
				styles.Subtle.Render(tool.Description))
		}
		return nil
	},
}

func init() {
	mcpImportCmd.Flags().BoolVar(&mcpImportMerge, "merge", true, "keep existing servers and skip duplicates")

	mcpCmd.AddCommand(mcpListCmd)
	mcpCmd.AddCommand(mcpPresetsCmd)
	mcpCmd.AddCommand(mcpDetectCmd)
	mcpCmd.AddCommand(mcpImportCmd)
	mcpCmd.AddCommand(mcpExportCmd)
	mcpCmd.AddCommand(mcpToolsCmd)
}

func newStore() *store.Store {
	return store.New(cfg.ServersFile(), logger)
}

func printServer(cmd *cobra.Command, server store.ServerRecord) {
	state := styles.Subtle.Render("disabled")
	if server.Enabled {
		state = styles.Success.Render("enabled")
	}

	target := server.Command
	if server.Type != store.TypeStdio {
		target = server.URL
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n",
		styles.Bold.Render(server.Name),
		styles.Subtle.Render(server.Type),
		state,
		target)
}
