package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/lexhover/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing legal term definition and highlighting tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd.Context(), appCfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "lexhover MCP server started on stdio (glossary terms=%d)\n", b.glossary.Current().Len())

		srv := mcpserver.NewServer(b.channel, b.glossary, logger)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
