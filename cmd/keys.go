package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexhover/internal/credentials"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Enter the OpenAI and Tavily API keys",
	Long: `Opens the settings form for the two API keys. Both must be entered;
saved values are offered as defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openRawKeyStore(appCfg)
		if err != nil {
			return err
		}
		defer closeStore()
		return credentials.RunForm(cmd.Context(), store, credentials.TerminalPrompter{}, os.Stdout)
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which API keys are set (masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, closeStore, err := openRawKeyStore(appCfg)
		if err != nil {
			return err
		}
		defer closeStore()

		keys, err := credentials.WithEnv(raw).Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("loading keys: %w", err)
		}

		fmt.Printf("Store:          %s\n", appCfg.Credentials.Store)
		fmt.Printf("OpenAI API key: %s\n", credentials.Mask(keys.ModelKey))
		fmt.Printf("Tavily API key: %s\n", credentials.Mask(keys.SearchKey))
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysShowCmd)
	rootCmd.AddCommand(keysCmd)
}
