package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/messaging"
	"github.com/ziadkadry99/lexhover/internal/tooltip"
)

var defineJSON bool

var defineCmd = &cobra.Command{
	Use:   "define <term>",
	Short: "Resolve the definition of a legal term",
	Long: `Resolves a term the way a hovered marker would: local glossary, cache,
dictionary with model selection, then web search with model synthesis.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd.Context(), appCfg, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		term := glossary.Normalize(strings.Join(args, " "))
		localDef, _ := b.glossary.Current().Lookup(term)

		resp, err := b.channel.Send(cmd.Context(), messaging.Request{
			Action:   messaging.ActionGetDefinition,
			Term:     term,
			LocalDef: localDef,
		})
		if err != nil {
			return fmt.Errorf("requesting definition: %w", err)
		}
		if resp.Error != "" {
			return fmt.Errorf("resolving %q: %s", term, resp.Error)
		}

		if defineJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		fmt.Println(strings.ToUpper(term))
		fmt.Println(resp.Definition)
		if label := tooltip.Label(resp.Source); label != "" {
			fmt.Printf("Source: %s\n", label)
		}
		return nil
	},
}

func init() {
	defineCmd.Flags().BoolVar(&defineJSON, "json", false, "print the response as JSON")
	rootCmd.AddCommand(defineCmd)
}
