package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"player-statistics/feature/statsync/schema"

	"github.com/spf13/cobra"
)

var schemaJSONFlag bool

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create missing tables and print the column inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := schema.Bootstrap(ctx, rt.db, rt.dialect); err != nil {
			return err
		}
		inv, err := schema.Inventory(ctx, rt.db)
		if err != nil {
			return fmt.Errorf("failed to inspect schema: %w", err)
		}

		if schemaJSONFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(inv)
		}

		for _, table := range schema.Tables() {
			cols := inv[table]
			names := make([]string, 0, len(cols))
			for _, c := range cols {
				names = append(names, c.Field+" "+strings.ToLower(c.Type))
			}
			fmt.Printf("%-14s %s\n", table, strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaJSONFlag, "json", false, "Print the inventory as JSON")
	RootCmd.AddCommand(schemaCmd)
}
