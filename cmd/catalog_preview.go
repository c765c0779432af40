package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dermage/skin-analysis-api/internal/profile"
)

var catalogPreviewCmd = &cobra.Command{
	Use:   "preview [answer text]",
	Short: "Classify answer text and show the catalog it would select",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		c := profile.Classify(text)

		fmt.Printf("age group:    %d (%s)\n", c.AgeBracket, c.AgeBracket.Description())
		fmt.Printf("routine type: %s\n", c.Complexity)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogPreviewCmd)
}
