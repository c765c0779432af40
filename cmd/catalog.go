package main

import (
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage catalog documents",
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
