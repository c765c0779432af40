package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/catalog"
)

var catalogImportPath string

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import products from an XLSX workbook into the catalog store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := catalog.ImportXLSX(ctx, st, catalogImportPath)
		if err != nil {
			return eris.Wrap(err, "import workbook")
		}

		zap.L().Info("catalog import complete",
			zap.String("workbook", catalogImportPath),
			zap.Int("documents", res.Documents),
			zap.Int("products", res.Products),
			zap.Int("skipped", res.Skipped),
		)
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().StringVar(&catalogImportPath, "xlsx", "", "path to product workbook (required)")
	_ = catalogImportCmd.MarkFlagRequired("xlsx")
	catalogCmd.AddCommand(catalogImportCmd)
}
