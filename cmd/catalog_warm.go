package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/catalog"
)

var warmConcurrency int

var catalogWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Preload every manifest catalog into the cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Catalog.ManifestPath == "" {
			return eris.New("catalog manifest path is required (SKINAPI_CATALOG_MANIFEST_PATH)")
		}

		manifest, err := catalog.LoadManifest(cfg.Catalog.ManifestPath)
		if err != nil {
			return eris.Wrap(err, "load manifest")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		keys := manifest.Keys()
		resolver := catalog.NewResolver(st, catalog.NewCache())
		if err := resolver.Warm(ctx, keys, warmConcurrency); err != nil {
			return eris.Wrap(err, "warm catalogs")
		}

		zap.L().Info("catalog warm complete", zap.Int("keys", len(keys)))
		return nil
	},
}

func init() {
	catalogWarmCmd.Flags().IntVar(&warmConcurrency, "concurrency", 4, "parallel catalog loads")
	catalogCmd.AddCommand(catalogWarmCmd)
}
