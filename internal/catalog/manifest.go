package catalog

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dermage/skin-analysis-api/internal/model"
)

// Manifest lists the catalog keys a deployment is expected to cover. It is
// used by cache warmup and by the catalog status tooling; serving does not
// require it.
type Manifest struct {
	Catalogs []ManifestEntry `yaml:"catalogs"`
}

// ManifestEntry is one declared catalog document.
type ManifestEntry struct {
	SkinType   string `yaml:"skin_type"`
	Complexity string `yaml:"complexity"`
	AgeBracket int    `yaml:"age_bracket"`
}

// Key converts a manifest entry to a CatalogKey.
func (e ManifestEntry) Key() model.CatalogKey {
	complexity := model.RoutineSimple
	if e.Complexity == string(model.RoutineComplete) {
		complexity = model.RoutineComplete
	}
	return model.CatalogKey{
		SkinType:   model.ParseSkinType(e.SkinType),
		Complexity: complexity,
		AgeBracket: model.AgeBracket(e.AgeBracket),
	}
}

// LoadManifest reads a manifest yaml file.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse manifest %s", path)
	}
	return &m, nil
}

// Keys returns every declared catalog key.
func (m *Manifest) Keys() []model.CatalogKey {
	keys := make([]model.CatalogKey, 0, len(m.Catalogs))
	for _, e := range m.Catalogs {
		keys = append(keys, e.Key())
	}
	return keys
}

func warm(ctx context.Context, r *Resolver, keys []model.CatalogKey, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, key := range keys {
		g.Go(func() error {
			recs, err := r.Resolve(gctx, key)
			if err != nil {
				return eris.Wrapf(err, "catalog: warm %s", key.ID())
			}
			zap.L().Debug("catalog warmed",
				zap.String("key", key.ID()),
				zap.Int("products", len(recs)),
			)
			return nil
		})
	}

	return g.Wait()
}
