// Package catalog loads the product catalog from a parquet artifact.
// The artifact is produced offline by the ingest tool: scraped item
// metadata plus one precomputed embedding per item.
package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	dcatalog "github.com/casai-labs/furnish/internal/domain/catalog"
)

// ItemRow is the parquet schema of one catalog row.
// Column names follow the scraper output (item_id, item_name, ...).
type ItemRow struct {
	ItemID      string    `parquet:"item_id"`
	ItemName    string    `parquet:"item_name"`
	ItemPrice   string    `parquet:"item_price"`
	ItemCat     string    `parquet:"item_cat"`
	ImageURL    string    `parquet:"image_url"`
	ProductLink string    `parquet:"product_link"`
	ImageFile   string    `parquet:"image_file"`
	Embedding   []float32 `parquet:"embedding,list"`
}

// Loader reads catalog parquet artifacts.
type Loader struct {
	logger *zap.Logger
}

// New creates a catalog loader.
func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the parquet artifact at path and builds an in-memory catalog.
// Rows without an id or an embedding, and rows whose embedding dimension
// differs from the first accepted row, are skipped with a warning: a
// partially embedded artifact still serves, it just serves fewer items.
func (l *Loader) Load(path string) (*dcatalog.Catalog, error) {
	cleanPath := filepath.Clean(path)

	rows, err := parquet.ReadFile[ItemRow](cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog parquet %s: %w", cleanPath, err)
	}

	items := make([]dcatalog.Item, 0, len(rows))
	skipped := 0
	dim := 0
	for i, row := range rows {
		item, err := dcatalog.NewItem(
			row.ItemID, row.ItemName, row.ItemPrice, row.ItemCat,
			imageRef(row), row.ProductLink, row.Embedding,
		)
		if err != nil {
			skipped++
			l.logger.Warn("Skipping catalog row",
				zap.Int("row", i),
				zap.String("item_id", row.ItemID),
				zap.Error(err),
			)
			continue
		}
		// The first accepted row fixes the catalog dimensionality.
		if dim == 0 {
			dim = len(row.Embedding)
		} else if len(row.Embedding) != dim {
			skipped++
			l.logger.Warn("Skipping catalog row",
				zap.Int("row", i),
				zap.String("item_id", row.ItemID),
				zap.Int("dimensions", len(row.Embedding)),
				zap.Int("catalog_dimensions", dim),
			)
			continue
		}
		items = append(items, item)
	}

	cat, err := dcatalog.New(items)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	l.logger.Info("Catalog loaded",
		zap.String("path", cleanPath),
		zap.Int("items", cat.Len()),
		zap.Int("skipped", skipped),
		zap.Int("dimensions", cat.Dim()),
	)
	return cat, nil
}

// WriteRows writes catalog rows as a parquet artifact. Used by the ingest tool.
func (l *Loader) WriteRows(path string, rows []ItemRow) error {
	cleanPath := filepath.Clean(path)
	if err := parquet.WriteFile(cleanPath, rows); err != nil {
		return fmt.Errorf("write catalog parquet %s: %w", cleanPath, err)
	}
	l.logger.Info("Catalog written",
		zap.String("path", cleanPath),
		zap.Int("items", len(rows)),
	)
	return nil
}

// imageRef prefers the local image file over the remote URL.
// The ingest tool records both when it downloads images.
func imageRef(row ItemRow) string {
	if row.ImageFile != "" {
		return row.ImageFile
	}
	return row.ImageURL
}
