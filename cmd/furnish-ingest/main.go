// Catalog ingest pipeline for furnish.
// Reads the scraped item CSV, embeds item images through the configured
// provider, and writes the catalog parquet artifact the server loads at
// startup.
//
// Usage:
//
//	furnish-ingest -csv data/items.csv -images-dir data/images -out data/catalog.parquet
//
// The embedding provider comes from the same config file as the server
// (ENV selects it, default "local").
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/casai-labs/furnish/internal/config"
	"github.com/casai-labs/furnish/internal/domain"
	logpkg "github.com/casai-labs/furnish/internal/logger"
	"github.com/casai-labs/furnish/internal/metrics"
	catalogrepo "github.com/casai-labs/furnish/internal/repository/catalog"
	openaiEmb "github.com/casai-labs/furnish/internal/transport/openai"
	embeddinguc "github.com/casai-labs/furnish/internal/usecase/embedding"
)

type flags struct {
	csvPath   string
	imagesDir string
	outPath   string
	batchSize int
}

func parseFlags() flags {
	f := flags{}
	flag.StringVar(&f.csvPath, "csv", "data/items.csv", "scraped item CSV")
	flag.StringVar(&f.imagesDir, "images-dir", "data/images", "directory with downloaded item images")
	flag.StringVar(&f.outPath, "out", "data/catalog.parquet", "output catalog parquet")
	flag.IntVar(&f.batchSize, "batch-size", 32, "images per embedding API call")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, f, cfg, logger); err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}
}

func run(ctx context.Context, f flags, cfg config.Config, logger *zap.Logger) error {
	metrics.RegisterEmbeddingMetrics()

	embedder, err := buildImageEmbedder(cfg, logger)
	if err != nil {
		return err
	}

	records, err := readItemCSV(f.csvPath)
	if err != nil {
		return err
	}
	logger.Info("Scraper CSV read", zap.String("path", f.csvPath), zap.Int("items", len(records)))

	rows, images := loadImages(records, f.imagesDir, logger)
	if len(rows) == 0 {
		return fmt.Errorf("no items with readable images in %s", f.imagesDir)
	}

	embedded, err := embedInBatches(ctx, embedder, rows, images, f.batchSize, logger)
	if err != nil {
		return err
	}

	if err := catalogrepo.New(logger).WriteRows(f.outPath, embedded); err != nil {
		return err
	}

	logger.Info("Ingest complete",
		zap.String("out", f.outPath),
		zap.Int("items", len(embedded)),
	)
	return nil
}

// buildImageEmbedder assembles the batched embedding chain for ingest:
// OpenAI -> Instrumented. No cache: every image is embedded exactly once.
func buildImageEmbedder(cfg config.Config, logger *zap.Logger) (domain.BatchImageEmbedder, error) {
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	if provName == "" {
		return nil, fmt.Errorf("no embedding vectorizer configured")
	}
	provCfg := cfg.Embedding.Providers[provName]

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	return embeddinguc.NewInstrumentedEmbedder(base, base, provName, vecCfg.Model, nil, logger), nil
}

// readItemCSV parses the scraper output. Columns are resolved by header name.
func readItemCSV(path string) ([]catalogrepo.ItemRow, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"item_id", "item_name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(rec) {
			return ""
		}
		return rec[idx]
	}

	var rows []catalogrepo.ItemRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		rows = append(rows, catalogrepo.ItemRow{
			ItemID:      field(rec, "item_id"),
			ItemName:    field(rec, "item_name"),
			ItemPrice:   field(rec, "item_price"),
			ItemCat:     field(rec, "item_cat"),
			ImageURL:    field(rec, "image_url"),
			ProductLink: field(rec, "product_link"),
			ImageFile:   field(rec, "image_file"),
		})
	}
	return rows, nil
}

// loadImages reads image bytes for every row. Rows without a readable image
// are dropped with a warning: an item cannot enter the catalog unembedded.
func loadImages(rows []catalogrepo.ItemRow, imagesDir string, logger *zap.Logger) ([]catalogrepo.ItemRow, [][]byte) {
	kept := make([]catalogrepo.ItemRow, 0, len(rows))
	images := make([][]byte, 0, len(rows))

	for _, row := range rows {
		if row.ImageFile == "" {
			logger.Warn("Item has no image file, skipping", zap.String("item_id", row.ItemID))
			continue
		}
		data, err := os.ReadFile(filepath.Clean(filepath.Join(imagesDir, row.ImageFile)))
		if err != nil {
			logger.Warn("Failed to read item image, skipping",
				zap.String("item_id", row.ItemID),
				zap.String("image_file", row.ImageFile),
				zap.Error(err),
			)
			continue
		}
		kept = append(kept, row)
		images = append(images, data)
	}
	return kept, images
}

// embedInBatches fills in Embedding for every row, batchSize images per call.
func embedInBatches(
	ctx context.Context,
	embedder domain.BatchImageEmbedder,
	rows []catalogrepo.ItemRow,
	images [][]byte,
	batchSize int,
	logger *zap.Logger,
) ([]catalogrepo.ItemRow, error) {
	if batchSize <= 0 {
		batchSize = 32
	}

	for offset := 0; offset < len(images); offset += batchSize {
		end := offset + batchSize
		if end > len(images) {
			end = len(images)
		}

		res, err := embedder.BatchEmbedImage(ctx, images[offset:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch at %d: %w", offset, err)
		}
		if len(res.Embeddings) != end-offset {
			return nil, fmt.Errorf("embed batch at %d: got %d embeddings for %d images",
				offset, len(res.Embeddings), end-offset)
		}

		for i, vec := range res.Embeddings {
			rows[offset+i].Embedding = vec
		}

		logger.Info("Embedded batch",
			zap.Int("offset", offset),
			zap.Int("size", end-offset),
			zap.Int("tokens", res.TotalTokens),
		)
	}
	return rows, nil
}
