// Command petrogen generates a batch of VRP instances and stores them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"petrovrp/internal/config"
	"petrovrp/internal/logger"
	"petrovrp/internal/model"
	"petrovrp/internal/service"
	"petrovrp/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, loadedEnv, err := config.LoadSettings()

	configPath := flag.String("config", "", "Batch YAML file (default: built-in reference batch)")
	outDir := flag.String("out", settings.OutputDir, "Output directory for the file store")
	seed := flag.Int64("seed", 0, "Base seed override (unset keeps the batch seed)")
	parallel := flag.Int("parallel", settings.Parallelism, "Instances generated concurrently")
	list := flag.Bool("list", false, "Print the batch configuration and exit")
	storeKind := flag.String("store", config.StoreFile, "Store backend: file, memory or postgres")
	flag.Parse()

	if initErr := logger.Init(settings.LogLevel); initErr != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", initErr)
		os.Exit(1)
	}
	defer logger.Sync()
	if !loadedEnv {
		logger.Debugf(ctx, "No .env file found (using environment variables)")
	}
	if err != nil {
		logger.Fatal(ctx, err)
	}

	batch := config.DefaultBatch()
	if *configPath != "" {
		if batch, err = config.LoadBatch(*configPath); err != nil {
			logger.Fatal(ctx, err)
		}
	}
	overrideSeed(&batch, flag.CommandLine, *seed)

	if *list {
		if err := config.WriteBatch(os.Stdout, batch); err != nil {
			logger.Fatal(ctx, err)
		}
		return
	}

	st, err := store.Open(ctx, *storeKind, *outDir, settings.DatabaseURL)
	if err != nil {
		logger.Fatal(ctx, err)
	}
	if p, ok := st.(*store.Postgres); ok {
		defer p.Close()
	}

	svc := &service.Instances{Store: st, Parallelism: max(*parallel, 1)}
	results, err := svc.GenerateBatch(ctx, batch.Resolved())
	if err != nil {
		logger.Errorf(ctx, "generation failed: %v", err)
		os.Exit(1)
	}
	for _, res := range results {
		summarize(logger.WithFields(ctx, zap.String("instance", res.Instance.Metadata.Name)), res)
	}
	if f, ok := st.(*store.File); ok {
		logger.Infof(ctx, "%d instances written to %s", len(results), f.Dir())
	} else {
		logger.Infof(ctx, "%d instances stored (%s)", len(results), *storeKind)
	}
}

// overrideSeed replaces the batch base seed when -seed was given, 0 included.
func overrideSeed(b *config.Batch, fs *flag.FlagSet, seed int64) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			b.Seed = seed
		}
	})
}

func summarize(ctx context.Context, res service.Result) {
	inst := res.Instance
	stats := inst.Statistics
	logger.Infof(ctx, "%s: %d stations, %d trucks (minimum %d), total demand %s",
		res.ID, inst.Parameters.NStations, stats.TotalTrucksAvailable, stats.MinTotalRequiredTrucks,
		formatQuantities(stats.TotalDemand))
	if ratios := service.StockRatios(inst); ratios != nil {
		parts := make([]string, 0, len(ratios))
		for _, p := range model.Products {
			if r, ok := ratios[p]; ok {
				parts = append(parts, fmt.Sprintf("%s=%.2f", p, r))
			}
		}
		logger.Infof(ctx, "stock/demand ratios: %s", strings.Join(parts, " "))
	}
}

func formatQuantities(q model.Quantities) string {
	parts := make([]string, 0, len(model.Products))
	for _, p := range model.Products {
		parts = append(parts, fmt.Sprintf("%s=%d", p, q[p]))
	}
	return strings.Join(parts, " ")
}
