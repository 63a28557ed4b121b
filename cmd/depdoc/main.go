package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"depdoc/internal/analysis"
	"depdoc/internal/config"
	"depdoc/internal/crawler"
	"depdoc/internal/ctxlog"
	"depdoc/internal/extractor"
	"depdoc/internal/git"
	"depdoc/internal/graph"
	"depdoc/internal/index"
	"depdoc/internal/knowledge"
	"depdoc/internal/pipeline"
	"depdoc/internal/resolver"
	"depdoc/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "depdoc",
		Short: "Dependency-aware documentation generator for Python projects",
	}
	configPath string
	verbose    bool
	baseRef    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(impactCmd)

	impactCmd.Flags().StringVar(&baseRef, "base", "HEAD", "Git ref to diff against")
}

// runContext builds the base context carrying the run's logger.
func runContext() context.Context {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return ctxlog.WithLogger(context.Background(), logger)
}

// resolveRoot picks the project root from args or config.
func resolveRoot(cfg *config.Config, args []string) (string, error) {
	root := cfg.Project.Root
	if len(args) > 0 {
		root = args[0]
	}
	return filepath.Abs(root)
}

// buildScan runs the crawl → extract → resolve phase shared by all commands.
func buildScan(ctx context.Context, root string) (*index.Scan, error) {
	idx := index.NewIndexer(crawler.NewCrawler(), extractor.NewExtractor())
	return idx.BuildGraph(ctx, root)
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a project and report its dependency graph",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := runContext()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		root, err := resolveRoot(cfg, args)
		if err != nil {
			log.Fatalf("Failed to resolve project root: %v", err)
		}

		fmt.Printf("📂 Scanning directory: %s\n", root)
		start := time.Now()
		scan, err := buildScan(ctx, root)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}

		g := scan.Graph
		fmt.Printf("✅ Graph built in %v. %d nodes, %d internal edges.\n",
			time.Since(start).Round(time.Millisecond), g.NodeCount(), g.EdgeCount())

		kinds := make([]string, 0, len(scan.KindCounts))
		for k := range scan.KindCounts {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("  -> %-18s %d\n", k, scan.KindCounts[resolver.Kind(k)])
		}

		if len(scan.ParseFailures) > 0 {
			fmt.Printf("⚠️  %d files failed to parse:\n", len(scan.ParseFailures))
			for _, pf := range scan.ParseFailures {
				fmt.Printf("  -> %s:%d %s\n", pf.File, pf.Line, pf.Message)
			}
		}
	},
}

var orderCmd = &cobra.Command{
	Use:   "order [path]",
	Short: "Print the dependency-first processing order",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := runContext()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		root, err := resolveRoot(cfg, args)
		if err != nil {
			log.Fatalf("Failed to resolve project root: %v", err)
		}

		scan, err := buildScan(ctx, root)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}

		order, groups, err := scan.Graph.Analyze()
		if err != nil {
			log.Fatalf("Ordering failed: %v", err)
		}

		if len(groups) > 0 {
			fmt.Printf("🔄 %d cycle groups detected.\n", len(groups))
		}

		contexts := knowledge.NewContextManager(root, knowledge.SummaryPolicy{
			MaxLength:        cfg.Context.MaxLength,
			CompressionRatio: cfg.Context.CompressionRatio,
		})
		for i, item := range order {
			if item.Group != nil {
				names := make([]string, 0, len(item.Group.Members))
				for _, m := range item.Group.Members {
					names = append(names, contexts.DisplayName(m))
				}
				fmt.Printf("%3d. [cycle] %v\n", i+1, names)
				continue
			}
			fmt.Printf("%3d. %s\n", i+1, contexts.DisplayName(item.Node.Path))
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Generate documentation for every module, dependencies first",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := runContext()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if cfg.AI.APIKey == "" {
			log.Fatalf("AI API key not configured (set ai.api_key or DEPDOC_API_KEY)")
		}

		root, err := resolveRoot(cfg, args)
		if err != nil {
			log.Fatalf("Failed to resolve project root: %v", err)
		}

		fmt.Printf("📂 Scanning directory: %s\n", root)
		scan, err := buildScan(ctx, root)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Printf("✅ Graph built. %d nodes, %d internal edges.\n",
			scan.Graph.NodeCount(), scan.Graph.EdgeCount())

		gen, err := knowledge.NewGeminiGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Fatalf("Failed to create generator: %v", err)
		}

		store, err := storage.NewSQLiteStore(cfg.Output.DB)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		sink := storage.MultiSink{store}
		if cfg.Output.WriteMarkdown {
			sink = append(sink, storage.NewFileSink())
		}

		contexts := knowledge.NewContextManager(root, knowledge.SummaryPolicy{
			MaxLength:        cfg.Context.MaxLength,
			CompressionRatio: cfg.Context.CompressionRatio,
		})

		p := pipeline.New(scan.Graph, gen, contexts, sink, pipeline.Config{
			MaxAttempts:   cfg.Run.MaxAttempts,
			Workers:       cfg.Run.Workers,
			Timeout:       cfg.Timeout(),
			AbortOnError:  cfg.Run.AbortOnError,
			SkipOnFailure: cfg.Run.SkipOnFailure,
			GroupPolicy:   pipeline.GroupPolicy(cfg.Run.GroupPolicy),
			FallbackFlat:  cfg.Run.FallbackFlat,
		})
		p.RecordParseFailures(scan.ParseFailures)

		fmt.Println("✍️  Generating documentation...")
		start := time.Now()
		report, err := p.Run(ctx)
		if err != nil {
			log.Fatalf("Run failed: %v", err)
		}

		if err := store.SaveReport(ctx, report); err != nil {
			log.Fatalf("Failed to save report: %v", err)
		}

		counts := report.Counts()
		fmt.Printf("🎉 Done in %v. %d/%d documented (%.0f%%), %d errors, %d skipped.\n",
			time.Since(start).Round(time.Second),
			counts[graph.StateCompleted], report.TotalNodes,
			report.CompletionFraction()*100,
			counts[graph.StateError], counts[graph.StateSkipped])

		for _, e := range report.Errors {
			fmt.Printf("  ⚠️  %s [%s] attempt %d: %s\n", contexts.DisplayName(e.Node), e.Kind, e.Attempt, e.Message)
		}
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact [path]",
	Short: "List modules whose documentation is stale after git changes",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := runContext()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		root, err := resolveRoot(cfg, args)
		if err != nil {
			log.Fatalf("Failed to resolve project root: %v", err)
		}

		changes, err := git.ChangedFiles(root, baseRef)
		if err != nil {
			log.Fatalf("Failed to get git changes: %v", err)
		}
		if len(changes) == 0 {
			fmt.Println("✅ No changes detected.")
			return
		}

		scan, err := buildScan(ctx, root)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}

		report := analysis.NewAnalyzer(scan.Graph).AnalyzeImpact(changes)

		contexts := knowledge.NewContextManager(root, knowledge.SummaryPolicy{
			MaxLength:        cfg.Context.MaxLength,
			CompressionRatio: cfg.Context.CompressionRatio,
		})
		fmt.Printf("📝 %d changed modules, %d stale dependents.\n", len(report.Changed), len(report.Stale))
		for _, n := range report.Changed {
			fmt.Printf("  -> changed: %s\n", contexts.DisplayName(n.Path))
		}
		for _, n := range report.Stale {
			fmt.Printf("  -> stale:   %s\n", contexts.DisplayName(n.Path))
		}
	},
}
