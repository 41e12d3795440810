// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/recommendit"
	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
	"github.com/urfave/cli/v2"
)

// sampleSize is how many catalog items are shown when nothing could be recommended.
const sampleSize = 5

func main() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "catalog",
		Aliases:  []string{"c"},
		Usage:    "Path to the product catalog CSV",
		EnvVars:  []string{"RECOMMENDIT_CATALOG"},
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "recommendit",
		Usage: "Recommend assessment products for a job description",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "recommend",
				Usage:     "Recommend products for a job description",
				ArgsUsage: "<job description>",
				Action:    recommendCommand,
				Flags: []cli.Flag{
					catalogFlag(),
					&cli.StringFlag{
						Name:  "level",
						Usage: "Experience level (Any, Entry-Level, Graduate, Manager, Director, Executive)",
						Value: core.AnyLevel,
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Usage: "Preferred category, repeatable",
						Value: cli.NewStringSlice("Cognitive", "Personality"),
					},
					&cli.BoolFlag{
						Name:  "all-categories",
						Usage: "Disable the category filter",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of recommendations",
						Value: core.DefaultTopK,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Similarity threshold before fallbacks apply",
						Value: float64(core.DefaultMinScore),
					},
					&cli.StringFlag{
						Name:    "backend",
						Usage:   "Embedding backend (openai, local)",
						Value:   ai.BackendOpenAI,
						EnvVars: []string{"RECOMMENDIT_BACKEND"},
					},
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						Value:   "http://localhost:11434/v1",
						EnvVars: []string{"RECOMMENDIT_EMBEDDING_HOST"},
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						Value:   "all-minilm",
						EnvVars: []string{"RECOMMENDIT_EMBEDDING_MODEL"},
					},
					&cli.StringFlag{
						Name:    "api-token",
						Usage:   "Bearer token for the embedding service",
						EnvVars: []string{"RECOMMENDIT_API_TOKEN"},
					},
					&cli.IntFlag{
						Name:  "dimensions",
						Usage: "Vector length for the local backend",
						Value: 512,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of catalog items per embedding call",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of embedding calls in flight while loading",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each failed embedding call",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also write the recommendations to this CSV file",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report catalog embedding progress on stderr",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Summarize a product catalog",
				Action: inspectCommand,
				Flags:  []cli.Flag{catalogFlag()},
			},
		},
	}
}

func recommendCommand(c *cli.Context) error {
	ctx := context.Background()

	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("job description is required")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("concurrency") <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	aiConfig := ai.NewConfig(
		ai.WithBackend(c.String("backend")),
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIToken(c.String("api-token")),
		ai.WithDimensions(c.Int("dimensions")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []recommendit.Option{
		recommendit.WithAIConfig(aiConfig),
		recommendit.WithBatchSize(c.Int("batch-size")),
		recommendit.WithConcurrency(c.Int("concurrency")),
		recommendit.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
	}
	if c.Bool("progress") {
		opts = append(opts, recommendit.WithProgress(os.Stderr))
	}

	r, err := recommendit.New(ctx, c.String("catalog"), opts...)
	if err != nil {
		return fmt.Errorf("failed to load recommender: %w", err)
	}
	defer r.Close()

	queryOpts := []core.QueryOption{
		core.WithExperienceLevel(c.String("level")),
		core.WithTopK(c.Int("top-k")),
		core.WithMinScore(float32(c.Float64("min-score"))),
	}
	if !c.Bool("all-categories") {
		queryOpts = append(queryOpts, core.WithCategories(c.StringSlice("category")...))
	}

	result, err := r.Recommend(ctx, core.NewQuery(text, queryOpts...))
	if err != nil {
		return err
	}

	out := c.App.Writer
	if result.Failed() {
		slog.Warn("recommendation failed, showing catalog sample", "err", result.Err)
	}
	if result.Empty() {
		fmt.Fprintln(out, "No specific matches found. Showing general recommendations.")
		result = &core.Result{
			Stage: core.StageLastResort,
			Items: sample(r.Catalog(), sampleSize, nil),
		}
	} else if result.Fallback() {
		fmt.Fprintf(out, "No strong matches found (%s fallback). Showing closest recommendations.\n", result.Stage)
	}

	if err := printTable(out, result.Items); err != nil {
		return err
	}

	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		if err := r.Export(f, result); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("recommendations written", "path", path, "items", len(result.Items))
	}

	return nil
}

func inspectCommand(c *cli.Context) error {
	cat, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Items:      %d\n", cat.Len())
	fmt.Fprintf(out, "Skipped:    %d\n", cat.Skipped())
	fmt.Fprintf(out, "Dropped:    %d\n", cat.Dropped())
	fmt.Fprintf(out, "Categories: %s\n", strings.Join(cat.Categories(), ", "))
	fmt.Fprintf(out, "Job levels: %s\n", strings.Join(cat.JobLevels(), ", "))
	return nil
}

// sample picks up to n distinct items at random, each scored core.KeywordScore.
// A nil rng uses the global source.
func sample(cat *catalog.Catalog, n int, rng *rand.Rand) []core.Recommendation {
	perm := rand.Perm
	if rng != nil {
		perm = rng.Perm
	}

	items := cat.Items()
	picked := perm(len(items))
	if len(picked) > n {
		picked = picked[:n]
	}

	recs := make([]core.Recommendation, len(picked))
	for i, idx := range picked {
		recs[i] = core.Recommendation{Item: items[idx], Score: core.KeywordScore}
	}
	return recs
}

func printTable(w io.Writer, recs []core.Recommendation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPRODUCT\tCATEGORY\tJOB LEVELS\tMINUTES\tMATCH")
	for i, rec := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%g\t%.0f%%\n", i+1,
			rec.Item.ProductName, rec.Item.Category, rec.Item.JobLevels,
			rec.Item.DurationMinutes, rec.Score*100)
	}
	return tw.Flush()
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
