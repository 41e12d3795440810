package main

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

var testCatalog = filepath.Join("..", "..", "catalog", "testdata", "products.csv")

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"recommendit"}, args...))
	return out.String(), err
}

func findFlag(t *testing.T, cmd *cli.Command, name string) cli.Flag {
	t.Helper()
	for _, flag := range cmd.Flags {
		if flag.Names()[0] == name {
			return flag
		}
	}
	t.Fatalf("flag %q not found", name)
	return nil
}

func TestRecommendCommandFlags(t *testing.T) {
	t.Setenv("RECOMMENDIT_CATALOG", "")
	require.NoError(t, os.Unsetenv("RECOMMENDIT_CATALOG"))
	cmd := newApp().Commands[0]
	require.Equal(t, "recommend", cmd.Name)

	t.Run("catalog is required", func(t *testing.T) {
		_, err := runApp(t, "recommend", "data analyst")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog")
	})

	t.Run("level defaults to any", func(t *testing.T) {
		flag := findFlag(t, cmd, "level").(*cli.StringFlag)
		assert.Equal(t, "any", flag.Value)
	})

	t.Run("categories default to cognitive and personality", func(t *testing.T) {
		flag := findFlag(t, cmd, "category").(*cli.StringSliceFlag)
		assert.Equal(t, []string{"Cognitive", "Personality"}, flag.Value.Value())
	})

	t.Run("top-k and min-score defaults", func(t *testing.T) {
		assert.Equal(t, 5, findFlag(t, cmd, "top-k").(*cli.IntFlag).Value)
		assert.InDelta(t, 0.15, findFlag(t, cmd, "min-score").(*cli.Float64Flag).Value, 1e-6)
	})

	t.Run("batch-size default", func(t *testing.T) {
		assert.Equal(t, 32, findFlag(t, cmd, "batch-size").(*cli.IntFlag).Value)
	})
}

func TestRecommendCommandValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing job description",
			args:    []string{"recommend", "--catalog", testCatalog, "--backend", "local"},
			wantErr: "job description is required",
		},
		{
			name:    "invalid batch size",
			args:    []string{"recommend", "--catalog", testCatalog, "--backend", "local", "--batch-size", "0", "analyst"},
			wantErr: "batch-size",
		},
		{
			name:    "unknown backend",
			args:    []string{"recommend", "--catalog", testCatalog, "--backend", "word2vec", "analyst"},
			wantErr: "unknown backend",
		},
		{
			name:    "missing catalog file",
			args:    []string{"recommend", "--catalog", "/nonexistent/catalog.csv", "--backend", "local", "analyst"},
			wantErr: "failed to load recommender",
		},
		{
			name:    "min score out of range",
			args:    []string{"recommend", "--catalog", testCatalog, "--backend", "local", "--min-score", "2", "analyst"},
			wantErr: "min score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRecommendCommand(t *testing.T) {
	t.Run("prints table", func(t *testing.T) {
		out, err := runApp(t, "recommend", "--catalog", testCatalog, "--backend", "local",
			"--level", "Graduate", "graduate", "numerical", "data", "analyst")
		require.NoError(t, err)
		assert.Contains(t, out, "PRODUCT")
		assert.Contains(t, out, "MATCH")
		assert.Contains(t, out, "Verify Numerical Reasoning")
	})

	t.Run("writes csv output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shl_recommendations.csv")
		_, err := runApp(t, "recommend", "--catalog", testCatalog, "--backend", "local",
			"--all-categories", "--min-score", "-1", "--top-k", "2", "--output", path, "java coding")
		require.NoError(t, err)

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, catalog.ExportColumns, rows[0])
		assert.Equal(t, "Java Coding Simulation", rows[1][0])
	})

	t.Run("empty result shows sample", func(t *testing.T) {
		out, err := runApp(t, "recommend", "--catalog", testCatalog, "--backend", "local",
			"--level", "Executive", "zzz qqq")
		require.NoError(t, err)
		assert.Contains(t, out, "No specific matches found")
		assert.Contains(t, out, "40%")
	})

	t.Run("fallback notice", func(t *testing.T) {
		out, err := runApp(t, "recommend", "--catalog", testCatalog, "--backend", "local",
			"--category", "Technical", "zzz qqq")
		require.NoError(t, err)
		assert.Contains(t, out, "last-resort fallback")
		assert.Contains(t, out, "Java Coding Simulation")
	})
}

func TestInspectCommand(t *testing.T) {
	out, err := runApp(t, "inspect", "--catalog", testCatalog)
	require.NoError(t, err)
	assert.Contains(t, out, "Items:      4")
	assert.Contains(t, out, "Dropped:    1")
	assert.Contains(t, out, "Cognitive, Personality, Situational Judgment, Technical")
	assert.Contains(t, out, "Graduate, Manager, Entry-Level, Director")
}

func TestSample(t *testing.T) {
	cat := catalog.New([]core.CatalogItem{
		{ProductName: "A", Description: "a"},
		{ProductName: "B", Description: "b"},
		{ProductName: "C", Description: "c"},
	})
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("caps at catalog size", func(t *testing.T) {
		recs := sample(cat, 5, rng)
		require.Len(t, recs, 3)

		seen := make(map[string]bool)
		for _, rec := range recs {
			assert.Equal(t, core.KeywordScore, rec.Score)
			assert.False(t, seen[rec.Item.ProductName], "duplicate %s", rec.Item.ProductName)
			seen[rec.Item.ProductName] = true
		}
	})

	t.Run("caps at n", func(t *testing.T) {
		assert.Len(t, sample(cat, 2, rng), 2)
	})

	t.Run("empty catalog", func(t *testing.T) {
		assert.Empty(t, sample(catalog.New(nil), 5, nil))
	})
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func(action cli.ActionFunc) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: action,
		}
	}
	noop := func(c *cli.Context) error { return nil }

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"INFO", slog.LevelInfo},
			{"WaRn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(t.Context(), tc.expected))
				assert.False(t, slog.Default().Enabled(t.Context(), tc.expected-1))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp(noop).Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		err := newLoggerApp(func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		}).Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()
	os.Exit(code)
}
