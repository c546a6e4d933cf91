package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/versolabs/versobot/internal/config"
	"github.com/versolabs/versobot/internal/db"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Muestra las generaciones recientes",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "número máximo de entradas")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	records, err := store.ListGenerations(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list generations: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("Sin generaciones todavía.")
		return nil
	}

	for _, g := range records {
		fmt.Printf("#%d  %s  %s sobre %q\n",
			g.ID, g.CreatedAt.Format("2006-01-02 15:04"), g.Style, g.Theme)
		if g.Error != "" {
			fmt.Printf("    error: %s\n", g.Error)
			continue
		}
		fmt.Printf("    %d versos, modelo %s, %dms\n", g.VerseCount, g.Model, g.DurationMs)
		if g.PoemText != "" {
			first := strings.SplitN(g.PoemText, "\n", 2)[0]
			fmt.Printf("    %s ...\n", first)
		}
	}
	return nil
}
