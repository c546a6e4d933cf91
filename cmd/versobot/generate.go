package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/versolabs/versobot/internal/app"
	"github.com/versolabs/versobot/internal/config"
)

var generateStyle string

var generateCmd = &cobra.Command{
	Use:   "generate [tema]",
	Short: "Genera un poema sobre un tema",
	Long: `Genera un poema en el estilo elegido sobre el tema dado.

Example:
  versobot generate "la melancolía del otoño" --estilo soneto`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateStyle, "estilo", "verso-libre",
		"estilo del poema (ver: versobot styles)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	theme := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	poem, err := a.Generator.Generate(ctx, generateStyle, theme)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	fmt.Println()
	fmt.Printf("=== %s sobre %q ===\n", poem.StyleName, poem.Theme)
	fmt.Println()
	fmt.Println(poem.Text())
	fmt.Println()
	fmt.Printf("(modelo: %s, %d versos, %.1fs)\n",
		poem.Model, len(poem.Verses), poem.Duration.Seconds())
	if poem.UsedFallback {
		fmt.Println("(se usó el modelo de respaldo)")
	}

	return nil
}
