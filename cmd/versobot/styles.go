package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/versolabs/versobot/internal/style"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Lista los estilos de poema disponibles",
	RunE:  runStyles,
}

func init() {
	rootCmd.AddCommand(stylesCmd)
}

func runStyles(cmd *cobra.Command, args []string) error {
	for _, s := range style.All() {
		fmt.Printf("%-12s %s\n", s.ID, s.Name)

		var details []string
		if s.VerseCount > 0 {
			details = append(details, fmt.Sprintf("%d versos", s.VerseCount))
		}
		if len(s.RhymeScheme) > 0 {
			details = append(details, "rima "+strings.Join(s.RhymeScheme, ""))
		}
		if len(details) > 0 {
			fmt.Printf("             %s\n", strings.Join(details, ", "))
		}
		fmt.Printf("             %s\n\n", s.PromptFragment)
	}
	return nil
}
