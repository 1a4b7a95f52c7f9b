package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/reporter/internal/templates"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages reports can be generated in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, lang := range a.service.Languages() {
			fmt.Println(lang)
		}
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Work with template files",
}

var templatesCheckCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Parse template files and report errors",
	Long: `Check parses each template file and prints the number of templates
found per language. Parse errors show the offending template text.

Example:
  reporter templates check crime.txt population.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			set, err := templates.ReadFile(path, "en")
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
				continue
			}

			langs := set.Languages()
			sort.Strings(langs)
			counts := make([]string, len(langs))
			for i, lang := range langs {
				counts[i] = fmt.Sprintf("%s=%d", lang, len(set[lang]))
			}
			fmt.Fprintf(os.Stderr, "✓ %s: %s\n", path, strings.Join(counts, " "))
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d template files failed to parse", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesCheckCmd)
}
