package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/reporter/internal/pipeline"
	"github.com/ppiankov/reporter/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Generate reports for many message files in parallel",
	Long: `Batch generates one report per message file:
- Read message file paths from the input file (one per line)
- Generate the reports in parallel with a configurable worker count
- Write each response as JSON into the output directory

Relative paths are resolved against the directory of the input file.

Example:
  reporter batch inputs.txt
  reporter batch inputs.txt --concurrency 8 --output-dir ./reports --language de`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addGenerationFlags(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./reporter-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&htmlOutput, "html", false, "write HTML files instead of JSON responses")
}

func runBatch(cmd *cobra.Command, args []string) error {
	bindGenerationFlags(cmd)

	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Reporter Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	paths, err := worker.ReadPathsFromFile(file)
	if err != nil {
		return fmt.Errorf("read input list: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d message files\n", len(paths))

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Generating with %d workers...\n\n", concurrency)
	results := worker.ProcessFiles(ctx, concurrency, paths, func(ctx context.Context, data []byte) (*pipeline.Response, error) {
		return a.service.Run(ctx, pipeline.Request{
			Language: language,
			Format:   format,
			Data:     data,
			Links:    keepLinks,
		})
	})

	successCount := 0
	failureCount := 0
	ext := ".json"
	if htmlOutput {
		ext = ".html"
	}

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		out, err := encodeResponse(result.Value, htmlOutput)
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, err)
			continue
		}
		target := filepath.Join(outputDir, outputName(result.Path)+ext)
		if err := os.WriteFile(target, out, 0o644); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write output: %v\n", result.Path, err)
			continue
		}

		successCount++
		if len(result.Value.Errors) > 0 {
			fmt.Fprintf(os.Stderr, "! %s (%s)\n", result.Path, strings.Join(result.Value.Errors, ", "))
		} else {
			fmt.Fprintf(os.Stderr, "✓ %s (%d documents)\n", result.Path, len(result.Value.Bodies))
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// outputName derives a report file name from an input path
func outputName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		case ' ':
			return '-'
		}
		return r
	}, name)
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "report"
	}
	return name
}
