package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/reporter/internal/pipeline"
)

var (
	language   string
	format     string
	keepLinks  bool
	outPath    string
	htmlOutput bool
	timeout    time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Generate a report from a message file",
	Long: `Generate reads a JSON array of messages (or a single message) and
writes the headlines and bodies of the resulting documents.

Records carrying a "split" key are grouped and each group becomes its own
document. Without a file argument, or with "-", messages are read from
stdin.

Example:
  reporter generate messages.json
  reporter generate messages.json --language fi --format ul
  cat messages.json | reporter generate --html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addGenerationFlags(generateCmd)

	generateCmd.Flags().StringVarP(&outPath, "output", "o", "", "output path (default: stdout)")
	generateCmd.Flags().BoolVar(&htmlOutput, "html", false, "write HTML instead of the JSON response")
	generateCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "generation timeout")
}

// addGenerationFlags registers the flags shared by generate and batch
func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&language, "language", "l", "", "output language (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "body format: p, ul or ol (default from config)")
	cmd.Flags().BoolVar(&keepLinks, "links", false, "keep <a> elements in the output")
	cmd.Flags().Uint64("seed", 0, "PRNG seed (0 picks a random one)")
	cmd.Flags().Bool("no-cache", false, "disable the report cache")
}

// bindGenerationFlags binds the shared flags of cmd to viper. Binding
// happens at run time because generate and batch share the keys.
func bindGenerationFlags(cmd *cobra.Command) {
	_ = viper.BindPFlag("generation.seed", cmd.Flags().Lookup("seed"))
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		viper.Set("cache.enabled", false)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	bindGenerationFlags(cmd)

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}
	data, err := readInput(input)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Input: %s (%d bytes)\n", input, len(data))
		fmt.Fprintf(os.Stderr, "Seed: %d\n", a.service.Seed())
		fmt.Fprintln(os.Stderr)
	}

	resp, err := a.service.Run(ctx, pipeline.Request{
		Language: language,
		Format:   format,
		Data:     data,
		Links:    keepLinks,
	})
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Generated %d documents in %s\n", len(resp.Bodies), resp.Language)
		for _, e := range resp.Errors {
			fmt.Fprintf(os.Stderr, "✗ %s\n", e)
		}
	}

	out, err := encodeResponse(resp, htmlOutput)
	if err != nil {
		return err
	}
	return writeOutput(outPath, out)
}

// readInput reads path, or stdin for "-"
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// encodeResponse renders resp as indented JSON or as one HTML fragment
// with each headline followed by its body
func encodeResponse(resp *pipeline.Response, html bool) ([]byte, error) {
	if !html {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode response: %w", err)
		}
		return append(data, '\n'), nil
	}

	var b strings.Builder
	for i := range resp.Bodies {
		b.WriteString(resp.Headlines[i])
		b.WriteString("\n")
		b.WriteString(resp.Bodies[i])
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	return nil
}
