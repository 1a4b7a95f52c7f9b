package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileResult is the outcome of processing one input file
type FileResult[T any] struct {
	Path  string
	Value T
	Error error
}

// GetError returns the processing error
func (r *FileResult[T]) GetError() error {
	return r.Error
}

type fileJob[T any] struct {
	path    string
	process func(ctx context.Context, data []byte) (T, error)
}

func (j *fileJob[T]) Execute(ctx context.Context) Result {
	result := &FileResult[T]{Path: j.path}
	data, err := os.ReadFile(j.path)
	if err != nil {
		result.Error = fmt.Errorf("read input: %w", err)
		return result
	}
	result.Value, result.Error = j.process(ctx, data)
	return result
}

// ProcessFiles reads every path and runs process on its content with the
// given concurrency. Results follow the order of paths.
func ProcessFiles[T any](ctx context.Context, workers int, paths []string, process func(ctx context.Context, data []byte) (T, error)) []*FileResult[T] {
	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = &fileJob[T]{path: path, process: process}
	}

	results := Run(ctx, workers, jobs)
	out := make([]*FileResult[T], len(paths))
	for i, r := range results {
		if r == nil {
			out[i] = &FileResult[T]{Path: paths[i], Error: ctx.Err()}
			continue
		}
		out[i] = r.(*FileResult[T])
	}
	return out
}

// ReadPathsFromFile reads input paths from a file, one per line. Blank
// lines and # comments are skipped, duplicates dropped and relative paths
// resolved against the list file's directory.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}
