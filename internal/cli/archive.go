package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/reporter/internal/cache"
	"github.com/ppiankov/reporter/internal/pipeline"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and replay payloads that failed generation",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived payloads, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if a.archive == nil {
			return fmt.Errorf("archive is disabled (archive.enabled: false)")
		}

		payloads, err := a.archive.List(context.Background())
		if err != nil {
			return err
		}
		if len(payloads) == 0 {
			fmt.Fprintln(os.Stderr, "No archived payloads")
			return nil
		}
		for _, p := range payloads {
			fmt.Printf("%s  %s  %-5s %6d bytes  %s\n", p.ID, p.CreatedAt.Local().Format(time.DateTime), p.Language, len(p.Data), p.Reason)
		}
		return nil
	},
}

var archiveReplayCmd = &cobra.Command{
	Use:   "replay <id>",
	Short: "Run an archived payload through generation again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Replays must not be answered from the cache
		viper.Set("cache.enabled", false)

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if a.archive == nil {
			return fmt.Errorf("archive is disabled (archive.enabled: false)")
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		payload, err := a.archive.Get(ctx, args[0])
		if err != nil {
			return err
		}
		resp, err := a.service.Run(ctx, pipeline.Request{Language: payload.Language, Data: payload.Data})
		if err != nil {
			return fmt.Errorf("replay failed: %w", err)
		}

		out, err := encodeResponse(resp, false)
		if err != nil {
			return err
		}
		return writeOutput("", out)
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the report cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cache.FromConfig(cfg.Cache).Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Cleared report cache %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveReplayCmd)

	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
