package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"syscall"

	"github.com/pevans/riuff/cache"
	"github.com/pevans/riuff/config"
	"github.com/pevans/riuff/crawler"
	"github.com/spf13/cobra"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// parseYear validates the optional year argument. No argument means no year
// limit and yields zero.
func parseYear(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	if !yearPattern.MatchString(args[0]) {
		return 0, fmt.Errorf("invalid year %q: expected four digits", args[0])
	}
	return strconv.Atoi(args[0])
}

// NewRootCmd creates the root command, which runs a crawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "riuff [year]",
		Short: "Crawl the RIUFF repository into a JSON dataset",
		Long: `riuff walks the recent submissions of each configured collection,
fetches the full metadata of every item and writes the collected records to
a timestamped JSON file.

Items already in the cache are never fetched again, so an interrupted crawl
can simply be restarted. With a year argument, only items whose degree year
is at least that year are kept, and pagination stops once a listing page ends
with an older item.`,
		Version:       getVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			yearLimit, err := parseYear(args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return runCrawl(cmd.Context(), cfg, yearLimit, cmd.OutOrStdout(), log.Default())
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default ./riuff.yaml, then $XDG_CONFIG_HOME/riuff/config.yaml)")
	cmd.PersistentFlags().String("output-dir", "", "Directory for dataset files")

	cmd.Flags().String("cache-dir", "", "Directory for cached item records")
	cmd.Flags().Duration("delay", 0, "Pause before every request")
	cmd.Flags().Duration("timeout", 0, "Timeout per request (0 disables)")
	cmd.Flags().String("on-error", "", "What to do when an item fails: abort or skip")
	cmd.Flags().Int("max-pages", 0, "Maximum listing pages per collection (0 is unbounded)")
	cmd.Flags().Bool("respect-robots", false, "Honor the repository's robots.txt")

	cmd.AddCommand(NewLatestCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig reads the configuration file and applies the flags that were
// set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, found, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if found != "" {
		log.Printf("INFO: using configuration file %s", found)
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir, _ = flags.GetString("cache-dir")
	}
	if flags.Changed("delay") {
		cfg.Delay, _ = flags.GetDuration("delay")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("on-error") {
		cfg.OnError, _ = flags.GetString("on-error")
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("respect-robots") {
		cfg.RespectRobots, _ = flags.GetBool("respect-robots")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runCrawl crawls every configured collection and reports the result on out.
func runCrawl(ctx context.Context, cfg *config.Config, yearLimit int, out io.Writer, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewFileStore(cfg.CacheDir)
	throttle := crawler.NewThrottle(cfg.Delay, logger)

	c, err := crawler.New(store, throttle, cfg.CrawlerConfig(logger))
	if err != nil {
		return err
	}

	summary, err := c.Run(ctx, cfg.Collections, crawler.RunOptions{
		YearLimit: yearLimit,
		OutputDir: cfg.OutputDir,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Crawling finished!")
	fmt.Fprintf(out, "Run:        %s\n", summary.RunID)
	fmt.Fprintf(out, "Started:    %s\n", summary.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	fmt.Fprintf(out, "Finished:   %s\n", summary.FinishedAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	fmt.Fprintf(out, "Duration:   %.2f minutes\n", summary.Duration().Minutes())
	for _, collection := range summary.PerCollection {
		fmt.Fprintf(out, "  %-30s %d items\n", collection.Name, collection.Items)
	}
	fmt.Fprintf(out, "Total items: %d\n", summary.Items)
	fmt.Fprintf(out, "Dataset:    %s\n", summary.DatasetPath)

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
