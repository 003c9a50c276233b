package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/internal/crawler"
	"github.com/romangod6/sitemapgen/internal/logger"
)

// NewVerifyCmd crawls a published sitemap index and its pages.
func NewVerifyCmd(root *rootOptions) *cobra.Command {
	var (
		checkURLs bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "verify [INDEX_URL]",
		Short: "Crawl a published sitemap and report broken documents",
		Long: `Fetch the sitemap index, every page it lists and, with --check-urls,
every <loc> on those pages. INDEX_URL defaults to <site.homeurl>/sitemap.xml.

Exits non-zero when any document or checked URL failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			indexURL := strings.TrimRight(cfg.Site.HomeURL, "/") + "/sitemap.xml"
			if len(args) > 0 {
				indexURL = args[0]
			}
			if !cmd.Flags().Changed("check-urls") {
				checkURLs = cfg.Verify.CheckURLs
			}

			log, err := logger.New(logger.Config{Level: cfg.Log.Level, Dir: cfg.Log.Dir, RunName: "verify"})
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer log.Sync()

			v := crawler.NewVerifier(crawler.VerifierConfig{
				UserAgent:   cfg.Verify.UserAgent,
				CheckURLs:   checkURLs,
				Parallelism: cfg.Verify.Parallelism,
			}, log)

			report, err := v.Verify(cmd.Context(), indexURL)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Pages: %d  URLs: %d  Checked: %d  Failures: %d\n",
					report.Pages, report.URLs, report.Checked, len(report.Failures))
				for _, f := range report.Failures {
					fmt.Fprintf(out, "  %s (%d): %s\n", f.URL, f.Status, f.Reason)
				}
			}

			if !report.OK() {
				return fmt.Errorf("%d sitemap failures", len(report.Failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkURLs, "check-urls", false, "also fetch every listed URL")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}
