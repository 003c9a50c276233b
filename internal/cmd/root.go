// Package cmd holds the sitemapgen command line.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/config"
)

// options shared by every subcommand.
type rootOptions struct {
	configDir string
	envFile   string
}

func (o *rootOptions) load() (*config.Config, error) {
	if o.configDir == "" {
		return config.LoadConfig()
	}
	return config.LoadConfig(o.configDir)
}

// NewRootCmd creates the sitemapgen root command with its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "sitemapgen",
		Short: "sitemapgen - builds paginated XML sitemaps from a site's content database",
		Long: `sitemapgen enumerates a site's published content (homepage, post types,
taxonomy terms and authors), stores the result as numbered sitemap pages and
serves them as sitemaps.org XML.

Use subcommands to perform different operations:
  - generate: Build the sitemap once and store it
  - serve: Serve the stored sitemap and regenerate it on a schedule
  - verify: Crawl a published sitemap and report broken documents`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; real environment variables win.
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "directory holding config.yaml (default: . and ./config)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	groupBuild := "build"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupBuild,
		Title: "Sitemap Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	generateCmd := NewGenerateCmd(opts)
	serveCmd := NewServeCmd(opts)
	verifyCmd := NewVerifyCmd(opts)

	generateCmd.GroupID = groupBuild
	serveCmd.GroupID = groupBuild
	verifyCmd.GroupID = groupUtilities

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(verifyCmd)

	return rootCmd
}
