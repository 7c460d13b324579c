package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reglet-dev/lockfetch/internal/config"
	"github.com/reglet-dev/lockfetch/internal/resolve"
	"github.com/reglet-dev/lockfetch/internal/sbom"
)

var (
	outputDir  string
	sbomOutput string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <source-dir>",
	Short: "Resolve and download the artifacts declared in a lockfile",
	Long: `Read 'artifacts.lock.yaml' from the source directory, download every
declared artifact into the output directory's 'deps/generic' namespace,
verify the downloads against the declared checksums, and write an SBOM
component manifest.

Target paths in the lockfile are confined to the output directory:
a lockfile whose targets resolve outside it is rejected before any
download starts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetchAction(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for fetched artifacts (required)")
	fetchCmd.Flags().StringVar(&sbomOutput, "sbom-output", "", "File to write the component manifest to (default: stdout)")
	fetchCmd.Flags().Int("concurrency", 0, "Maximum simultaneous downloads (default from config)")
	_ = fetchCmd.MarkFlagRequired("output")
	_ = viper.BindPFlag(config.KeyConcurrencyLimit, fetchCmd.Flags().Lookup("concurrency"))
}

// runFetchAction implements the core logic for the fetch command
func runFetchAction(ctx context.Context, sourceDir string) error {
	cfg := config.Load()

	components, err := resolve.Resolve(ctx, resolve.Options{
		SourceDir:        sourceDir,
		OutputDir:        outputDir,
		ConcurrencyLimit: cfg.ConcurrencyLimit,
	})
	if err != nil {
		return err
	}

	out := os.Stdout
	if sbomOutput != "" {
		f, err := os.Create(sbomOutput)
		if err != nil {
			return fmt.Errorf("failed to create manifest file: %w", err)
		}
		defer f.Close()
		out = f
		slog.Info("writing component manifest", "path", sbomOutput)
	}

	return sbom.WriteManifest(out, components)
}
