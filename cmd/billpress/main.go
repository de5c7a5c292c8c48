package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"billpress/internal/batch"
	"billpress/internal/common"
	"billpress/internal/compression"
	"billpress/internal/config"
	"billpress/internal/logging"
)

func main() {
	var (
		targetKB int
		output   string
		verbose  bool
	)

	root := &cobra.Command{
		Use:   "billpress <folder>",
		Short: "Compress a folder of invoices to a per-file size budget and zip the result",
		Long: `billpress scans a folder for PDF, PNG and JPEG files, compresses each one
down to the size budget and bundles the results into a ZIP archive next to
the output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(args[0], output, targetKB, verbose)
		},
	}

	root.Flags().IntVar(&targetKB, "target-kb", common.DefaultTargetKB, "per-file size budget in KB")
	root.Flags().StringVarP(&output, "output", "o", "", "output directory (default <folder>/compressed_<timestamp>)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(folder, output string, targetKB int, verbose bool) error {
	cfg := config.New()
	if targetKB > 0 {
		cfg.TargetKB = targetKB
	}
	logger := logging.New("", verbose)

	jobs, err := batch.ScanFolder(folder)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("no supported files found (pdf/png/jpg/jpeg)")
		return nil
	}

	images := compression.NewImageCompressor(logger)
	documents := compression.NewPDFCompressor(
		compression.NewPDFCPURewriter(),
		compression.NewFitzRenderer(),
		images,
		logger,
	)
	orchestrator := batch.NewOrchestrator(
		compression.ImageFileCompressor{
			Compressor: images,
			Options: compression.LadderOptions{
				MinQuality: cfg.MinQuality,
				MinScale:   cfg.MinScale,
			},
		},
		documents,
		cfg.TargetBytes(),
		logger,
	)

	if output == "" {
		output = filepath.Join(folder, "compressed_"+time.Now().Format("20060102_150405"))
	}

	report, err := orchestrator.Run(jobs, output, func(current, total int, filename string) {
		fmt.Printf("[%d/%d] %s\n", current, total, filename)
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n%d/%d files within budget, archive %d KB\n\n", report.SuccessCount, report.Total, report.ArchiveSizeKB)
	for _, detail := range report.Details {
		fmt.Printf("  %-40s %s\n", detail.Filename, detail.Status)
	}
	fmt.Printf("\noutput: %s\nzip:    %s\n", report.OutputDir, report.ArchivePath)
	return nil
}
