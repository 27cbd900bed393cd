package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"screen-region-engine/internal/detect"
	"screen-region-engine/internal/export"
	"screen-region-engine/internal/imgio"
)

var (
	exportOut     string
	exportSnippet string
)

var exportCmd = &cobra.Command{
	Use:   "export <image>",
	Short: "Detect all regions in an image and export them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := imgio.NewLoader(slogger)
		img, err := loader.LoadImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		detector := detect.NewDetector(slogger)
		regions, err := detector.DetectAll(img)
		if err != nil {
			return err
		}
		defer closeAll(regions)

		ptrs := regionPtrs(regions)

		mgr := export.NewManager(slogger)
		if err := mgr.ExportJSON(ptrs, exportOut); err != nil {
			return err
		}
		fmt.Printf("exported %d regions to %s\n", len(regions), exportOut)

		if exportSnippet != "" {
			snippet := export.Snippet(ptrs, export.SnippetStyle(exportSnippet))
			if _, err := os.Stdout.WriteString(snippet); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "regions.json",
		"Destination path for the JSON export")
	exportCmd.Flags().StringVar(&exportSnippet, "snippet", "",
		"Also print an automation snippet: autojs, python or raw")
}
