package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"screen-region-engine/internal/export"
	"screen-region-engine/internal/imgio"
	"screen-region-engine/internal/roi"
	"screen-region-engine/internal/segment"
)

var (
	floodPoint     string
	floodTolerance float64
	floodMergeAll  bool
	floodJSON      string
	floodCrop      bool
)

var floodCmd = &cobra.Command{
	Use:   "flood <image>",
	Short: "Segment color-similar blobs around a seed point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, y, err := parsePoint(floodPoint)
		if err != nil {
			return err
		}

		loader := imgio.NewLoader(slogger)
		img, err := loader.LoadImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		tolerance := floodTolerance
		if !cmd.Flags().Changed("tolerance") {
			tolerance = cfg.Detect.FloodTolerance
		}

		segmenter := segment.NewFloodSegmenter(slogger)
		region, err := segmenter.DetectAtPoint(img, x, y, tolerance, floodMergeAll)
		if err != nil {
			return err
		}
		if region == nil {
			fmt.Println("no region at seed point")
			return nil
		}
		defer region.Close()

		fmt.Printf("%s\t%d,%d\t%dx%d\tarea=%d\n",
			region.Name, region.X, region.Y, region.Width, region.Height, region.Area())

		if floodJSON != "" {
			mgr := export.NewManager(slogger)
			if err := mgr.ExportJSON([]*roi.Region{region}, floodJSON); err != nil {
				return err
			}
		}

		if floodCrop {
			engine := imgio.NewCropEngine(cfg.Output.Dir, cfg.Output.Prefix,
				cfg.Output.Format, cfg.Output.Quality, slogger)
			res, err := engine.Crop(img, region)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", res.Path)
		}
		return nil
	},
}

func init() {
	floodCmd.Flags().StringVar(&floodPoint, "point", "",
		"Seed point as x,y (required)")
	floodCmd.Flags().Float64Var(&floodTolerance, "tolerance", 30,
		"Color distance tolerance in RGB units")
	floodCmd.Flags().BoolVar(&floodMergeAll, "merge-all", false,
		"Merge every color-similar component, not just the seed's")
	floodCmd.Flags().StringVar(&floodJSON, "json", "",
		"Export the region as JSON to this path")
	floodCmd.Flags().BoolVar(&floodCrop, "crop", false,
		"Crop the region into the output directory")
	floodCmd.MarkFlagRequired("point")
}
