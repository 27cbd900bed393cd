package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"screen-region-engine/internal/detect"
	"screen-region-engine/internal/export"
	"screen-region-engine/internal/imgio"
	"screen-region-engine/internal/roi"
)

var (
	detectMode    string
	detectPreview string
	detectJSON    string
	detectCrop    bool
	detectMinR    int
	detectMaxR    int
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Run geometric shape detectors over an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := imgio.NewLoader(slogger)
		img, err := loader.LoadImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		detector := detect.NewDetector(slogger)

		var regions []roi.Region
		switch detectMode {
		case "all":
			regions, err = detector.DetectAll(img)
		case "circles":
			regions, err = detector.DetectCircles(img, detectMinR, detectMaxR)
		case "red-dots":
			regions, err = detector.DetectRedDots(img)
		case "buttons":
			regions, err = detector.DetectUIButtons(img)
		case "icons":
			regions, err = detector.DetectIcons(img)
		default:
			return fmt.Errorf("unknown detect mode %q", detectMode)
		}
		if err != nil {
			return err
		}
		defer closeAll(regions)

		if detectMode != "all" {
			regions = detect.MergeOverlapping(regions, cfg.Detect.IoUThreshold)
		}

		logger.WithFields(logrus.Fields{
			"mode":    detectMode,
			"regions": len(regions),
		}).Info("Detection finished")
		for i := range regions {
			r := &regions[i]
			fmt.Printf("%s\t%d,%d\t%dx%d\n", r.Name, r.X, r.Y, r.Width, r.Height)
		}

		if detectPreview != "" {
			preview := detect.RenderDetections(img, regions)
			defer preview.Close()
			if err := loader.SaveImage(preview, detectPreview); err != nil {
				return err
			}
		}

		if detectJSON != "" {
			mgr := export.NewManager(slogger)
			if err := mgr.ExportJSON(regionPtrs(regions), detectJSON); err != nil {
				return err
			}
		}

		if detectCrop {
			engine := imgio.NewCropEngine(cfg.Output.Dir, cfg.Output.Prefix,
				cfg.Output.Format, cfg.Output.Quality, slogger)
			for _, res := range engine.CropAll(img, regions) {
				fmt.Printf("wrote %s\n", res.Path)
			}
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectMode, "mode", "all",
		"Detector to run: all, circles, red-dots, buttons, icons")
	detectCmd.Flags().StringVar(&detectPreview, "preview", "",
		"Write an annotated preview image to this path")
	detectCmd.Flags().StringVar(&detectJSON, "json", "",
		"Export detected regions as JSON to this path")
	detectCmd.Flags().BoolVar(&detectCrop, "crop", false,
		"Crop every detected region into the output directory")
	detectCmd.Flags().IntVar(&detectMinR, "min-radius", 10,
		"Minimum circle radius for circle detection")
	detectCmd.Flags().IntVar(&detectMaxR, "max-radius", 100,
		"Maximum circle radius for circle detection")
}

func closeAll(regions []roi.Region) {
	for i := range regions {
		regions[i].Close()
	}
}

func regionPtrs(regions []roi.Region) []*roi.Region {
	out := make([]*roi.Region, len(regions))
	for i := range regions {
		out[i] = &regions[i]
	}
	return out
}
