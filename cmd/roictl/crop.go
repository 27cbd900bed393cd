package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"screen-region-engine/internal/imgio"
	"screen-region-engine/internal/roi"
)

var (
	cropRects []string
	cropName  string
)

var cropCmd = &cobra.Command{
	Use:   "crop <image>",
	Short: "Crop rectangular regions out of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cropRects) == 0 {
			return fmt.Errorf("at least one --rect is required")
		}

		loader := imgio.NewLoader(slogger)
		img, err := loader.LoadImage(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		engine := imgio.NewCropEngine(cfg.Output.Dir, cfg.Output.Prefix,
			cfg.Output.Format, cfg.Output.Quality, slogger)

		for i, rectArg := range cropRects {
			x, y, w, h, err := parseRect(rectArg)
			if err != nil {
				return err
			}
			region := roi.New(x, y, w, h)
			region.ClampToImage(img.Cols(), img.Rows())
			if cropName != "" {
				region.Rename(fmt.Sprintf("%s_%02d", cropName, i+1))
			} else {
				region.Rename(fmt.Sprintf("crop_%02d", i+1))
			}

			res, err := engine.Crop(img, &region)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", res.Path)
		}
		return nil
	},
}

func init() {
	cropCmd.Flags().StringArrayVar(&cropRects, "rect", nil,
		"Region to crop as x,y,w,h (repeatable)")
	cropCmd.Flags().StringVar(&cropName, "name", "",
		"Base name for the cropped files")
}
