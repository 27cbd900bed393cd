package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"screen-region-engine/internal/config"
)

const appVersion = "1.0.0"

var (
	debugMode  bool
	configPath string

	logger  *logrus.Logger
	slogger *slog.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "roictl",
	Short:   "Extract, segment and export screen regions from images",
	Version: appVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = initLogger(debugMode)
		slogger = initSlog(debugMode)

		var err error
		cfg, err = config.LoadWithFile(configPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"version":    appVersion,
			"debug_mode": debugMode,
		}).Debug("Configuration loaded")
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"Enable debug mode with verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML configuration file")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(floodCmd)
	rootCmd.AddCommand(cutCmd)
	rootCmd.AddCommand(superpixelCmd)
	rootCmd.AddCommand(cropCmd)
	rootCmd.AddCommand(exportCmd)
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// initSlog builds the structured logger handed to the internal packages.
func initSlog(debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// parsePoint parses "x,y".
func parsePoint(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("point %q must be x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("point %q: %w", s, err)
	}
	return x, y, nil
}

// parseRect parses "x,y,w,h".
func parseRect(s string) (x, y, w, h int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("rect %q must be x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		vals[i], err = strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("rect %q: %w", s, err)
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
