package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/julienmp/visualfeat/internal/config"
	"github.com/julienmp/visualfeat/internal/ffmpeg"
	"github.com/julienmp/visualfeat/internal/logging"
	"github.com/julienmp/visualfeat/internal/model"
	"github.com/julienmp/visualfeat/internal/pipeline"
	"github.com/julienmp/visualfeat/internal/video"
	"github.com/julienmp/visualfeat/pkg/util"
)

var (
	cfgFile string
	verbose bool

	datasetDir string
	outputDir  string
	device     string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "visualfeat",
	Short: "visualfeat - batch visual feature extraction from video clips",
	Long:  "Extracts fixed-length embedding vectors from video clips with a pretrained two-pathway network and stores them in a keyed container plus a JSON run report.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./visualfeat.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	extractCmd.Flags().StringVar(&datasetDir, "dataset-dir", "", "dataset directory, scanned recursively")
	extractCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for features and report")
	extractCmd.Flags().StringVar(&device, "device", "", "inference device: cuda or cpu")

	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract feature vectors from every clip under the dataset directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		// Flags override the config file
		if datasetDir != "" {
			cfg.DatasetDir = datasetDir
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}
		if device != "" {
			cfg.Device = device
		}

		if cfg.Device != "cuda" && cfg.Device != "cpu" {
			return fmt.Errorf("invalid device %q: must be cuda or cpu", cfg.Device)
		}

		logger := logging.WithComponent("cli")
		logger.Info().
			Str("dataset", cfg.DatasetDir).
			Str("output", cfg.OutputDir).
			Str("device", cfg.Device).
			Msg("starting feature extraction")

		// A missing dataset directory ends the run gracefully
		if !util.FileExists(cfg.DatasetDir) {
			logger.Error().Str("dataset", cfg.DatasetDir).Msg("dataset directory not found")
			return nil
		}

		if err := util.EnsureDir(cfg.OutputDir); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		ffmpegExec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}
		loader := video.NewLoader(log.Logger, ffmpegExec, cfg.Sampling.MaxFrames)

		logger.Info().Str("model", cfg.Model.Path).Msg("loading model")
		extractor, err := model.NewSlowFastSession(log.Logger, model.SessionConfig{
			ModelPath:  cfg.Model.Path,
			Device:     cfg.Device,
			RuntimeLib: cfg.Model.RuntimeLib,
		})
		if err != nil {
			return err
		}
		defer extractor.Close()

		pipe := pipeline.New(log.Logger, loader, extractor, pipeline.Config{
			DatasetDir:   cfg.DatasetDir,
			OutputDir:    cfg.OutputDir,
			TargetSize:   cfg.Sampling.TargetSize,
			TargetFrames: cfg.Sampling.TargetFrames,
		})

		start := time.Now()
		stats, err := pipe.Run(cmd.Context())
		if err != nil {
			return err
		}

		logger.Info().
			Dur("total_time", time.Since(start)).
			Int("videos", stats.TotalVideos).
			Int("successful", stats.Successful).
			Int("failed", stats.Failed).
			Msg("extraction finished")

		return nil
	},
}
