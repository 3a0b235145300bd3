package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/julienmp/visualfeat/internal/model"
	"github.com/julienmp/visualfeat/internal/pathway"
	"github.com/julienmp/visualfeat/internal/preprocess"
	"github.com/julienmp/visualfeat/internal/report"
	"github.com/julienmp/visualfeat/internal/storage"
	"github.com/julienmp/visualfeat/internal/video"
	"github.com/julienmp/visualfeat/pkg/util"
)

// Config holds pipeline settings
type Config struct {
	DatasetDir   string
	OutputDir    string
	TargetSize   int
	TargetFrames int
}

// Pipeline orchestrates the batch feature extraction run
type Pipeline struct {
	logger    zerolog.Logger
	loader    video.FrameLoader
	extractor model.Extractor
	cfg       Config
}

// New creates a pipeline over the given loader and extractor
func New(logger zerolog.Logger, loader video.FrameLoader, extractor model.Extractor, cfg Config) *Pipeline {
	return &Pipeline{
		logger:    logger.With().Str("component", "pipeline").Logger(),
		loader:    loader,
		extractor: extractor,
		cfg:       cfg,
	}
}

// Run processes every discovered clip sequentially. A failure on one clip is
// recorded and never aborts the batch; only container or report write errors
// surface to the caller.
func (p *Pipeline) Run(ctx context.Context) (*report.Stats, error) {
	p.logger.Info().Str("dataset", p.cfg.DatasetDir).Msg("scanning for videos")

	videos, err := FindVideos(p.cfg.DatasetDir)
	if err != nil {
		return nil, err
	}

	if len(videos) == 0 {
		p.logEmptyDataset()
		return &report.Stats{ProcessingTimes: []float64{}, FeatureShapes: [][]int{}}, nil
	}

	p.logger.Info().Int("count", len(videos)).Msg("video files found")

	if err := util.EnsureDir(p.cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	featuresPath := filepath.Join(p.cfg.OutputDir, storage.FileName)
	store, err := storage.Create(featuresPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rep := report.New(uuid.NewString(), p.cfg.DatasetDir, p.cfg.OutputDir, featuresPath, len(videos))

	for i, videoPath := range videos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := util.Stem(videoPath)
		p.logger.Info().
			Str("video", name).
			Msgf("[%d/%d] processing", i+1, len(videos))

		start := time.Now()
		vec, err := p.processClip(ctx, videoPath)
		elapsed := time.Since(start)

		if err != nil {
			p.logger.Warn().Str("video", name).Err(err).Msg("clip failed")
			rep.AddFailure(name, videoPath, err, elapsed)
			continue
		}

		shape := []int{len(vec)}
		if err := store.Put(ctx, name, vec, shape); err != nil {
			// Container write failures affect the whole run
			return nil, err
		}
		rep.AddSuccess(name, videoPath, shape, elapsed)

		p.logger.Info().
			Str("video", name).
			Ints("features", shape).
			Dur("elapsed", elapsed).
			Msg("clip complete")
	}

	rep.Finalize(time.Now())
	if err := rep.Write(filepath.Join(p.cfg.OutputDir, report.FileName)); err != nil {
		return nil, err
	}

	p.logSummary(rep)
	return &rep.TotalStatistics, nil
}

// processClip runs the load -> preprocess -> pack -> infer -> pool sequence
// for one clip
func (p *Pipeline) processClip(ctx context.Context, videoPath string) ([]float32, error) {
	frames, err := p.loader.Load(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	preprocessed, err := preprocess.Frames(frames, preprocess.Options{
		TargetSize:   p.cfg.TargetSize,
		TargetFrames: p.cfg.TargetFrames,
	})
	if err != nil {
		return nil, err
	}

	slow, fast := pathway.Pack(preprocessed)

	activation, err := p.extractor.Extract(ctx, slow, fast)
	if err != nil {
		return nil, err
	}

	return model.Features(activation)
}

func (p *Pipeline) logEmptyDataset() {
	p.logger.Error().
		Str("dataset", p.cfg.DatasetDir).
		Strs("extensions", []string{".mkv", ".mp4", ".avi", ".mov"}).
		Msg("no video files found")

	files := listFiles(p.cfg.DatasetDir)
	if len(files) == 0 {
		p.logger.Info().Msg("directory is empty")
		return
	}
	p.logger.Info().Msg("directory contents:")
	for _, f := range files {
		p.logger.Info().Msgf("  %s", f)
	}
}

func (p *Pipeline) logSummary(rep *report.Report) {
	stats := rep.TotalStatistics
	evt := p.logger.Info().
		Int("total", stats.TotalVideos).
		Int("successful", stats.Successful).
		Int("failed", stats.Failed)
	if stats.TotalVideos > 0 {
		evt = evt.Str("success_rate",
			fmt.Sprintf("%.1f%%", 100*float64(stats.Successful)/float64(stats.TotalVideos)))
	}
	if len(stats.ProcessingTimes) > 0 {
		evt = evt.Float64("avg_seconds", rep.AvgProcessingTime)
	}
	if rep.FeatureDimension != nil {
		evt = evt.Ints("feature_dimension", rep.FeatureDimension)
	}
	evt.Msg("processing complete")
}
