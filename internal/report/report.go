package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// FileName is the JSON run report written next to the feature container
const FileName = "processing_metadata.json"

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Result is the per-clip record. Exactly one is produced per discovered clip.
type Result struct {
	Video          string  `json:"video"`
	VideoPath      string  `json:"video_path"`
	FeatureShape   []int   `json:"feature_shape,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
}

// Stats aggregates counters across the whole run
type Stats struct {
	TotalVideos     int       `json:"total_videos"`
	Successful      int       `json:"successful"`
	Failed          int       `json:"failed"`
	ProcessingTimes []float64 `json:"processing_times"`
	FeatureShapes   [][]int   `json:"feature_shapes"`
}

// Report is the serialized run record
type Report struct {
	RunID             string   `json:"run_id"`
	DatasetDirectory  string   `json:"dataset_directory"`
	OutputDirectory   string   `json:"output_directory"`
	FeaturesFile      string   `json:"features_file"`
	TotalStatistics   Stats    `json:"total_statistics"`
	AvgProcessingTime float64  `json:"avg_processing_time"`
	FeatureDimension  []int    `json:"feature_dimension"`
	Results           []Result `json:"results"`
	Timestamp         string   `json:"timestamp"`
}

// New creates an empty report for a run over total discovered clips
func New(runID, datasetDir, outputDir, featuresFile string, total int) *Report {
	return &Report{
		RunID:            runID,
		DatasetDirectory: datasetDir,
		OutputDirectory:  outputDir,
		FeaturesFile:     featuresFile,
		TotalStatistics: Stats{
			TotalVideos:     total,
			ProcessingTimes: []float64{},
			FeatureShapes:   [][]int{},
		},
		Results: []Result{},
	}
}

// AddSuccess records a processed clip
func (r *Report) AddSuccess(name, path string, shape []int, elapsed time.Duration) {
	secs := elapsed.Seconds()
	r.Results = append(r.Results, Result{
		Video:          name,
		VideoPath:      path,
		FeatureShape:   shape,
		ProcessingTime: secs,
		Status:         StatusSuccess,
	})
	r.TotalStatistics.Successful++
	r.TotalStatistics.ProcessingTimes = append(r.TotalStatistics.ProcessingTimes, secs)
	r.TotalStatistics.FeatureShapes = append(r.TotalStatistics.FeatureShapes, shape)
}

// AddFailure records a clip that could not be processed
func (r *Report) AddFailure(name, path string, cause error, elapsed time.Duration) {
	r.Results = append(r.Results, Result{
		Video:          name,
		VideoPath:      path,
		ProcessingTime: elapsed.Seconds(),
		Status:         StatusFailed,
		Error:          cause.Error(),
	})
	r.TotalStatistics.Failed++
}

// Finalize computes the derived aggregate fields and stamps the report
func (r *Report) Finalize(now time.Time) {
	times := r.TotalStatistics.ProcessingTimes
	if len(times) > 0 {
		var sum float64
		for _, t := range times {
			sum += t
		}
		r.AvgProcessingTime = sum / float64(len(times))
	}
	if len(r.TotalStatistics.FeatureShapes) > 0 {
		r.FeatureDimension = r.TotalStatistics.FeatureShapes[0]
	}
	r.Timestamp = now.Format("2006-01-02 15:04:05")
}

// Write serializes the report as indented JSON
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
