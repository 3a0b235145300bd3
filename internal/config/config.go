package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core paths
	DatasetDir string `yaml:"dataset_dir"`
	OutputDir  string `yaml:"output_dir"`

	// Device for inference: "cuda" or "cpu"
	Device string `yaml:"device"`

	// Sampling settings
	Sampling SamplingConfig `yaml:"sampling"`

	// Model settings
	Model ModelConfig `yaml:"model"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type SamplingConfig struct {
	// MaxFrames is the cap on frames decoded per clip
	MaxFrames int `yaml:"max_frames"`
	// TargetFrames is the fixed temporal length fed to the model
	TargetFrames int `yaml:"target_frames"`
	// TargetSize is the square spatial crop fed to the model
	TargetSize int `yaml:"target_size"`
}

type ModelConfig struct {
	Path string `yaml:"path"`
	// RuntimeLib optionally points at the onnxruntime shared library
	RuntimeLib string `yaml:"runtime_lib"`
}

type FFmpegConfig struct {
	Threads int `yaml:"threads"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		DatasetDir: "./clips",
		OutputDir:  "./visual_features",
		Device:     "cuda",
		Sampling: SamplingConfig{
			MaxFrames:    64,
			TargetFrames: 32,
			TargetSize:   224,
		},
		Model: ModelConfig{
			Path: "./models/slowfast_r50.onnx",
		},
		FFmpeg: FFmpegConfig{
			Threads: 0,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./visualfeat.yaml",
		"./visualfeat.yml",
		filepath.Join(os.Getenv("HOME"), ".visualfeat", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
