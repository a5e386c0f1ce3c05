package strata

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/strata/detect"
	"github.com/tsawler/strata/layout"
)

// Duration is a time.Duration that unmarshals from YAML strings like "50ms"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"50ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full configuration surface of the processing pipeline. Zero
// values mean "use the default"; see the component Default*Config functions
// for the concrete numbers.
type Config struct {
	// Batch scheduling (detect.Config)
	MaxBatchSize  int      `yaml:"max_batch_size"`
	MaxBatchWait  Duration `yaml:"max_batch_wait"`
	QueueCapacity int      `yaml:"queue_capacity"`

	// Fusion (layout.FusionConfig)
	MinNativeCoverage    float64 `yaml:"min_native_coverage"`
	MergeIoU             float64 `yaml:"merge_iou"`
	ClassConfidenceFloor float64 `yaml:"class_confidence_floor"`
	LineHeightTolerance  float64 `yaml:"line_height_tolerance"`
	BlockGapTolerance    float64 `yaml:"block_gap_tolerance"`
	OCRPadding           float64 `yaml:"ocr_padding"`

	// Reading order (layout.OrderConfig)
	BandTolerance     float64 `yaml:"band_tolerance"`
	ColumnGapWidth    float64 `yaml:"column_gap_width"`
	ColumnGapShare    float64 `yaml:"column_gap_share"`
	SpanningThreshold float64 `yaml:"spanning_threshold"`
	CaptionRadius     float64 `yaml:"caption_radius"`

	// PageDeadline bounds the fusion of a single page, OCR included. A page
	// exceeding it falls back to native-text-only output instead of
	// blocking the document. Default: 30s.
	PageDeadline Duration `yaml:"page_deadline"`

	// PageConcurrency is the number of pages fused in parallel per
	// document. Default: 4.
	PageConcurrency int `yaml:"page_concurrency"`

	// SubmitRetryWait is how long a page waits before retrying a submission
	// rejected for a full queue. Default: 20ms.
	SubmitRetryWait Duration `yaml:"submit_retry_wait"`

	// Logger for pipeline diagnostics
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	c := Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.PageDeadline <= 0 {
		c.PageDeadline = Duration(30 * time.Second)
	}
	if c.PageConcurrency <= 0 {
		c.PageConcurrency = 4
	}
	if c.SubmitRetryWait <= 0 {
		c.SubmitRetryWait = Duration(20 * time.Millisecond)
	}
	// Component configs fill their own zero values
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	config.defaults()
	return config, nil
}

// schedulerConfig maps the root config onto the batch scheduler's
func (c Config) schedulerConfig() detect.Config {
	return detect.Config{
		MaxBatchSize:  c.MaxBatchSize,
		MaxBatchWait:  time.Duration(c.MaxBatchWait),
		QueueCapacity: c.QueueCapacity,
		Logger:        c.Logger,
	}
}

// fusionConfig maps the root config onto the fusion engine's
func (c Config) fusionConfig() layout.FusionConfig {
	return layout.FusionConfig{
		MinNativeCoverage:    c.MinNativeCoverage,
		MergeIoU:             c.MergeIoU,
		ClassConfidenceFloor: c.ClassConfidenceFloor,
		LineHeightTolerance:  c.LineHeightTolerance,
		BlockGapTolerance:    c.BlockGapTolerance,
		OCRPadding:           c.OCRPadding,
		Logger:               c.Logger,
	}
}

// orderConfig maps the root config onto the reading order assigner's
func (c Config) orderConfig() layout.OrderConfig {
	return layout.OrderConfig{
		BandTolerance:     c.BandTolerance,
		ColumnGapWidth:    c.ColumnGapWidth,
		ColumnGapShare:    c.ColumnGapShare,
		SpanningThreshold: c.SpanningThreshold,
		CaptionRadius:     c.CaptionRadius,
	}
}
