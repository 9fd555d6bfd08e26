package vptree

import (
	"fmt"
	"runtime"
)

// Config controls tree construction, querying and persistence.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// MaxLeafSize is the largest number of points a node may hold without
	// being split. Nodes whose points all coincide stay leaves even when they
	// exceed it. Must be >= 1. Default: 20.
	MaxLeafSize int

	// Metric is the distance function the tree is built and searched with.
	// Built-in: EuclideanMetric, ManhattanMetric, ChebyshevMetric,
	// MinkowskiMetric. Use DistanceFunc to wrap a custom metric.
	// Default: EuclideanMetric.
	Metric DistanceMetric

	// Splitter chooses vantage points and partitions nodes.
	// Default: VantagePointSplit with MaxSamples 100.
	Splitter Splitter

	// Statistic builds the per-node statistic once a node's subtree is
	// complete. Default: EmptyStatistic.
	Statistic StatisticBuilder

	// TrackPermutation records the mapping between original point indices and
	// the reordered dataset. Search results are reported in original indices
	// only when it is set. Default: true.
	TrackPermutation bool

	// Workers controls the number of goroutines used by SearchBatch.
	// 0 means use runtime.NumCPU(). Must be >= 0.
	Workers int

	// Compression selects how WriteTo compresses the persisted payload.
	// Default: CompressionNone.
	Compression CompressionType

	// Logger receives build, search and persistence records.
	// Default: NoopLogger().
	Logger *Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxLeafSize:      20,
		Metric:           EuclideanMetric{},
		Splitter:         VantagePointSplit{MaxSamples: defaultSplitSamples},
		Statistic:        EmptyStatistic,
		TrackPermutation: true,
		Compression:      CompressionNone,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.MaxLeafSize < 1 {
		return fmt.Errorf("vptree: MaxLeafSize must be >= 1, got %d", cfg.MaxLeafSize)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("vptree: Workers must be >= 0 (0 means runtime.NumCPU()), got %d", cfg.Workers)
	}
	if !cfg.Compression.valid() {
		return fmt.Errorf("vptree: invalid Compression %d: %w", cfg.Compression, ErrUnknownCompression)
	}
	if m, ok := cfg.Metric.(MinkowskiMetric); ok && m.P < 1 {
		return fmt.Errorf("vptree: MinkowskiMetric P must be >= 1, got %v", m.P)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.MaxLeafSize == 0 {
		cfg.MaxLeafSize = 20
	}
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.Splitter == nil {
		cfg.Splitter = VantagePointSplit{MaxSamples: defaultSplitSamples}
	}
	if cfg.Statistic == nil {
		cfg.Statistic = EmptyStatistic
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger()
	}
}
