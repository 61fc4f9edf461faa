package debug

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// AudioAnalyzer inspects rendered audio for common faults.
type AudioAnalyzer struct {
	ClippingThreshold float32
	DCThreshold       float32
	SilenceThreshold  float32
}

// NewAudioAnalyzer creates an analyzer with default thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		ClippingThreshold: 0.99,
		DCThreshold:       0.01,
		SilenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	NaNCount       int
	InfCount       int
	ZeroCrossings  int
}

// HasNaN reports whether any sample was NaN.
func (r AnalysisResult) HasNaN() bool { return r.NaNCount > 0 }

// Analyze computes level statistics for one channel.
// NaN and infinite samples are counted and excluded from the statistics.
func (a *AudioAnalyzer) Analyze(samples []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(samples)}
	if len(samples) == 0 {
		return result
	}

	var sum, sumSquares float64
	var last float32
	valid := 0
	for _, s := range samples {
		f := float64(s)
		if math.IsNaN(f) {
			result.NaNCount++
			continue
		}
		if math.IsInf(f, 0) {
			result.InfCount++
			continue
		}

		abs := float32(math.Abs(f))
		if abs > result.Peak {
			result.Peak = abs
		}
		if abs >= a.ClippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}
		if valid > 0 && (last < 0) != (s < 0) {
			result.ZeroCrossings++
		}

		sum += f
		sumSquares += f * f
		last = s
		valid++
	}

	if valid > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(valid)))
		result.DC = float32(sum / float64(valid))
	}
	result.Silent = result.RMS < a.SilenceThreshold
	return result
}

// Check returns a description of every fault found in samples.
func (a *AudioAnalyzer) Check(samples []float32, name string) []string {
	result := a.Analyze(samples)

	var issues []string
	if result.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN values", name, result.NaNCount))
	}
	if result.InfCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d infinite values", name, result.InfCount))
	}
	if result.Clipping {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if math.Abs(float64(result.DC)) > float64(a.DCThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	if result.Peak > 1.0 {
		issues = append(issues, fmt.Sprintf("%s: peak exceeds 1.0 (%.3f)", name, result.Peak))
	}
	return issues
}

// Difference compares two buffers sample by sample.
type Difference struct {
	Count    int
	MaxDiff  float32
	MaxIndex int
	Mean     float64
}

// CompareBuffers reports the samples of a and b that differ by more than tolerance.
// Buffers of different length are an error.
func CompareBuffers(a, b []float32, tolerance float32) (Difference, error) {
	if len(a) != len(b) {
		return Difference{}, fmt.Errorf("buffer length mismatch: %d vs %d", len(a), len(b))
	}

	var d Difference
	var total float64
	for i := range a {
		diff := float32(math.Abs(float64(a[i] - b[i])))
		if diff <= tolerance {
			continue
		}
		d.Count++
		total += float64(diff)
		if diff > d.MaxDiff {
			d.MaxDiff = diff
			d.MaxIndex = i
		}
	}
	if d.Count > 0 {
		d.Mean = total / float64(d.Count)
	}
	return d, nil
}

var defaultAnalyzer = NewAudioAnalyzer()

// AnalyzeBuffer analyzes samples with the default thresholds.
func AnalyzeBuffer(samples []float32) AnalysisResult {
	return defaultAnalyzer.Analyze(samples)
}

// LogBufferStats logs level statistics and faults for samples on logger.
func LogBufferStats(logger *zap.Logger, samples []float32, name string) {
	result := defaultAnalyzer.Analyze(samples)
	logger.Info("audio buffer stats",
		zap.String("buffer", name),
		zap.Int("samples", result.Samples),
		zap.Float32("peak", result.Peak),
		zap.Float32("rms", result.RMS),
		zap.Float32("dc", result.DC),
		zap.Bool("silent", result.Silent),
	)
	for _, issue := range defaultAnalyzer.Check(samples, name) {
		logger.Warn(issue)
	}
}
