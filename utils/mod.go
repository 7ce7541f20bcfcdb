package utils

import (
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/rand"
)

// ArgMax returns the index of the first maximum, or -1 for an empty slice.
func ArgMax[T constraints.Ordered](values []T) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best
}

// Softmax computes exp(v/temperature) normalized to sum to one, shifted by the
// maximum for numerical stability.
func Softmax(values []float64, temperature float64) []float64 {
	if temperature <= 0 {
		panic("softmax temperature must be positive")
	}
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}
	maxValue := values[ArgMax(values)]
	sum := 0.0
	for i, v := range values {
		result[i] = math.Exp((v - maxValue) / temperature)
		sum += result[i]
	}
	for i := range result {
		result[i] /= sum
	}
	return result
}

// Sample draws an index from a discrete distribution.
func Sample(probabilities []float64, rng *rand.Rand) int {
	if len(probabilities) == 0 {
		return -1
	}
	sampled := rng.Float64()
	cumulative := 0.0
	for i, p := range probabilities {
		cumulative += p
		if sampled < cumulative {
			return i
		}
	}
	return len(probabilities) - 1 // Fallback in case of rounding errors
}
