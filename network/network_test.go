package network

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func squaredError(out, target []float64) float64 {
	sum := 0.0
	for i := range out {
		d := out[i] - target[i]
		sum += d * d
	}
	return sum
}

func TestNetwork(t *testing.T) {
	t.Run("initial weights", func(t *testing.T) {
		n := New(4, 3, 2, newRand())

		require.Len(t, n.weightsHidden, 12)
		require.Len(t, n.weightsOutput, 6)
		for _, w := range append(append([]float64{}, n.weightsHidden...), n.weightsOutput...) {
			require.True(t, w >= -0.5 && w < 0.5, "Weight %f should lie in [-0.5, 0.5)", w)
		}
		require.Equal(t, []float64{0, 0, 0}, n.biasesHidden, "Biases should start at zero")
		require.Equal(t, []float64{0, 0}, n.biasesOutput, "Biases should start at zero")
	})

	t.Run("predict is bounded and pure", func(t *testing.T) {
		n := NewDefault(newRand())
		input := make([]float64, DefaultInput)
		for i := 2; i < len(input); i += 3 {
			input[i] = 1
		}

		first := n.Predict(input)
		second := n.Predict(input)

		require.Len(t, first, DefaultOutput)
		require.Equal(t, first, second, "Predict should not change the network")
		for _, v := range first {
			require.True(t, v > 0 && v < 1, "Sigmoid output should be in (0, 1)")
		}
	})

	t.Run("training reduces error", func(t *testing.T) {
		n := New(3, 8, 2, newRand())
		input := []float64{1, 0, 1}
		target := []float64{0.9, 0.1}

		before := squaredError(n.Predict(input), target)
		for i := 0; i < 1000; i++ {
			n.Train(input, target, 0.5)
		}
		after := squaredError(n.Predict(input), target)

		require.Less(t, after, before, "Error should shrink after training")
		require.Less(t, after, 0.01, "Network should fit a single example")
	})

	t.Run("mismatched shapes panic", func(t *testing.T) {
		n := New(3, 2, 2, newRand())
		require.Panics(t, func() { n.Predict([]float64{1}) })
		require.Panics(t, func() { n.Train([]float64{1, 0, 1}, []float64{1}, 0.1) })
		require.Panics(t, func() { New(0, 1, 1, newRand()) })
	})
}

func TestPersistence(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.bin")
		n := New(5, 4, 3, newRand())
		n.biasesOutput[1] = 0.25

		require.NoError(t, n.Save(path))
		loaded, err := Load(path)
		require.NoError(t, err)

		require.Equal(t, n, loaded, "Loaded network should equal the saved one")
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, int64(3*8+4*8+8*(20+4+12+3)), info.Size(), "File should hold sizes, lengths and values")
	})

	t.Run("header layout", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.bin")
		require.NoError(t, New(5, 4, 3, newRand()).Save(path))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)

		require.Equal(t, uint64(5), binary.LittleEndian.Uint64(raw[0:8]))
		require.Equal(t, uint64(4), binary.LittleEndian.Uint64(raw[8:16]))
		require.Equal(t, uint64(3), binary.LittleEndian.Uint64(raw[16:24]))
		require.Equal(t, uint64(20), binary.LittleEndian.Uint64(raw[24:32]), "Hidden weights should come first")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.bin"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupt array length", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.bin")
		require.NoError(t, New(2, 2, 2, newRand()).Save(path))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		binary.LittleEndian.PutUint64(raw[24:32], 99)
		require.NoError(t, os.WriteFile(path, raw, 0644))

		_, err = Load(path)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("oversized layers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.bin")
		raw := make([]byte, 32)
		binary.LittleEndian.PutUint64(raw[0:8], 1<<16)
		binary.LittleEndian.PutUint64(raw[8:16], 1<<16)
		binary.LittleEndian.PutUint64(raw[16:24], 7)
		binary.LittleEndian.PutUint64(raw[24:32], 1<<32)
		require.NoError(t, os.WriteFile(path, raw, 0644))

		_, err := Load(path)
		require.ErrorIs(t, err, ErrShapeMismatch, "Each layer fits the size limit but the weight matrix does not")
	})

	t.Run("truncated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.bin")
		require.NoError(t, New(2, 2, 2, newRand()).Save(path))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, raw[:len(raw)-4], 0644))

		_, err = Load(path)
		require.Error(t, err)
	})

	t.Run("load or new", func(t *testing.T) {
		dir := t.TempDir()
		fresh, loaded := LoadOrNew(filepath.Join(dir, "missing.bin"), 0, newRand())
		require.False(t, loaded, "Missing file should fall back")
		require.Equal(t, DefaultHidden, fresh.HiddenCount())

		path := filepath.Join(dir, "weights.bin")
		require.NoError(t, fresh.Save(path))
		again, loaded := LoadOrNew(path, 16, newRand())
		require.True(t, loaded)
		require.Equal(t, fresh, again, "Loaded weights keep their own hidden size")

		wrong := filepath.Join(dir, "wrong.bin")
		require.NoError(t, New(3, 2, 2, newRand()).Save(wrong))
		fallback, loaded := LoadOrNew(wrong, 16, newRand())
		require.False(t, loaded, "Mismatched shape should fall back")
		require.Equal(t, 16, fallback.HiddenCount())
	})

	t.Run("load or new uses the requested hidden size", func(t *testing.T) {
		fresh, loaded := LoadOrNew(filepath.Join(t.TempDir(), "missing.bin"), 8, newRand())
		require.False(t, loaded)
		require.Equal(t, 8, fresh.HiddenCount())
		require.Equal(t, DefaultInput, fresh.InputCount())
		require.Equal(t, DefaultOutput, fresh.OutputCount())
	})

	t.Run("infinity survives", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.bin")
		n := New(2, 2, 2, newRand())
		n.biasesHidden[0] = math.Inf(1)
		require.NoError(t, n.Save(path))
		loaded, err := Load(path)
		require.NoError(t, err)
		require.True(t, math.IsInf(loaded.biasesHidden[0], 1))
	})
}
