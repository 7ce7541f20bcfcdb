package network

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Bounds on shapes read from disk, so a corrupt header cannot trigger a huge
// allocation. maxWeights caps each weight matrix at 128 MiB of float64s.
const (
	maxLayer   = 1 << 16
	maxWeights = 1 << 24
)

var ErrShapeMismatch = errors.New("network shape mismatch")

// Save writes the network as little-endian uint64 layer sizes followed by the
// hidden weights, hidden biases, output weights and output biases, each
// prefixed by its uint64 length. The file is replaced atomically.
func (n *Network) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create weights directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := n.encode(w); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write weights: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush weights: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close weights file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename weights file: %w", err)
	}
	return nil
}

func (n *Network) encode(w io.Writer) error {
	for _, size := range []int{n.inputCount, n.hiddenCount, n.outputCount} {
		if err := binary.Write(w, binary.LittleEndian, uint64(size)); err != nil {
			return err
		}
	}
	for _, values := range [][]float64{n.weightsHidden, n.biasesHidden, n.weightsOutput, n.biasesOutput} {
		if err := binary.Write(w, binary.LittleEndian, uint64(len(values))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, values); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a network written by Save.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()

	n, err := decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read weights from %s: %w", path, err)
	}
	return n, nil
}

func decode(r io.Reader) (*Network, error) {
	var sizes [3]uint64
	if err := binary.Read(r, binary.LittleEndian, &sizes); err != nil {
		return nil, err
	}
	for _, size := range sizes {
		if size == 0 || size > maxLayer {
			return nil, fmt.Errorf("%w: layer size %d", ErrShapeMismatch, size)
		}
	}
	input, hidden, output := int(sizes[0]), int(sizes[1]), int(sizes[2])
	if input*hidden > maxWeights || hidden*output > maxWeights {
		return nil, fmt.Errorf("%w: %dx%dx%d exceeds %d weights per layer", ErrShapeMismatch, input, hidden, output, maxWeights)
	}

	n := &Network{inputCount: input, hiddenCount: hidden, outputCount: output}
	arrays := []struct {
		dst  *[]float64
		want int
	}{
		{&n.weightsHidden, input * hidden},
		{&n.biasesHidden, hidden},
		{&n.weightsOutput, hidden * output},
		{&n.biasesOutput, output},
	}
	for _, a := range arrays {
		var length uint64
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, err
		}
		if length != uint64(a.want) {
			return nil, fmt.Errorf("%w: array of %d values, expected %d", ErrShapeMismatch, length, a.want)
		}
		values := make([]float64, a.want)
		if err := binary.Read(r, binary.LittleEndian, values); err != nil {
			return nil, err
		}
		*a.dst = values
	}
	return n, nil
}

// LoadOrNew loads the network at path, falling back to a fresh Connect Four
// network with hidden units (DefaultHidden if not positive) when the file is
// missing, unreadable or shaped for another board. The boolean reports whether
// weights were loaded.
func LoadOrNew(path string, hidden int, rng *rand.Rand) (*Network, bool) {
	if hidden <= 0 {
		hidden = DefaultHidden
	}
	n, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Msgf("no weights at %s, starting from a fresh network", path)
		} else {
			log.Warn().Err(err).Msg("could not load weights, starting from a fresh network")
		}
		return New(DefaultInput, hidden, DefaultOutput, rng), false
	}
	if n.inputCount != DefaultInput || n.outputCount != DefaultOutput {
		log.Warn().Msgf("weights at %s have shape %dx%dx%d, starting from a fresh network", path, n.inputCount, n.hiddenCount, n.outputCount)
		return New(DefaultInput, hidden, DefaultOutput, rng), false
	}
	return n, true
}
