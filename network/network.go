// Package network is a fully connected network with one sigmoid hidden layer,
// used as the policy model of the learned evaluator.
package network

import (
	"math"

	"golang.org/x/exp/rand"

	"connectfour/game"
)

const (
	DefaultInput  = game.InputSize
	DefaultHidden = 256
	DefaultOutput = game.Cols
)

// Network weights are stored row-major: weightsHidden[i*hidden+h] connects
// input i to hidden unit h, weightsOutput[h*output+o] connects hidden unit h to
// output o.
type Network struct {
	inputCount    int
	hiddenCount   int
	outputCount   int
	weightsHidden []float64
	biasesHidden  []float64
	weightsOutput []float64
	biasesOutput  []float64
}

// New returns a network with weights drawn uniformly from [-0.5, 0.5) and zero biases.
func New(input, hidden, output int, rng *rand.Rand) *Network {
	if input <= 0 || hidden <= 0 || output <= 0 {
		panic("network layers must be non-empty")
	}
	n := &Network{
		inputCount:    input,
		hiddenCount:   hidden,
		outputCount:   output,
		weightsHidden: make([]float64, input*hidden),
		biasesHidden:  make([]float64, hidden),
		weightsOutput: make([]float64, hidden*output),
		biasesOutput:  make([]float64, output),
	}
	for i := range n.weightsHidden {
		n.weightsHidden[i] = rng.Float64() - 0.5
	}
	for i := range n.weightsOutput {
		n.weightsOutput[i] = rng.Float64() - 0.5
	}
	return n
}

// NewDefault returns a network sized for Connect Four board encodings.
func NewDefault(rng *rand.Rand) *Network {
	return New(DefaultInput, DefaultHidden, DefaultOutput, rng)
}

func (n *Network) InputCount() int  { return n.inputCount }
func (n *Network) HiddenCount() int { return n.hiddenCount }
func (n *Network) OutputCount() int { return n.outputCount }

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// sigmoidPrime is the sigmoid derivative expressed through its output.
func sigmoidPrime(out float64) float64 {
	return out * (1.0 - out)
}

// Predict runs a forward pass. It does not mutate the network.
func (n *Network) Predict(input []float64) []float64 {
	hidden := make([]float64, n.hiddenCount)
	output := make([]float64, n.outputCount)
	n.forward(input, hidden, output)
	return output
}

func (n *Network) forward(input, hidden, output []float64) {
	if len(input) != n.inputCount {
		panic("input length does not match network")
	}
	for h := 0; h < n.hiddenCount; h++ {
		sum := 0.0
		for i := 0; i < n.inputCount; i++ {
			sum += input[i] * n.weightsHidden[i*n.hiddenCount+h]
		}
		hidden[h] = sigmoid(sum + n.biasesHidden[h])
	}
	for o := 0; o < n.outputCount; o++ {
		sum := 0.0
		for h := 0; h < n.hiddenCount; h++ {
			sum += hidden[h] * n.weightsOutput[h*n.outputCount+o]
		}
		output[o] = sigmoid(sum + n.biasesOutput[o])
	}
}

// Train performs one gradient descent step on the squared error between the
// network output and target.
func (n *Network) Train(input, target []float64, learningRate float64) {
	if len(target) != n.outputCount {
		panic("target length does not match network")
	}
	hidden := make([]float64, n.hiddenCount)
	output := make([]float64, n.outputCount)
	n.forward(input, hidden, output)

	gradOutput := make([]float64, n.outputCount)
	for o := range gradOutput {
		gradOutput[o] = (output[o] - target[o]) * sigmoidPrime(output[o])
	}

	gradHidden := make([]float64, n.hiddenCount)
	for h := range gradHidden {
		sum := 0.0
		for o := 0; o < n.outputCount; o++ {
			sum += gradOutput[o] * n.weightsOutput[h*n.outputCount+o]
		}
		gradHidden[h] = sum * sigmoidPrime(hidden[h])
	}

	for h := 0; h < n.hiddenCount; h++ {
		for o := 0; o < n.outputCount; o++ {
			n.weightsOutput[h*n.outputCount+o] -= learningRate * gradOutput[o] * hidden[h]
		}
	}
	for i := 0; i < n.inputCount; i++ {
		if input[i] == 0 {
			continue
		}
		for h := 0; h < n.hiddenCount; h++ {
			n.weightsHidden[i*n.hiddenCount+h] -= learningRate * gradHidden[h] * input[i]
		}
	}
	for o := range gradOutput {
		n.biasesOutput[o] -= learningRate * gradOutput[o]
	}
	for h := range gradHidden {
		n.biasesHidden[h] -= learningRate * gradHidden[h]
	}
}
