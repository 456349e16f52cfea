package ensemble

import (
	"fmt"
	"math"
	"sort"
)

const (
	// L2 regularisation on leaf weights.
	lambda = 1.0
	// Quantile candidate thresholds per feature when splitting.
	maxSplitCandidates = 16
)

// TreeNode is one node of a regression tree stored as a flat array.
// Feature == -1 marks a leaf.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Gain      float64 `json:"gain"`
}

// Tree is a single regression tree in the boosted model.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// score walks the tree for one feature row.
func (t *Tree) score(x []float64) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Feature < 0 {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// GBM is a gradient-boosted tree classifier over a fixed feature order.
// Raw scores are log-odds; PredictProbability applies the sigmoid.
type GBM struct {
	Bias         float64 `json:"bias"`
	LearningRate float64 `json:"learning_rate"`
	FeatureCount int     `json:"feature_count"`
	Trees        []Tree  `json:"trees"`
}

// PredictProbability returns the positive-class probability for a feature row.
func (g *GBM) PredictProbability(x []float64) (float64, error) {
	if len(x) != g.FeatureCount {
		return 0, fmt.Errorf("feature row has %d values, model expects %d", len(x), g.FeatureCount)
	}

	raw := g.Bias
	for i := range g.Trees {
		raw += g.LearningRate * g.Trees[i].score(x)
	}
	return sigmoid(raw), nil
}

// FeatureImportance returns total split gain accumulated per feature index.
func (g *GBM) FeatureImportance() []float64 {
	importance := make([]float64, g.FeatureCount)
	for i := range g.Trees {
		for _, node := range g.Trees[i].Nodes {
			if node.Feature >= 0 {
				importance[node.Feature] += node.Gain
			}
		}
	}
	return importance
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// GBMOptions controls boosting.
type GBMOptions struct {
	Rounds         int
	MaxDepth       int
	LearningRate   float64
	MinLeafSamples int
}

// TrainGBM fits a boosted tree classifier with logistic loss. Each round fits
// a regression tree to the Newton gradients of the current prediction, which
// is the standard second-order boosting update.
func TrainGBM(rows [][]float64, labels []float64, opts GBMOptions) (*GBM, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("rows and labels length mismatch: %d vs %d", len(rows), len(labels))
	}

	featureCount := len(rows[0])
	for i, row := range rows {
		if len(row) != featureCount {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), featureCount)
		}
	}

	// Base score: log-odds of the positive rate.
	var positives float64
	for _, y := range labels {
		positives += y
	}
	rate := positives / float64(len(labels))
	rate = math.Min(math.Max(rate, 1e-6), 1-1e-6)
	bias := math.Log(rate / (1 - rate))

	model := &GBM{
		Bias:         bias,
		LearningRate: opts.LearningRate,
		FeatureCount: featureCount,
	}

	// Running raw score per row.
	raw := make([]float64, len(rows))
	for i := range raw {
		raw[i] = bias
	}

	grads := make([]float64, len(rows))
	hess := make([]float64, len(rows))
	indices := make([]int, len(rows))
	for i := range indices {
		indices[i] = i
	}

	for round := 0; round < opts.Rounds; round++ {
		for i := range rows {
			p := sigmoid(raw[i])
			grads[i] = p - labels[i]
			hess[i] = p * (1 - p)
		}

		builder := &treeBuilder{
			rows:           rows,
			grads:          grads,
			hess:           hess,
			maxDepth:       opts.MaxDepth,
			minLeafSamples: opts.MinLeafSamples,
		}
		tree := builder.build(indices)
		model.Trees = append(model.Trees, tree)

		for i := range rows {
			raw[i] += opts.LearningRate * tree.score(rows[i])
		}
	}

	return model, nil
}

type treeBuilder struct {
	rows           [][]float64
	grads          []float64
	hess           []float64
	maxDepth       int
	minLeafSamples int
}

func (b *treeBuilder) build(indices []int) Tree {
	tree := Tree{}
	b.grow(&tree, indices, 0)
	return tree
}

// grow appends the subtree for the given sample set and returns its node index.
func (b *treeBuilder) grow(tree *Tree, indices []int, depth int) int {
	nodeIdx := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, TreeNode{Feature: -1})

	sumG, sumH := b.sums(indices)

	if depth >= b.maxDepth || len(indices) < 2*b.minLeafSamples {
		tree.Nodes[nodeIdx].Value = leafValue(sumG, sumH)
		return nodeIdx
	}

	feature, threshold, gain, ok := b.bestSplit(indices, sumG, sumH)
	if !ok {
		tree.Nodes[nodeIdx].Value = leafValue(sumG, sumH)
		return nodeIdx
	}

	var left, right []int
	for _, idx := range indices {
		if b.rows[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	tree.Nodes[nodeIdx].Feature = feature
	tree.Nodes[nodeIdx].Threshold = threshold
	tree.Nodes[nodeIdx].Gain = gain
	tree.Nodes[nodeIdx].Left = b.grow(tree, left, depth+1)
	tree.Nodes[nodeIdx].Right = b.grow(tree, right, depth+1)
	return nodeIdx
}

func (b *treeBuilder) sums(indices []int) (float64, float64) {
	var sumG, sumH float64
	for _, idx := range indices {
		sumG += b.grads[idx]
		sumH += b.hess[idx]
	}
	return sumG, sumH
}

// bestSplit scans quantile thresholds on every feature for the split with the
// highest gain over the parent score.
func (b *treeBuilder) bestSplit(indices []int, sumG, sumH float64) (int, float64, float64, bool) {
	parentScore := splitScore(sumG, sumH)

	bestFeature := -1
	var bestThreshold, bestGain float64

	featureCount := len(b.rows[indices[0]])
	values := make([]float64, 0, len(indices))

	for f := 0; f < featureCount; f++ {
		values = values[:0]
		for _, idx := range indices {
			values = append(values, b.rows[idx][f])
		}
		for _, threshold := range candidateThresholds(values) {
			var leftG, leftH float64
			var leftN int
			for _, idx := range indices {
				if b.rows[idx][f] <= threshold {
					leftG += b.grads[idx]
					leftH += b.hess[idx]
					leftN++
				}
			}
			rightN := len(indices) - leftN
			if leftN < b.minLeafSamples || rightN < b.minLeafSamples {
				continue
			}

			gain := splitScore(leftG, leftH) + splitScore(sumG-leftG, sumH-leftH) - parentScore
			if gain > bestGain {
				bestFeature = f
				bestThreshold = threshold
				bestGain = gain
			}
		}
	}

	if bestFeature < 0 || bestGain <= 0 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain, true
}

// candidateThresholds returns up to maxSplitCandidates midpoints between
// distinct sorted values.
func candidateThresholds(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	unique := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != unique[len(unique)-1] {
			unique = append(unique, v)
		}
	}
	if len(unique) < 2 {
		return nil
	}

	step := 1
	if len(unique)-1 > maxSplitCandidates {
		step = (len(unique) - 1) / maxSplitCandidates
	}

	var thresholds []float64
	for i := 0; i+1 < len(unique); i += step {
		thresholds = append(thresholds, (unique[i]+unique[i+1])/2)
	}
	return thresholds
}

func splitScore(g, h float64) float64 {
	return (g * g) / (h + lambda)
}

func leafValue(g, h float64) float64 {
	return -g / (h + lambda)
}
