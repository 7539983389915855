package valuation

import (
	"math"
	"math/rand"
	"sort"
)

// Seeded CART regression trees backing the growth forecasting ensemble.
// Splits minimize the weighted variance of the children.

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
}

func buildTree(features [][]float64, targets []float64, indices []int, depth int, params treeParams) *treeNode {
	if len(indices) == 0 {
		return &treeNode{leaf: true}
	}

	subset := make([]float64, len(indices))
	for i, idx := range indices {
		subset[i] = targets[idx]
	}
	mean := meanFloat64(subset)

	if depth >= params.maxDepth || len(indices) < params.minSamplesSplit || varianceFloat64(subset) == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	bestFeature, bestThreshold, bestScore := -1, 0.0, math.Inf(1)
	numFeatures := len(features[indices[0]])
	for f := 0; f < numFeatures; f++ {
		values := make([]float64, len(indices))
		for i, idx := range indices {
			values[i] = features[idx][f]
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		for i := 1; i < len(sorted); i++ {
			if sorted[i] == sorted[i-1] {
				continue
			}
			threshold := (sorted[i] + sorted[i-1]) / 2

			var leftSum, leftSq, rightSum, rightSq float64
			var leftN, rightN int
			for j, idx := range indices {
				t := targets[idx]
				if values[j] <= threshold {
					leftSum += t
					leftSq += t * t
					leftN++
				} else {
					rightSum += t
					rightSq += t * t
					rightN++
				}
			}
			if leftN == 0 || rightN == 0 {
				continue
			}
			// Weighted sum of squared errors of both children.
			score := (leftSq - leftSum*leftSum/float64(leftN)) +
				(rightSq - rightSum*rightSum/float64(rightN))
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return &treeNode{leaf: true, value: mean}
	}

	var leftIdx, rightIdx []int
	for _, idx := range indices {
		if features[idx][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, idx)
		} else {
			rightIdx = append(rightIdx, idx)
		}
	}

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      buildTree(features, targets, leftIdx, depth+1, params),
		right:     buildTree(features, targets, rightIdx, depth+1, params),
	}
}

func (n *treeNode) predict(row []float64) float64 {
	node := n
	for node != nil && !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	if node == nil {
		return 0
	}
	return node.value
}

// randomForest is a bootstrap-aggregated ensemble of full-depth trees.
type randomForest struct {
	trees []*treeNode
}

func fitRandomForest(features [][]float64, targets []float64, numTrees int, rng *rand.Rand) *randomForest {
	params := treeParams{maxDepth: 25, minSamplesSplit: 2}
	forest := &randomForest{trees: make([]*treeNode, 0, numTrees)}
	n := len(features)
	for t := 0; t < numTrees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		forest.trees = append(forest.trees, buildTree(features, targets, sample, 0, params))
	}
	return forest
}

func (f *randomForest) predict(row []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, tree := range f.trees {
		sum += tree.predict(row)
	}
	return sum / float64(len(f.trees))
}

// gradientBoosting is a stagewise ensemble of shallow trees fitted to
// residuals with shrinkage.
type gradientBoosting struct {
	base         float64
	learningRate float64
	trees        []*treeNode
}

func fitGradientBoosting(features [][]float64, targets []float64, numTrees int, learningRate float64) *gradientBoosting {
	params := treeParams{maxDepth: 3, minSamplesSplit: 2}
	model := &gradientBoosting{
		base:         meanFloat64(targets),
		learningRate: learningRate,
		trees:        make([]*treeNode, 0, numTrees),
	}

	n := len(features)
	indices := make([]int, n)
	current := make([]float64, n)
	for i := range indices {
		indices[i] = i
		current[i] = model.base
	}

	residuals := make([]float64, n)
	for t := 0; t < numTrees; t++ {
		for i := range residuals {
			residuals[i] = targets[i] - current[i]
		}
		tree := buildTree(features, residuals, indices, 0, params)
		model.trees = append(model.trees, tree)
		for i := range current {
			current[i] += learningRate * tree.predict(features[i])
		}
	}
	return model
}

func (g *gradientBoosting) predict(row []float64) float64 {
	out := g.base
	for _, tree := range g.trees {
		out += g.learningRate * tree.predict(row)
	}
	return out
}
