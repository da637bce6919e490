package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// GBTConfig holds the externally supplied hyperparameters.
type GBTConfig struct {
	Estimators   int     `json:"estimators"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
	Seed         int64   `json:"seed"`

	// Subsample is the fraction of rows each tree sees. 1.0 trains every tree
	// on the full set, which keeps results independent of Seed.
	Subsample float64 `json:"subsample"`

	// MinLeafSize stops splitting below this many rows per side.
	MinLeafSize int `json:"min_leaf_size"`
}

func (c GBTConfig) withDefaults() GBTConfig {
	if c.Estimators <= 0 {
		c.Estimators = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 3
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.1
	}
	if c.Subsample <= 0 || c.Subsample > 1 {
		c.Subsample = 1.0
	}
	if c.MinLeafSize <= 0 {
		c.MinLeafSize = 1
	}
	return c
}

// treeNode is one node of a regression tree. Leaves carry the mean residual of
// the rows routed to them.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// GBTRegressor is a gradient-boosted ensemble of shallow regression trees with
// squared-error loss. For a fixed snapshot and seed the fit is deterministic.
type GBTRegressor struct {
	Config   GBTConfig   `json:"config"`
	Base     float64     `json:"base"`
	Trees    []*treeNode `json:"trees"`
	Features int         `json:"features"`
}

// NewGBTRegressor builds an unfitted regressor from config.
func NewGBTRegressor(cfg GBTConfig) *GBTRegressor {
	return &GBTRegressor{Config: cfg.withDefaults()}
}

// Fit trains the ensemble. Each tree fits the residual of the running
// prediction, scaled by the learning rate.
func (g *GBTRegressor) Fit(features [][]float64, targets []float64) error {
	if len(features) == 0 {
		return errors.New("gbt: empty training set")
	}
	if len(features) != len(targets) {
		return fmt.Errorf("gbt: %d feature rows vs %d targets", len(features), len(targets))
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("gbt: row %d has %d features, want %d", i, len(row), width)
		}
	}
	g.Features = width

	var sum float64
	for _, t := range targets {
		sum += t
	}
	g.Base = sum / float64(len(targets))

	rng := rand.New(rand.NewSource(g.Config.Seed))
	preds := make([]float64, len(targets))
	for i := range preds {
		preds[i] = g.Base
	}

	residuals := make([]float64, len(targets))
	g.Trees = make([]*treeNode, 0, g.Config.Estimators)
	for t := 0; t < g.Config.Estimators; t++ {
		for i := range targets {
			residuals[i] = targets[i] - preds[i]
		}

		indices := g.sampleRows(rng, len(targets))
		tree := g.buildTree(features, residuals, indices, 0)
		g.Trees = append(g.Trees, tree)

		for i, row := range features {
			preds[i] += g.Config.LearningRate * tree.predict(row)
		}
	}

	return nil
}

// Predict scores one feature row with the fitted ensemble.
func (g *GBTRegressor) Predict(row []float64) (float64, error) {
	if len(g.Trees) == 0 {
		return 0, errors.New("gbt: model is not fitted")
	}
	if len(row) != g.Features {
		return 0, fmt.Errorf("gbt: got %d features, want %d", len(row), g.Features)
	}
	pred := g.Base
	for _, tree := range g.Trees {
		pred += g.Config.LearningRate * tree.predict(row)
	}
	return pred, nil
}

func (g *GBTRegressor) sampleRows(rng *rand.Rand, n int) []int {
	if g.Config.Subsample >= 1 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	k := int(math.Max(1, math.Floor(g.Config.Subsample*float64(n))))
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

func (g *GBTRegressor) buildTree(features [][]float64, residuals []float64, indices []int, depth int) *treeNode {
	if depth >= g.Config.MaxDepth || len(indices) < 2*g.Config.MinLeafSize {
		return &treeNode{Leaf: true, Value: mean(residuals, indices)}
	}

	feature, threshold, ok := g.bestSplit(features, residuals, indices)
	if !ok {
		return &treeNode{Leaf: true, Value: mean(residuals, indices)}
	}

	var left, right []int
	for _, i := range indices {
		if features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < g.Config.MinLeafSize || len(right) < g.Config.MinLeafSize {
		return &treeNode{Leaf: true, Value: mean(residuals, indices)}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      g.buildTree(features, residuals, left, depth+1),
		Right:     g.buildTree(features, residuals, right, depth+1),
	}
}

// bestSplit scans every feature with an exact greedy search over sorted values
// and returns the split with the largest squared-error reduction. Features are
// scanned in a fixed order so ties resolve the same way on every run.
func (g *GBTRegressor) bestSplit(features [][]float64, residuals []float64, indices []int) (int, float64, bool) {
	n := len(indices)

	var totalSum float64
	for _, i := range indices {
		totalSum += residuals[i]
	}
	parentScore := totalSum * totalSum / float64(n)

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	order := make([]int, n)
	for f := 0; f < len(features[indices[0]]); f++ {
		copy(order, indices)
		sort.SliceStable(order, func(a, b int) bool {
			return features[order[a]][f] < features[order[b]][f]
		})

		var leftSum float64
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += residuals[i]

			cur := features[i][f]
			next := features[order[pos+1]][f]
			if cur == next {
				continue
			}

			leftCount := float64(pos + 1)
			rightSum := totalSum - leftSum
			rightCount := float64(n - pos - 1)

			gain := leftSum*leftSum/leftCount + rightSum*rightSum/rightCount - parentScore
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func mean(values []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, i := range indices {
		sum += values[i]
	}
	return sum / float64(len(indices))
}
