package core

import (
	"fmt"
)

// Label is the classifier's binary output code.
type Label int

const (
	LabelStay  Label = 0
	LabelChurn Label = 1
)

type Classifier interface {
	// Predict returns one label per input vector.
	Predict(X []ScaledFeatureVector) ([]Label, error)

	// PredictProba returns, per input vector, the probability of each class in
	// the order of Classes.
	PredictProba(X []ScaledFeatureVector) ([][]float64, error)

	Classes() []Label

	NumFeatures() int
}

// leafNode marks a node without children in the flattened tree arrays.
const leafNode = -1

// DecisionTree is a fitted CART tree stored as parallel node arrays. Node i
// splits on Feature[i]: values <= Threshold[i] go to ChildrenLeft[i], others
// to ChildrenRight[i]. Value[i] holds the class weights at that node.
type DecisionTree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

func (t *DecisionTree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree node arrays have inconsistent lengths")
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if (left == leafNode) != (right == leafNode) {
			return fmt.Errorf("node %d has exactly one child", i)
		}
		if left == leafNode {
			if len(t.Value[i]) != nClasses {
				return fmt.Errorf("leaf %d has %d class weights, expected %d", i, len(t.Value[i]), nClasses)
			}
			continue
		}
		// Children always come after their parent, which rules out cycles.
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has out of range children %d/%d", i, left, right)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d, model has %d features", i, t.Feature[i], nFeatures)
		}
	}
	return nil
}

// leaf walks the tree for one row and returns the normalised class
// distribution at the leaf it lands in.
func (t *DecisionTree) leaf(x []float64) []float64 {
	node := 0
	for t.ChildrenLeft[node] != leafNode {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}

	weights := t.Value[node]
	total := 0.0
	for _, w := range weights {
		total += w
	}

	probs := make([]float64, len(weights))
	for k, w := range weights {
		if total > 0 {
			probs[k] = w / total
		}
	}
	return probs
}

// RandomForest averages the class distributions of its trees and predicts
// the most probable class. A single DecisionTree is a forest of one.
type RandomForest struct {
	ClassLabels []Label         `json:"classes"`
	NFeatures   int             `json:"n_features_in"`
	Estimators  []*DecisionTree `json:"estimators"`
}

var _ Classifier = (*RandomForest)(nil)

func (rf *RandomForest) validate() error {
	if len(rf.ClassLabels) < 2 {
		return fmt.Errorf("classifier must have at least two classes, got %d", len(rf.ClassLabels))
	}
	for _, c := range rf.ClassLabels {
		if c != LabelStay && c != LabelChurn {
			return fmt.Errorf("classifier has unsupported class label %d", c)
		}
	}
	if rf.NFeatures <= 0 {
		return fmt.Errorf("classifier has no fitted features")
	}
	if len(rf.Estimators) == 0 {
		return fmt.Errorf("classifier has no trees")
	}
	for i, tree := range rf.Estimators {
		if tree == nil {
			return fmt.Errorf("tree %d is empty", i)
		}
		if err := tree.validate(rf.NFeatures, len(rf.ClassLabels)); err != nil {
			return fmt.Errorf("invalid tree %d: %w", i, err)
		}
	}
	return nil
}

func (rf *RandomForest) Classes() []Label {
	return rf.ClassLabels
}

func (rf *RandomForest) NumFeatures() int {
	return rf.NFeatures
}

func (rf *RandomForest) PredictProba(X []ScaledFeatureVector) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row.Values) != rf.NFeatures {
			return nil, &SchemaMismatchError{Stage: "predict", Expected: rf.NFeatures, Actual: len(row.Values)}
		}

		probs := make([]float64, len(rf.ClassLabels))
		for _, tree := range rf.Estimators {
			for k, p := range tree.leaf(row.Values) {
				probs[k] += p
			}
		}
		for k := range probs {
			probs[k] /= float64(len(rf.Estimators))
		}
		out[i] = probs
	}
	return out, nil
}

func (rf *RandomForest) Predict(X []ScaledFeatureVector) ([]Label, error) {
	probas, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}

	out := make([]Label, len(probas))
	for i, probs := range probas {
		// Ties resolve to the first class.
		best := 0
		for k := 1; k < len(probs); k++ {
			if probs[k] > probs[best] {
				best = k
			}
		}
		out[i] = rf.ClassLabels[best]
	}
	return out, nil
}
