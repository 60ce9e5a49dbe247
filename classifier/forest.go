package classifier

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/tsawler/outliner/model"
)

//go:embed forest.schema.json
var forestSchemaJSON []byte

const forestSchemaURL = "https://outliner.local/schemas/forest.json"

var (
	forestSchemaOnce sync.Once
	forestSchema     *jsonschema.Schema
	forestSchemaErr  error
)

// ErrInvalidModel is returned when a model file is malformed
var ErrInvalidModel = errors.New("invalid model")

// leafFeature marks a leaf node
const leafFeature = -1

// Forest is a decision forest classifier. It is immutable once loaded.
type Forest struct {
	classes      []string
	featureNames []string
	trees        []tree
}

type tree struct {
	nodes []node
}

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	// probs is the normalized class distribution of a leaf
	probs []float64
}

// forestFile is the serialized model
type forestFile struct {
	Classes      []string `json:"classes"`
	FeatureNames []string `json:"feature_names"`
	Trees        []struct {
		Nodes []struct {
			Feature   int       `json:"feature"`
			Threshold float64   `json:"threshold"`
			Left      int       `json:"left"`
			Right     int       `json:"right"`
			Value     []float64 `json:"value"`
		} `json:"nodes"`
	} `json:"trees"`
}

// LoadForest reads and validates a forest model file
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	forest, err := ParseForest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return forest, nil
}

// ParseForest validates data against the model schema and builds a Forest
func ParseForest(data []byte) (*Forest, error) {
	schema, err := compiledForestSchema()
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidModel, strings.TrimSpace(verr.Error()))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	var file forestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	return buildForest(file)
}

func compiledForestSchema() (*jsonschema.Schema, error) {
	forestSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(forestSchemaJSON))
		if err != nil {
			forestSchemaErr = fmt.Errorf("model schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(forestSchemaURL, doc); err != nil {
			forestSchemaErr = fmt.Errorf("model schema: %w", err)
			return
		}
		forestSchema, forestSchemaErr = compiler.Compile(forestSchemaURL)
	})
	return forestSchema, forestSchemaErr
}

func buildForest(file forestFile) (*Forest, error) {
	nClasses := len(file.Classes)
	nFeatures := len(file.FeatureNames)
	if nFeatures != NumFeatures {
		return nil, fmt.Errorf("%w: %d feature names, want %d", ErrInvalidModel, nFeatures, NumFeatures)
	}

	f := &Forest{
		classes:      file.Classes,
		featureNames: file.FeatureNames,
		trees:        make([]tree, 0, len(file.Trees)),
	}

	for ti, t := range file.Trees {
		nodes := make([]node, len(t.Nodes))
		for ni, n := range t.Nodes {
			if n.Feature == leafFeature {
				probs, err := normalizeLeaf(n.Value, nClasses)
				if err != nil {
					return nil, fmt.Errorf("%w: tree %d node %d: %v", ErrInvalidModel, ti, ni, err)
				}
				nodes[ni] = node{feature: leafFeature, probs: probs}
				continue
			}

			if n.Feature >= nFeatures {
				return nil, fmt.Errorf("%w: tree %d node %d: feature %d out of range", ErrInvalidModel, ti, ni, n.Feature)
			}
			// Children must follow their parent so traversal always terminates
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return nil, fmt.Errorf("%w: tree %d node %d: invalid children %d/%d", ErrInvalidModel, ti, ni, n.Left, n.Right)
			}
			nodes[ni] = node{
				feature:   n.Feature,
				threshold: n.Threshold,
				left:      n.Left,
				right:     n.Right,
			}
		}
		f.trees = append(f.trees, tree{nodes: nodes})
	}

	return f, nil
}

func normalizeLeaf(value []float64, nClasses int) ([]float64, error) {
	if len(value) != nClasses {
		return nil, fmt.Errorf("leaf has %d values, want %d", len(value), nClasses)
	}

	sum := 0.0
	for _, v := range value {
		sum += v
	}
	if sum <= 0 {
		return nil, errors.New("leaf values sum to zero")
	}

	probs := make([]float64, nClasses)
	for i, v := range value {
		probs[i] = v / sum
	}
	return probs, nil
}

// Classes returns the class labels in model order
func (f *Forest) Classes() []string {
	return append([]string(nil), f.classes...)
}

// FeatureNames returns the feature names the model was trained on
func (f *Forest) FeatureNames() []string {
	return append([]string(nil), f.featureNames...)
}

// NumTrees returns the number of trees
func (f *Forest) NumTrees() int {
	return len(f.trees)
}

// Predict averages the leaf distributions of all trees. The label is the
// most probable class; ties go to the class listed first.
func (f *Forest) Predict(ctx context.Context, features []float64) (Prediction, error) {
	if len(features) != len(f.featureNames) {
		return Prediction{}, fmt.Errorf("got %d features, model expects %d", len(features), len(f.featureNames))
	}

	sums := make([]float64, len(f.classes))
	for _, t := range f.trees {
		leaf := t.leaf(features)
		for i, p := range leaf.probs {
			sums[i] += p
		}
	}

	best := 0
	probs := make(map[string]float64, len(f.classes))
	for i, class := range f.classes {
		sums[i] /= float64(len(f.trees))
		probs[class] = sums[i]
		if sums[i] > sums[best] {
			best = i
		}
	}

	return Prediction{
		Label:         model.Level(f.classes[best]),
		Probabilities: probs,
	}, nil
}

// leaf walks the tree from the root. x[feature] <= threshold goes left.
func (t tree) leaf(x []float64) node {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature == leafFeature {
			return n
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}
