package classifier

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/outliner/model"
)

// featureNamesJSON is the feature_names array every model must carry
const featureNamesJSON = `["font_size", "is_bold", "text_length", "x0", "y0", "is_uppercase",
  "line_indent", "ends_with_period", "page_number", "appears_on_many_pages", "heading_score"]`

// twoTreeModel splits on font_size (feature 0) and is_bold (feature 1)
const twoTreeModel = `{
  "classes": ["H1", "body", "title"],
  "feature_names": `+featureNamesJSON+`,
  "trees": [
    {"nodes": [
      {"feature": 0, "threshold": 12, "left": 1, "right": 2},
      {"feature": -1, "value": [0, 10, 0]},
      {"feature": -1, "value": [8, 0, 2]}
    ]},
    {"nodes": [
      {"feature": 1, "threshold": 0.5, "left": 1, "right": 2},
      {"feature": -1, "value": [1, 3, 0]},
      {"feature": -1, "value": [3, 0, 1]}
    ]}
  ]
}`

func vector(fontSize, bold float64) []float64 {
	v := make([]float64, NumFeatures)
	v[0] = fontSize
	v[1] = bold
	return v
}

func TestParseForest(t *testing.T) {
	f, err := ParseForest([]byte(twoTreeModel))
	if err != nil {
		t.Fatalf("ParseForest() error = %v", err)
	}
	if f.NumTrees() != 2 {
		t.Errorf("NumTrees() = %d, want 2", f.NumTrees())
	}
	if got := f.Classes(); len(got) != 3 || got[2] != "title" {
		t.Errorf("Classes() = %v", got)
	}
	if len(f.FeatureNames()) != NumFeatures {
		t.Errorf("FeatureNames() has %d names, want %d", len(f.FeatureNames()), NumFeatures)
	}
}

func TestForestPredict(t *testing.T) {
	f, err := ParseForest([]byte(twoTreeModel))
	if err != nil {
		t.Fatalf("ParseForest() error = %v", err)
	}

	tests := []struct {
		name     string
		features []float64
		label    model.Level
		conf     float64
	}{
		// tree 1: body 1.0; tree 2: H1 0.25, body 0.75
		{"small plain", vector(10, 0), model.LevelBody, 0.875},
		// tree 1: H1 0.8, title 0.2; tree 2: H1 0.75, title 0.25
		{"large bold", vector(18, 1), model.LevelH1, 0.775},
		// threshold is inclusive on the left
		{"boundary", vector(12, 0), model.LevelBody, 0.875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := f.Predict(context.Background(), tt.features)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if pred.Label != tt.label {
				t.Errorf("Label = %q, want %q", pred.Label, tt.label)
			}
			if math.Abs(pred.Confidence()-tt.conf) > 1e-9 {
				t.Errorf("Confidence() = %v, want %v", pred.Confidence(), tt.conf)
			}

			sum := 0.0
			for _, p := range pred.Probabilities {
				sum += p
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("probabilities sum to %v, want 1", sum)
			}
		})
	}
}

func TestForestPredictTieGoesToFirstClass(t *testing.T) {
	data := `{"classes": ["H2", "H1"], "feature_names": `+featureNamesJSON+`,
		"trees": [{"nodes": [{"feature": -1, "value": [1, 1]}]}]}`

	f, err := ParseForest([]byte(data))
	if err != nil {
		t.Fatalf("ParseForest() error = %v", err)
	}
	pred, err := f.Predict(context.Background(), vector(0, 0))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.Label != "H2" {
		t.Errorf("Label = %q, want H2", pred.Label)
	}
}

func TestForestPredictWrongFeatureCount(t *testing.T) {
	f, err := ParseForest([]byte(twoTreeModel))
	if err != nil {
		t.Fatalf("ParseForest() error = %v", err)
	}
	if _, err := f.Predict(context.Background(), []float64{1, 2}); err == nil {
		t.Error("Predict() with short vector should fail")
	}
}

func TestParseForestInvalid(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{"not json", `{"classes":`},
		{"missing trees", `{"classes": ["a"], "feature_names": NAMES}`},
		{"empty classes", `{"classes": [], "feature_names": NAMES, "trees": [{"nodes": [{"feature": -1, "value": []}]}]}`},
		{"duplicate classes", `{"classes": ["a", "a"], "feature_names": NAMES, "trees": [{"nodes": [{"feature": -1, "value": [1, 1]}]}]}`},
		{"negative value", `{"classes": ["a"], "feature_names": NAMES, "trees": [{"nodes": [{"feature": -1, "value": [-1]}]}]}`},
		{"wrong value length", `{"classes": ["a", "b"], "feature_names": NAMES, "trees": [{"nodes": [{"feature": -1, "value": [1]}]}]}`},
		{"zero leaf", `{"classes": ["a"], "feature_names": NAMES, "trees": [{"nodes": [{"feature": -1, "value": [0]}]}]}`},
		{"feature out of range", `{"classes": ["a"], "feature_names": NAMES, "trees": [{"nodes": [
			{"feature": 11, "threshold": 1, "left": 1, "right": 2},
			{"feature": -1, "value": [1]}, {"feature": -1, "value": [1]}]}]}`},
		{"backward child", `{"classes": ["a"], "feature_names": NAMES, "trees": [{"nodes": [
			{"feature": 0, "threshold": 1, "left": 0, "right": 1},
			{"feature": -1, "value": [1]}]}]}`},
		{"too few feature names", `{"classes": ["a"], "feature_names": ["font_size"], "trees": [{"nodes": [{"feature": -1, "value": [1]}]}]}`},
		{"too many feature names", `{"classes": ["a"], "feature_names": ["a","b","c","d","e","f","g","h","i","j","k","l"],
			"trees": [{"nodes": [{"feature": -1, "value": [1]}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := strings.ReplaceAll(tt.model, "NAMES", featureNamesJSON)
			_, err := ParseForest([]byte(data))
			if !errors.Is(err, ErrInvalidModel) {
				t.Errorf("ParseForest() error = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestLoadForest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, []byte(twoTreeModel), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadForest(path); err != nil {
		t.Errorf("LoadForest() error = %v", err)
	}

	_, err := LoadForest(filepath.Join(dir, "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to read model") {
		t.Errorf("LoadForest(missing) error = %v", err)
	}
}

func TestFeatures(t *testing.T) {
	line := model.Line{
		Text:               "1.2 Background",
		FontSize:           14,
		IsBold:             true,
		X0:                 72,
		Y0:                 120,
		PageNumber:         2,
		TextLength:         2,
		LineIndent:         72,
		AppearsOnManyPages: true,
	}

	got, err := Features(line)
	if err != nil {
		t.Fatalf("Features() error = %v", err)
	}

	want := []float64{14, 1, 2, 72, 120, 0, 72, 0, 2, 1, 4}
	if len(got) != len(want) {
		t.Fatalf("Features() has %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("feature %s = %v, want %v", FeatureNames[i], got[i], want[i])
		}
	}
}

func TestFeaturesMissing(t *testing.T) {
	base := model.Line{Text: "Heading", FontSize: 12, PageNumber: 1}

	tests := []struct {
		name   string
		mutate func(*model.Line)
	}{
		{"no page", func(l *model.Line) { l.PageNumber = 0 }},
		{"zero size", func(l *model.Line) { l.FontSize = 0 }},
		{"nan size", func(l *model.Line) { l.FontSize = math.NaN() }},
		{"infinite y", func(l *model.Line) { l.Y0 = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := base
			tt.mutate(&line)
			if _, err := Features(line); !errors.Is(err, ErrMissingFeature) {
				t.Errorf("Features() error = %v, want ErrMissingFeature", err)
			}
		})
	}
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()
	features := vector(10, 0)

	t.Run("error is wrapped", func(t *testing.T) {
		cause := errors.New("boom")
		c := ClassifierFunc(func(context.Context, []float64) (Prediction, error) {
			return Prediction{}, cause
		})

		_, err := Invoke(ctx, c, features)
		var invErr *InvocationError
		if !errors.As(err, &invErr) {
			t.Fatalf("Invoke() error = %v, want *InvocationError", err)
		}
		if !errors.Is(err, cause) {
			t.Error("InvocationError should unwrap to the cause")
		}
	})

	t.Run("panic is recovered", func(t *testing.T) {
		c := ClassifierFunc(func(context.Context, []float64) (Prediction, error) {
			panic("bad model")
		})

		_, err := Invoke(ctx, c, features)
		var invErr *InvocationError
		if !errors.As(err, &invErr) {
			t.Fatalf("Invoke() error = %v, want *InvocationError", err)
		}
	})

	t.Run("empty label", func(t *testing.T) {
		c := ClassifierFunc(func(context.Context, []float64) (Prediction, error) {
			return Prediction{}, nil
		})

		if _, err := Invoke(ctx, c, features); !errors.Is(err, ErrNoLabel) {
			t.Errorf("Invoke() error = %v, want ErrNoLabel", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := Invoke(cctx, Null{}, features); !errors.Is(err, context.Canceled) {
			t.Errorf("Invoke() error = %v, want context.Canceled", err)
		}
	})
}

func TestNull(t *testing.T) {
	pred, err := Null{}.Predict(context.Background(), nil)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.Label != model.LevelBody {
		t.Errorf("Label = %q, want body", pred.Label)
	}
	if pred.Confidence() != 0 {
		t.Errorf("Confidence() = %v, want 0", pred.Confidence())
	}
}
