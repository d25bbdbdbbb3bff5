package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

const (
	linearConfig = `
model:
  type: linear
  linear:
    coefficients: [1, 1]
explainer:
  representation: mobius
  feature_dependence: independent
`

	additiveConfig = `
model:
  type: additive
  additive:
    n_features: 2
    terms:
      - features: [0]
        kind: polynomial
        coefficients: [0, 2]
      - features: [1]
        kind: polynomial
        coefficients: [0, 0, 1]
explainer:
  seed: 7
`

	backgroundCSV = `x0,x1
0,0
1,2
2,4
3,6
`

	targetsCSV = `x0,x1
1,-1
3,3
`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// testFiles writes a config and both CSV files and returns the argument
// prefix that points the app at them.
func testFiles(t *testing.T, config string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", config)
	bg := writeFile(t, dir, "background.csv", backgroundCSV)
	x := writeFile(t, dir, "targets.csv", targetsCSV)
	return cfg, []string{"-b", bg, "-t", x, "--header"}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out, io.Discard).Run(context.Background(), append([]string{"marginal-effects"}, args...))
	return out.String(), err
}

func TestExplainLinear(t *testing.T) {
	cfg, data := testFiles(t, linearConfig)

	out, err := runApp(t, append([]string{"-c", cfg, "explain"}, data...)...)
	require.NoError(t, err)

	var res explainOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "mobius", res.Representation)
	assert.Equal(t, "independent", res.FeatureDependence)
	assert.Equal(t, 4, res.NSamples)
	assert.Equal(t, []string{"0", "1"}, res.Features)

	// 背景平均 (1.5, 3) との差がそのまま主効果になる
	require.Len(t, res.Effects, 2)
	assert.InDeltaSlice(t, []float64{-0.5, -4}, res.Effects[0], 1e-9)
	assert.InDeltaSlice(t, []float64{1.5, 0}, res.Effects[1], 1e-9)
}

func TestExplainFlagsOverrideConfig(t *testing.T) {
	cfg, data := testFiles(t, linearConfig)

	args := append([]string{"-c", cfg, "--format", "yaml", "explain"}, data...)
	args = append(args, "--representation", "comobius", "--features", "1,0:1", "--seed", "3", "-j", "2")
	out, err := runApp(t, args...)
	require.NoError(t, err)

	var res explainOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, "comobius", res.Representation)
	assert.Equal(t, []string{"1", "0:1"}, res.Features)

	// 線形モデルでは Möbius と co-Möbius が一致する
	require.Len(t, res.Effects, 2)
	assert.InDeltaSlice(t, []float64{-4, -4.5}, res.Effects[0], 1e-9)
	assert.InDeltaSlice(t, []float64{0, 1.5}, res.Effects[1], 1e-9)
}

func TestExplainScaled(t *testing.T) {
	cfg, data := testFiles(t, linearConfig)

	out, err := runApp(t, append([]string{"-c", cfg, "explain", "--scale", "standard"}, data...)...)
	require.NoError(t, err)

	var res explainOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	// モデルは標準化後の値を受け取る: (x - 1.5)/sqrt(1.25), (x - 3)/sqrt(5)
	require.Len(t, res.Effects, 2)
	assert.InDeltaSlice(t, []float64{-0.5 / math.Sqrt(1.25), -4 / math.Sqrt(5)}, res.Effects[0], 1e-9)

	_, err = runApp(t, append([]string{"-c", cfg, "explain", "--scale", "robust"}, data...)...)
	assert.Error(t, err)
}

func TestExplainAdditive(t *testing.T) {
	cfg, data := testFiles(t, additiveConfig)

	out, err := runApp(t, append([]string{"-c", cfg, "explain", "--representation", "average"}, data...)...)
	require.NoError(t, err)

	var res explainOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Effects, 2)

	// 2*x0 の主効果は 2*(x0 - 1.5)、x1^2 は x1^2 - mean(bg1^2) = x1^2 - 14
	assert.InDeltaSlice(t, []float64{-1, 1 - 14}, res.Effects[0], 1e-9)
	assert.InDeltaSlice(t, []float64{3, 9 - 14}, res.Effects[1], 1e-9)
}

func TestExplainErrors(t *testing.T) {
	cfg, data := testFiles(t, linearConfig)

	tests := []struct {
		name   string
		args   []string
		marker error
	}{
		{"unknown representation", append(append([]string{"-c", cfg, "explain"}, data...), "--representation", "shapley"), errors.ErrUnknownMode},
		{"unknown dependence", append(append([]string{"-c", cfg, "explain"}, data...), "--dependence", "causal"), errors.ErrUnknownMode},
		{"nsamples above background", append(append([]string{"-c", cfg, "explain"}, data...), "-n", "5"), errors.ErrInsufficientBackground},
		{"missing background", []string{"-c", cfg, "explain", "-t", data[3]}, nil},
		{"missing model", append([]string{"explain"}, data...), nil},
		{"bad format", append([]string{"-c", cfg, "--format", "xml", "explain"}, data...), nil},
		{"bad log level", append([]string{"-c", cfg, "--log-level", "trace", "explain"}, data...), nil},
		{"feature out of range", append(append([]string{"-c", cfg, "explain"}, data...), "--features", "2"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runApp(t, tt.args...)
			require.Error(t, err)
			assert.Empty(t, out)
			if tt.marker != nil {
				assert.True(t, errors.Is(err, tt.marker), "got %v", err)
			}
		})
	}
}

func TestAblate(t *testing.T) {
	cfg, data := testFiles(t, linearConfig)

	out, err := runApp(t, append([]string{"-c", cfg, "ablate", "--order", "least"}, data...)...)
	require.NoError(t, err)

	var res struct {
		Representation string `json:"representation"`
		Curve          struct {
			Order   string    `json:"order"`
			Removed []int     `json:"removed"`
			MSE     []float64 `json:"mse"`
		} `json:"curve"`
		AUC float64 `json:"auc"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "least_important_first", res.Curve.Order)
	assert.Equal(t, []int{0, 1, 2}, res.Curve.Removed)
	assert.Zero(t, res.Curve.MSE[0])
	assert.Greater(t, res.AUC, 0.0)

	_, err = runApp(t, append([]string{"-c", cfg, "ablate", "--features", "1,0"}, data...)...)
	require.Error(t, err)

	_, err = runApp(t, append([]string{"-c", cfg, "ablate", "--order", "random"}, data...)...)
	require.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	m, err := readCSV(strings.NewReader("# comment\n1, 2\n3,4\n"), false)
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.0, m.At(1, 1))

	m, err = readCSV(strings.NewReader("a,b\n5,6\n"), true)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, m.RawRowView(0))

	_, err = readCSV(strings.NewReader("a,b\n5,6\n"), false)
	assert.Error(t, err)

	_, err = readCSV(strings.NewReader("1,2\n3\n"), false)
	assert.Error(t, err)

	_, err = readCSV(strings.NewReader("a,b\n"), true)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestBuildModel(t *testing.T) {
	_, err := buildModel(ModelConfig{})
	assert.Error(t, err)

	_, err = buildModel(ModelConfig{Type: "forest"})
	assert.Error(t, err)

	_, err = buildModel(ModelConfig{Type: "linear"})
	assert.Error(t, err)

	_, err = buildModel(ModelConfig{Type: "additive"})
	assert.Error(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	cfg, data := testFiles(t, linearConfig)

	_, err := runApp(t, append([]string{"-c", cfg, "--format", "xml", "explain"}, data...)...)
	require.Error(t, err)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, formatFlag, ve.ParamName)
	assert.Equal(t, "xml", ve.Value)
}

func TestServeNeedsBackground(t *testing.T) {
	cfg, _ := testFiles(t, linearConfig)

	_, err := runApp(t, "-c", cfg, "serve")
	require.Error(t, err)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, backgroundFlag, ve.ParamName)
}
