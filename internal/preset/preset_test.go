package preset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/monitorctl/internal/property"
)

const sample = `
presets:
  movie:
    description: dim, warm, 16:9
    steps:
      - brightness: 20
      - color_preset: warm
      - aspect_ratio: "16:9"
  office:
    steps:
      - reset_color: ""
      - brightness: 70
`

type fakeSetter struct {
	calls  []Step
	failAt int
}

func (f *fakeSetter) SetText(_ context.Context, name, text string) (property.Value, error) {
	f.calls = append(f.calls, Step{Property: name, Value: text})
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return nil, property.ErrParameterOverRange
	}
	return text, nil
}

func TestParse(t *testing.T) {
	book, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, []string{"movie", "office"}, book.Names())

	movie, err := book.Get("movie")
	require.NoError(t, err)
	assert.Equal(t, "movie", movie.Name)
	assert.Equal(t, []Step{{"brightness", "20"}, {"color_preset", "warm"}, {"aspect_ratio", "16:9"}}, movie.Steps)

	_, err = book.Get("gaming")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, book.Validate(property.DefaultTable()))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("presets:\n  x:\n    steps:\n      - a: 1\n        b: 2\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "越界", yaml: "presets:\n  p:\n    steps:\n      - brightness: 150\n"},
		{name: "只读", yaml: "presets:\n  p:\n    steps:\n      - monitor_name: x\n"},
		{name: "未知属性", yaml: "presets:\n  p:\n    steps:\n      - volume: 3\n"},
		{name: "未知枚举", yaml: "presets:\n  p:\n    steps:\n      - video_input: hdmi9\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Error(t, book.Validate(property.DefaultTable()))
		})
	}
}

func TestApply(t *testing.T) {
	book, err := Parse([]byte(sample))
	require.NoError(t, err)
	office, _ := book.Get("office")

	s := &fakeSetter{}
	n, err := Apply(context.Background(), s, office)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, office.Steps, s.calls)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	book, err := Parse([]byte(sample))
	require.NoError(t, err)
	movie, _ := book.Get("movie")

	s := &fakeSetter{failAt: 2}
	n, err := Apply(context.Background(), s, movie)
	assert.ErrorIs(t, err, property.ErrParameterOverRange)
	assert.Equal(t, 1, n)
	assert.Len(t, s.calls, 2)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	book, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, book.Presets, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
