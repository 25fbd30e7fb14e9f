package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/holocore/internal/landmark"
)

func TestTemplate_Static(t *testing.T) {
	tpl := &Template{
		ID:        "shaka",
		Name:      "Shaka",
		Kind:      TemplateStatic,
		Landmarks: landmark.Normalize(landmark.Victory(0.5, 0.5)),
		Tolerance: 1,
		Triggers:  []string{"hello"},
	}
	def, err := tpl.Definition()
	require.NoError(t, err)
	assert.Equal(t, KindCustom, def.Kind)
	assert.Equal(t, "Shaka", def.DisplayName)
	assert.InDelta(t, 0.5, def.BaseConfidence, 1e-12)

	same := handAt(landmark.Victory(0.2, 0.7))
	conf, err := def.Evaluator(same, ExtractFeatures(same), &Motion{})
	require.NoError(t, err)
	assert.InDelta(t, 1, conf, 1e-9)

	other := handAt(landmark.OpenPalm(0.5, 0.5))
	conf, err = def.Evaluator(other, ExtractFeatures(other), &Motion{})
	require.NoError(t, err)
	assert.Less(t, conf, def.BaseConfidence)
}

func TestTemplate_Dynamic(t *testing.T) {
	tpl := &Template{
		ID:   "flick",
		Kind: TemplateDynamic,
		Path: []PathPoint{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 1, Y: 0}},
	}
	def, err := tpl.Definition()
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+DefaultDynamicTolerance), def.BaseConfidence, 1e-12)

	motion := func(points ...[2]float64) *Motion {
		m := &Motion{Window: len(points), Complete: true}
		for i, p := range points {
			m.Samples = append(m.Samples, PalmSample{Point: landmark.Point{X: p[0], Y: p[1]}, Timestamp: int64(i)})
		}
		return m
	}

	conf, err := def.Evaluator(nil, nil, motion([2]float64{0.2, 0.5}, [2]float64{0.5, 0.5}, [2]float64{0.8, 0.5}))
	require.NoError(t, err)
	assert.InDelta(t, 1, conf, 1e-9)

	still, err := def.Evaluator(nil, nil, motion([2]float64{0.5, 0.5}, [2]float64{0.51, 0.5}, [2]float64{0.5, 0.5}))
	require.NoError(t, err)
	assert.Zero(t, still)

	incomplete, err := def.Evaluator(nil, nil, &Motion{Window: 10})
	require.NoError(t, err)
	assert.Zero(t, incomplete)
}

func TestTemplate_Invalid(t *testing.T) {
	tests := []*Template{
		{ID: "a", Kind: TemplateStatic, Landmarks: make([]landmark.Point, 3)},
		{ID: "b", Kind: TemplateDynamic, Path: []PathPoint{{}}},
		{ID: "c", Kind: "sideways"},
	}
	for _, tpl := range tests {
		_, err := tpl.Definition()
		assert.ErrorIs(t, err, ErrInvalidTemplate, tpl.ID)
	}
}
