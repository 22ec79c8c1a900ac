package routing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janusz-anue/valhalla/costing"
	"github.com/janusz-anue/valhalla/osm"
)

func trace(epochStep float64, lonMeters ...float64) []Measurement {
	measurements := make([]Measurement, len(lonMeters))
	for i, m := range lonMeters {
		measurements[i] = Measurement{
			Point:        orb.Point{deg(m), deg(5)},
			EpochTime:    float64(i) * epochStep,
			SearchRadius: 25,
		}
	}
	return measurements
}

func TestMatchStraightRoad(t *testing.T) {
	t.Parallel()

	g := lineGraph(5, 100)
	matcher, err := NewMatcher(g, costing.ModeAuto, DefaultConfig())
	require.NoError(t, err)

	result, err := matcher.Match(trace(10, 50, 150, 250, 350))
	require.NoError(t, err)

	assert.Empty(t, result.Breaks)
	assert.Equal(t, 1.0, result.Confidence)

	var edges []osm.EdgeId
	for _, pt := range result.Points {
		require.True(t, pt.Matched)
		edges = append(edges, pt.EdgeID)
	}
	// one eastbound edge per 100m segment; eastbound edges have even ids
	want := []osm.EdgeId{0, 2, 4, 6}
	if diff := cmp.Diff(want, edges); diff != "" {
		t.Errorf("matched edges mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchBreaksAcrossDisconnectedRoads(t *testing.T) {
	t.Parallel()

	// two disconnected 100m roads roughly 10km apart
	g := osm.NewGraph()
	g.AddNode(1, 0, 0)
	g.AddNode(2, deg(100), 0)
	g.AddEdge(1, 2, "residential", 36, orb.LineString{{0, 0}, {deg(100), 0}})
	g.AddEdge(2, 1, "residential", 36, orb.LineString{{deg(100), 0}, {0, 0}})
	g.AddNode(11, deg(10000), 0)
	g.AddNode(12, deg(10100), 0)
	g.AddEdge(11, 12, "residential", 36, orb.LineString{{deg(10000), 0}, {deg(10100), 0}})
	g.AddEdge(12, 11, "residential", 36, orb.LineString{{deg(10100), 0}, {deg(10000), 0}})

	matcher, err := NewMatcher(g, costing.ModeAuto, DefaultConfig())
	require.NoError(t, err)

	result, err := matcher.Match(trace(10, 20, 80, 10020, 10080))
	require.NoError(t, err)

	assert.Equal(t, []int{2}, result.Breaks)
	assert.Equal(t, 1.0, result.Confidence)
	for t2, pt := range result.Points {
		assert.True(t, pt.Matched, "point %d", t2)
	}
}

func TestMatchUnmatchableMeasurement(t *testing.T) {
	t.Parallel()

	g := lineGraph(3, 100)
	matcher, err := NewMatcher(g, costing.ModeAuto, DefaultConfig())
	require.NoError(t, err)

	measurements := trace(10, 50, 100, 150)
	// shove the middle fix far off the road
	measurements[1].Point = orb.Point{deg(100), deg(500)}

	result, err := matcher.Match(measurements)
	require.NoError(t, err)

	assert.True(t, result.Points[0].Matched)
	assert.False(t, result.Points[1].Matched)
	assert.True(t, result.Points[2].Matched)
	assert.Equal(t, []int{1, 2}, result.Breaks)
	assert.InDelta(t, 2.0/3.0, result.Confidence, 1e-9)
}

func TestMatchEmptyTrace(t *testing.T) {
	t.Parallel()

	g := lineGraph(2, 100)
	matcher, err := NewMatcher(g, costing.ModeAuto, DefaultConfig())
	require.NoError(t, err)

	result, err := matcher.Match(nil)
	require.NoError(t, err)
	assert.Empty(t, result.Points)
}

func TestMatchRejectsOutOfOrderTimes(t *testing.T) {
	t.Parallel()

	g := lineGraph(2, 100)
	matcher, err := NewMatcher(g, costing.ModeAuto, DefaultConfig())
	require.NoError(t, err)

	measurements := trace(10, 20, 80)
	measurements[1].EpochTime = -5

	_, err = matcher.Match(measurements)
	assert.Error(t, err)
}

func TestNewMatcherValidatesConfig(t *testing.T) {
	t.Parallel()

	g := lineGraph(2, 100)

	cfg := DefaultConfig()
	cfg.Beta = 0
	_, err := NewMatcher(g, costing.ModeAuto, cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.SigmaZ = 0
	_, err = NewMatcher(g, costing.ModeAuto, cfg)
	assert.Error(t, err)
}
