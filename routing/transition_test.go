package routing

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTurnCostTable(t *testing.T) {
	t.Parallel()

	t.Run("shape", func(t *testing.T) {
		t.Parallel()
		table := buildTurnCostTable(2.5)
		assert.Equal(t, 2.5, table[0])
		assert.InDelta(t, 2.5*math.Exp(-4), table[180], 1e-12)
		for i := 1; i <= 180; i++ {
			assert.LessOrEqual(t, table[i], table[i-1], "table must be non-increasing at %d", i)
		}
	})

	t.Run("zero factor zeroes the table", func(t *testing.T) {
		t.Parallel()
		table := buildTurnCostTable(0)
		for i, v := range table {
			require.Zero(t, v, "index %d", i)
		}
	})
}

func TestTurnCostFoldsAngles(t *testing.T) {
	t.Parallel()

	g := lineGraph(2, 100)
	cfg := DefaultConfig()
	cfg.TurnPenaltyFactor = 10
	f, err := newFixture(g, nil, nil, cfg)
	require.NoError(t, err)

	assert.Equal(t, 10.0, f.model.TurnCost(0))
	assert.Equal(t, f.model.TurnCost(180), f.model.TurnCost(180.4))
	assert.Equal(t, f.model.TurnCost(0), f.model.TurnCost(-0.3))
	assert.InDelta(t, 10*math.Exp(-2), f.model.TurnCost(90), 1e-12)
}

func TestNewTransitionCostModelValidation(t *testing.T) {
	t.Parallel()

	g := lineGraph(2, 100)
	for name, mutate := range map[string]func(*Config){
		"zero beta":             func(c *Config) { c.Beta = 0 },
		"negative beta":         func(c *Config) { c.Beta = -1 },
		"negative turn penalty": func(c *Config) { c.TurnPenaltyFactor = -0.001 },
	} {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := newFixture(g, nil, nil, cfg)
			assert.Error(t, err)
		})
	}
}

func TestCalculateTransitionCost(t *testing.T) {
	t.Parallel()

	g := lineGraph(2, 100)

	t.Run("perfect route costs nothing", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Beta = 1
		f, err := newFixture(g, nil, nil, cfg)
		require.NoError(t, err)
		// straight 100m in 10s, route matches exactly
		assert.Zero(t, f.model.CalculateTransitionCost(0, 100, 100, 10, 10))
	})

	t.Run("detour is charged through beta", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Beta = 5
		f, err := newFixture(g, nil, nil, cfg)
		require.NoError(t, err)
		// route 250m/20s vs straight 100m/10s
		assert.InDelta(t, 32.0, f.model.CalculateTransitionCost(0, 250, 100, 20, 10), 1e-9)
	})

	t.Run("non-negative whenever the route dominates the straight line", func(t *testing.T) {
		t.Parallel()
		f, err := newFixture(g, nil, nil, DefaultConfig())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, f.model.CalculateTransitionCost(0.5, 120, 100, 12, 10), 0.0)
	})
}

func TestRouteBudgets(t *testing.T) {
	t.Parallel()

	g := lineGraph(2, 100)
	cfg := DefaultConfig()
	cfg.BreakageDistance = 50
	cfg.MaxRouteDistanceFactor = 5
	cfg.MaxRouteTimeFactor = 3
	f, err := newFixture(g, nil, nil, cfg)
	require.NoError(t, err)

	t.Run("distance budget clamps to the breakage distance", func(t *testing.T) {
		t.Parallel()
		maxDistance, _ := f.model.routeBudgets(200, 10)
		assert.Equal(t, 50.0, maxDistance)
	})

	t.Run("short hops keep the scaled budget", func(t *testing.T) {
		t.Parallel()
		maxDistance, maxTime := f.model.routeBudgets(8, 10)
		assert.Equal(t, 40.0, maxDistance)
		assert.Equal(t, 30.0, maxTime)
	})
}

func TestCostCoincidentMeasurements(t *testing.T) {
	t.Parallel()

	// S1: two coincident measurements snapped to the same candidate
	g := lineGraph(2, 100)
	lon, lat := deg(50), deg(5)
	meas := Measurement{Point: [2]float64{lon, lat}, EpochTime: 1000, SearchRadius: 25}
	columns := []Column{
		makeColumn(g, 0, lon, lat, 25),
		makeColumn(g, 1, lon, lat, 25),
	}
	require.Len(t, columns[0], 2)

	f, err := newFixture(g, columns, []Measurement{meas, {Point: meas.Point, EpochTime: 1000, SearchRadius: 25}}, DefaultConfig())
	require.NoError(t, err)

	cost := f.model.Cost(NewStateId(0, 0), NewStateId(1, 0))
	assert.Zero(t, cost, "same candidate, zero-length path, no turn")
	assert.True(t, columns[0][0].Routed(), "the expander ran despite gc_dist = 0")

	// the opposite-direction candidate cannot be reached inside a zero budget
	assert.Equal(t, NoTransition, f.model.Cost(NewStateId(0, 0), NewStateId(1, 1)))
}

func TestCostUnreachableWithinBreakage(t *testing.T) {
	t.Parallel()

	// S4: breakage 50m against a 200m hop
	g := lineGraph(2, 200)
	cfg := DefaultConfig()
	cfg.BreakageDistance = 50
	left := Measurement{Point: [2]float64{0, 0}, EpochTime: 0, SearchRadius: 10}
	right := Measurement{Point: [2]float64{deg(200), 0}, EpochTime: 10, SearchRadius: 10}
	columns := []Column{
		makeColumn(g, 0, 0, 0, 10),
		makeColumn(g, 1, deg(200), 0, 10),
	}
	require.NotEmpty(t, columns[0])
	require.NotEmpty(t, columns[1])

	f, err := newFixture(g, columns, []Measurement{left, right}, cfg)
	require.NoError(t, err)

	for j := range columns[1] {
		assert.Equal(t, NoTransition, f.model.Cost(NewStateId(0, 0), NewStateId(1, j)))
	}
	// sentinel iff no label was cached
	assert.Nil(t, columns[0][0].LastLabel(NewStateId(1, 0)))
}

func TestCostPanicsWhenPredecessorNotRouted(t *testing.T) {
	t.Parallel()

	// S5: the left state has a predecessor whose state was never routed
	g := lineGraph(3, 100)
	lon := deg(50)
	columns := []Column{
		makeColumn(g, 0, lon, 0, 25),
		makeColumn(g, 1, lon+deg(50), 0, 25),
		makeColumn(g, 2, lon+deg(100), 0, 25),
	}
	measurements := []Measurement{
		{Point: [2]float64{lon, 0}, EpochTime: 0, SearchRadius: 25},
		{Point: [2]float64{lon + deg(50), 0}, EpochTime: 10, SearchRadius: 25},
		{Point: [2]float64{lon + deg(100), 0}, EpochTime: 20, SearchRadius: 25},
	}
	f, err := newFixture(g, columns, measurements, DefaultConfig())
	require.NoError(t, err)

	f.vs.preds[NewStateId(1, 0)] = NewStateId(0, 0)
	require.PanicsWithValue(t, ErrPredecessorNotRouted, func() {
		f.model.Cost(NewStateId(1, 0), NewStateId(2, 0))
	})
}

func TestCostReusesOneExpansionAcrossRightColumn(t *testing.T) {
	t.Parallel()

	// S6 and idempotent routing: N right candidates, one expansion
	g := lineGraph(3, 100)
	left := Measurement{Point: [2]float64{deg(10), 0}, EpochTime: 0, SearchRadius: 25}
	right := Measurement{Point: [2]float64{deg(100), 0}, EpochTime: 30, SearchRadius: 60}
	columns := []Column{
		makeColumn(g, 0, deg(10), 0, 25),
		makeColumn(g, 1, deg(100), 0, 60),
	}
	require.GreaterOrEqual(t, len(columns[1]), 2)

	f, err := newFixture(g, columns, []Measurement{left, right}, DefaultConfig())
	require.NoError(t, err)

	lhs := NewStateId(0, 0)
	first := f.model.Cost(lhs, NewStateId(1, 0))
	require.True(t, columns[0][0].Routed())
	expansions := f.reader.outgoingCalls

	costs := []float64{first}
	for j := 1; j < len(columns[1]); j++ {
		costs = append(costs, f.model.Cost(lhs, NewStateId(1, j)))
	}
	assert.Equal(t, expansions, f.reader.outgoingCalls,
		"later right candidates must be answered from the cache")

	for j, c := range costs {
		rhs := NewStateId(1, j)
		if columns[0][0].LastLabel(rhs) != nil {
			assert.GreaterOrEqual(t, c, 0.0, "candidate %d", j)
		} else {
			assert.Equal(t, NoTransition, c, "candidate %d", j)
		}
	}
}

func TestCostResolvesRightStateByOwnId(t *testing.T) {
	t.Parallel()

	// The reference reads the right column at the left index; the model must
	// resolve the state rhs names instead
	g := lineGraph(2, 100)
	// disconnected island 5km north
	g.AddNode(10, 0, deg(5000))
	g.AddNode(11, deg(100), deg(5000))
	island := g.AddEdge(10, 11, "residential", 36, orb.LineString{{0, deg(5000)}, {deg(100), deg(5000)}})

	left := Measurement{Point: [2]float64{deg(10), 0}, EpochTime: 0, SearchRadius: 25}
	right := Measurement{Point: [2]float64{deg(90), 0}, EpochTime: 10, SearchRadius: 25}

	islandLoc := g.Project(deg(50), deg(5000), 25)
	require.NotEmpty(t, islandLoc.Edges)
	require.Equal(t, island.ID, islandLoc.Edges[0].ID)
	roadLoc := g.Project(deg(90), 0, 25)
	require.NotEmpty(t, roadLoc.Edges)

	columns := []Column{
		makeColumn(g, 0, deg(10), 0, 25),
		{
			// index 0, where a left-index read would land: unreachable island
			NewState(NewStateId(1, 0), islandLoc),
			// index 1: the real, reachable right candidate
			NewState(NewStateId(1, 1), roadLoc),
		},
	}

	f, err := newFixture(g, columns, []Measurement{left, right}, DefaultConfig())
	require.NoError(t, err)

	cost := f.model.Cost(NewStateId(0, 0), NewStateId(1, 1))
	assert.GreaterOrEqual(t, cost, 0.0, "rhs must be resolved by its own id, not the left one")
	assert.Equal(t, NoTransition, f.model.Cost(NewStateId(0, 0), NewStateId(1, 0)))
}

func TestUpdateRouteSeedsFromRoutedPredecessor(t *testing.T) {
	t.Parallel()

	g := lineGraph(4, 100)
	points := []float64{deg(10), deg(110), deg(210)}
	columns := make([]Column, len(points))
	measurements := make([]Measurement, len(points))
	for t2, lon := range points {
		columns[t2] = makeColumn(g, t2, lon, 0, 25)
		measurements[t2] = Measurement{Point: [2]float64{lon, 0}, EpochTime: float64(t2) * 10, SearchRadius: 25}
	}

	f, err := newFixture(g, columns, measurements, DefaultConfig())
	require.NoError(t, err)

	// route column 0 against column 1, then walk one step further with the
	// chosen predecessor committed
	cost01 := f.model.Cost(NewStateId(0, 0), NewStateId(1, 0))
	require.GreaterOrEqual(t, cost01, 0.0)
	f.vs.preds[NewStateId(1, 0)] = NewStateId(0, 0)

	cost12 := f.model.Cost(NewStateId(1, 0), NewStateId(2, 0))
	assert.GreaterOrEqual(t, cost12, 0.0)
	assert.True(t, columns[1][0].Routed())
}
