package floorplan

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/talaria-robotics/navigator/spatialmath"
)

func line(ax, ay, bx, by float64) spatialmath.Curve {
	return spatialmath.NewLine(r2.Point{X: ax, Y: ay}, r2.Point{X: bx, Y: by})
}

// square returns home(0,0) a(10,0) b(10,10) c(0,10) joined around the perimeter.
func square(t *testing.T) *Graph {
	t.Helper()
	g, err := NewBuilder().
		AddNode("home", r2.Point{}).
		AddNode("a", r2.Point{X: 10}).
		AddNode("b", r2.Point{X: 10, Y: 10}).
		AddNode("c", r2.Point{Y: 10}).
		AddRoom("a", "A").
		AddRoom("b", "B").
		AddRoom("c", "C").
		AddEdge("home", "a", line(0, 0, 10, 0)).
		AddEdge("a", "b", line(10, 0, 10, 10)).
		AddEdge("c", "b", line(0, 10, 10, 10)).
		AddEdge("home", "c", line(0, 0, 0, 10)).
		Build()
	test.That(t, err, test.ShouldBeNil)
	return g
}

func countDijkstra(g *Graph) *int {
	calls := 0
	g.dijkstra = func(u graph.Node, gr traverse.Graph) path.Shortest {
		calls++
		return path.DijkstraFrom(u, gr)
	}
	return &calls
}

// bruteForce enumerates every order of stops independently of PlanTrip.
func bruteForce(t *testing.T, g *Graph, stops []string) float64 {
	t.Helper()
	paths, err := g.ShortestPaths(append([]string{g.Home()}, stops...))
	test.That(t, err, test.ShouldBeNil)
	best := math.Inf(1)
	var permute func(prefix, rest []string)
	permute = func(prefix, rest []string) {
		if len(rest) == 0 {
			tour := append(append([]string{g.Home()}, prefix...), g.Home())
			var length float64
			for i := 0; i+1 < len(tour); i++ {
				if tour[i] != tour[i+1] {
					length += paths[NodePair{tour[i], tour[i+1]}].Length
				}
			}
			best = math.Min(best, length)
			return
		}
		for i := range rest {
			next := append(append([]string{}, prefix...), rest[i])
			remaining := append(append([]string{}, rest[:i]...), rest[i+1:]...)
			permute(next, remaining)
		}
	}
	permute(nil, stops)
	return best
}

func TestShortestPaths(t *testing.T) {
	g := square(t)
	paths, err := g.ShortestPaths([]string{"home", "b"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, paths, test.ShouldHaveLength, 2)

	forward := paths[NodePair{"home", "b"}]
	backward := paths[NodePair{"b", "home"}]
	test.That(t, forward.Length, test.ShouldAlmostEqual, 20)
	test.That(t, backward.Length, test.ShouldEqual, forward.Length)
	test.That(t, forward.Nodes, test.ShouldHaveLength, 3)
	for i := range forward.Nodes {
		test.That(t, backward.Nodes[len(backward.Nodes)-1-i], test.ShouldEqual, forward.Nodes[i])
	}

	_, err = g.ShortestPaths([]string{"home", "nowhere"})
	test.That(t, errors.Is(err, ErrUnknownNode), test.ShouldBeTrue)
}

func TestPlanTripOptimality(t *testing.T) {
	g := square(t)
	for _, stops := range [][]string{
		{"a", "b"},
		{"b", "a"},
		{"a", "c"},
		{"c", "b", "a"},
		{"b"},
	} {
		plan, err := g.PlanTrip(stops)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, plan.Length, test.ShouldAlmostEqual, bruteForce(t, g, stops))
		test.That(t, plan.Nodes[0], test.ShouldEqual, "home")
		test.That(t, plan.Nodes[len(plan.Nodes)-1], test.ShouldEqual, "home")
		for i := 0; i+1 < len(plan.Nodes); i++ {
			_, err := g.AdjacentPath(plan.Nodes[i], plan.Nodes[i+1])
			test.That(t, err, test.ShouldBeNil)
		}
	}

	plan, err := g.PlanTrip([]string{"a", "c"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Length, test.ShouldAlmostEqual, 40)
	test.That(t, plan.Hash, test.ShouldEqual, "home,a,c")
}

func TestPlanTripCache(t *testing.T) {
	g := square(t)
	calls := countDijkstra(g)

	first, err := g.PlanTrip([]string{"a", "b"})
	test.That(t, err, test.ShouldBeNil)
	afterFirst := *calls
	test.That(t, afterFirst, test.ShouldBeGreaterThan, 0)

	second, err := g.PlanTrip([]string{string([]byte{'a'}), "b"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *calls, test.ShouldEqual, afterFirst)
	test.That(t, second, test.ShouldResemble, first)

	// the shortest-path table for the same id list is reused as well
	_, err = g.ShortestPaths([]string{"home", "a", "b"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *calls, test.ShouldEqual, afterFirst)

	// mutating a returned plan does not reach the cache
	second.Nodes[0] = "mutated"
	third, err := g.PlanTrip([]string{"a", "b"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, third.Nodes[0], test.ShouldEqual, "home")

	_, err = g.PlanTrip([]string{"b", "a"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *calls, test.ShouldBeGreaterThan, afterFirst)
}

func TestPlanTripEndToEnd(t *testing.T) {
	g, err := ReadFile("testdata/triangle.floormap")
	test.That(t, err, test.ShouldBeNil)

	plan, err := g.PlanTrip([]string{"A", "B"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Nodes, test.ShouldResemble, []string{"home", "A", "B", "home"})
	test.That(t, plan.Length, test.ShouldAlmostEqual, 20+math.Sqrt(200), 1e-9)
}

func TestPlanTripEdgeCases(t *testing.T) {
	g := square(t)

	t.Run("no stops", func(t *testing.T) {
		plan, err := g.PlanTrip(nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, plan.Nodes, test.ShouldResemble, []string{"home"})
		test.That(t, plan.Length, test.ShouldEqual, 0)
	})

	t.Run("repeated stop and home as a stop", func(t *testing.T) {
		plan, err := g.PlanTrip([]string{"a", "a", "home"})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, plan.Length, test.ShouldAlmostEqual, 20)
		test.That(t, plan.Nodes, test.ShouldResemble, []string{"home", "a", "home"})
	})

	t.Run("too many stops", func(t *testing.T) {
		stops := make([]string, MaxTripStops+1)
		for i := range stops {
			stops[i] = "a"
		}
		_, err := g.PlanTrip(stops)
		test.That(t, err, test.ShouldBeError, ErrTooManyStops)
	})

	t.Run("disconnected", func(t *testing.T) {
		island, err := NewBuilder().
			AddNode("home", r2.Point{}).
			AddNode("a", r2.Point{X: 1}).
			AddNode("far", r2.Point{X: 100}).
			AddEdge("home", "a", line(0, 0, 1, 0)).
			Build()
		test.That(t, err, test.ShouldBeNil)

		_, err = island.PlanTrip([]string{"a", "far"})
		var disconnected *DisconnectedGraphError
		test.That(t, errors.As(err, &disconnected), test.ShouldBeTrue)
		test.That(t, disconnected.To, test.ShouldEqual, "far")
	})
}

func TestAdjacentPath(t *testing.T) {
	g := square(t)

	c, err := g.AdjacentPath("a", "b")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.Start(c), test.ShouldResemble, r2.Point{X: 10})

	c, err = g.AdjacentPath("b", "c")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.Start(c), test.ShouldResemble, r2.Point{X: 10, Y: 10})
	test.That(t, spatialmath.End(c), test.ShouldResemble, r2.Point{Y: 10})

	_, err = g.AdjacentPath("home", "b")
	var noDirect *NoDirectConnectionError
	test.That(t, errors.As(err, &noDirect), test.ShouldBeTrue)
	test.That(t, noDirect.From, test.ShouldEqual, "home")
}

func TestAdjacentPathTakesShorterDirection(t *testing.T) {
	detour := spatialmath.NewPath(line(0, 0, 0, 50), line(0, 50, 10, 50), line(10, 50, 10, 0))
	g, err := NewBuilder().
		AddNode("home", r2.Point{}).
		AddNode("a", r2.Point{X: 10}).
		AddRoom("a", "A").
		AddEdge("home", "a", detour).
		AddEdge("a", "home", line(10, 0, 0, 0)).
		Build()
	test.That(t, err, test.ShouldBeNil)

	plan, err := g.PlanTrip([]string{"a"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Length, test.ShouldAlmostEqual, 20)

	var driven float64
	for i := 0; i+1 < len(plan.Nodes); i++ {
		c, err := g.AdjacentPath(plan.Nodes[i], plan.Nodes[i+1])
		test.That(t, err, test.ShouldBeNil)
		driven += c.Length()
	}
	test.That(t, driven, test.ShouldAlmostEqual, plan.Length)

	c, err := g.AdjacentPath("home", "a")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.Start(c), test.ShouldResemble, r2.Point{})
	test.That(t, spatialmath.End(c), test.ShouldResemble, r2.Point{X: 10})
}

func TestBuildValidation(t *testing.T) {
	_, err := NewBuilder().Build()
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewBuilder().AddNode("home", r2.Point{}).AddRoom("ghost", "Ghost").Build()
	test.That(t, errors.Is(err, ErrUnknownNode), test.ShouldBeTrue)

	_, err = NewBuilder().AddNode("home", r2.Point{}).AddNode("home", r2.Point{}).Build()
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate node")

	_, err = NewBuilder().AddNode("home", r2.Point{}).AddEdge("home", "x", line(0, 0, 1, 1)).Build()
	test.That(t, errors.Is(err, ErrUnknownNode), test.ShouldBeTrue)

	// the shorter of two stored directions is the travel cost
	g, err := NewBuilder().
		AddNode("home", r2.Point{}).
		AddNode("a", r2.Point{X: 10}).
		AddEdge("home", "a", spatialmath.NewQuadraticBezier(r2.Point{}, r2.Point{X: 5, Y: 20}, r2.Point{X: 10})).
		AddEdge("a", "home", line(10, 0, 0, 0)).
		Build()
	test.That(t, err, test.ShouldBeNil)
	plan, err := g.PlanTrip([]string{"a"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Length, test.ShouldAlmostEqual, 20)
}
