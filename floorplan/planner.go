package floorplan

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/stat/combin"
)

// MaxTripStops bounds the factorial tour search.
const MaxTripStops = 9

// ShortestPath is the length and node sequence of a shortest route between two nodes.
type ShortestPath struct {
	Length float64
	Nodes  []string
}

// TripPlan is a planned tour. Hash identifies the requested stop sequence.
type TripPlan struct {
	Hash   string
	Nodes  []string
	Length float64
}

// TripHash joins node ids with commas.
func TripHash(nodeIDs []string) string {
	return strings.Join(nodeIDs, ",")
}

// ShortestPaths computes the shortest path between every pair of the given nodes, in both
// directions. Results are cached per distinct id list.
func (g *Graph) ShortestPaths(nodeIDs []string) (map[NodePair]ShortestPath, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shortestPathsLocked(nodeIDs)
}

func (g *Graph) shortestPathsLocked(nodeIDs []string) (map[NodePair]ShortestPath, error) {
	hash := TripHash(nodeIDs)
	if cached, ok := g.pathCache[hash]; ok {
		return cached, nil
	}
	for _, id := range nodeIDs {
		if _, ok := g.index[id]; !ok {
			return nil, newUnknownNodeError(id)
		}
	}

	paths := map[NodePair]ShortestPath{}
	for i, from := range nodeIDs {
		// One search from each node covers all of its pairs with later nodes.
		shortest := g.dijkstra(simple.Node(g.index[from]), g.weighted)
		for _, to := range nodeIDs[i+1:] {
			if from == to {
				paths[NodePair{From: from, To: to}] = ShortestPath{Nodes: []string{from}}
				continue
			}
			nodes, weight := shortest.To(g.index[to])
			if math.IsInf(weight, 1) || len(nodes) == 0 {
				return nil, &DisconnectedGraphError{From: from, To: to}
			}
			forward := make([]string, len(nodes))
			backward := make([]string, len(nodes))
			for k, n := range nodes {
				forward[k] = g.ids[n.ID()]
				backward[len(nodes)-1-k] = g.ids[n.ID()]
			}
			paths[NodePair{From: from, To: to}] = ShortestPath{Length: weight, Nodes: forward}
			paths[NodePair{From: to, To: from}] = ShortestPath{Length: weight, Nodes: backward}
		}
	}
	g.pathCache[hash] = paths
	return paths, nil
}

// PlanTrip finds the shortest tour that leaves home, visits every stop and returns home. All
// orders of the stops are tried; on equal lengths the order enumerated first wins, starting
// with the order given.
func (g *Graph) PlanTrip(stopIDs []string) (TripPlan, error) {
	home := g.Home()
	tourNodes := append([]string{home}, stopIDs...)
	hash := TripHash(tourNodes)

	g.mu.Lock()
	defer g.mu.Unlock()
	if plan, ok := g.tripCache[hash]; ok {
		return plan.clone(), nil
	}
	if len(stopIDs) > MaxTripStops {
		return TripPlan{}, ErrTooManyStops
	}

	paths, err := g.shortestPathsLocked(tourNodes)
	if err != nil {
		return TripPlan{}, err
	}
	lookup := func(from, to string) ShortestPath {
		if from == to {
			return ShortestPath{Nodes: []string{from}}
		}
		return paths[NodePair{From: from, To: to}]
	}

	best := TripPlan{Hash: hash, Length: math.Inf(1)}
	gen := combin.NewPermutationGenerator(len(stopIDs), len(stopIDs))
	perm := make([]int, len(stopIDs))
	for gen.Next() {
		gen.Permutation(perm)
		candidate := make([]string, 0, len(stopIDs)+2)
		candidate = append(candidate, home)
		for _, idx := range perm {
			candidate = append(candidate, stopIDs[idx])
		}
		candidate = append(candidate, home)

		var length float64
		var full []string
		for i := 0; i < len(candidate)-1; i++ {
			sub := lookup(candidate[i], candidate[i+1])
			length += sub.Length
			full = append(full, sub.Nodes[:len(sub.Nodes)-1]...)
		}
		full = append(full, home)

		if length < best.Length {
			best.Length = length
			best.Nodes = full
		}
	}

	g.tripCache[hash] = best
	return best.clone(), nil
}

func (p TripPlan) clone() TripPlan {
	p.Nodes = append([]string(nil), p.Nodes...)
	return p
}
