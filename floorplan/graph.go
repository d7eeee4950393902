// Package floorplan models the floor plan a route runs over: named nodes, the rooms that can
// be delivered to, and the curves connecting them. It plans the delivery tour.
package floorplan

import (
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/talaria-robotics/navigator/spatialmath"
)

// NodePair is a directed pair of node ids.
type NodePair struct {
	From, To string
}

// Room is a deliverable stop.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Graph is an immutable floor plan. Only its planning caches change after Build.
type Graph struct {
	name string
	id   string

	nodeIDs []string
	nodes   map[string]r2.Point
	rooms   []Room
	edges   map[NodePair]spatialmath.Curve

	weighted *simple.WeightedUndirectedGraph
	index    map[string]int64
	ids      []string

	mu        sync.Mutex
	pathCache map[string]map[NodePair]ShortestPath
	tripCache map[string]TripPlan
	dijkstra  func(u graph.Node, g traverse.Graph) path.Shortest
}

// Builder collects a floor plan before it is frozen into a Graph.
type Builder struct {
	name, id string
	nodeIDs  []string
	nodes    map[string]r2.Point
	rooms    []Room
	edges    map[NodePair]spatialmath.Curve
	edgeList []NodePair
	errs     []error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: map[string]r2.Point{},
		edges: map[NodePair]spatialmath.Curve{},
	}
}

// SetMeta sets the floor plan's display name and id.
func (b *Builder) SetMeta(name, id string) *Builder {
	b.name, b.id = name, id
	return b
}

// AddNode adds a node. The first node added is home.
func (b *Builder) AddNode(id string, p r2.Point) *Builder {
	if _, ok := b.nodes[id]; ok {
		b.errs = append(b.errs, errors.Errorf("duplicate node %q", id))
		return b
	}
	b.nodeIDs = append(b.nodeIDs, id)
	b.nodes[id] = p
	return b
}

// AddRoom marks a node as a deliverable room.
func (b *Builder) AddRoom(id, name string) *Builder {
	b.rooms = append(b.rooms, Room{ID: id, Name: name})
	return b
}

// AddEdge stores the curve travelled from one node to another.
func (b *Builder) AddEdge(from, to string, curve spatialmath.Curve) *Builder {
	key := NodePair{From: from, To: to}
	if _, ok := b.edges[key]; ok {
		b.errs = append(b.errs, errors.Errorf("duplicate edge %q > %q", from, to))
		return b
	}
	b.edges[key] = curve
	b.edgeList = append(b.edgeList, key)
	return b
}

// Build validates the plan and freezes it.
func (b *Builder) Build() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(b.nodeIDs) == 0 {
		return nil, errors.New("floor plan has no nodes")
	}
	seenRooms := map[string]bool{}
	for _, room := range b.rooms {
		if _, ok := b.nodes[room.ID]; !ok {
			return nil, errors.Wrap(newUnknownNodeError(room.ID), "room")
		}
		if seenRooms[room.ID] {
			return nil, errors.Errorf("duplicate room %q", room.ID)
		}
		seenRooms[room.ID] = true
	}

	g := &Graph{
		name:      b.name,
		id:        b.id,
		nodeIDs:   append([]string(nil), b.nodeIDs...),
		nodes:     make(map[string]r2.Point, len(b.nodes)),
		rooms:     append([]Room(nil), b.rooms...),
		edges:     make(map[NodePair]spatialmath.Curve, len(b.edges)),
		weighted:  simple.NewWeightedUndirectedGraph(0, 0),
		index:     make(map[string]int64, len(b.nodes)),
		pathCache: map[string]map[NodePair]ShortestPath{},
		tripCache: map[string]TripPlan{},
		dijkstra:  path.DijkstraFrom,
	}
	for i, id := range b.nodeIDs {
		g.nodes[id] = b.nodes[id]
		g.index[id] = int64(i)
		g.ids = append(g.ids, id)
		g.weighted.AddNode(simple.Node(int64(i)))
	}
	for _, key := range b.edgeList {
		from, ok := g.index[key.From]
		if !ok {
			return nil, errors.Wrapf(newUnknownNodeError(key.From), "edge %q > %q", key.From, key.To)
		}
		to, ok := g.index[key.To]
		if !ok {
			return nil, errors.Wrapf(newUnknownNodeError(key.To), "edge %q > %q", key.From, key.To)
		}
		if from == to {
			return nil, errors.Errorf("edge %q > %q is a loop", key.From, key.To)
		}
		curve := b.edges[key]
		g.edges[key] = curve
		// Both stored directions share one undirected edge; the shorter curve is the cost.
		if w, ok := g.weighted.Weight(from, to); ok && w <= curve.Length() {
			continue
		}
		g.weighted.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(from), T: simple.Node(to), W: curve.Length()})
	}
	return g, nil
}

// Name is the floor plan's display name.
func (g *Graph) Name() string {
	return g.name
}

// ID is the floor plan's id.
func (g *Graph) ID() string {
	return g.id
}

// Home is the first node of the plan, where every trip starts and ends.
func (g *Graph) Home() string {
	return g.nodeIDs[0]
}

// NodeIDs returns node ids in the order they were added.
func (g *Graph) NodeIDs() []string {
	return append([]string(nil), g.nodeIDs...)
}

// Node returns a node's position.
func (g *Graph) Node(id string) (r2.Point, bool) {
	p, ok := g.nodes[id]
	return p, ok
}

// Rooms returns the deliverable rooms in the order they were added.
func (g *Graph) Rooms() []Room {
	return append([]Room(nil), g.rooms...)
}

// Room looks up a room by id.
func (g *Graph) Room(id string) (Room, bool) {
	for _, r := range g.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return Room{}, false
}

// AdjacentPath returns the shorter of the curve stored from one node to the other and the
// reverse of the curve stored the other way. This is the curve the edge weight was taken from.
func (g *Graph) AdjacentPath(from, to string) (spatialmath.Curve, error) {
	there, haveThere := g.edges[NodePair{From: from, To: to}]
	back, haveBack := g.edges[NodePair{From: to, To: from}]
	switch {
	case haveThere && haveBack:
		if back.Length() < there.Length() {
			return back.Reversed(), nil
		}
		return there, nil
	case haveThere:
		return there, nil
	case haveBack:
		return back.Reversed(), nil
	default:
		return nil, &NoDirectConnectionError{From: from, To: to}
	}
}
