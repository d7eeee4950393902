package floorplan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/talaria-robotics/navigator/spatialmath"
)

const (
	sectionMeta  = "[Meta]"
	sectionRooms = "[Rooms]"
	sectionNodes = "[Nodes]"
	sectionPaths = "[Paths]"
)

// ReadFile loads a .floormap file.
func ReadFile(path string) (*Graph, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	g, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading floor plan %q", path)
	}
	return g, nil
}

// Read parses the .floormap format:
//
//	[Meta]
//	Floor name
//	floor-id
//	[Rooms]
//	room1: Room 1
//	[Nodes]
//	home: 0,0
//	room1: 10,0
//	[Paths]
//	home > room1: C 3 2 7 2
//
// Each path fragment is prefixed with a move to its first node and suffixed with a line to its
// second, so an empty fragment is a straight edge.
func Read(r io.Reader) (*Graph, error) {
	b := NewBuilder()
	var (
		section   string
		metaLines int
		name, id  string
	)
	type pendingPath struct {
		line     int
		from, to string
		fragment string
	}
	var paths []pendingPath

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section = line
			continue
		}

		lineErr := func(format string, args ...interface{}) error {
			return errors.Errorf("line %d: %s", lineNum, fmt.Sprintf(format, args...))
		}

		switch section {
		case sectionMeta:
			switch metaLines {
			case 0:
				name = line
			case 1:
				id = line
			default:
				return nil, lineErr("unexpected meta line %q", line)
			}
			metaLines++
		case sectionRooms:
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, lineErr("room must be \"id: name\", got %q", line)
			}
			b.AddRoom(strings.TrimSpace(key), strings.TrimSpace(value))
		case sectionNodes:
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, lineErr("node must be \"id: x,y\", got %q", line)
			}
			p, err := parsePoint(value)
			if err != nil {
				return nil, lineErr("%v", err)
			}
			b.AddNode(strings.TrimSpace(key), p)
		case sectionPaths:
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, lineErr("path must be \"from > to: svg\", got %q", line)
			}
			from, to, ok := strings.Cut(key, ">")
			if !ok {
				return nil, lineErr("path must be \"from > to: svg\", got %q", line)
			}
			paths = append(paths, pendingPath{
				line:     lineNum,
				from:     strings.TrimSpace(from),
				to:       strings.TrimSpace(to),
				fragment: strings.TrimSpace(value),
			})
		default:
			return nil, lineErr("content outside a known section: %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	b.SetMeta(name, id)

	// Paths may name nodes declared further down the file.
	for _, p := range paths {
		start, ok := b.nodes[p.from]
		if !ok {
			return nil, errors.Wrapf(newUnknownNodeError(p.from), "line %d", p.line)
		}
		end, ok := b.nodes[p.to]
		if !ok {
			return nil, errors.Wrapf(newUnknownNodeError(p.to), "line %d", p.line)
		}
		svg := fmt.Sprintf("M %s %s %s L %s %s",
			formatFloat(start.X), formatFloat(start.Y), p.fragment, formatFloat(end.X), formatFloat(end.Y))
		curve, err := spatialmath.ParseSVGPath(svg)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", p.line)
		}
		b.AddEdge(p.from, p.to, curve)
	}
	return b.Build()
}

func parsePoint(s string) (r2.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return r2.Point{}, errors.Errorf("coordinates must be \"x,y\", got %q", strings.TrimSpace(s))
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return r2.Point{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return r2.Point{}, err
	}
	return r2.Point{X: x, Y: y}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
