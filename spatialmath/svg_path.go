package spatialmath

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// ErrUnsupportedPathCommand is returned for SVG path commands outside M, L, H, V, C, S, Q, T, Z.
var ErrUnsupportedPathCommand = errors.New("unsupported svg path command")

// argCounts is the number of numbers each command consumes per repetition.
var argCounts = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'Z': 0,
}

type svgToken struct {
	command byte
	number  float64
	isCmd   bool
}

// ParseSVGPath parses SVG path data into a Path. Moves inside the data start a new subpath
// without adding a segment.
func ParseSVGPath(d string) (*Path, error) {
	tokens, err := tokenizeSVGPath(d)
	if err != nil {
		return nil, err
	}

	var (
		segments    []Curve
		cur, start  r2.Point
		lastControl r2.Point
		lastCmd     byte
		cmd         byte
	)
	i := 0
	for i < len(tokens) {
		if tokens[i].isCmd {
			cmd = tokens[i].command
			i++
		} else if cmd == 0 {
			return nil, errors.Errorf("svg path must start with a command, got %v", tokens[i].number)
		}

		upper := byte(unicode.ToUpper(rune(cmd)))
		relative := cmd != upper
		count, ok := argCounts[upper]
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedPathCommand, "%q", string(cmd))
		}
		if i+count > len(tokens) {
			return nil, errors.Errorf("svg command %q needs %d numbers", string(cmd), count)
		}
		args := make([]float64, count)
		for j := range args {
			if tokens[i+j].isCmd {
				return nil, errors.Errorf("svg command %q needs %d numbers", string(cmd), count)
			}
			args[j] = tokens[i+j].number
		}
		i += count

		point := func(k int) r2.Point {
			p := r2.Point{X: args[k], Y: args[k+1]}
			if relative {
				return cur.Add(p)
			}
			return p
		}

		switch upper {
		case 'M':
			cur = point(0)
			start = cur
			// Further pairs after a move are implicit line-tos.
			if relative {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L':
			next := point(0)
			segments = append(segments, NewLine(cur, next))
			cur = next
		case 'H':
			next := r2.Point{X: args[0], Y: cur.Y}
			if relative {
				next.X += cur.X
			}
			segments = append(segments, NewLine(cur, next))
			cur = next
		case 'V':
			next := r2.Point{X: cur.X, Y: args[0]}
			if relative {
				next.Y += cur.Y
			}
			segments = append(segments, NewLine(cur, next))
			cur = next
		case 'C':
			c1, c2, end := point(0), point(2), point(4)
			segments = append(segments, NewCubicBezier(cur, c1, c2, end))
			lastControl, cur = c2, end
		case 'S':
			c1 := cur
			if lastCmd == 'C' || lastCmd == 'S' {
				c1 = cur.Add(cur.Sub(lastControl))
			}
			c2, end := point(0), point(2)
			segments = append(segments, NewCubicBezier(cur, c1, c2, end))
			lastControl, cur = c2, end
		case 'Q':
			c, end := point(0), point(2)
			segments = append(segments, NewQuadraticBezier(cur, c, end))
			lastControl, cur = c, end
		case 'T':
			c := cur
			if lastCmd == 'Q' || lastCmd == 'T' {
				c = cur.Add(cur.Sub(lastControl))
			}
			end := point(0)
			segments = append(segments, NewQuadraticBezier(cur, c, end))
			lastControl, cur = c, end
		case 'Z':
			segments = append(segments, NewLine(cur, start))
			cur = start
		}
		lastCmd = upper
	}
	return NewPath(segments...), nil
}

func tokenizeSVGPath(d string) ([]svgToken, error) {
	var tokens []svgToken
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case unicode.IsLetter(rune(c)) && c != 'e' && c != 'E':
			tokens = append(tokens, svgToken{command: c, isCmd: true})
			i++
		default:
			end := scanNumber(d, i)
			if end == i {
				return nil, errors.Errorf("unexpected %q at offset %d in svg path", string(c), i)
			}
			f, err := strconv.ParseFloat(d[i:end], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad number in svg path at offset %d", i)
			}
			tokens = append(tokens, svgToken{number: f})
			i = end
		}
	}
	return tokens, nil
}

// scanNumber returns the end of the number starting at i. "1.5.5" scans as "1.5" and "-1-2"
// as "-1", as SVG allows.
func scanNumber(d string, i int) int {
	j := i
	if j < len(d) && strings.ContainsRune("+-", rune(d[j])) {
		j++
	}
	sawDot, sawDigit := false, false
	for j < len(d) {
		c := d[j]
		if c >= '0' && c <= '9' {
			sawDigit = true
		} else if c == '.' && !sawDot {
			sawDot = true
		} else {
			break
		}
		j++
	}
	if !sawDigit {
		return i
	}
	if j < len(d) && (d[j] == 'e' || d[j] == 'E') {
		k := j + 1
		if k < len(d) && (d[k] == '+' || d[k] == '-') {
			k++
		}
		digits := k
		for k < len(d) && d[k] >= '0' && d[k] <= '9' {
			k++
		}
		if k > digits {
			j = k
		}
	}
	return j
}
