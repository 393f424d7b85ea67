package conformation

import (
	"context"
	"fmt"
	"strings"

	"github.com/turtacn/foldcore/internal/domain/contact"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/pkg/errors"
)

// MaxLatticeSide is the largest lattice that Enumerate accepts. The number of
// compact walks grows exponentially with the side; 7×7 is out of reach.
const MaxLatticeSide = 6

// cancelCheckInterval is the number of search nodes between context polls.
const cancelCheckInterval = 1 << 12

// Point is a lattice cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Conformation is one distinct compact structure together with the first
// walk that produced it.
type Conformation struct {
	Contacts contact.Set
	Path     []Point
}

// steps is the extension order of the walk: +x, +y, -x, -y.
var steps = [4]Point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

type walker struct {
	ctx     context.Context
	side    int
	n       int
	path    []Point
	visited []bool
	nodes   int
	seen    map[string]struct{}
	out     []Conformation
	builder *contact.Builder
	err     error
}

// Enumerate lists every distinct compact self-avoiding walk on a side×side
// square lattice. Walks with the same contact set are reported once, in the
// order their first walk is generated: start cells in row-major order, steps
// in +x, +y, -x, -y order.
func Enumerate(ctx context.Context, side int) ([]Conformation, error) {
	if side < 1 || side > MaxLatticeSide {
		return nil, errors.Newf(errors.ErrCodeLatticeTooLarge, "lattice side %d outside [1, %d]", side, MaxLatticeSide)
	}
	n := side * side
	w := &walker{
		ctx:     ctx,
		side:    side,
		n:       n,
		path:    make([]Point, 0, n),
		visited: make([]bool, n),
		seen:    make(map[string]struct{}),
		builder: contact.NewBuilder(n),
	}
	for y := 0; y < side && w.err == nil; y++ {
		for x := 0; x < side && w.err == nil; x++ {
			w.extend(Point{X: x, Y: y})
		}
	}
	if w.err != nil {
		return nil, errors.Wrap(w.err, errors.ErrCodeEnumerationAborted, "lattice enumeration aborted").
			WithDetailf("side %d, %d structures found", side, len(w.out))
	}
	return w.out, nil
}

func (w *walker) extend(p Point) {
	w.nodes++
	if w.nodes%cancelCheckInterval == 0 {
		if err := w.ctx.Err(); err != nil {
			w.err = err
			return
		}
	}

	cell := p.Y*w.side + p.X
	w.visited[cell] = true
	w.path = append(w.path, p)

	if len(w.path) == w.n {
		w.record()
	} else {
		for _, d := range steps {
			q := Point{X: p.X + d.X, Y: p.Y + d.Y}
			if q.X < 0 || q.Y < 0 || q.X >= w.side || q.Y >= w.side || w.visited[q.Y*w.side+q.X] {
				continue
			}
			w.extend(q)
			if w.err != nil {
				break
			}
		}
	}

	w.path = w.path[:len(w.path)-1]
	w.visited[cell] = false
}

// record stores the current complete walk if its contact set is new.
// Contacts are lattice neighbours that are not chain neighbours.
func (w *walker) record() {
	w.builder.Reset()
	for i := 0; i < w.n; i++ {
		for j := i + 2; j < w.n; j++ {
			if adjacent(w.path[i], w.path[j]) {
				w.builder.Add(i, j)
			}
		}
	}
	key := w.builder.Key()
	if _, dup := w.seen[key]; dup {
		return
	}
	w.seen[key] = struct{}{}
	path := make([]Point, len(w.path))
	copy(path, w.path)
	w.out = append(w.out, Conformation{Contacts: w.builder.Set(), Path: path})
}

func adjacent(a, b Point) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}

// LatticeLibrary is the exhaustive library of compact structures on a
// side×side lattice.
type LatticeLibrary struct {
	set
	side  int
	paths [][]Point
}

var _ Library = (*LatticeLibrary)(nil)

// NewLatticeLibrary enumerates the side×side lattice. Cancelling ctx aborts
// the enumeration.
func NewLatticeLibrary(ctx context.Context, side int) (*LatticeLibrary, error) {
	confs, err := Enumerate(ctx, side)
	if err != nil {
		return nil, err
	}
	structures := make([]contact.Set, len(confs))
	paths := make([][]Point, len(confs))
	for i, c := range confs {
		structures[i] = c.Contacts
		paths[i] = c.Path
	}
	s, err := newSet(KindLattice, side*side, structures, 0)
	if err != nil {
		return nil, err
	}
	return &LatticeLibrary{set: s, side: side, paths: paths}, nil
}

// Side returns the lattice side length.
func (l *LatticeLibrary) Side() int { return l.side }

// Path returns a copy of the representative walk of id.
func (l *LatticeLibrary) Path(id StructureID) []Point {
	out := make([]Point, len(l.paths[id]))
	copy(out, l.paths[id])
	return out
}

// Render draws the representative walk of id on the lattice. Cells show the
// residue letter from seq, or the chain position when seq is empty; '-' and
// '|' join chain neighbours.
func (l *LatticeLibrary) Render(id StructureID, seq residue.Sequence) (string, error) {
	if _, err := Lookup(l, id); err != nil {
		return "", err
	}
	if seq.Len() != 0 && seq.Len() != l.length {
		return "", errors.Newf(errors.ErrCodeSequenceLength, "sequence has %d residues, lattice holds %d", seq.Len(), l.length)
	}

	grid := make([][]int, l.side)
	for y := range grid {
		grid[y] = make([]int, l.side)
	}
	for i, p := range l.paths[id] {
		grid[p.Y][p.X] = i
	}
	linked := func(a, b int) bool { return a-b == 1 || b-a == 1 }
	cell := func(pos int) string {
		if seq.Len() == 0 {
			return fmt.Sprintf("%2d", pos)
		}
		return " " + seq.At(pos).String()
	}

	var sb strings.Builder
	for y := 0; y < l.side; y++ {
		var row strings.Builder
		for x := 0; x < l.side; x++ {
			row.WriteString(cell(grid[y][x]))
			if x < l.side-1 {
				if linked(grid[y][x], grid[y][x+1]) {
					row.WriteByte('-')
				} else {
					row.WriteByte(' ')
				}
			}
		}
		sb.WriteString(strings.TrimRight(row.String(), " "))
		sb.WriteByte('\n')

		if y == l.side-1 {
			break
		}
		var bonds strings.Builder
		for x := 0; x < l.side; x++ {
			if linked(grid[y][x], grid[y+1][x]) {
				bonds.WriteString(" |")
			} else {
				bonds.WriteString("  ")
			}
			if x < l.side-1 {
				bonds.WriteByte(' ')
			}
		}
		sb.WriteString(strings.TrimRight(bonds.String(), " "))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
