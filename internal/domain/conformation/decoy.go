package conformation

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/foldcore/internal/domain/contact"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/pkg/errors"
)

// maxParallelMapLoads bounds concurrent Open calls against a MapSource.
const maxParallelMapLoads = 8

// ContactMap is one decoy structure read from a contact-map file.
type ContactMap struct {
	// Name is the index entry the map was loaded from.
	Name string
	// Residues is the residue count from the header, or 0 when the file has
	// no header line.
	Residues int
	// Contacts holds every well-formed contact of the file.
	Contacts contact.Set
	// Skipped counts lines that were dropped as malformed.
	Skipped int

	expected map[int]byte
}

// ParseContactMap reads a contact map:
//
//	<residue count>
//	<index1> <letter1> <index2> <letter2>
//	...
//
// The header line is optional. Indices are 0-based. Blank lines and lines
// starting with '#' are ignored; malformed contact lines, contacts outside
// the header's residue range, self contacts and lines whose letters disagree
// with earlier lines for the same position are skipped.
func ParseContactMap(r io.Reader) (*ContactMap, error) {
	m := &ContactMap{expected: make(map[int]byte)}
	var pairs []contact.Contact

	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if first {
			first = false
			if len(fields) == 1 {
				n, err := strconv.Atoi(fields[0])
				if err != nil || n <= 0 {
					return nil, errors.Newf(errors.ErrCodeDecoyMalformed, "invalid residue count %q", fields[0])
				}
				m.Residues = n
				continue
			}
		}
		c, letters, ok := parseContactLine(fields)
		if !ok || (m.Residues > 0 && c.J >= m.Residues) || !m.expect(c, letters) {
			m.Skipped++
			continue
		}
		pairs = append(pairs, c)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDecoyUnreadable, "read contact map")
	}
	if first {
		return nil, errors.New(errors.ErrCodeDecoyMalformed, "contact map is empty")
	}
	m.Contacts = contact.NewSet(pairs...)
	return m, nil
}

func parseContactLine(fields []string) (contact.Contact, [2]byte, bool) {
	var letters [2]byte
	if len(fields) != 4 {
		return contact.Contact{}, letters, false
	}
	i1, err1 := strconv.Atoi(fields[0])
	i2, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || i1 < 0 || i2 < 0 || i1 == i2 {
		return contact.Contact{}, letters, false
	}
	for k, f := range []string{fields[1], fields[3]} {
		if len(f) != 1 {
			return contact.Contact{}, letters, false
		}
		r, err := residue.FromLetter(f[0])
		if err != nil || !r.Valid() {
			return contact.Contact{}, letters, false
		}
		letters[k] = r.Letter()
	}
	if i1 > i2 {
		i1, i2 = i2, i1
		letters[0], letters[1] = letters[1], letters[0]
	}
	return contact.New(i1, i2), letters, true
}

// expect records the letters of c, refusing lines that contradict earlier ones.
func (m *ContactMap) expect(c contact.Contact, letters [2]byte) bool {
	for k, pos := range [2]int{c.I, c.J} {
		if prev, ok := m.expected[pos]; ok && prev != letters[k] {
			return false
		}
	}
	m.expected[c.I] = letters[0]
	m.expected[c.J] = letters[1]
	return true
}

// ExpectedLetter returns the residue letter the file records at pos.
func (m *ContactMap) ExpectedLetter(pos int) (byte, bool) {
	l, ok := m.expected[pos]
	return l, ok
}

// Verify checks seq against the residue letters recorded in the file and
// returns ErrCodeDecoyLetterMismatch at the first disagreeing position.
func (m *ContactMap) Verify(seq residue.Sequence) error {
	positions := make([]int, 0, len(m.expected))
	for pos := range m.expected {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	for _, pos := range positions {
		if pos >= seq.Len() {
			return errors.Newf(errors.ErrCodeDecoyLetterMismatch, "map %s references residue %d of a %d-residue sequence",
				m.Name, pos, seq.Len())
		}
		if got, want := seq.At(pos).Letter(), m.expected[pos]; got != want {
			return errors.Newf(errors.ErrCodeDecoyLetterMismatch, "map %s expects %c at residue %d, sequence has %c",
				m.Name, want, pos, got)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Map sources
// ─────────────────────────────────────────────────────────────────────────────

// MapSource opens contact-map and index files by name.
type MapSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FSSource serves maps from an fs.FS.
type FSSource struct {
	FS fs.FS
}

// NewDirSource serves maps from a directory on the local filesystem.
func NewDirSource(dir string) FSSource {
	return FSSource{FS: os.DirFS(dir)}
}

// Open implements MapSource.
func (s FSSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return s.FS.Open(path.Clean(strings.TrimPrefix(name, "/")))
}

// ReadIndex reads one map name per line, skipping blank and '#' lines.
func ReadIndex(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDecoyUnreadable, "read map index")
	}
	return names, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// DecoyLibrary
// ─────────────────────────────────────────────────────────────────────────────

// DecoyLibrary is a sampled library of contact maps. LogUnsampled carries the
// caller's estimate of the log number of conformations it stands in for.
type DecoyLibrary struct {
	set
	maps []*ContactMap
}

var _ Library = (*DecoyLibrary)(nil)

// NewDecoyLibrary builds a library from already parsed maps. Every map must
// fit a protein of the given length.
func NewDecoyLibrary(length int, logNconf float64, maps []*ContactMap) (*DecoyLibrary, error) {
	if length <= 0 {
		return nil, errors.Newf(errors.ErrCodeDecoyLengthMismatch, "protein length %d must be positive", length)
	}
	structures := make([]contact.Set, len(maps))
	for i, m := range maps {
		if m.Residues > 0 && m.Residues != length {
			return nil, errors.Newf(errors.ErrCodeDecoyLengthMismatch, "map %s has %d residues, protein length is %d",
				m.Name, m.Residues, length)
		}
		structures[i] = m.Contacts
	}
	s, err := newSet(KindDecoy, length, structures, logNconf)
	if err != nil {
		return nil, err
	}
	return &DecoyLibrary{set: s, maps: maps}, nil
}

// LoadDecoyLibrary reads the index file, then every map it names, from src.
// Unreadable or malformed files fail the whole load.
func LoadDecoyLibrary(ctx context.Context, src MapSource, index string, length int, logNconf float64) (*DecoyLibrary, error) {
	rc, err := src.Open(ctx, index)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDecoyUnreadable, "open map index").WithDetail(index)
	}
	names, err := ReadIndex(rc)
	rc.Close()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New(errors.ErrCodeLibraryEmpty, "map index lists no contact maps").WithDetail(index)
	}

	maps := make([]*ContactMap, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelMapLoads)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			m, err := loadMap(gctx, src, name)
			if err != nil {
				return err
			}
			maps[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewDecoyLibrary(length, logNconf, maps)
}

func loadMap(ctx context.Context, src MapSource, name string) (*ContactMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEnumerationAborted, "contact map load aborted")
	}
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDecoyUnreadable, "open contact map").WithDetail(name)
	}
	defer rc.Close()
	m, err := ParseContactMap(rc)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "parse contact map").WithDetail(name)
	}
	m.Name = name
	return m, nil
}

// Map returns the contact map behind id.
func (l *DecoyLibrary) Map(id StructureID) *ContactMap {
	return l.maps[id]
}

// Verify checks seq against the residue letters of every map.
func (l *DecoyLibrary) Verify(seq residue.Sequence) error {
	for _, m := range l.maps {
		if err := m.Verify(seq); err != nil {
			return err
		}
	}
	return nil
}
