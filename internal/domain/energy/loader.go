package energy

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/pkg/errors"
)

// LoadModel reads a contact energy table as whitespace separated numbers.
// Either a full 20×20 block (400 values) or the upper triangle (210 values)
// is accepted. Lines starting with '#' are ignored, as is a leading header
// line of residue letters.
func LoadModel(r io.Reader) (*Model, error) {
	var values []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		for _, tok := range strings.Fields(text) {
			if len(tok) == 1 && strings.ContainsAny(tok, residue.Letters) {
				continue
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInvalidMatrix, "parse energy table").
					WithDetailf("line %d: %q", line, tok)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidMatrix, "read energy table")
	}

	switch len(values) {
	case residue.Count * residue.Count:
		var m Matrix
		for i := range m {
			copy(m[i][:], values[i*residue.Count:(i+1)*residue.Count])
		}
		return NewModel(m)
	case residue.Count * (residue.Count + 1) / 2:
		return FromUpperTriangle(values)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidMatrix, "energy table has %d values, want 400 or 210", len(values))
	}
}

// LoadModelFile opens path and calls LoadModel. An empty path returns the
// default Miyazawa–Jernigan model.
func LoadModelFile(path string) (*Model, error) {
	if path == "" {
		return MiyazawaJernigan(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidMatrix, "open energy table").WithDetail(path)
	}
	defer f.Close()
	return LoadModel(f)
}
