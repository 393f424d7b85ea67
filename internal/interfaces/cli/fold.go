package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/foldcore/internal/application/folding"
	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

// FoldOutput is the result of the fold command.
type FoldOutput struct {
	Results []fold.FoldResponse `json:"results"`
	Folded  int64               `json:"num_folded"`
}

func (o FoldOutput) String() string {
	var sb strings.Builder
	sb.WriteString("# <sequence> <free energy> <structure id>\n")
	for _, r := range o.Results {
		if r.Error != nil {
			fmt.Fprintf(&sb, "%s\terror: %s\n", r.Sequence, r.Error.Message)
			continue
		}
		fmt.Fprintf(&sb, "%s\t%s\t%d\n", r.Sequence, formatEnergy(r), r.Structure)
	}
	fmt.Fprintf(&sb, "# Folded %d proteins\n", o.Folded)
	return sb.String()
}

func (o FoldOutput) TableHeaders() []string {
	return []string{"SEQUENCE", "FOLDED", "STRUCTURE", "FREE ENERGY", "ERROR"}
}

func (o FoldOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Results))
	for _, r := range o.Results {
		msg := ""
		if r.Error != nil {
			msg = r.Error.Code
		}
		rows = append(rows, []string{
			r.Sequence,
			strconv.FormatBool(r.Folded),
			strconv.Itoa(r.Structure),
			formatEnergy(r),
			msg,
		})
	}
	return rows
}

func formatEnergy(r fold.FoldResponse) string {
	if r.FreeEnergy == nil {
		return "-"
	}
	return strconv.FormatFloat(*r.FreeEnergy, 'g', 8, 64)
}

func newFoldCmd() *cobra.Command {
	var (
		file string
		side int
	)

	cmd := &cobra.Command{
		Use:   "fold [SEQUENCE...]",
		Short: "Fold sequences and report structure and free energy",
		Long: "Fold one-letter amino-acid sequences given as arguments or read from --file\n" +
			"(one per line, '-' for stdin, blank lines and '#' comments skipped).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			seqs := append([]string(nil), args...)
			if file != "" {
				fromFile, err := readSequences(cmd, file)
				if err != nil {
					return err
				}
				seqs = append(seqs, fromFile...)
			}
			if len(seqs) == 0 {
				return errors.InvalidParam("no sequences given; pass them as arguments or with --file")
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			svc, err := buildService(ctx, cliCtx, side)
			if err != nil {
				return err
			}

			out, err := foldAll(ctx, svc, seqs, cliCtx.Config.Folding.MaxBatch)
			if err != nil {
				return err
			}
			return PrintResult(cmd, out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one sequence per line ('-' for stdin)")
	cmd.Flags().IntVar(&side, "side", 0, "fold against a lattice of this side instead of the configured library")
	return cmd
}

// foldAll folds seqs in batches of at most maxBatch.
func foldAll(ctx context.Context, svc folding.Service, seqs []string, maxBatch int) (FoldOutput, error) {
	if maxBatch <= 0 {
		maxBatch = len(seqs)
	}
	out := FoldOutput{Results: make([]fold.FoldResponse, 0, len(seqs))}
	for start := 0; start < len(seqs); start += maxBatch {
		end := start + maxBatch
		if end > len(seqs) {
			end = len(seqs)
		}
		resp, err := svc.FoldBatch(ctx, fold.BatchFoldRequest{Sequences: seqs[start:end]})
		if err != nil {
			return FoldOutput{}, err
		}
		out.Results = append(out.Results, resp.Results...)
	}
	out.Folded = svc.NumFolded()
	return out, nil
}

func readSequences(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidParam, "cannot open sequence file").WithDetail(path)
		}
		defer f.Close()
		r = f
	}

	var seqs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seqs = append(seqs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "cannot read sequence file").WithDetail(path)
	}
	return seqs, nil
}

//Personal.AI order the ending
