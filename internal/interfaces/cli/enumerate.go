package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

// LibraryOutput describes a conformation library and, optionally, one of
// its structures.
type LibraryOutput struct {
	Library   fold.LibraryInfo    `json:"library"`
	Structure *fold.StructureView `json:"structure,omitempty"`
}

func (o LibraryOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s library: %d structures, protein length %d", o.Library.Kind, o.Library.Size, o.Library.ProteinLength)
	if o.Library.LatticeSide > 0 {
		fmt.Fprintf(&sb, ", side %d", o.Library.LatticeSide)
	}
	sb.WriteString("\n")
	if s := o.Structure; s != nil {
		fmt.Fprintf(&sb, "Structure %d: %d contacts\n", s.ID, len(s.Contacts))
		sb.WriteString(s.Drawing)
	}
	return sb.String()
}

func (o LibraryOutput) TableHeaders() []string {
	if o.Structure != nil {
		return []string{"I", "J"}
	}
	return []string{"KIND", "SIZE", "PROTEIN LENGTH", "SIDE"}
}

func (o LibraryOutput) TableRows() [][]string {
	if o.Structure != nil {
		rows := make([][]string, 0, len(o.Structure.Contacts))
		for _, c := range o.Structure.Contacts {
			rows = append(rows, []string{strconv.Itoa(c.I), strconv.Itoa(c.J)})
		}
		return rows
	}
	return [][]string{{
		o.Library.Kind,
		strconv.Itoa(o.Library.Size),
		strconv.Itoa(o.Library.ProteinLength),
		strconv.Itoa(o.Library.LatticeSide),
	}}
}

func newEnumerateCmd() *cobra.Command {
	var (
		side     int
		render   int
		sequence string
	)

	cmd := &cobra.Command{
		Use:   "enumerate",
		Short: "Enumerate the compact self-avoiding walks of a square lattice",
		Long: "Enumerate every compact self-avoiding walk on a side x side lattice, up to\n" +
			"symmetry, and optionally draw one structure with --render.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if side <= 0 {
				return errors.InvalidParam("--side must be positive")
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			svc, err := buildService(ctx, cliCtx, side)
			if err != nil {
				return err
			}

			out := LibraryOutput{Library: svc.Library()}
			if cmd.Flags().Changed("render") {
				if out.Structure, err = svc.Structure(ctx, render, sequence); err != nil {
					return err
				}
			}
			return PrintResult(cmd, out)
		},
	}

	cmd.Flags().IntVar(&side, "side", 0, "lattice side [REQUIRED]")
	cmd.Flags().IntVar(&render, "render", 0, "structure id to draw")
	cmd.Flags().StringVar(&sequence, "sequence", "", "sequence to place on the drawn structure")
	_ = cmd.MarkFlagRequired("side")
	return cmd
}

//Personal.AI order the ending
