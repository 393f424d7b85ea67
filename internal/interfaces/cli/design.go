package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/foldcore/internal/application/folding"
	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

// NeutralityOutput wraps fold.NeutralityResult for printing.
type NeutralityOutput struct {
	fold.NeutralityResult
}

func (o NeutralityOutput) String() string {
	return fmt.Sprintf("%s\tstructure %d\t%d/%d neutral\t%.6f\n",
		o.Sequence, o.Structure, o.Neutral, o.Mutants, o.Neutrality)
}

func (o NeutralityOutput) TableHeaders() []string {
	return []string{"SEQUENCE", "STRUCTURE", "CUTOFF", "NEUTRAL", "MUTANTS", "NEUTRALITY"}
}

func (o NeutralityOutput) TableRows() [][]string {
	return [][]string{{
		o.Sequence,
		strconv.Itoa(o.Structure),
		strconv.FormatFloat(o.Cutoff, 'g', -1, 64),
		strconv.Itoa(o.Neutral),
		strconv.Itoa(o.Mutants),
		strconv.FormatFloat(o.Neutrality, 'f', 6, 64),
	}}
}

func newNeutralityCmd() *cobra.Command {
	var (
		cutoff float64
		side   int
	)

	cmd := &cobra.Command{
		Use:   "neutrality SEQUENCE",
		Short: "Fraction of point mutants that keep structure and stability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("cutoff") {
				cutoff = cliCtx.Config.Folding.NeutralityCutoff
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			svc, err := buildService(ctx, cliCtx, side)
			if err != nil {
				return err
			}
			res, err := svc.Neutrality(ctx, args[0], cutoff)
			if err != nil {
				return err
			}
			return PrintResult(cmd, NeutralityOutput{*res})
		},
	}

	cmd.Flags().Float64Var(&cutoff, "cutoff", 0, "free energy cutoff (default: folding.neutrality_cutoff)")
	cmd.Flags().IntVar(&side, "side", 0, "use a lattice of this side instead of the configured library")
	return cmd
}

// DesignedSequence is one sequence found by the design command.
type DesignedSequence struct {
	fold.DesignResult
	Seed       int64   `json:"seed"`
	Neutrality float64 `json:"neutrality"`
}

// DesignOutput lists the designed sequences.
type DesignOutput struct {
	Cutoff  float64            `json:"cutoff"`
	Target  int                `json:"target"`
	Results []DesignedSequence `json:"results"`
}

func (o DesignOutput) String() string {
	var sb strings.Builder
	sb.WriteString("# <sequence> <free energy> <structure id> <neutrality>\n")
	for _, r := range o.Results {
		fmt.Fprintf(&sb, "%s\t%.6f\t%d\t%.6f\n", r.Sequence, r.FreeEnergy, r.Structure, r.Neutrality)
	}
	return sb.String()
}

func (o DesignOutput) TableHeaders() []string {
	return []string{"SEQUENCE", "FREE ENERGY", "STRUCTURE", "NEUTRALITY", "ATTEMPTS", "SEED"}
}

func (o DesignOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Results))
	for _, r := range o.Results {
		rows = append(rows, []string{
			r.Sequence,
			strconv.FormatFloat(r.FreeEnergy, 'f', 6, 64),
			strconv.Itoa(r.Structure),
			strconv.FormatFloat(r.Neutrality, 'f', 6, 64),
			strconv.Itoa(r.Attempts),
			strconv.FormatInt(r.Seed, 10),
		})
	}
	return rows
}

func newDesignCmd() *cobra.Command {
	var (
		cutoff      float64
		target      int
		seed        int64
		count       int
		maxAttempts int
		side        int
	)

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Search for sequences that fold stably, optionally into a target structure",
		Long: "Search for sequences whose free energy is at or below --cutoff. With --target\n" +
			"the sequence must also fold into that structure. Each of --count searches\n" +
			"uses its own seed, starting at --seed (0 picks one from the clock).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if count <= 0 {
				return errors.InvalidParam("--count must be positive")
			}
			if !cmd.Flags().Changed("cutoff") {
				cutoff = cliCtx.Config.Folding.NeutralityCutoff
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			svc, err := buildService(ctx, cliCtx, side)
			if err != nil {
				return err
			}

			out := DesignOutput{Cutoff: cutoff, Target: target}
			for i := 0; i < count; i++ {
				s := seed + int64(i)
				res, err := svc.Design(ctx, &folding.DesignInput{
					Cutoff:      cutoff,
					Target:      target,
					Seed:        s,
					MaxAttempts: maxAttempts,
				})
				if err != nil {
					return err
				}
				n, err := svc.Neutrality(ctx, res.Sequence, cutoff)
				if err != nil {
					return err
				}
				out.Results = append(out.Results, DesignedSequence{DesignResult: *res, Seed: s, Neutrality: n.Neutrality})
			}
			return PrintResult(cmd, out)
		},
	}

	cmd.Flags().Float64Var(&cutoff, "cutoff", 0, "free energy cutoff (default: folding.neutrality_cutoff)")
	cmd.Flags().IntVar(&target, "target", -1, "structure id to design for (-1: any)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed of the first search")
	cmd.Flags().IntVar(&count, "count", 1, "number of sequences to design")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "sequences evaluated per search (default: folding.design_max_attempts)")
	cmd.Flags().IntVar(&side, "side", 0, "use a lattice of this side instead of the configured library")
	return cmd
}

//Personal.AI order the ending
