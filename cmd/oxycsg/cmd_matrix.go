package main

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/brush"
	"github.com/Carmen-Shannon/oxy-csg/engine/csg"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// matrixCase is one kind x kind x operation combination.
type matrixCase struct {
	a, b primitive.Kind
	op   csg.Operation
}

// matrixResult holds the statistics of one evaluated case.
type matrixResult struct {
	matrixCase
	triangles int
	volume    float32
	size      [3]float32
	elapsed   time.Duration
	err       error
}

func runMatrix(cmd *cobra.Command, _ []string) error {
	kindNames, _ := cmd.Flags().GetStringSlice("kinds")
	opNames, _ := cmd.Flags().GetStringSlice("ops")
	jobs, _ := cmd.Flags().GetInt("jobs")
	logger := common.Logger()

	res, err := cfg.Composition.ParsedResolution()
	if err != nil {
		return err
	}
	reg := primitive.NewRegistry(primitive.WithResolution(res), primitive.WithLogger(logger))

	kinds := reg.Kinds()
	if len(kindNames) > 0 {
		kinds = nil
		for _, name := range kindNames {
			k, err := reg.Lookup(name)
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
	}
	ops := csg.Operations()
	if len(opNames) > 0 {
		ops = nil
		for _, name := range opNames {
			op, err := csg.ParseOperation(name)
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	var cases []matrixCase
	for _, a := range kinds {
		for _, b := range kinds {
			for _, op := range ops {
				cases = append(cases, matrixCase{a: a, b: b, op: op})
			}
		}
	}

	ledger := geometry.NewLedger()
	start := time.Now()
	results, err := evaluateMatrix(cmd.Context(), reg, csg.NewEvaluator(csg.WithLedger(ledger), csg.WithLogger(logger)), cases, jobs)
	if err != nil {
		return err
	}
	printMatrix(cmd, reg, results, time.Since(start), ledger)
	return nil
}

// evaluateMatrix runs every case on at most jobs goroutines. Evaluation failures are recorded per
// case; only brush construction and cancellation abort the run.
func evaluateMatrix(ctx context.Context, reg primitive.Registry, ev csg.Evaluator, cases []matrixCase, jobs int) ([]matrixResult, error) {
	placements := [2]common.Placement{
		cfg.Composition.Brushes[0].Placement(),
		cfg.Composition.Brushes[1].Placement(),
	}

	results := make([]matrixResult, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, c := range cases {
		g.Go(func() error {
			a, err := brush.NewBaked(reg, c.a, brush.WithName("a"), brush.WithPlacement(placements[0]))
			if err != nil {
				return err
			}
			b, err := brush.NewBaked(reg, c.b, brush.WithName("b"), brush.WithPlacement(placements[1]))
			if err != nil {
				return err
			}

			t0 := time.Now()
			out, err := ev.Evaluate(gctx, a, b, c.op)
			r := matrixResult{matrixCase: c, elapsed: time.Since(t0), err: err}
			if err == nil {
				bounds := out.Bounds()
				size := bounds.Size()
				r.triangles = out.TriangleCount()
				r.volume = out.Volume()
				r.size = [3]float32{size.X, size.Y, size.Z}
				out.Dispose()
			}
			results[i] = r
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printMatrix(cmd *cobra.Command, reg primitive.Registry, results []matrixResult, total time.Duration, ledger *geometry.Ledger) {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	failed := lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#EF4444"))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("A", "B", "OPERATION", "TRIANGLES", "VOLUME", "SIZE", "TIME").
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case row >= 0 && row < len(results) && results[row].err != nil:
				return failed
			}
			return cell
		})

	nFailed := 0
	for _, r := range results {
		if r.err != nil {
			nFailed++
			t.Row(reg.Name(r.a), reg.Name(r.b), r.op.String(), "-", "-", r.err.Error(), r.elapsed.Round(time.Microsecond).String())
			continue
		}
		t.Row(
			reg.Name(r.a),
			reg.Name(r.b),
			r.op.String(),
			strconv.Itoa(r.triangles),
			fmt.Sprintf("%.4f", r.volume),
			fmt.Sprintf("%.2f x %.2f x %.2f", r.size[0], r.size[1], r.size[2]),
			r.elapsed.Round(time.Microsecond).String(),
		)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%d combinations, %d failed, %d live geometries, %s\n",
		len(results), nFailed, ledger.Live(), total.Round(time.Millisecond))
}
