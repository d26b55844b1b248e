package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wyfcoding/simplex/app"
	"github.com/wyfcoding/simplex/lp"
)

const serviceName = "simplex"

type solveFlags struct {
	objective       string
	constraints     string
	constraintsFile string
	minimize        bool
	asJSON          bool
	maxIterations   int
}

// jsonReport 是 --json 模式的输出结构。
type jsonReport struct {
	Direction  string        `json:"direction"`
	Values     []float64     `json:"values"`
	Objective  float64       `json:"objective"`
	Iterations int           `json:"iterations"`
	Snapshots  []lp.Snapshot `json:"snapshots"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Tableau simplex solver for linear programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSolveCmd(), newServeCmd())
	return root
}

func newSolveCmd() *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a linear program and print every tableau",
		Long: `Solve reads the objective coefficients and one constraint per line,
for example:

  simplex solve --objective "3 + 5" --constraints "1 + 0 <= 4\n0 + 2 <= 12\n3 + 2 <= 18"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolve(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.objective, "objective", "o", "", "objective coefficients, e.g. \"3 + 5\"")
	flags.StringVarP(&f.constraints, "constraints", "c", "", "constraints separated by newlines or a literal \\n")
	flags.StringVarP(&f.constraintsFile, "constraints-file", "f", "", "read constraints from a file, - for stdin")
	flags.BoolVar(&f.minimize, "minimize", false, "minimize instead of maximize")
	flags.BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	flags.IntVar(&f.maxIterations, "max-iterations", 0, "stop after this many pivots, 0 for no limit")
	cmd.MarkFlagsMutuallyExclusive("constraints", "constraints-file")

	return cmd
}

func runSolve(cmd *cobra.Command, f solveFlags) error {
	constraints, err := readConstraints(cmd.InOrStdin(), f)
	if err != nil {
		return err
	}

	dir := lp.Maximize
	if f.minimize {
		dir = lp.Minimize
	}

	problem, err := lp.ParseProblem(f.objective, constraints, dir)
	if err != nil {
		return err
	}

	solver := lp.NewSolver()
	if f.maxIterations > 0 {
		solver = solver.With(lp.WithMaxIterations(f.maxIterations))
	}
	report, err := solver.Solve(cmd.Context(), problem)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonReport{
			Direction:  dir.String(),
			Values:     report.Solution.Values,
			Objective:  report.Solution.Objective,
			Iterations: report.Iterations,
			Snapshots:  report.Snapshots,
		})
	}
	_, err = io.WriteString(out, report.String())
	return err
}

func readConstraints(stdin io.Reader, f solveFlags) (string, error) {
	switch f.constraintsFile {
	case "":
		return strings.ReplaceAll(f.constraints, `\n`, "\n"), nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read constraints from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(f.constraintsFile)
		if err != nil {
			return "", fmt.Errorf("read constraints file: %w", err)
		}
		return string(data), nil
	}
}

func newServeCmd() *cobra.Command {
	var confPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP solver service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.NewBuilder(serviceName).WithConfigPath(confPath).Build()
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
	cmd.Flags().StringVar(&confPath, "conf", fmt.Sprintf("./configs/%s/config.toml", serviceName), "path to config file")
	return cmd
}
