package lp

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{math.Copysign(0, -1), "0.00"},
		{2, "2.00"},
		{-3, "-3.00"},
		{1.0 / 3, "0.33"},
		{0.125, "0.13"},
		{-0.125, "-0.13"},
		{36.999999, "37.00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatValue(tc.in), "%v", tc.in)
	}
}

func TestSnapshotString(t *testing.T) {
	snap := Snapshot{Label: "Iteration 1", Iteration: 1, Matrix: [][]float64{{1, 0.5}, {-2, 30}}}

	assert.Equal(t, "Iteration 1\n1.00\t0.50\t\n-2.00\t30.00\t\n", snap.String())
}

func TestSnapshotRoundTrip(t *testing.T) {
	report, err := Solve(context.Background(), textbookObjective, textbookConstraints, Maximize)
	require.NoError(t, err)

	for _, snap := range report.Snapshots {
		parsed, err := ParseSnapshot(snap.String())
		require.NoError(t, err)

		assert.Equal(t, snap.Label, parsed.Label)
		// 渲染文本不含序号，只有 "Iteration N" 标签能还原
		if snap.Label == IterationLabel(snap.Iteration) {
			assert.Equal(t, snap.Iteration, parsed.Iteration)
		} else {
			assert.Zero(t, parsed.Iteration)
		}
		require.Len(t, parsed.Matrix, len(snap.Matrix))
		for i := range snap.Matrix {
			require.Len(t, parsed.Matrix[i], len(snap.Matrix[i]))
			for j := range snap.Matrix[i] {
				assert.InDelta(t, snap.Matrix[i][j], parsed.Matrix[i][j], 0.005)
			}
		}
	}
}

func TestParseSnapshotErrors(t *testing.T) {
	_, err := ParseSnapshot("")
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = ParseSnapshot("Initial table\n1.00\t2.00\t\n1.00\t\n")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "ragged row", pe.Reason)

	_, err = ParseSnapshot("Initial table\n1.00\tx\t\n")
	assert.ErrorAs(t, err, &pe)
}

func TestReportString(t *testing.T) {
	report, err := Solve(context.Background(), textbookObjective, textbookConstraints, Maximize)
	require.NoError(t, err)

	out := report.String()
	assert.True(t, strings.HasPrefix(out, "Initial table\n1.00\t0.00\t1.00\t0.00\t0.00\t4.00\t\n"))
	assert.Contains(t, out, "Iteration 1\n")
	assert.Contains(t, out, "Iteration 2\n")
	assert.Contains(t, out, "Optimal solution\n")
	assert.True(t, strings.HasSuffix(out, "Optimal values:\nx1 = 2.00\nx2 = 6.00\nZ = 36.00\n"))
	assert.Equal(t, 4, strings.Count(out, "\n\n\n"))
}

func TestSolutionLines(t *testing.T) {
	s := Solution{Values: []float64{2, 0}, Objective: 36}
	assert.Equal(t, []string{"x1 = 2.00", "x2 = 0.00", "Z = 36.00"}, s.Lines())
}

func TestBasicRowRequiresExactUnitColumn(t *testing.T) {
	tab := textbookTableau(t)

	// 松弛列是单位列
	assert.Equal(t, 0, tab.BasicRow(2))
	assert.Equal(t, 2, tab.BasicRow(4))
	// 决策变量列在目标行非零
	assert.Equal(t, -1, tab.BasicRow(0))

	tab.Pivot(1, 1)
	assert.Equal(t, 1, tab.BasicRow(1))
	assert.Equal(t, -1, tab.BasicRow(3))
}
