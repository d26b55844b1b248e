package lp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simplex/xerrors"
)

func TestParseObjective(t *testing.T) {
	cases := []struct {
		in   string
		want []float64
	}{
		{"3 - 5 + 2", []float64{3, -5, 2}},
		{"3 + 5", []float64{3, 5}},
		{"-3 + 5", []float64{-3, 5}},
		{"+4", []float64{4}},
		{" 1.5 - 2.25 ", []float64{1.5, -2.25}},
		{"0 + 0 + 7", []float64{0, 0, 7}},
	}
	for _, tc := range cases {
		got, err := ParseObjective(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseObjectiveInvalidCoefficient(t *testing.T) {
	_, err := ParseObjective("3 + abc")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "abc", pe.Token)
	assert.Equal(t, "objective", pe.Source)
	assert.Contains(t, err.Error(), "abc")
	assert.True(t, errors.Is(err, xerrors.ErrLPParse))
}

func TestParseObjectiveRejectsEmptyAndNonFiniteTokens(t *testing.T) {
	for _, in := range []string{"3 + + 5", "3 +", "NaN + 1", "1 + Inf", "1e400"} {
		_, err := ParseObjective(in)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe, in)
	}
}

func TestParseConstraintNormalization(t *testing.T) {
	le, err := ParseConstraint("2 + 1 <= 8")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1, 8}, le)

	ge, err := ParseConstraint("2 + 1 >= 8")
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, -1, -8}, ge)

	// 严格不等式按非严格处理
	lt, err := ParseConstraint("2 + 1 < 8")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1, 8}, lt)

	gt, err := ParseConstraint("2 + 1 > 8")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1, 8}, gt)

	neg, err := ParseConstraint("1 - 1 <= -3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, -3}, neg)
}

func TestParseConstraintErrors(t *testing.T) {
	cases := map[string]string{
		"missing operator": "2 + 1",
		"two operators":    "1 <= 2 <= 3",
		"empty constant":   "2 + 1 <=",
		"bad constant":     "2 + 1 <= x",
		"bad coefficient":  "2 + y <= 4",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConstraint(in)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.True(t, errors.Is(err, xerrors.ErrLPParse))
		})
	}
}

func TestParseConstraintsSkipsEmptyLines(t *testing.T) {
	rows, err := ParseConstraints("1 + 0 <= 4\n\n   \n0 + 2 <= 12\r\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, []float64{1, 0, 4}, rows[0].Coefficients)
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, []float64{0, 2, 12}, rows[1].Coefficients)
}

func TestParseConstraintsNamesOffendingLine(t *testing.T) {
	_, err := ParseConstraints("1 + 0 <= 4\n1 + q <= 2")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "constraint 2", pe.Source)
	assert.Equal(t, "q", pe.Token)
}

func TestParseProblem(t *testing.T) {
	p, err := ParseProblem("3 + 5", "1 + 0 <= 4\n0 + 2 <= 12\n3 + 2 <= 18", Maximize)
	require.NoError(t, err)

	assert.Equal(t, 2, p.NumVariables())
	assert.Equal(t, 3, p.NumConstraints())
	for _, row := range p.Rows() {
		assert.Len(t, row, p.NumVariables()+1)
	}
}

func TestParseProblemEmptyInput(t *testing.T) {
	_, err := ParseProblem("  ", "1 <= 2", Maximize)
	var ee *EmptyInputError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "objective", ee.Field)
	assert.True(t, errors.Is(err, xerrors.ErrLPEmptyInput))

	_, err = ParseProblem("1", "\n \n", Maximize)
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "constraints", ee.Field)
}

func TestParseProblemCoefficientCountMismatch(t *testing.T) {
	_, err := ParseProblem("3 + 5", "1 <= 4", Maximize)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "constraint 1", pe.Source)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"":          Maximize,
		"MAX":       Maximize,
		"maximize":  Maximize,
		"Maximizar": Maximize,
		"min":       Minimize,
		"Minimize":  Minimize,
		"minimizar": Minimize,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("sideways")
	assert.Error(t, err)

	var d Direction
	require.NoError(t, d.UnmarshalText([]byte("min")))
	assert.Equal(t, Minimize, d)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "minimize", string(text))
}
