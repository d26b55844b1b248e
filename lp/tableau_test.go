package lp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simplex/xerrors"
)

func textbookTableau(t *testing.T) *Tableau {
	t.Helper()
	tab, err := NewTableau(
		[]float64{3, 5},
		[][]float64{{1, 0, 4}, {0, 2, 12}, {3, 2, 18}},
		Maximize,
	)
	require.NoError(t, err)
	return tab
}

func TestNewTableauLayout(t *testing.T) {
	tab := textbookTableau(t)

	assert.Equal(t, 4, tab.Rows())
	assert.Equal(t, 6, tab.Cols())
	assert.Equal(t, [][]float64{
		{1, 0, 1, 0, 0, 4},
		{0, 2, 0, 1, 0, 12},
		{3, 2, 0, 0, 1, 18},
		{-3, -5, 0, 0, 0, 0},
	}, tab.Matrix())
	assert.Equal(t, 0.0, tab.ObjectiveValue())
}

func TestNewTableauMinimizeKeepsObjectiveSign(t *testing.T) {
	tab, err := NewTableau([]float64{2, -3}, [][]float64{{1, 1, 4}}, Minimize)
	require.NoError(t, err)

	assert.Equal(t, 2.0, tab.At(1, 0))
	assert.Equal(t, -3.0, tab.At(1, 1))
}

func TestNewTableauKeepsNegativeRHS(t *testing.T) {
	tab, err := NewTableau([]float64{1}, [][]float64{{-1, -2}}, Maximize)
	require.NoError(t, err)
	assert.Equal(t, -2.0, tab.RHS(0))
}

func TestNewTableauRejectsBadShapes(t *testing.T) {
	_, err := NewTableau(nil, [][]float64{{1}}, Maximize)
	assert.True(t, errors.Is(err, xerrors.ErrEmptyData))

	_, err = NewTableau([]float64{1}, nil, Maximize)
	assert.True(t, errors.Is(err, xerrors.ErrEmptyData))

	_, err = NewTableau([]float64{1, 2}, [][]float64{{1, 2}}, Maximize)
	assert.True(t, errors.Is(err, xerrors.ErrDimMismatchBounds))
}

func TestTableauMatrixIsACopy(t *testing.T) {
	tab := textbookTableau(t)

	m := tab.Matrix()
	m[0][0] = 99
	assert.Equal(t, 1.0, tab.At(0, 0))

	clone := tab.Clone()
	clone.Pivot(1, 1)
	assert.Equal(t, 2.0, tab.At(1, 1))
	assert.Equal(t, 1.0, clone.At(1, 1))
}
