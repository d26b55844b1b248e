package lp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/wyfcoding/simplex/xerrors"
)

// Tableau 是单纯形表：(m+1) 行 × (n+m+1) 列的稠密矩阵。
// 前 m 行为约束行，最后一行为目标行；前 n 列为决策变量，接着 m 列为松弛变量，最后一列为右侧常数。
type Tableau struct {
	data            *mat.Dense
	variablesCount  int // 决策变量个数 n
	constraintCount int // 约束个数 m
}

// NewTableau 由目标函数系数和归一化后的约束行构建初始单纯形表。
// 每行约束占用一个单位松弛列；目标行在 Minimize 时取原系数，在 Maximize 时取相反数。
// 此处不做可行性检查，取反后的 ">=" 行可能带负的右侧常数。
func NewTableau(objective []float64, constraints [][]float64, dir Direction) (*Tableau, error) {
	n := len(objective)
	m := len(constraints)
	if n == 0 || m == 0 {
		return nil, xerrors.Derive(xerrors.ErrEmptyData, "objective and constraints must not be empty", nil)
	}

	for i, row := range constraints {
		if len(row) != n+1 {
			return nil, xerrors.Derive(xerrors.ErrDimMismatchBounds,
				fmt.Sprintf("constraint %d has %d entries, want %d", i, len(row), n+1), nil)
		}
	}

	cols := n + m + 1
	data := mat.NewDense(m+1, cols, nil)

	for i, row := range constraints {
		for j := 0; j < n; j++ {
			data.Set(i, j, row[j])
		}
		data.Set(i, n+i, 1)
		data.Set(i, cols-1, row[n])
	}

	for j := 0; j < n; j++ {
		if dir == Minimize {
			data.Set(m, j, objective[j])
		} else {
			data.Set(m, j, -objective[j])
		}
	}

	return &Tableau{data: data, variablesCount: n, constraintCount: m}, nil
}

// Rows 返回行数 m+1。
func (t *Tableau) Rows() int { return t.constraintCount + 1 }

// Cols 返回列数 n+m+1。
func (t *Tableau) Cols() int { return t.variablesCount + t.constraintCount + 1 }

// NumVariables 返回决策变量个数。
func (t *Tableau) NumVariables() int { return t.variablesCount }

// NumConstraints 返回约束个数。
func (t *Tableau) NumConstraints() int { return t.constraintCount }

// At 返回 (i, j) 处的值。
func (t *Tableau) At(i, j int) float64 { return t.data.At(i, j) }

// RHS 返回第 i 行的右侧常数。
func (t *Tableau) RHS(i int) float64 { return t.data.At(i, t.Cols()-1) }

// ObjectiveValue 返回目标行的右侧常数。
func (t *Tableau) ObjectiveValue() float64 { return t.RHS(t.constraintCount) }

// Matrix 返回整张表的深拷贝。
func (t *Tableau) Matrix() [][]float64 {
	out := make([][]float64, t.Rows())
	for i := range out {
		out[i] = mat.Row(nil, i, t.data)
	}
	return out
}

// Clone 返回独立的副本。
func (t *Tableau) Clone() *Tableau {
	return &Tableau{
		data:            mat.DenseCopyOf(t.data),
		variablesCount:  t.variablesCount,
		constraintCount: t.constraintCount,
	}
}

// objectiveRow 返回目标行中除右侧常数外的部分，与底层存储共享。
func (t *Tableau) objectiveRow() []float64 {
	return t.data.RawRowView(t.constraintCount)[:t.Cols()-1]
}
