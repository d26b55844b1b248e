package lp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// IsOptimal 当目标行所有检验数（不含右侧常数列）均非负时返回 true。
func (t *Tableau) IsOptimal() bool {
	for _, v := range t.objectiveRow() {
		if v < 0 {
			return false
		}
	}
	return true
}

// EnteringColumn 选择目标行中最负的列作为入基列，相同取下标最小者；不存在负值时返回 -1。
func (t *Tableau) EnteringColumn() int {
	row := t.objectiveRow()
	idx := floats.MinIdx(row)
	if row[idx] >= 0 {
		return -1
	}
	return idx
}

// LeavingRow 执行最小比值检验：在入基列严格为正的约束行中选择 右侧常数/入基列值 最小的一行，
// 相同取先出现者。没有任何约束行满足条件时问题无界。
func (t *Tableau) LeavingRow(col int) (int, error) {
	rhs := t.Cols() - 1
	pivotRow := -1
	minRatio := math.Inf(1)

	for i := 0; i < t.constraintCount; i++ {
		v := t.data.At(i, col)
		if v > 0 {
			ratio := t.data.At(i, rhs) / v
			if ratio < minRatio {
				minRatio = ratio
				pivotRow = i
			}
		}
	}

	if pivotRow == -1 {
		return -1, &UnboundedError{Column: col}
	}
	return pivotRow, nil
}

// Pivot 以 (row, col) 为主元做 Gauss-Jordan 消元：主元行整体除以主元值，
// 其余各行（含目标行）减去 自身入基列值 × 归一化后的主元行。
func (t *Tableau) Pivot(row, col int) {
	pivotRow := t.data.RawRowView(row)
	pivot := pivotRow[col]

	for j := range pivotRow {
		pivotRow[j] /= pivot
	}

	for i := 0; i < t.Rows(); i++ {
		if i == row {
			continue
		}
		target := t.data.RawRowView(i)
		factor := target[col]
		if factor == 0 {
			continue
		}
		floats.AddScaled(target, -factor, pivotRow)
	}
}
