package lp

import "fmt"

// Solution 是收敛后单纯形表中读出的最优解。
type Solution struct {
	Values    []float64 `json:"values"`    // 决策变量取值，下标 j 对应 x(j+1)
	Objective float64   `json:"objective"` // 目标行右侧常数
}

// ExtractSolution 读取每个决策变量的取值：若该列恰有一行为 1 且其余各行均为 0（严格相等），
// 则取该行右侧常数，否则为非基变量，取 0。
func ExtractSolution(t *Tableau, numVariables int) Solution {
	values := make([]float64, numVariables)
	for j := 0; j < numVariables; j++ {
		if row := t.BasicRow(j); row >= 0 {
			values[j] = t.RHS(row)
		}
	}
	return Solution{Values: values, Objective: t.ObjectiveValue()}
}

// BasicRow 返回 col 列作为基变量所在的约束行；不是单位列时返回 -1。
func (t *Tableau) BasicRow(col int) int {
	basic := -1
	for i := 0; i < t.Rows(); i++ {
		switch v := t.data.At(i, col); {
		case v == 1 && i < t.constraintCount && basic == -1:
			basic = i
		case v != 0:
			return -1
		}
	}
	return basic
}

// Lines 按 "x1 = 2.00" 的格式渲染每个变量，最后一行为目标函数值。
func (s Solution) Lines() []string {
	lines := make([]string, 0, len(s.Values)+1)
	for j, v := range s.Values {
		lines = append(lines, fmt.Sprintf("x%d = %s", j+1, formatValue(v)))
	}
	return append(lines, "Z = "+formatValue(s.Objective))
}
