package lp

import (
	"bufio"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// 快照标签。
const (
	LabelInitial = "Initial table"
	LabelOptimal = "Optimal solution"
)

// Snapshot 是某一时刻单纯形表的带标签副本。
type Snapshot struct {
	Label     string      `json:"label"`
	Iteration int         `json:"iteration"` // 初始表为 0，最优表与最后一次迭代相同
	Matrix    [][]float64 `json:"matrix"`
}

// IterationLabel 返回第 k 次迭代快照的标签。
func IterationLabel(k int) string {
	return fmt.Sprintf("Iteration %d", k)
}

func newSnapshot(label string, iteration int, t *Tableau) Snapshot {
	return Snapshot{Label: label, Iteration: iteration, Matrix: t.Matrix()}
}

// String 渲染快照：首行为标签，之后每行一个表行，每个数保留两位小数并以制表符结尾。
func (s Snapshot) String() string {
	var sb strings.Builder
	sb.WriteString(s.Label)
	sb.WriteByte('\n')
	for _, row := range s.Matrix {
		for _, v := range row {
			sb.WriteString(formatValue(v))
			sb.WriteByte('\t')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseSnapshot 是 Snapshot.String 的逆操作，数值精度为渲染时的两位小数。
// 迭代序号只能从 "Iteration N" 标签中恢复，其余标签记为 0。
func ParseSnapshot(text string) (Snapshot, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))

	var snap Snapshot
	if !scanner.Scan() {
		return snap, &ParseError{Source: "snapshot", Reason: "missing label"}
	}
	snap.Label = strings.TrimSpace(scanner.Text())
	if _, err := fmt.Sscanf(snap.Label, "Iteration %d", &snap.Iteration); err != nil {
		snap.Iteration = 0
	}

	width := -1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		fields := strings.Split(line, "\t")
		row := make([]float64, len(fields))
		for j, f := range fields {
			d, err := decimal.NewFromString(strings.TrimSpace(f))
			if err != nil {
				return snap, &ParseError{Source: "snapshot", Token: f, Reason: "invalid entry"}
			}
			row[j] = d.InexactFloat64()
		}
		if width >= 0 && len(row) != width {
			return snap, &ParseError{Source: "snapshot", Token: line, Reason: "ragged row"}
		}
		width = len(row)
		snap.Matrix = append(snap.Matrix, row)
	}
	if err := scanner.Err(); err != nil {
		return snap, err
	}
	return snap, nil
}

// Report 是一次求解的全部输出：按顺序排列的快照与最终解。
type Report struct {
	Snapshots  []Snapshot `json:"snapshots"`
	Solution   Solution   `json:"solution"`
	Iterations int        `json:"iterations"`
}

// String 依次渲染所有快照块，最后列出各变量最优值与目标函数值。
func (r *Report) String() string {
	var sb strings.Builder
	for _, s := range r.Snapshots {
		sb.WriteString(s.String())
		sb.WriteString("\n\n")
	}
	sb.WriteString("Optimal values:\n")
	for _, line := range r.Solution.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// formatValue 保留两位小数，采用远离零的四舍五入。
func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%.2f", v)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
