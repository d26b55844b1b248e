package lp

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// relational 匹配约束中的关系运算符，长运算符优先。
var relational = regexp.MustCompile(`>=|<=|>|<`)

// Constraint 是一行归一化后的约束：前 n 项为左侧系数，最后一项为右侧常数，均已转换为 <= 形式。
type Constraint struct {
	Line         int       // 原始文本中的行号（从 1 开始）
	Coefficients []float64 // 长度为 n+1
}

// Problem 是解析完成的线性规划问题。
type Problem struct {
	Objective   []float64
	Constraints []Constraint
	Direction   Direction
}

// NumVariables 返回决策变量个数。
func (p *Problem) NumVariables() int { return len(p.Objective) }

// NumConstraints 返回约束行数。
func (p *Problem) NumConstraints() int { return len(p.Constraints) }

// Rows 以矩阵形式返回所有约束行。
func (p *Problem) Rows() [][]float64 {
	rows := make([][]float64, len(p.Constraints))
	for i, c := range p.Constraints {
		rows[i] = c.Coefficients
	}
	return rows
}

// ParseObjective 将 "3 - 5 + 2" 形式的目标函数解析为系数向量 [3, -5, 2]。
func ParseObjective(s string) ([]float64, error) {
	return parseTerms(s, "objective")
}

// ParseConstraint 将单行约束解析为长度 n+1 的向量。
// ">=" 约束整行取反以转换为 "<=" 形式；"<"、">" 与 "<=" 同样处理。
func ParseConstraint(line string) ([]float64, error) {
	return parseConstraint(line, "constraint")
}

func parseConstraint(line, source string) ([]float64, error) {
	line = strings.TrimSpace(line)

	parts := relational.Split(line, -1)
	if len(parts) != 2 {
		return nil, &ParseError{Source: source, Token: line, Reason: "constraint must have exactly one relational operator (<=, >=, <, >)"}
	}

	coefficients, err := parseTerms(parts[0], source)
	if err != nil {
		return nil, err
	}

	constant := strings.TrimSpace(parts[1])
	if constant == "" {
		return nil, &ParseError{Source: source, Token: line, Reason: "empty constant term"}
	}
	rhs, ok := parseNumber(constant)
	if !ok {
		return nil, &ParseError{Source: source, Token: constant, Reason: "invalid constant term"}
	}

	row := append(coefficients, rhs)

	if relational.FindString(line) == ">=" {
		for j := range row {
			row[j] = -row[j]
		}
	}

	return row, nil
}

// ParseConstraints 按换行切分约束文本，跳过空行，行号保持原始编号。
func ParseConstraints(text string) ([]Constraint, error) {
	lines := strings.Split(text, "\n")
	constraints := make([]Constraint, 0, len(lines))

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, err := parseConstraint(line, fmt.Sprintf("constraint %d", i+1))
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, Constraint{Line: i + 1, Coefficients: row})
	}

	return constraints, nil
}

// ParseProblem 检查输入非空后解析目标函数与约束，并校验每行约束的系数个数与目标函数一致。
func ParseProblem(objective, constraints string, dir Direction) (*Problem, error) {
	if strings.TrimSpace(objective) == "" {
		return nil, &EmptyInputError{Field: "objective"}
	}
	if strings.TrimSpace(constraints) == "" {
		return nil, &EmptyInputError{Field: "constraints"}
	}

	obj, err := ParseObjective(objective)
	if err != nil {
		return nil, err
	}

	rows, err := ParseConstraints(constraints)
	if err != nil {
		return nil, err
	}

	n := len(obj)
	for _, c := range rows {
		if got := len(c.Coefficients) - 1; got != n {
			return nil, &ParseError{
				Source: fmt.Sprintf("constraint %d", c.Line),
				Reason: fmt.Sprintf("expected %d coefficients to match the objective, got %d", n, got),
			}
		}
	}

	return &Problem{Objective: obj, Constraints: rows, Direction: dir}, nil
}

// parseTerms 实现 "-" → "+-" 后按 "+" 切分的分词规则。
func parseTerms(expr, source string) ([]float64, error) {
	tokens := strings.Split(strings.ReplaceAll(expr, "-", "+-"), "+")

	// 仅由前导符号产生的空片段不计入系数
	if trimmed := strings.TrimSpace(expr); len(tokens) > 1 && strings.TrimSpace(tokens[0]) == "" &&
		(strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "+")) {
		tokens = tokens[1:]
	}

	result := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, ok := parseNumber(tok)
		if !ok {
			return nil, &ParseError{Source: source, Token: strings.TrimSpace(tok), Reason: "invalid coefficient"}
		}
		result[i] = v
	}
	return result, nil
}

// parseNumber 去除片段内全部空白后解析为有限实数。
func parseNumber(tok string) (float64, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, tok)
	if compact == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(compact, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
