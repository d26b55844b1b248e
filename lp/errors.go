package lp

import (
	"fmt"

	"github.com/wyfcoding/simplex/xerrors"
)

// ParseError 表示目标函数或约束中存在无法解析的系数、常数或关系运算符。
// Source 指明出错的来源（"objective" 或 "constraint N"），Token 为出错的原始片段。
type ParseError struct {
	Source string
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s in %s", e.Reason, e.Source)
	}
	return fmt.Sprintf("%s in %s: %q", e.Reason, e.Source, e.Token)
}

// Unwrap 使 errors.Is(err, xerrors.ErrLPParse) 成立。
func (e *ParseError) Unwrap() error { return xerrors.ErrLPParse }

// EmptyInputError 表示目标函数为空或没有任何非空约束行，在解析前检查。
type EmptyInputError struct {
	Field string // "objective" 或 "constraints"
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s must not be empty: enter the objective function and at least one constraint", e.Field)
}

func (e *EmptyInputError) Unwrap() error { return xerrors.ErrLPEmptyInput }

// UnboundedError 表示最小比值检验找不到入基列为正的约束行，目标函数可以无限改进。
type UnboundedError struct {
	Iteration int // 失败时所处的迭代序号（从 1 开始）
	Column    int // 入基列下标
}

func (e *UnboundedError) Error() string {
	return fmt.Sprintf("the problem is unbounded: column %d has no positive entry at iteration %d", e.Column, e.Iteration)
}

func (e *UnboundedError) Unwrap() error { return xerrors.ErrUnboundedProblem }

// IterationLimitError 表示在配置的最大迭代次数内未达到最优。
type IterationLimitError struct {
	Limit int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("no optimal solution after %d iterations", e.Limit)
}

func (e *IterationLimitError) Unwrap() error { return xerrors.ErrMathConvergence }
