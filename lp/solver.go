package lp

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Observer 在每个快照产生后被同步调用，调用顺序与报告中的快照顺序一致。
type Observer func(Snapshot)

// Option 配置 Solver。
type Option func(*options)

type options struct {
	maxIterations int
	observer      Observer
	logger        *slog.Logger
	tracer        trace.Tracer
}

// WithMaxIterations 设置最大迭代次数，0 表示不限制。
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxIterations = n
		}
	}
}

// WithObserver 注册快照观察者，用于流式输出每一步的单纯形表。
func WithObserver(fn Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithLogger 设置日志记录器。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer 设置 OpenTelemetry Tracer。
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// Solver 驱动单纯形迭代。Solver 本身无状态，可被多个 goroutine 共享，
// 每次 Solve 都会分配自己的单纯形表。
type Solver struct {
	opts options
}

// NewSolver 创建求解器。
func NewSolver(opts ...Option) *Solver {
	o := options{
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/wyfcoding/simplex/lp"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Solver{opts: o}
}

// With 基于当前配置叠加额外选项，返回新的 Solver。
func (s *Solver) With(opts ...Option) *Solver {
	o := s.opts
	for _, opt := range opts {
		opt(&o)
	}
	return &Solver{opts: o}
}

// Solve 构建初始表后反复选择入基列、出基行并转轴，直到最优或判定无界。
// 每一步都会记录快照；任何错误都会终止求解且不返回部分结果。
func (s *Solver) Solve(ctx context.Context, p *Problem) (*Report, error) {
	ctx, span := s.opts.tracer.Start(ctx, "lp.Solve", trace.WithAttributes(
		attribute.Int("lp.variables", p.NumVariables()),
		attribute.Int("lp.constraints", p.NumConstraints()),
		attribute.String("lp.direction", p.Direction.String()),
	))
	defer span.End()

	report, err := s.solve(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("lp.iterations", report.Iterations),
		attribute.Float64("lp.objective", report.Solution.Objective),
	)
	return report, nil
}

func (s *Solver) solve(ctx context.Context, p *Problem) (*Report, error) {
	tableau, err := NewTableau(p.Objective, p.Rows(), p.Direction)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	s.emit(report, newSnapshot(LabelInitial, 0, tableau))

	iteration := 1
	for !tableau.IsOptimal() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("solve interrupted at iteration %d: %w", iteration, err)
		}
		if s.opts.maxIterations > 0 && iteration > s.opts.maxIterations {
			return nil, &IterationLimitError{Limit: s.opts.maxIterations}
		}

		col := tableau.EnteringColumn()
		row, err := tableau.LeavingRow(col)
		if err != nil {
			if ue, ok := err.(*UnboundedError); ok {
				ue.Iteration = iteration
			}
			s.opts.logger.DebugContext(ctx, "simplex unbounded", "iteration", iteration, "column", col)
			return nil, err
		}

		tableau.Pivot(row, col)
		s.opts.logger.DebugContext(ctx, "simplex pivot",
			"iteration", iteration, "row", row, "column", col, "objective", tableau.ObjectiveValue())

		s.emit(report, newSnapshot(IterationLabel(iteration), iteration, tableau))
		iteration++
	}

	report.Iterations = iteration - 1
	s.emit(report, newSnapshot(LabelOptimal, report.Iterations, tableau))
	report.Solution = ExtractSolution(tableau, p.NumVariables())

	return report, nil
}

func (s *Solver) emit(r *Report, snap Snapshot) {
	r.Snapshots = append(r.Snapshots, snap)
	if s.opts.observer != nil {
		s.opts.observer(snap)
	}
}

// Solve 是便捷入口：检查空输入、解析文本并使用默认 Solver 求解。
func Solve(ctx context.Context, objective, constraints string, dir Direction) (*Report, error) {
	problem, err := ParseProblem(objective, constraints, dir)
	if err != nil {
		return nil, err
	}
	return NewSolver().Solve(ctx, problem)
}
