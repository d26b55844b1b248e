// Package solve 是线性规划求解服务的应用层：在 lp 引擎之外负责输入限制、
// 结果缓存、并发控制、指标与日志，并提供 HTTP 与 WebSocket 入口。
package solve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/simplex/cache"
	"github.com/wyfcoding/simplex/config"
	"github.com/wyfcoding/simplex/contextx"
	"github.com/wyfcoding/simplex/idgen"
	"github.com/wyfcoding/simplex/limiter"
	"github.com/wyfcoding/simplex/logging"
	"github.com/wyfcoding/simplex/lp"
	"github.com/wyfcoding/simplex/metrics"
	"github.com/wyfcoding/simplex/tracing"
	"github.com/wyfcoding/simplex/xerrors"
)

// Request 是一次求解的输入：目标函数、以换行分隔的约束与优化方向。
// Direction 为空时使用配置中的默认方向。
type Request struct {
	Objective   string `json:"objective"`
	Constraints string `json:"constraints"`
	Direction   string `json:"direction"`
}

// Result 是一次成功求解的输出。
type Result struct {
	ID         string        `json:"id"`
	Report     string        `json:"report"`
	Snapshots  []lp.Snapshot `json:"snapshots,omitempty"`
	Values     []float64     `json:"values"`
	Objective  float64       `json:"objective"`
	Iterations int           `json:"iterations"`
	Direction  string        `json:"direction"`
	Cached     bool          `json:"cached"`
}

// Service 编排一次求解。可被多个请求并发使用。
type Service struct {
	limits  atomic.Pointer[config.SolverConfig]
	solver  *lp.Solver
	cache   *cache.MultiLevelCache
	ttl     time.Duration
	prefix  string
	sem     *limiter.SemaphoreLimiter
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// Option 配置 Service。
type Option func(*Service)

// WithCache 启用报告缓存。prefix 拼接在缓存 key 之前，ttl 为写入时的过期时间。
func WithCache(c *cache.MultiLevelCache, prefix string, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.prefix = prefix
		s.ttl = ttl
	}
}

// WithMetrics 设置指标采集器。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger 设置日志记录器，同时用于 lp 引擎的调试日志。
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService 创建求解服务。MaxConcurrent 在创建时固定，其余限制可经 UpdateLimits 热更新。
func NewService(cfg config.SolverConfig, opts ...Option) *Service {
	s := &Service{
		logger: logging.Default(),
		sem:    limiter.NewSemaphoreLimiter(cfg.MaxConcurrent),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.solver = lp.NewSolver(lp.WithLogger(s.logger.Logger))
	s.UpdateLimits(cfg)
	return s
}

// UpdateLimits 替换输入限制、迭代上限、默认方向与超时，作为配置热更新钩子使用。
func (s *Service) UpdateLimits(cfg config.SolverConfig) {
	s.limits.Store(&cfg)
}

// Limits 返回当前生效的限制。
func (s *Service) Limits() config.SolverConfig {
	return *s.limits.Load()
}

// Solve 求解并返回结果，相同问题优先读取缓存。
func (s *Service) Solve(ctx context.Context, req Request) (*Result, error) {
	return s.run(ctx, req, nil)
}

// Stream 与 Solve 相同，但每产生一个快照就同步回调 observer。
// 命中缓存时按原顺序回放缓存中的快照。
func (s *Service) Stream(ctx context.Context, req Request, observer lp.Observer) (*Result, error) {
	return s.run(ctx, req, observer)
}

func (s *Service) run(ctx context.Context, req Request, observer lp.Observer) (*Result, error) {
	start := time.Now()
	limits := s.Limits()

	id := idgen.GenSolveID()
	ctx = contextx.WithSolveID(ctx, id)
	ctx, span := tracing.StartSpan(ctx, "solve.Service.Solve")
	defer span.End()

	dirText := req.Direction
	if strings.TrimSpace(dirText) == "" {
		dirText = limits.DefaultDirection
	}
	dir, err := lp.ParseDirection(dirText)
	if err != nil {
		return nil, s.fail(ctx, "invalid", dir, start, xerrors.InvalidArg(err.Error()))
	}
	tracing.AddTag(ctx, "lp.direction", dir.String())

	problem, err := lp.ParseProblem(req.Objective, req.Constraints, dir)
	if err != nil {
		return nil, s.fail(ctx, outcomeOf(err), dir, start, err)
	}
	if err := checkSize(problem, limits); err != nil {
		return nil, s.fail(ctx, "too_large", dir, start, err)
	}

	if err := s.sem.Acquire(ctx); err != nil {
		return nil, s.fail(ctx, outcomeOf(err), dir, start, fmt.Errorf("waiting for a solver slot: %w", err))
	}
	defer s.sem.Release()

	if limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.Timeout)
		defer cancel()
	}

	solver := s.solver
	if limits.MaxIterations > 0 {
		solver = solver.With(lp.WithMaxIterations(limits.MaxIterations))
	}

	report, cached, err := s.solveCached(ctx, solver, problem, limits, observer)
	if err != nil {
		return nil, s.fail(ctx, outcomeOf(err), dir, start, err)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveSolve(dir.String(), "optimal", report.Iterations, elapsed)
	tracing.AddTag(ctx, "lp.cached", cached)

	args := append(contextx.LogAttrs(ctx),
		"direction", dir.String(),
		"variables", problem.NumVariables(),
		"constraints", problem.NumConstraints(),
		"iterations", report.Iterations,
		"objective", report.Solution.Objective,
		"cached", cached,
		"duration", elapsed,
	)
	s.logger.InfoContext(ctx, "linear program solved", args...)

	return &Result{
		ID:         id,
		Report:     report.String(),
		Snapshots:  report.Snapshots,
		Values:     report.Solution.Values,
		Objective:  report.Solution.Objective,
		Iterations: report.Iterations,
		Direction:  dir.String(),
		Cached:     cached,
	}, nil
}

func (s *Service) solveCached(ctx context.Context, solver *lp.Solver, p *lp.Problem, limits config.SolverConfig, observer lp.Observer) (*lp.Report, bool, error) {
	if s.cache == nil {
		report, err := solver.With(lp.WithObserver(observer)).Solve(ctx, p)
		return report, false, err
	}

	key := s.prefix + cacheKey(p, limits.MaxIterations)

	if observer != nil {
		var report lp.Report
		if err := s.cache.Get(ctx, key, &report); err == nil {
			s.metrics.ObserveCache(true)
			for _, snap := range report.Snapshots {
				observer(snap)
			}
			return &report, true, nil
		}
		s.metrics.ObserveCache(false)

		fresh, err := solver.With(lp.WithObserver(observer)).Solve(ctx, p)
		if err != nil {
			return nil, false, err
		}
		if err := s.cache.Set(ctx, key, fresh, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "failed to cache report", "key", key, "error", err)
		}
		return fresh, false, nil
	}

	var report lp.Report
	// 合并后的回源不随单个请求取消，执行时限单独设置
	hit, err := s.cache.GetOrSet(ctx, key, &report, s.ttl, func(loadCtx context.Context) (any, error) {
		if limits.Timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, limits.Timeout)
			defer cancel()
		}
		return solver.Solve(loadCtx, p)
	})
	s.metrics.ObserveCache(hit)
	if err != nil {
		return nil, false, err
	}
	return &report, hit, nil
}

// fail 记录失败的指标与日志，并将错误转换为 *xerrors.Error。
func (s *Service) fail(ctx context.Context, outcome string, dir lp.Direction, start time.Time, err error) error {
	s.metrics.ObserveSolve(dir.String(), outcome, 0, time.Since(start))
	tracing.SetError(ctx, err)

	xe := xerrors.Normalize(err)
	args := append(contextx.LogAttrs(ctx), "outcome", outcome, "code", xe.Code, "error", err)
	if xe.HTTPStatus() >= 500 {
		s.logger.ErrorContext(ctx, "linear program failed", args...)
	} else {
		s.logger.WarnContext(ctx, "linear program rejected", args...)
	}
	return xe
}

func checkSize(p *lp.Problem, limits config.SolverConfig) error {
	if limits.MaxVariables > 0 && p.NumVariables() > limits.MaxVariables {
		return xerrors.Derive(xerrors.ErrLPTooLarge,
			fmt.Sprintf("too many variables: %d exceeds the limit of %d", p.NumVariables(), limits.MaxVariables), nil)
	}
	if limits.MaxConstraints > 0 && p.NumConstraints() > limits.MaxConstraints {
		return xerrors.Derive(xerrors.ErrLPTooLarge,
			fmt.Sprintf("too many constraints: %d exceeds the limit of %d", p.NumConstraints(), limits.MaxConstraints), nil)
	}
	return nil
}

// cacheKey 由解析后的系数生成，书写方式不同但语义相同的输入共享同一条目。
func cacheKey(p *lp.Problem, maxIter int) string {
	h := sha256.New()
	write := func(row []float64) {
		for _, v := range row {
			h.Write(strconv.AppendFloat(nil, v, 'g', -1, 64))
			h.Write([]byte{','})
		}
		h.Write([]byte{';'})
	}
	h.Write([]byte(p.Direction.String()))
	h.Write([]byte(strconv.Itoa(maxIter)))
	write(p.Objective)
	for _, row := range p.Rows() {
		write(row)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func outcomeOf(err error) string {
	var (
		pe *lp.ParseError
		ee *lp.EmptyInputError
		ue *lp.UnboundedError
		le *lp.IterationLimitError
	)
	switch {
	case errors.As(err, &ue):
		return "unbounded"
	case errors.As(err, &pe):
		return "parse_error"
	case errors.As(err, &ee):
		return "empty_input"
	case errors.As(err, &le):
		return "iteration_limit"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
