package xerrors

var (
	// ErrEmptyData 输入数据为空。
	ErrEmptyData = New(ErrInvalidArg, 400001, "empty data", "input data must not be empty", nil)
	// ErrInvalidInput 输入格式错误。
	ErrInvalidInput = New(ErrInvalidArg, 400002, "invalid input", "check your input parameters", nil)
	// ErrDimMismatchBounds 线性规划维度不匹配。
	ErrDimMismatchBounds = New(ErrInvalidArg, 400015, "dimension mismatch bounds", "constraints and objective function dimensions do not match", nil)
	// ErrLPParse 线性表达式解析失败。
	ErrLPParse = New(ErrInvalidArg, 400019, "invalid linear expression", "coefficients must be real numbers separated by + or -", nil)
	// ErrLPEmptyInput 目标函数或约束为空。
	ErrLPEmptyInput = New(ErrInvalidArg, 400020, "empty linear program", "objective and at least one constraint are required", nil)
	// ErrLPTooLarge 问题规模超出服务限制。
	ErrLPTooLarge = New(ErrInvalidArg, 400021, "linear program too large", "variables or constraints exceed the configured limit", nil)
	// ErrMathConvergence 数学计算未收敛。
	ErrMathConvergence = New(ErrInternal, 500002, "math convergence failed", "algorithm failed to converge", nil)
	// ErrUnboundedProblem 线性规划无界。
	ErrUnboundedProblem = New(ErrUnprocessable, 422001, "unbounded problem", "linear programming problem is unbounded", nil)
)
