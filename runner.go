package groqb

import (
	"context"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunOptions travel with one execution. Extra is handed to the executor and
// never read by the runner.
type RunOptions struct {
	Parameters map[string]any
	Extra      map[string]any
}

// Executor sends query text to a backend and returns the raw result.
type Executor func(ctx context.Context, query string, opts RunOptions) (any, error)

// Runner executes nodes and validates their results.
type Runner struct {
	exec   Executor
	logger *slog.Logger
}

// RunnerOption configures MakeRunner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for per-run debug records.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// MakeRunner binds exec to a Runner.
func MakeRunner(exec Executor, opts ...RunnerOption) *Runner {
	r := &Runner{exec: exec, logger: slog.Default()}
	for _, o := range opts {
		if o != nil {
			o(r)
		}
	}
	return r
}

// Run sends the node's query to the executor and parses the result with the
// node's parser, if any. Executor errors are returned unchanged; parse
// failures come back as *ValidationError. When several options are given the
// last wins.
func (r *Runner) Run(ctx context.Context, n *Node, opts ...RunOptions) (any, error) {
	var o RunOptions
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	if o.Parameters == nil {
		o.Parameters = map[string]any{}
	}
	log := r.logger.With("run_id", uuid.NewString())
	start := time.Now()
	log.DebugContext(ctx, "groqb: executing query", "query", n.query, "params", len(o.Parameters))

	raw, err := r.exec(ctx, n.query, o)
	if err != nil {
		log.DebugContext(ctx, "groqb: executor failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}
	if n.parser == nil {
		log.DebugContext(ctx, "groqb: query done", "validated", false, "elapsed", time.Since(start))
		return raw, nil
	}
	out, err := n.parser(ctx, raw)
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			log.DebugContext(ctx, "groqb: validation failed", "issues", ve.Len())
		}
		return nil, err
	}
	log.DebugContext(ctx, "groqb: query done", "validated", true, "elapsed", time.Since(start))
	return out, nil
}

// RunAll runs independent nodes concurrently. Results keep the order of
// nodes; the first error cancels the rest.
func (r *Runner) RunAll(ctx context.Context, nodes []*Node, opts ...RunOptions) ([]any, error) {
	out := make([]any, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	for i, n := range nodes {
		g.Go(func() error {
			v, err := r.Run(gctx, n, opts...)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RunAs runs n and decodes the validated result into T.
func RunAs[T any](ctx context.Context, r *Runner, n *Node, opts ...RunOptions) (T, error) {
	v, err := r.Run(ctx, n, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](v)
}

// Decode converts a parsed result into T, by assertion when possible and
// through a JSON round trip otherwise.
func Decode[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}
