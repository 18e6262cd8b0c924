package orm

import (
	"context"
	"time"

	"github.com/eleven-am/tasknest/internal/logger"
)

// OperationType represents different types of database operations
type OperationType string

const (
	OpCreate     OperationType = "create"
	OpUpdateMany OperationType = "update_many"
	OpDelete     OperationType = "delete"
	OpQuery      OperationType = "query"
)

// MiddlewareContext contains information passed to middleware
type MiddlewareContext struct {
	Operation    OperationType
	TableName    string
	Record       interface{}
	QueryBuilder interface{} // squirrel.SelectBuilder, squirrel.InsertBuilder, etc.
	Query        string
	Args         []interface{}
	StartTime    time.Time
	Context      context.Context
	Metadata     map[string]interface{}
}

// QueryMiddlewareFunc runs a query described by the context.
type QueryMiddlewareFunc func(ctx *MiddlewareContext) error

// QueryMiddleware wraps query execution. It may inspect or replace the
// query builder, or stop the operation by returning an error.
type QueryMiddleware func(next QueryMiddlewareFunc) QueryMiddlewareFunc

type middlewareManager struct {
	middleware []QueryMiddleware
}

func newMiddlewareManager() *middlewareManager {
	return &middlewareManager{
		middleware: make([]QueryMiddleware, 0),
	}
}

func (mm *middlewareManager) AddMiddleware(middleware QueryMiddleware) {
	mm.middleware = append(mm.middleware, middleware)
}

// ExecuteMiddleware runs the chain; the first added middleware is outermost.
func (mm *middlewareManager) ExecuteMiddleware(ctx *MiddlewareContext, finalFunc QueryMiddlewareFunc) error {
	handler := finalFunc

	for i := len(mm.middleware) - 1; i >= 0; i-- {
		handler = mm.middleware[i](handler)
	}

	return handler(ctx)
}

func (r *Repository[T]) executeQueryMiddleware(op OperationType, ctx context.Context, record interface{}, queryBuilder interface{}, finalFunc QueryMiddlewareFunc) error {
	middlewareCtx := &MiddlewareContext{
		Operation:    op,
		TableName:    r.metadata.TableName,
		Record:       record,
		QueryBuilder: queryBuilder,
		Context:      ctx,
		StartTime:    time.Now(),
		Metadata:     make(map[string]interface{}),
	}

	if r.middlewareManager == nil {
		return finalFunc(middlewareCtx)
	}

	return r.middlewareManager.ExecuteMiddleware(middlewareCtx, finalFunc)
}

// AddMiddleware registers middleware on the repository and every copy made
// from it with WithExecutor or Authorize.
func (r *Repository[T]) AddMiddleware(middleware QueryMiddleware) {
	if r.middlewareManager == nil {
		r.middlewareManager = newMiddlewareManager()
	}
	r.middlewareManager.AddMiddleware(middleware)
}

// LoggingMiddleware logs each statement with its duration at debug level
// and failures at warn level.
func LoggingMiddleware(log logger.Logger) QueryMiddleware {
	return func(next QueryMiddlewareFunc) QueryMiddlewareFunc {
		return func(ctx *MiddlewareContext) error {
			err := next(ctx)

			entry := log.WithFields(map[string]interface{}{
				"op":       string(ctx.Operation),
				"table":    ctx.TableName,
				"duration": time.Since(ctx.StartTime).String(),
			})
			if err != nil {
				entry.Warn("query failed", "query", ctx.Query, "error", err)
				return err
			}
			entry.Debug("query executed", "query", ctx.Query, "args", len(ctx.Args))
			return nil
		}
	}
}
