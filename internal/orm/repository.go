package orm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
)

// AuthorizeFunc narrows every query a repository builds, typically to rows
// owned by the caller.
type AuthorizeFunc[T any] func(ctx context.Context, query *Query[T]) *Query[T]

// Repository provides table access for a single model type.
type Repository[T any] struct {
	db                DBExecutor
	metadata          *ModelMetadata
	selectColumns     []string
	middlewareManager *middlewareManager
	authorizeFuncs    []AuthorizeFunc[T]
}

// NewRepository creates a repository over db using the given metadata.
func NewRepository[T any](db DBExecutor, metadata *ModelMetadata) (*Repository[T], error) {
	if metadata == nil || metadata.TableName == "" {
		return nil, ErrInvalidModel
	}
	if len(metadata.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, metadata.TableName)
	}

	return &Repository[T]{
		db:                db,
		metadata:          metadata,
		selectColumns:     metadata.DBColumns(),
		middlewareManager: newMiddlewareManager(),
	}, nil
}

// WithExecutor returns a copy bound to exec. Middleware and authorization
// are shared with the original.
func (r *Repository[T]) WithExecutor(exec DBExecutor) *Repository[T] {
	clone := *r
	clone.db = exec
	return &clone
}

// Authorize returns a copy whose queries are additionally narrowed by fn.
// The receiver is left unchanged.
func (r *Repository[T]) Authorize(fn AuthorizeFunc[T]) *Repository[T] {
	clone := *r
	clone.authorizeFuncs = make([]AuthorizeFunc[T], 0, len(r.authorizeFuncs)+1)
	clone.authorizeFuncs = append(clone.authorizeFuncs, r.authorizeFuncs...)
	clone.authorizeFuncs = append(clone.authorizeFuncs, fn)
	return &clone
}

func (r *Repository[T]) TableName() string {
	return r.metadata.TableName
}

func (r *Repository[T]) Metadata() *ModelMetadata {
	return r.metadata
}

func (r *Repository[T]) Executor() DBExecutor {
	return r.db
}

// Query starts a select over the table with authorization applied.
func (r *Repository[T]) Query(ctx context.Context) *Query[T] {
	q := &Query[T]{
		repo: r,
		builder: squirrel.Select(r.selectColumns...).
			From(r.metadata.TableName).
			PlaceholderFormat(squirrel.Dollar),
		ctx:         ctx,
		whereClause: squirrel.And{},
	}

	for _, authorize := range r.authorizeFuncs {
		q = authorize(ctx, q)
	}

	return q
}

// FindByID loads a single record by primary key.
func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	return r.Query(ctx).Where(r.primaryKeyEq(id)).First()
}

// Insert writes the given column values and returns the stored row.
// Columns left out of values take their database defaults.
func (r *Repository[T]) Insert(ctx context.Context, values map[string]interface{}) (*T, error) {
	if len(values) == 0 {
		return nil, &Error{Op: "insert", Table: r.metadata.TableName, Err: ErrNoUpdates}
	}

	columns := sortedKeys(values)
	args := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		if !r.metadata.HasColumn(column) {
			return nil, &Error{Op: "insert", Table: r.metadata.TableName, Column: column, Err: fmt.Errorf("unknown column")}
		}
		args = append(args, values[column])
	}

	builder := squirrel.Insert(r.metadata.TableName).
		Columns(columns...).
		Values(args...).
		Suffix("RETURNING " + strings.Join(r.selectColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar)

	var record T
	err := r.executeQueryMiddleware(OpCreate, ctx, values, builder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.InsertBuilder)

		sqlQuery, sqlArgs, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "insert",
				Table: r.metadata.TableName,
				Err:   fmt.Errorf("failed to build insert query: %w", err),
			}
		}

		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = sqlArgs

		if err := r.db.GetContext(middlewareCtx.Context, &record, sqlQuery, sqlArgs...); err != nil {
			return ParsePostgreSQLError(err, "insert", r.metadata.TableName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Delete removes a record by primary key. ErrNotFound is returned when no
// row matched.
func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	affected, err := r.Query(ctx).Where(r.primaryKeyEq(id)).Delete()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &Error{Op: "delete", Table: r.metadata.TableName, Err: ErrNotFound}
	}
	return nil
}

func (r *Repository[T]) primaryKeyEq(id interface{}) Condition {
	return Condition{squirrel.Eq{r.metadata.TableName + "." + r.metadata.PrimaryKeys[0]: id}}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
