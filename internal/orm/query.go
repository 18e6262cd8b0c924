package orm

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Query provides a fluent interface for building database queries
type Query[T any] struct {
	repo    *Repository[T]
	builder squirrel.SelectBuilder
	ctx     context.Context

	limit       *uint64
	orderBy     []string
	whereClause squirrel.And
	lock        string
}

// Where adds a type-safe condition
func (q *Query[T]) Where(condition Condition) *Query[T] {
	q.whereClause = append(q.whereClause, condition.ToSqlizer())
	return q
}

// OrderBy adds an ORDER BY clause
func (q *Query[T]) OrderBy(expressions ...string) *Query[T] {
	q.orderBy = append(q.orderBy, expressions...)
	return q
}

// Limit sets the LIMIT clause
func (q *Query[T]) Limit(limit uint64) *Query[T] {
	q.limit = &limit
	return q
}

// ForUpdate locks selected rows until the surrounding transaction ends.
// With skipLocked, rows held by another transaction are left out.
func (q *Query[T]) ForUpdate(skipLocked bool) *Query[T] {
	q.lock = "FOR UPDATE"
	if skipLocked {
		q.lock += " SKIP LOCKED"
	}
	return q
}

func (q *Query[T]) buildSelect() squirrel.SelectBuilder {
	builder := q.builder

	if len(q.whereClause) > 0 {
		builder = builder.Where(q.whereClause)
	}

	if len(q.orderBy) > 0 {
		builder = builder.OrderBy(q.orderBy...)
	}

	if q.limit != nil {
		builder = builder.Limit(*q.limit)
	}

	if q.lock != "" {
		builder = builder.Suffix(q.lock)
	}

	return builder
}

// Find executes the query and returns all matching records
func (q *Query[T]) Find() ([]T, error) {
	records := make([]T, 0)
	table := q.repo.metadata.TableName

	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, q.buildSelect(), func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "find",
				Table: table,
				Err:   fmt.Errorf("failed to build query: %w", err),
			}
		}

		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		if err := q.repo.db.SelectContext(middlewareCtx.Context, &records, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "find", table)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// First executes the query and returns the first matching record
func (q *Query[T]) First() (*T, error) {
	q.Limit(1)
	records, err := q.Find()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &Error{
			Op:    "first",
			Table: q.repo.metadata.TableName,
			Err:   ErrNotFound,
		}
	}

	return &records[0], nil
}

// Count returns the number of records matching the query
func (q *Query[T]) Count() (int64, error) {
	table := q.repo.metadata.TableName
	countBuilder := squirrel.Select("COUNT(*)").
		From(table).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		countBuilder = countBuilder.Where(q.whereClause)
	}

	var count int64
	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, countBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "count",
				Table: table,
				Err:   fmt.Errorf("failed to build count query: %w", err),
			}
		}

		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		if err := q.repo.db.GetContext(middlewareCtx.Context, &count, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "count", table)
		}
		return nil
	})

	return count, err
}

// Exists checks if any records match the query
func (q *Query[T]) Exists() (bool, error) {
	count, err := q.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete deletes all records matching the query
func (q *Query[T]) Delete() (int64, error) {
	table := q.repo.metadata.TableName
	deleteBuilder := squirrel.Delete(table).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		deleteBuilder = deleteBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpDelete, q.ctx, nil, deleteBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.DeleteBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "delete",
				Table: table,
				Err:   fmt.Errorf("failed to build delete query: %w", err),
			}
		}

		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		result, err := q.repo.db.ExecContext(middlewareCtx.Context, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", table)
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return &Error{
				Op:    "delete",
				Table: table,
				Err:   fmt.Errorf("failed to get rows affected: %w", err),
			}
		}
		return nil
	})

	return rowsAffected, err
}

// Update sets the given columns on every matching record. Columns are
// applied in name order so the generated statement is stable.
func (q *Query[T]) Update(updates map[string]interface{}) (int64, error) {
	table := q.repo.metadata.TableName
	if len(updates) == 0 {
		return 0, &Error{Op: "update", Table: table, Err: ErrNoUpdates}
	}

	updateBuilder := squirrel.Update(table).
		PlaceholderFormat(squirrel.Dollar)

	for _, column := range sortedKeys(updates) {
		if !q.repo.metadata.HasColumn(column) {
			return 0, &Error{Op: "update", Table: table, Column: column, Err: fmt.Errorf("unknown column")}
		}
		updateBuilder = updateBuilder.Set(column, updates[column])
	}

	if len(q.whereClause) > 0 {
		updateBuilder = updateBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpUpdateMany, q.ctx, updates, updateBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.UpdateBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "update",
				Table: table,
				Err:   fmt.Errorf("failed to build update query: %w", err),
			}
		}

		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		result, err := q.repo.db.ExecContext(middlewareCtx.Context, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "update", table)
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return &Error{
				Op:    "update",
				Table: table,
				Err:   fmt.Errorf("failed to get rows affected: %w", err),
			}
		}
		return nil
	})

	return rowsAffected, err
}
