package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/db"
)

// refLists maintains the uuid[] reference columns of one table
type refLists struct {
	db     db.Querier
	table  string
	fields map[models.ListField]bool
}

func (r refLists) column(field models.ListField) (string, error) {
	if !r.fields[field] {
		return "", fmt.Errorf("%s has no list field %q", r.table, field)
	}
	return string(field), nil
}

// add appends ref to the list of row id unless already present
func (r refLists) add(ctx context.Context, id uuid.UUID, field models.ListField, ref uuid.UUID) error {
	col, err := r.column(field)
	if err != nil {
		return err
	}

	sql, args, err := psql.Update(r.table).
		Set(col, squirrel.Expr("array_append("+col+", ?)", ref)).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("NOT (? = ANY("+col+"))", ref)).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append %s.%s: %w", r.table, col, err)
	}
	return nil
}

// pull removes refs from the list of every row in ids
func (r refLists) pull(ctx context.Context, ids []uuid.UUID, field models.ListField, refs []uuid.UUID) error {
	if len(ids) == 0 || len(refs) == 0 {
		return nil
	}
	col, err := r.column(field)
	if err != nil {
		return err
	}

	sql, args, err := psql.Update(r.table).
		Set(col, squirrel.Expr("ARRAY(SELECT x FROM unnest("+col+") AS x WHERE NOT (x = ANY(?::uuid[])))", refs)).
		Where(squirrel.Expr("id = ANY(?::uuid[])", ids)).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("pull %s.%s: %w", r.table, col, err)
	}
	return nil
}
