package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"corseg/internal/core/id"
	"corseg/internal/domain/comision"
	"corseg/internal/infrastructure/storage/postgres"
)

// lineaCols are the tier columns shared by every schedule child table.
var lineaCols = []string{
	"id", "renovacion", "tipo_comision_id", "kind", "monto",
	"re_renovacion", "re_cuota", "active",
}

// loadLineas reads the tiers of one owner row, ordered by renewal index.
func loadLineas(ctx context.Context, txm *postgres.TxManager, table, ownerCol string, ownerID id.ID) ([]comision.Linea, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(lineaCols...).
		From(table).
		Where(squirrel.Eq{ownerCol: ownerID}).
		OrderBy("renovacion ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lineas []comision.Linea
	if err := pgxscan.Select(ctx, txm.GetQuerier(ctx), &lineas, sql, args...); err != nil {
		return nil, fmt.Errorf("load lineas from %s: %w", table, err)
	}
	return lineas, nil
}

// saveLineas replaces the tiers of one owner row (delete existing + insert).
func saveLineas(ctx context.Context, txm *postgres.TxManager, table, ownerCol string, ownerID id.ID, lineas []comision.Linea) error {
	querier := txm.GetQuerier(ctx)

	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, ownerCol)
	if _, err := querier.Exec(ctx, deleteSQL, ownerID); err != nil {
		return fmt.Errorf("delete lineas from %s: %w", table, err)
	}

	if len(lineas) == 0 {
		return nil
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(table).
		Columns(append([]string{ownerCol}, lineaCols...)...)

	for _, l := range lineas {
		q = q.Values(
			ownerID, l.ID, l.Renovacion, l.TipoComisionID, l.Kind, l.Monto,
			l.ReRenovacion, l.ReCuota, l.Active,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lineas: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lineas into %s: %w", table, err)
	}
	return nil
}

// upsertRow inserts or replaces one child row keyed by id.
func upsertRow(ctx context.Context, txm *postgres.TxManager, table string, cols []string, entity any) error {
	data := postgres.StructToMap(entity)

	filtered := make(map[string]any, len(cols))
	for _, col := range cols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		if col == "id" {
			continue
		}
		updates = append(updates, col+" = EXCLUDED."+col)
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(table).
		SetMap(filtered).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", "))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}
