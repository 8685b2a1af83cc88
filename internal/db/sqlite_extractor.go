package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/erdschema/internal/schema"
)

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the database
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	var extractedTables []schema.Table
	var fks []foreignKey
	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extractedTables = append(extractedTables, *table)

		tableFKs, err := e.extractForeignKeys(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to extract foreign keys of %s: %w", tableName, err)
		}
		fks = append(fks, tableFKs...)
	}

	return buildSchema(extractedTables, fks), nil
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	fields, err := e.extractFields(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table not found")
	}
	table.Fields = fields

	indexes, err := e.extractIndexes(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

func (e *SQLiteExtractor) extractFields(ctx context.Context, tableName string) ([]schema.Field, error) {
	rows, err := e.client.GetDB().QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var fields []schema.Field
	pkCount := 0
	rowidAlias := -1

	for rows.Next() {
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		field := schema.Field{
			Name:    name,
			Type:    colType,
			NotNull: notNull == 1,
			Primary: pk > 0,
		}
		if defaultValue.Valid {
			field.Default = sqliteDefault(defaultValue.String)
		}

		if pk > 0 {
			pkCount++
			if strings.EqualFold(colType, "INTEGER") {
				rowidAlias = len(fields)
			}
		}

		fields = append(fields, field)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// a lone INTEGER PRIMARY KEY aliases the rowid and is assigned automatically
	if pkCount == 1 && rowidAlias >= 0 {
		fields[rowidAlias].Increment = true
	}

	return fields, nil
}

// sqliteDefault unquotes string literal defaults; expressions and numbers are kept as written
func sqliteDefault(value string) string {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}
	return value
}

// extractIndexes reads explicit indexes and multi-column unique constraints.
// Primary key indexes are skipped and single-column unique constraints become the field's unique flag.
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, table *schema.Table) ([]schema.Index, error) {
	rows, err := e.client.GetDB().QueryContext(ctx,
		`SELECT name, "unique", origin FROM pragma_index_list(?) ORDER BY name`, table.Name)
	if err != nil {
		return nil, err
	}

	type indexInfo struct {
		name   string
		unique bool
		origin string
	}
	var infos []indexInfo
	for rows.Next() {
		var info indexInfo
		var unique int
		if err := rows.Scan(&info.name, &unique, &info.origin); err != nil {
			_ = rows.Close()
			return nil, err
		}
		info.unique = unique == 1
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	var indexes []schema.Index
	for _, info := range infos {
		if info.origin == "pk" {
			continue
		}

		columns, err := e.indexColumns(ctx, info.name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			continue
		}

		idx := schema.Index{Name: info.name, Unique: info.unique, Fields: columns}
		if info.origin == "u" && len(columns) == 1 {
			markUnique(table, []schema.Index{idx})
			continue
		}
		if info.unique && len(columns) == 1 {
			markUnique(table, []schema.Index{idx})
		}
		indexes = append(indexes, idx)
	}

	return indexes, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.GetDB().QueryContext(ctx,
		`SELECT name FROM pragma_index_info(?) ORDER BY seqno`, indexName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var colName sql.NullString
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		// expression columns have no name
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}

func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, table *schema.Table) ([]foreignKey, error) {
	rows, err := e.client.GetDB().QueryContext(ctx,
		`SELECT id, "table", "from", "to", on_update, on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table.Name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var fks []foreignKey
	for rows.Next() {
		var id int
		var to sql.NullString
		fk := foreignKey{Table: table.Name}

		if err := rows.Scan(&id, &fk.TargetTable, &fk.Column, &to, &fk.OnUpdate, &fk.OnDelete); err != nil {
			return nil, err
		}
		fk.Name = fmt.Sprintf("fk_%s_%s_%s", table.Name, fk.Column, fk.TargetTable)
		fk.TargetColumn = to.String
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// REFERENCES t without a column list points at the target's primary key
	for i := range fks {
		if fks[i].TargetColumn == "" {
			fks[i].TargetColumn = e.primaryKeyColumn(ctx, fks[i].TargetTable)
		}
	}

	return fks, nil
}

func (e *SQLiteExtractor) primaryKeyColumn(ctx context.Context, tableName string) string {
	var name string
	err := e.client.GetDB().QueryRowContext(ctx,
		`SELECT name FROM pragma_table_info(?) WHERE pk = 1`, tableName).Scan(&name)
	if err != nil {
		return ""
	}
	return name
}
