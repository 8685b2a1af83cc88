package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/erdschema/internal/schema"
)

const varcharType = "varchar"

// PostgresExtractor handles schema extraction from PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates a new schema extractor for one PostgreSQL schema
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the schema
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
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

		tableFKs, err := e.extractForeignKeys(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract foreign keys of %s: %w", tableName, err)
		}
		fks = append(fks, tableFKs...)
	}

	return buildSchema(extractedTables, fks), nil
}

// getTableNames returns the list of tables to extract
func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	comment, err := e.extractTableComment(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract table comment: %w", err)
	}
	table.Comment = comment

	fields, err := e.extractFields(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Fields = fields

	pk, err := e.extractPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	markPrimary(table, pk)

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	markUnique(table, indexes)
	table.Indexes = indexes

	return table, nil
}

func (e *PostgresExtractor) extractTableComment(ctx context.Context, tableName string) (string, error) {
	query := `
		SELECT obj_description(cl.oid, 'pg_class')
		FROM pg_catalog.pg_class cl
		JOIN pg_catalog.pg_namespace ns ON ns.oid = cl.relnamespace
		WHERE ns.nspname = $1 AND cl.relname = $2
	`

	var comment *string
	if err := e.client.GetConnection().QueryRow(ctx, query, e.schema, tableName).Scan(&comment); err != nil {
		return "", err
	}
	if comment == nil {
		return "", nil
	}
	return *comment, nil
}

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents,
// keeping length and precision parameters in the type text
func normalizePostgresType(dataType, udtName string, charMaxLength, numericPrecision, numericScale *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "numeric":
		if numericPrecision != nil && numericScale != nil {
			return fmt.Sprintf("numeric(%d,%d)", *numericPrecision, *numericScale)
		}
		return "numeric"
	case "ARRAY":
		// array udt names carry a leading underscore, e.g. _int4 for integer[]
		if len(udtName) > 0 && udtName[0] == '_' {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case varcharType:
		return varcharType
	default:
		return udtName
	}
}

// postgresDefault strips the type cast PostgreSQL appends to literal defaults, e.g. 'new'::text
func postgresDefault(value string) string {
	if i := strings.LastIndex(value, "::"); i > 0 && !strings.Contains(value[i:], ")") {
		value = value[:i]
	}
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		value = strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}
	return value
}

func (e *PostgresExtractor) extractFields(ctx context.Context, tableName string) ([]schema.Field, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.is_identity,
			c.udt_name,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			(
				SELECT d.description
				FROM pg_catalog.pg_class cl
				JOIN pg_catalog.pg_namespace ns ON ns.oid = cl.relnamespace
				JOIN pg_catalog.pg_attribute a ON a.attrelid = cl.oid AND a.attname = c.column_name
				JOIN pg_catalog.pg_description d ON d.objoid = cl.oid AND d.objsubid = a.attnum
				WHERE ns.nspname = $1 AND cl.relname = $2
			) AS column_comment
		FROM information_schema.columns c
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []schema.Field
	var enumTypes []string
	enumFields := make(map[int]string)

	for rows.Next() {
		var field schema.Field
		var nullable, dataType, isIdentity, udtName string
		var defaultVal, comment *string
		var charMaxLength, numericPrecision, numericScale *int

		if err := rows.Scan(&field.Name, &dataType, &nullable, &defaultVal, &isIdentity, &udtName,
			&charMaxLength, &numericPrecision, &numericScale, &comment); err != nil {
			return nil, err
		}

		field.Type = normalizePostgresType(dataType, udtName, charMaxLength, numericPrecision, numericScale)
		field.NotNull = nullable == "NO"
		field.Increment = isIdentity == "YES"
		if defaultVal != nil {
			if strings.HasPrefix(*defaultVal, "nextval(") {
				field.Increment = true
			} else {
				field.Default = postgresDefault(*defaultVal)
			}
		}
		if comment != nil {
			field.Comment = *comment
		}

		if dataType == "USER-DEFINED" {
			enumTypes = append(enumTypes, udtName)
			enumFields[len(fields)] = udtName
		}

		fields = append(fields, field)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(enumTypes) > 0 {
		enumValuesMap, err := e.extractEnumValuesMap(ctx, enumTypes)
		if err != nil {
			return nil, err
		}
		for i, typeName := range enumFields {
			fields[i].Comment = enumComment(fields[i].Comment, enumValuesMap[typeName])
		}
	}

	return fields, nil
}

// extractEnumValuesMap extracts enum values for multiple enum types at once
func (e *PostgresExtractor) extractEnumValuesMap(ctx context.Context, enumTypeNames []string) (map[string][]string, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1 AND t.typname = ANY($2)
		ORDER BY t.typname, e.enumsortorder
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, enumTypeNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var typName, enumLabel string
		if err := rows.Scan(&typName, &enumLabel); err != nil {
			return nil, err
		}
		result[typName] = append(result[typName], enumLabel)
	}

	return result, rows.Err()
}

func (e *PostgresExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = $1
			AND table_name = $2
			AND constraint_name IN (
				SELECT constraint_name
				FROM information_schema.table_constraints
				WHERE table_schema = $1
					AND table_name = $2
					AND constraint_type = 'PRIMARY KEY'
			)
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk = append(pk, colName)
	}

	return pk, rows.Err()
}

func (e *PostgresExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKey
	for rows.Next() {
		fk := foreignKey{Table: tableName}
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.TargetTable, &fk.TargetColumn, &fk.OnUpdate, &fk.OnDelete); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// extractIndexes reads every index except the primary key, columns in key order
func (e *PostgresExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		if err := rows.Scan(&idx.Name, &idx.Unique, &idx.Fields); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}
