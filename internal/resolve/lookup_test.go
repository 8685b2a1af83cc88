package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/errors"
)

func sampleTables() []document.Table {
	return []document.Table{
		{
			ID:   "t-users",
			Name: "users",
			Fields: []document.Field{
				{ID: "f-users-id", Name: "id"},
				{ID: "f-users-email", Name: "email"},
			},
		},
		{
			ID:   "t-orders",
			Name: "orders",
			Fields: []document.Field{
				{ID: "f-orders-id", Name: "id"},
				{ID: "f-orders-user", Name: "user_id"},
			},
		},
	}
}

func TestBuildAndLookup(t *testing.T) {
	l, err := Build(sampleTables())
	require.NoError(t, err)

	ref, ok := l.Table("orders")
	require.True(t, ok)
	assert.Equal(t, "t-orders", ref.ID)
	assert.Equal(t, 1, ref.Position)
	assert.True(t, ref.HasField("user_id"))
	assert.False(t, ref.HasField("email"))

	tableID, fieldID, ok := l.Field("users", "email")
	require.True(t, ok)
	assert.Equal(t, "t-users", tableID)
	assert.Equal(t, "f-users-email", fieldID)

	_, _, ok = l.Field("users", "missing")
	assert.False(t, ok)
	_, _, ok = l.Field("missing", "id")
	assert.False(t, ok)
	_, ok = l.Table("Users")
	assert.False(t, ok, "table names are case-sensitive")

	assert.Equal(t, []string{"users", "orders"}, l.TableNames())
}

func TestBuildDuplicateTable(t *testing.T) {
	tables := sampleTables()
	tables[1].Name = "users"

	_, err := Build(tables)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDuplicateName))
	assert.Contains(t, err.Error(), `table name "users"`)
}

func TestBuildDuplicateField(t *testing.T) {
	tables := sampleTables()
	tables[0].Fields[1].Name = "id"

	_, err := Build(tables)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDuplicateName))
	assert.Contains(t, err.Error(), `field name "id" in table "users"`)
}

func TestBuildSameFieldNameAcrossTables(t *testing.T) {
	_, err := Build(sampleTables())
	assert.NoError(t, err, "id repeats across tables, which is allowed")
}
