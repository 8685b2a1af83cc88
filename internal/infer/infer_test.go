package infer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/resolve"
	"github.com/tordrt/erdschema/internal/schema"
)

type counterAllocator struct{ n int }

func (c *counterAllocator) EntityID() (string, error) {
	c.n++
	return fmt.Sprintf("rel-%d", c.n), nil
}

func TestEntity(t *testing.T) {
	tests := []struct {
		field  string
		entity string
		ok     bool
	}{
		{"user_id", "user", true},
		{"USER_ID", "user", true},
		{"UserId", "user", true},
		{"order_item_id", "order_item", true},
		{"address2_id", "address2", true},
		{"s3_bucket_id", "s3_bucket", true},
		{"oauth2_client_id", "oauth2_client", true},
		{"ADDRESS2_ID", "address2", true},
		{"id", "", false},
		{"_id", "", false},
		{"paid", "", false},
		{"user_ids", "", false},
		{"email", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			entity, ok := Entity(tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.entity, entity)
		})
	}
}

func TestMatchTable(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name   string
		field  string
		tables []string
		want   string
		ok     bool
	}{
		{"exact", "user_id", []string{"user", "users"}, "user", true},
		{"plural fallback", "user_id", []string{"orders", "users"}, "users", true},
		{"singular fallback", "users_id", []string{"user"}, "user", true},
		{"suffix fallback", "user_id", []string{"order_info", "user_info"}, "user_info", true},
		{"case-insensitive", "User_ID", []string{"Users"}, "Users", true},
		{"compound entity", "order_item_id", []string{"order_items"}, "order_items", true},
		{"digit in entity", "address2_id", []string{"address", "address2"}, "address2", true},
		{"digit then word", "s3_bucket_id", []string{"s3_buckets"}, "s3_buckets", true},
		{"no match", "vendor_id", []string{"user_info", "order_info"}, "", false},
		{"not an id field", "email", []string{"email"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchTable(tt.field, tt.tables, opts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchTableWithoutSuffixes(t *testing.T) {
	_, ok := MatchTable("user_id", []string{"user_info"}, Options{})
	assert.False(t, ok)
}

func TestTargetField(t *testing.T) {
	withPK := &document.Table{Fields: []document.Field{{ID: "a", Name: "code"}, {ID: "b", Name: "id", Primary: true}}}
	f, ok := TargetField(withPK)
	require.True(t, ok)
	assert.Equal(t, "b", f.ID)

	withoutPK := &document.Table{Fields: []document.Field{{ID: "a", Name: "code"}, {ID: "b", Name: "label"}}}
	f, ok = TargetField(withoutPK)
	require.True(t, ok)
	assert.Equal(t, "a", f.ID)

	_, ok = TargetField(&document.Table{})
	assert.False(t, ok)
}

func shopTables() []document.Table {
	return []document.Table{
		{
			ID:   "t-user",
			Name: "user_info",
			Fields: []document.Field{
				{ID: "f-user-id", Name: "id", Primary: true, Unique: true, NotNull: true, Increment: true},
				{ID: "f-user-email", Name: "email", Unique: true, NotNull: true},
			},
		},
		{
			ID:   "t-order",
			Name: "order_info",
			Fields: []document.Field{
				{ID: "f-order-id", Name: "id", Primary: true, Unique: true, NotNull: true, Increment: true},
				{ID: "f-order-user", Name: "user_id", NotNull: true},
				{ID: "f-order-vendor", Name: "vendor_id"},
			},
		},
		{
			ID:   "t-profile",
			Name: "profile",
			Fields: []document.Field{
				{ID: "f-profile-id", Name: "id", Primary: true},
				{ID: "f-profile-user", Name: "user_id", Unique: true},
			},
		},
	}
}

func TestRelationships(t *testing.T) {
	tables := shopTables()
	lookup, err := resolve.Build(tables)
	require.NoError(t, err)

	res, err := Relationships(tables, lookup, nil, &counterAllocator{}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Relationships, 2)

	order := res.Relationships[0]
	assert.Equal(t, "rel-1", order.ID)
	assert.Equal(t, "t-order", order.StartTableID)
	assert.Equal(t, "f-order-user", order.StartFieldID)
	assert.Equal(t, "t-user", order.EndTableID)
	assert.Equal(t, "f-user-id", order.EndFieldID)
	assert.Equal(t, schema.ManyToOne, order.Cardinality)
	assert.Equal(t, "fk_order_info_user_id_user_info", order.Name)
	assert.Equal(t, NoAction, order.UpdateConstraint)
	assert.True(t, order.Inferred)

	profile := res.Relationships[1]
	assert.Equal(t, "f-profile-user", profile.StartFieldID)
	assert.Equal(t, schema.OneToOne, profile.Cardinality, "unique source field makes one_to_one")

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, Skip{Table: "order_info", Field: "vendor_id", Reason: "no matching table"}, res.Skipped[0])
}

func TestRelationshipsSkipsExplicitEndpoints(t *testing.T) {
	tables := shopTables()
	lookup, err := resolve.Build(tables)
	require.NoError(t, err)

	explicit := []document.Relationship{{
		ID:           "explicit",
		StartTableID: "t-order",
		StartFieldID: "f-order-user",
		EndTableID:   "t-user",
		EndFieldID:   "f-user-email",
	}}

	res, err := Relationships(tables, lookup, explicit, &counterAllocator{}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Relationships, 1)
	assert.Equal(t, "f-profile-user", res.Relationships[0].StartFieldID)
}

func TestRelationshipsSkipsSelfReference(t *testing.T) {
	tables := []document.Table{{
		ID:     "t-user",
		Name:   "user",
		Fields: []document.Field{{ID: "f-user-id", Name: "user_id", Primary: true}},
	}}
	lookup, err := resolve.Build(tables)
	require.NoError(t, err)

	res, err := Relationships(tables, lookup, nil, &counterAllocator{}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Relationships)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "field references itself", res.Skipped[0].Reason)
}

func TestRelationshipsLinksWithinSameTable(t *testing.T) {
	tables := []document.Table{{
		ID:   "t-user",
		Name: "user",
		Fields: []document.Field{
			{ID: "f-id", Name: "id", Primary: true},
			{ID: "f-user-id", Name: "user_id"},
		},
	}}
	lookup, err := resolve.Build(tables)
	require.NoError(t, err)

	res, err := Relationships(tables, lookup, nil, &counterAllocator{}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Relationships, 1)
	assert.Equal(t, "f-user-id", res.Relationships[0].StartFieldID)
	assert.Equal(t, "f-id", res.Relationships[0].EndFieldID)
}
