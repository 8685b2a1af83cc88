package formatter

import (
	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/schema"
)

func sampleDocument() *document.Document {
	return &document.Document{
		Title:    "shop",
		Database: "generic",
		Tables: []document.Table{
			{
				ID:      "tUsers",
				Name:    "users",
				Comment: "registered users",
				Color:   "#175e7a",
				Fields: []document.Field{
					{ID: "fUserID", Name: "id", Type: "INT", Primary: true, Increment: true, NotNull: true},
					{ID: "fEmail", Name: "email", Type: "VARCHAR(100)", Unique: true},
				},
				Indexes: []document.Index{{ID: 0, Fields: []string{"email"}, Name: "idx_email", Unique: true}},
				X:       50,
				Y:       50,
			},
			{
				ID:    "tOrders",
				Name:  "order items",
				Color: "#7c4af0",
				Fields: []document.Field{
					{ID: "fOrderID", Name: "id", Type: "INT", Primary: true},
					{ID: "fOrderUser", Name: "user_id", Type: "INT", NotNull: true},
					{ID: "fStatus", Name: "status", Type: "TINYINT", Default: "0", Comment: "it's pending"},
					{ID: "fCreated", Name: "created_at", Type: "TIMESTAMP", Default: "now()"},
				},
				X: 500,
				Y: 50,
			},
		},
		Relationships: []document.Relationship{
			{
				ID:               "rOrderUser",
				Name:             "fk_orders",
				StartTableID:     "tOrders",
				StartFieldID:     "fOrderUser",
				EndTableID:       "tUsers",
				EndFieldID:       "fUserID",
				UpdateConstraint: "No action",
				DeleteConstraint: "Cascade",
				Cardinality:      schema.ManyToOne,
			},
		},
	}
}
