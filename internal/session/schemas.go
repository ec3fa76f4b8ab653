package session

import (
	"github.com/thesheunit/storefront/internal/domain/admin"
	"github.com/thesheunit/storefront/internal/domain/user"
)

// Admin table schemas. Columns not listed here cannot be edited from the back office.
var (
	ProductSchema = admin.NewSchema(
		admin.Field{Column: "name", Type: admin.String, Rules: "required,max=255"},
		admin.Field{Column: "description", Type: admin.String, Rules: "max=5000"},
		admin.Field{Column: "category", Type: admin.String, Rules: "max=100"},
		admin.Field{Column: "price", Type: admin.Int, Rules: "gte=0"},
		admin.Field{Column: "quantity", Type: admin.Int, Rules: "gte=0"},
		admin.Field{Column: "is_active", Type: admin.Bool},
		admin.Field{Column: "is_featured", Type: admin.Bool},
	)

	OrderSchema = admin.NewSchema(
		admin.Field{Column: "status", Type: admin.String, Rules: "required,oneof=pending processing shipped delivered cancelled"},
		admin.Field{Column: "notes", Type: admin.String, Rules: "max=2000"},
	)

	CustomerSchema = admin.NewSchema(
		admin.Field{Column: "first_name", Type: admin.String, Rules: "required,max=100"},
		admin.Field{Column: "last_name", Type: admin.String, Rules: "max=100"},
		admin.Field{Column: "phone", Type: admin.String, Rules: "max=20"},
		admin.Field{Column: "is_active", Type: admin.Bool},
	)

	MessageSchema = admin.NewSchema(
		admin.Field{Column: "is_read", Type: admin.Bool},
	)

	// ProfileSchema validates a customer's own profile edits
	ProfileSchema = admin.NewSchema(
		admin.Field{Column: "first_name", Type: admin.String, Rules: "required,max=100"},
		admin.Field{Column: "last_name", Type: admin.String, Rules: "max=100"},
		admin.Field{Column: "phone", Type: admin.String, Rules: "max=20"},
	)
)

func profileFields(p user.Profile) map[string]any {
	return map[string]any{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"phone":      p.Phone,
	}
}
