package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/budgeteer/internal/database/repository"
)

// DefaultCategoryName is the fallback bucket for transactions no rule
// claims and for rule-clear reversions.
const DefaultCategoryName = "Uncategorized"

// CategoryID derives the stable id for a category name. Seeding and config
// lookup both go through this so a name always maps to one row.
func CategoryID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("cat:"+strings.TrimSpace(name))).String()
}

// SeedDefaults ensures baseline categories exist for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)
	existing, err := catRepo.List(ctx)
	if err == nil && len(existing) > 0 {
		return nil
	}
	defaults := []string{
		DefaultCategoryName,
		"Income",
		"Food > Groceries",
		"Food > Restaurants",
		"Transport",
		"Shopping",
		"Utilities",
		"Subscriptions",
		"Savings",
		"Health",
		"Entertainment",
	}
	for idx, path := range defaults {
		parts := strings.Split(path, ">")
		var parentID *string
		for _, raw := range parts {
			name := strings.TrimSpace(raw)
			id := CategoryID(name)
			cat := repository.Category{ID: id, Name: name, ParentID: parentID, SortOrder: idx}
			if err := catRepo.Upsert(ctx, cat); err != nil {
				return err
			}
			parentID = &id
		}
	}
	return nil
}
