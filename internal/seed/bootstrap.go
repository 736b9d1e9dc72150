package seed

import (
	"context"
	"fmt"
)

// Migrator prepares the persistence schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Initialize migrates the schema, when a migrator is given, and then seeds.
func Initialize(ctx context.Context, migrator Migrator, seeder *Seeder) (Report, error) {
	if migrator != nil {
		if err := migrator.Migrate(ctx); err != nil {
			return Report{}, fmt.Errorf("migrate: %w", err)
		}
	}
	return seeder.Run(ctx)
}
