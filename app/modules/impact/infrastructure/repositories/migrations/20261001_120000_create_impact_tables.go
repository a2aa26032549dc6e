package impactmigrations

import (
	"context"
	"fmt"

	impactdb "github.com/terrapulse/impact-service/app/modules/impact/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating activities, user_stats, user_badges and profiles tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			models := []any{
				(*impactdb.Activity)(nil),
				(*impactdb.UserStats)(nil),
				(*impactdb.UserBadge)(nil),
				(*impactdb.Profile)(nil),
			}
			for _, model := range models {
				if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table for %T: %w", model, err)
				}
			}

			if _, err := tx.ExecContext(ctx, `
				ALTER TABLE activities
					ADD CONSTRAINT activities_quantity_positive CHECK (quantity >= 1),
					ADD CONSTRAINT activities_points_frozen CHECK (points_earned = quantity * 10);
				CREATE INDEX IF NOT EXISTS idx_activities_user_created ON activities (user_id, created_at DESC);
				CREATE INDEX IF NOT EXISTS idx_user_badges_user_unlocked ON user_badges (user_id, unlocked_at DESC);
				CREATE INDEX IF NOT EXISTS idx_user_stats_total_points ON user_stats (total_points DESC);
			`); err != nil {
				return fmt.Errorf("failed to add impact constraints and indexes: %w", err)
			}

			fmt.Println("Impact tables created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping impact tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS user_badges;
				DROP TABLE IF EXISTS user_stats;
				DROP TABLE IF EXISTS activities;
				DROP TABLE IF EXISTS profiles;
			`); err != nil {
				return fmt.Errorf("failed to drop impact tables: %w", err)
			}
			fmt.Println("Impact tables dropped successfully!")
			return nil
		})
	})
}
