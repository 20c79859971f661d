package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-api/internal/database"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().
				Model((*database.PasswordResetToken)(nil)).
				IfNotExists().
				ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
				Exec(ctx); err != nil {
				return err
			}

			_, err := tx.NewCreateIndex().
				Model((*database.PasswordResetToken)(nil)).
				Index("password_reset_tokens_expires_at_idx").
				Column("expires_at").
				IfNotExists().
				Exec(ctx)
			return err
		})
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*database.PasswordResetToken)(nil)).
			IfExists().
			Exec(ctx)
		return err
	})
}
