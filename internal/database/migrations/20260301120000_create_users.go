package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-api/internal/database"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*database.User)(nil)).
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*database.User)(nil)).
			IfExists().
			Exec(ctx)
		return err
	})
}
