package migrations

import (
	"context"
	"encoding/json"
	"fmt"

	"onboarding-service/internal/catalog"
	"onboarding-service/internal/domain"

	"github.com/uptrace/bun"
)

// The built-in catalogs are seeded once; rows edited later are left alone.
func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			builtin := catalog.Builtin()
			for _, p := range domain.Personas() {
				data, err := json.Marshal(builtin[p])
				if err != nil {
					return fmt.Errorf("marshal %s catalog: %w", p, err)
				}
				_, err = db.ExecContext(ctx,
					`INSERT INTO catalogs (persona, data) VALUES (?, ?::jsonb) ON CONFLICT (persona) DO NOTHING`,
					string(p), string(data))
				if err != nil {
					return fmt.Errorf("seed %s catalog: %w", p, err)
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DELETE FROM catalogs WHERE persona IN (?)`, bun.In([]string{
				string(domain.PersonaCreator), string(domain.PersonaEntrepreneur),
			}))
			return err
		},
	)
}
