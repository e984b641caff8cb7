package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
	"github.com/netbar/billing-system/internal/core/service"
	dbmongo "github.com/netbar/billing-system/internal/infrastructure/db/mongo"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage operator accounts",
	}
	cmd.AddCommand(adminCreateCmd())
	return cmd
}

func adminCreateCmd() *cobra.Command {
	var username, password, role string

	c := &cobra.Command{
		Use:   "create",
		Short: "Create an operator account (bootstraps the first superadmin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := ports.ContextWithActor(cmd.Context(), "cli")
			client, db, err := dbmongo.Connect(ctx, dbmongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			if err := dbmongo.EnsureIndexes(ctx, db); err != nil {
				return err
			}

			audit := service.NewAudit(dbmongo.NewLogRepository(db), log)
			auth := service.NewAuthService(dbmongo.NewAdminRepository(db), nil, nil, audit, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

			admin, err := auth.RegisterAdmin(ctx, username, password, role)
			if err != nil {
				return err
			}

			fmt.Printf("created %s %q (id %d)\n", admin.Role, admin.Username, admin.ID)
			return nil
		},
	}

	c.Flags().StringVarP(&username, "username", "u", "", "Operator username (required)")
	c.Flags().StringVarP(&password, "password", "p", "", "Operator password (required)")
	c.Flags().StringVarP(&role, "role", "r", domain.RoleSuperAdmin, "Role: admin or superadmin")

	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
