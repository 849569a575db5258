// Command clinicctl is the operator CLI: schema migration, staff accounts and
// queue inspection against the same database the server uses.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"clinic_queue/internal/config"
	"clinic_queue/internal/logger"
	"clinic_queue/internal/models"
	"clinic_queue/internal/queue"
	"clinic_queue/internal/storage"
	"clinic_queue/internal/ws"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// backends opens the stores a command needs. openRedis returns a nil client
// when Redis is not configured.
type backends struct {
	openDB    func() (*gorm.DB, error)
	openRedis func(ctx context.Context) (*redis.Client, error)
}

func main() {
	if err := newRootCmd(configBackends()).Execute(); err != nil {
		os.Exit(1)
	}
}

func configBackends() backends {
	var cfg *config.Config
	load := func() (*config.Config, error) {
		if cfg != nil {
			return cfg, nil
		}
		c, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = c
		return cfg, nil
	}
	return backends{
		openDB: func() (*gorm.DB, error) {
			c, err := load()
			if err != nil {
				return nil, err
			}
			return storage.ConnectDatabase(c, logger.New(c.LogLevel, true))
		},
		openRedis: func(ctx context.Context) (*redis.Client, error) {
			c, err := load()
			if err != nil {
				return nil, err
			}
			return storage.InitRedis(ctx, c)
		},
	}
}

func newRootCmd(b backends) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Clinic queue administration",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(migrateCmd(b.openDB))
	rootCmd.AddCommand(userCmd(b.openDB))
	rootCmd.AddCommand(queueCmd(b))
	return rootCmd
}

func migrateCmd(open func() (*gorm.DB, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			if err := storage.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func userCmd(open func() (*gorm.DB, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a clerk or doctor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")

			role = strings.ToUpper(role)
			if role != string(models.RoleClerk) && role != string(models.RoleDoctor) {
				return fmt.Errorf("role must be %s or %s", models.RoleClerk, models.RoleDoctor)
			}
			if len(password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}

			db, err := open()
			if err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user := models.User{
				Name:         name,
				Email:        strings.ToLower(strings.TrimSpace(email)),
				PasswordHash: string(hash),
				Role:         models.Role(role),
			}
			if err := db.WithContext(cmd.Context()).Create(&user).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("password", "", "Initial password")
	createCmd.Flags().String("role", string(models.RoleClerk), "CLERK or DOCTOR")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")
	cmd.AddCommand(createCmd)

	return cmd
}

func queueCmd(b backends) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect or drive the active queue",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active queue in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := b.openDB()
			if err != nil {
				return err
			}
			svc := queue.NewService(db, nil)
			id, err := svc.GetOrCreateActiveQueue(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := svc.ListEntries(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "queue %d: %d entries\n", id, len(entries))
			for _, e := range entries {
				fmt.Fprintf(out, "%3d  %-11s  %s (patient %d)\n", e.Position, e.Status, e.Patient.Name, e.PatientID)
			}
			return nil
		},
	}
	cmd.AddCommand(showCmd)

	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Advance the active queue, same as the doctor's Next button",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := b.openDB()
			if err != nil {
				return err
			}
			rdb, err := b.openRedis(cmd.Context())
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}

			svc := queue.NewService(db, nil)
			id, err := svc.GetOrCreateActiveQueue(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Advance(cmd.Context(), id)
			if err != nil {
				return err
			}

			// Without Redis no server process can hear us; consoles catch up on their next fetch.
			if rdb != nil {
				ev := ws.NewEvent(ws.EventPatientAdvanced, id, result)
				if err := ws.NewRedisPublisher(rdb).Publish(cmd.Context(), ev); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: queue event not published: %v\n", err)
				}
			}
			if result.PatientID == nil {
				fmt.Fprintln(cmd.OutOrStdout(), result.Message)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: patient %d\n", result.Message, *result.PatientID)
			return nil
		},
	}
	cmd.AddCommand(nextCmd)

	return cmd
}
