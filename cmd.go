package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FieldOps/Alerts"
	"FieldOps/Config"
	"FieldOps/CronJobs"
	"FieldOps/FiberConfig"
	"FieldOps/Models"
	"FieldOps/Slack"
	"FieldOps/email"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global flags
	configFile string

	cfg *Config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fieldops",
	Short: "FieldOps - field operations backend",
	Long: `FieldOps tracks clients, field events, work requests, valve follow-ups,
daily shifts and time against budget for a field monitoring crew.

Run without arguments to start the API server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = Config.Load(viper.New(), configFile)
		return err
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the follow-up digest scheduler",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Models.Connect(cfg.Database.Driver, cfg.Database.DSN); err != nil {
			return err
		}
		fmt.Println("Database migrated")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Insert lookup rows and first logins",
	Long: `Seeds lookup tables (regulations, monitoring frequencies, database types,
programs, work types, TVA units) and profiles from a JSON5 file.
Without a file the built-in work types are seeded. Existing rows are kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data := Models.DefaultSeed
		if len(args) == 1 {
			var err error
			if data, err = Models.LoadSeedFile(args[0]); err != nil {
				return err
			}
		}
		if err := Models.Connect(cfg.Database.Driver, cfg.Database.DSN); err != nil {
			return err
		}
		if err := Models.Seed(Models.DB, data); err != nil {
			return err
		}
		fmt.Println("Seed complete")
		return nil
	},
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send the overdue follow-up digest once",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Models.Connect(cfg.Database.Driver, cfg.Database.DSN); err != nil {
			return err
		}
		job := CronJobs.NewFollowupDigest(Models.DB, notifiers(cmd.Context())...)
		digest, err := job.RunNow(cmd.Context())
		fmt.Print(digest.Text())
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, digestCmd)
}

// notifiers builds every digest channel the config enables.
func notifiers(ctx context.Context) []Alerts.Notifier {
	var list []Alerts.Notifier
	if cfg.SlackEnabled() {
		list = append(list, Slack.NewNotifier(cfg.Slack.Token, cfg.Slack.Channel))
	}
	if cfg.SMTPEnabled() {
		list = append(list, email.NewNotifier(email.ConfigFrom(cfg.SMTP), cfg.SMTP.To))
	}
	if cfg.FirebaseEnabled() {
		fcm, err := Alerts.NewFirebaseNotifier(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Printf("Firebase disabled: %v", err)
		} else {
			list = append(list, fcm)
		}
	}
	if len(list) == 0 {
		log.Println("No digest notifiers configured")
	}
	return list
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (set FIELDOPS_AUTH_JWT_SECRET)")
	}
	if err := Models.Connect(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Digest.Enabled {
		digest := CronJobs.NewFollowupDigest(Models.DB, notifiers(ctx)...)
		if err := digest.Start(cfg.Digest.Schedule); err != nil {
			return err
		}
		defer digest.Stop()
	}

	return FiberConfig.FiberConfig(ctx, Models.DB, cfg)
}
