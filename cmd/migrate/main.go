package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/spartanofurioso/platform/internal/config"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/repository/postgres"
	"github.com/spartanofurioso/platform/internal/services"
	"github.com/spartanofurioso/platform/migrations"
)

func main() {
	adminEmail := flag.String("admin-email", os.Getenv("ADMIN_EMAIL"), "create or promote this admin account after migrating")
	adminPassword := flag.String("admin-password", os.Getenv("ADMIN_PASSWORD"), "password for -admin-email")
	adminName := flag.String("admin-name", "Administrator", "display name for -admin-email")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	fsys, err := migrations.FS(cfg.Database.Driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load migrations: %v\n", err)
		os.Exit(1)
	}

	applied, err := postgres.RunMigrations(db, fsys)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
	if applied == 0 {
		fmt.Println("Database is up to date")
	} else {
		fmt.Printf("Applied %d migration(s)\n", applied)
	}

	if *adminEmail == "" {
		return
	}
	if *adminPassword == "" {
		fmt.Fprintln(os.Stderr, "-admin-password is required with -admin-email")
		os.Exit(1)
	}

	log := logger.Nop()
	users := services.NewUserService(postgres.NewUserRepository(db), mailer.NewLogMailer(log), events.NewLogPublisher(log),
		services.UserServiceConfig{BCryptCost: cfg.Auth.BCryptCost, ResetTokenExpiry: cfg.Auth.ResetTokenExpiry, FrontendURL: cfg.Server.FrontendURL}, log)

	admin, err := users.EnsureAdmin(context.Background(), *adminEmail, *adminPassword, *adminName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ensure admin account: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Admin account ready: %s (id %d)\n", admin.Email, admin.ID)
}
