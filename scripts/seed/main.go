package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/internal/service"
	"github.com/clockwise-hq/timetrack-api/pkg/config"
	"github.com/clockwise-hq/timetrack-api/pkg/database"
)

// Seeds a development database with an admin account, reference data,
// and an initial pay period schedule. Safe to run repeatedly.
func main() {
	var (
		adminEmail    string
		adminPassword string
		scheduleStart string
		scheduleWeeks int
	)

	flag.StringVar(&adminEmail, "admin-email", "admin@timetrack.local", "Admin account email")
	flag.StringVar(&adminPassword, "admin-password", "changeme123", "Admin account password")
	flag.StringVar(&scheduleStart, "schedule-start", "", "Group A anchor date (YYYY-MM-DD), empty skips schedule seeding")
	flag.IntVar(&scheduleWeeks, "schedule-weeks", 8, "Weeks of pay periods to generate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedAdmin(ctx, db, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if err := seedLookups(ctx, db); err != nil {
		log.Fatalf("failed to seed lookups: %v", err)
	}
	if scheduleStart != "" {
		if err := seedSchedule(ctx, db, scheduleStart, scheduleWeeks); err != nil {
			log.Fatalf("failed to seed pay periods: %v", err)
		}
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, db *sqlx.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	const query = `
		INSERT INTO employees (id, email, password_hash, first_name, last_name, hire_date, pay_group, is_manager, is_admin, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, 'System', 'Admin', $4, 'A', TRUE, TRUE, TRUE, $4, $4)
		ON CONFLICT (email) DO NOTHING`
	if _, err := db.ExecContext(ctx, query, uuid.NewString(), email, string(hash), now); err != nil {
		return err
	}

	log.Printf("admin account ready: %s", email)
	return nil
}

func seedLookups(ctx context.Context, db *sqlx.DB) error {
	now := time.Now().UTC()

	clients := []models.Client{
		{Name: "Acme Corp", Code: "ACME"},
		{Name: "Globex", Code: "GLBX"},
		{Name: "Initech", Code: "INTC"},
	}
	for _, c := range clients {
		const query = `
			INSERT INTO clients (id, name, code, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, $4, $4)
			ON CONFLICT (code) DO NOTHING`
		if _, err := db.ExecContext(ctx, query, uuid.NewString(), c.Name, c.Code, now); err != nil {
			return err
		}
	}

	locations := []string{"Headquarters", "Remote", "Client Site"}
	for _, name := range locations {
		const query = `
			INSERT INTO locations (id, name, is_active, created_at, updated_at)
			SELECT $1, $2, TRUE, $3, $3
			WHERE NOT EXISTS (SELECT 1 FROM locations WHERE name = $2)`
		if _, err := db.ExecContext(ctx, query, uuid.NewString(), name, now); err != nil {
			return err
		}
	}

	jobCodes := []models.JobCode{
		{Code: "DEV", Description: "Software development"},
		{Code: "OPS", Description: "Operations and support"},
		{Code: "ADM", Description: "Administrative work"},
	}
	for _, jc := range jobCodes {
		const query = `
			INSERT INTO job_codes (id, code, description, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, $4, $4)
			ON CONFLICT (code) DO NOTHING`
		if _, err := db.ExecContext(ctx, query, uuid.NewString(), jc.Code, jc.Description, now); err != nil {
			return err
		}
	}

	serviceTypes := []string{"Billable", "Internal", "Training"}
	for _, name := range serviceTypes {
		const query = `
			INSERT INTO service_types (id, name, is_active, created_at, updated_at)
			SELECT $1, $2, TRUE, $3, $3
			WHERE NOT EXISTS (SELECT 1 FROM service_types WHERE name = $2)`
		if _, err := db.ExecContext(ctx, query, uuid.NewString(), name, now); err != nil {
			return err
		}
	}

	log.Println("reference data ready")
	return nil
}

func seedSchedule(ctx context.Context, db *sqlx.DB, start string, weeks int) error {
	anchor, err := time.Parse("2006-01-02", start)
	if err != nil {
		return err
	}

	periods, err := service.BuildSchedule(anchor, weeks)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, p := range periods {
		const query = `
			INSERT INTO pay_periods (id, pay_group, start_date, end_date, status, created_at, updated_at)
			SELECT $1, $2, $3, $4, 'open', $5, $5
			WHERE NOT EXISTS (
				SELECT 1 FROM pay_periods
				WHERE pay_group = $2 AND start_date <= $4 AND end_date >= $3
			)`
		if _, err := db.ExecContext(ctx, query, uuid.NewString(), p.PayGroup, p.StartDate, p.EndDate, now); err != nil {
			return err
		}
	}

	log.Printf("pay period schedule ready: %d candidate periods", len(periods))
	return nil
}
