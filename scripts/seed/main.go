// Command seed loads candidates from an availability CSV export and creates
// the interview panel plus an admin user.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
	"github.com/noah-isme/interview-scheduler-api/internal/repository"
	"github.com/noah-isme/interview-scheduler-api/pkg/config"
	"github.com/noah-isme/interview-scheduler-api/pkg/database"
)

// The availability form exports one column per weekday; cells hold a
// comma-separated list of slot labels.
var dayColumns = map[string]string{
	"monday":    "Monday",
	"tuesday":   "Tuesday",
	"wednesday": "Wednesday",
	"thursday":  "Thursday",
	"friday":    "Friday",
}

func main() {
	var (
		csvPath       string
		adminEmail    string
		adminPassword string
		adminName     string
	)
	flag.StringVar(&csvPath, "candidates", "", "Path to candidate availability CSV")
	flag.StringVar(&adminEmail, "admin-email", os.Getenv("ADMIN_EMAIL"), "Admin user email")
	flag.StringVar(&adminPassword, "admin-password", os.Getenv("ADMIN_PASSWORD"), "Admin user password")
	flag.StringVar(&adminName, "admin-name", "Admin User", "Admin user full name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, db, adminEmail, adminPassword, adminName); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		log.Printf("admin user ready: %s", adminEmail)
	}

	if csvPath != "" {
		count, err := seedCandidates(ctx, repository.NewCandidateRepository(db), csvPath)
		if err != nil {
			log.Fatalf("seed candidates: %v", err)
		}
		log.Printf("seeded %d candidates", count)
	}
}

func seedAdmin(ctx context.Context, db *sqlx.DB, email, password, name string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	const query = `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, 'ADMIN', TRUE, now(), now())
ON CONFLICT (email) DO NOTHING`
	if _, err := db.ExecContext(ctx, query, email, string(hash), name); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func seedCandidates(ctx context.Context, repo *repository.CandidateRepository, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return 0, fmt.Errorf("csv has no data rows")
	}

	header := records[0]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normaliseHeader(name)] = i
	}

	count := 0
	for _, row := range records[1:] {
		candidate := models.Candidate{
			Name:         cell(row, columns, "name"),
			Email:        cell(row, columns, "email"),
			RollNumber:   cell(row, columns, "roll number"),
			Department:   cell(row, columns, "department"),
			Availability: parseAvailability(row, columns),
			Status:       models.CandidateStatusPending,
		}
		if candidate.Name == "" || candidate.Email == "" {
			continue
		}
		if err := repo.Create(ctx, &candidate); err != nil {
			log.Printf("skip %s: %v", candidate.Email, err)
			continue
		}
		count++
	}
	return count, nil
}

func parseAvailability(row []string, columns map[string]int) models.Availability {
	availability := make(models.Availability, len(dayColumns))
	for day, column := range dayColumns {
		raw := cell(row, columns, strings.ToLower(column))
		if raw == "" {
			availability[day] = []string{}
			continue
		}
		parts := strings.Split(raw, ",")
		slots := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				slots = append(slots, trimmed)
			}
		}
		availability[day] = slots
	}
	return availability
}

// normaliseHeader collapses the form's multi-line weekday headers to their
// first word.
func normaliseHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if idx := strings.IndexAny(name, "\n"); idx > 0 {
		name = strings.TrimSpace(name[:idx])
	}
	return name
}

func cell(row []string, columns map[string]int, key string) string {
	idx, ok := columns[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
