package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

var schemas = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS clients (
			id BIGSERIAL PRIMARY KEY,
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			phone_number VARCHAR(20) NOT NULL UNIQUE,
			survey_id VARCHAR(50),
			survey_link TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'Pending',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_status ON clients (status)`,
		`CREATE TABLE IF NOT EXISTS survey_responses (
			id BIGSERIAL PRIMARY KEY,
			phone_number VARCHAR(20) NOT NULL,
			question_id VARCHAR(50) NOT NULL,
			question_text TEXT NOT NULL,
			answer TEXT NOT NULL,
			received_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_survey_responses_phone ON survey_responses (phone_number)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS clients (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			phone_number VARCHAR(20) NOT NULL,
			survey_id VARCHAR(50),
			survey_link TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'Pending',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE INDEX idx_clients_phone (phone_number),
			INDEX idx_clients_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS survey_responses (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			phone_number VARCHAR(20) NOT NULL,
			question_id VARCHAR(50) NOT NULL,
			question_text TEXT NOT NULL,
			answer TEXT NOT NULL,
			received_at DATETIME NOT NULL,
			INDEX idx_survey_responses_phone (phone_number)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			last_name TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL UNIQUE,
			survey_id TEXT,
			survey_link TEXT,
			status TEXT NOT NULL DEFAULT 'Pending',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_status ON clients (status)`,
		`CREATE TABLE IF NOT EXISTS survey_responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			phone_number TEXT NOT NULL,
			question_id TEXT NOT NULL,
			question_text TEXT NOT NULL,
			answer TEXT NOT NULL,
			received_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_survey_responses_phone ON survey_responses (phone_number)`,
	},
}

func RunMigrations(db *sqlx.DB) error {
	statements, ok := schemas[db.DriverName()]
	if !ok {
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logger.Infof("Database migrations completed")

	return nil
}

// SeedTestData inserts demo clients into an empty clients table.
func SeedTestData(db *sqlx.DB) error {
	var count int

	if err := db.Get(&count, "SELECT COUNT(*) FROM clients"); err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d clients, skipping seed", count)
		return nil
	}

	testClients := []struct {
		lastName    string
		firstName   string
		phoneNumber string
		surveyID    string
		surveyLink  string
	}{
		{"Benali", "Amina", "212612345678", "1", "https://survey.example.com/s/1?c=212612345678"},
		{"El Idrissi", "Youssef", "212661112233", "1", "https://survey.example.com/s/1?c=212661112233"},
		{"Tazi", "Salma", "212670445566", "2", "https://survey.example.com/s/2?c=212670445566"},
		{"Alaoui", "Karim", "212655778899", "2", "https://survey.example.com/s/2?c=212655778899"},
		{"Chraibi", "Nadia", "212699001122", "1", "https://survey.example.com/s/1?c=212699001122"},
	}

	insert := db.Rebind(
		"INSERT INTO clients (last_name, first_name, phone_number, survey_id, survey_link, status) VALUES (?, ?, ?, ?, ?, 'Pending')",
	)

	for _, c := range testClients {
		if _, err := db.Exec(insert, c.lastName, c.firstName, c.phoneNumber, c.surveyID, c.surveyLink); err != nil {
			return fmt.Errorf("failed to seed test data: %w", err)
		}
	}

	logger.Infof("Seeded %d test clients", len(testClients))
	return nil
}
