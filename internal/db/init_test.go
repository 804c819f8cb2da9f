package db_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/habitxp/internal/db"
)

func TestInitPostgres_Unreachable(t *testing.T) {
	for _, dsn := range []string{"some=random", ""} {
		_, err := db.InitPostgres(dsn)
		if err == nil {
			t.Fatalf("InitPostgres(%q): expected error", dsn)
		}
		if !strings.Contains(err.Error(), "ping postgres") {
			t.Errorf("InitPostgres(%q) error = %q, want ping failure", dsn, err)
		}
	}
}

// The ledger relies on these constraints for duplicate detection and XP
// bounds, so the schema must keep declaring them.
func TestApplySchema_Constraints(t *testing.T) {
	cases := []struct {
		name  string
		table string
		decl  string
	}{
		{"one completion per habit and day", "completions", "UNIQUE (user_id, habit_id, date)"},
		{"one task name per day", "daily_tasks", "UNIQUE (user_id, name, task_date)"},
		{"habit xp bounds", "habits", "CHECK (xp_value >= 1 AND xp_value <= 100)"},
		{"goal xp bounds", "goals", "CHECK (xp_value >= 1 AND xp_value <= 1000)"},
		{"task xp bounds", "daily_tasks", "CHECK (xp_value >= 1 AND xp_value <= 200)"},
		{"user xp starts at zero", "users", "total_xp INTEGER NOT NULL DEFAULT 0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to open sqlmock database: %v", err)
			}
			defer conn.Close()

			pattern := regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS "+tc.table+" (") +
				`[^;]*` + regexp.QuoteMeta(tc.decl)
			mock.ExpectExec(pattern).WillReturnResult(sqlmock.NewResult(0, 0))

			if err := db.ApplySchema(conn); err != nil {
				t.Fatalf("schema does not declare %q on %s: %v", tc.decl, tc.table, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}
