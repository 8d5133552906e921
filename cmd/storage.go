package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-checkin/internal/config"
	"github.com/kozaktomas/face-checkin/internal/database"
	"github.com/kozaktomas/face-checkin/internal/database/mariadb"
	"github.com/kozaktomas/face-checkin/internal/database/postgres"
	"github.com/kozaktomas/face-checkin/internal/match"
)

// buildMatcher indexes the enrolled roster into an in-memory match index so
// frames carrying raw face encodings can be resolved to identities.
func buildMatcher(ctx context.Context, students database.StudentReader) (*match.Matcher, error) {
	roster, err := students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	enrollments := make([]match.Enrollment, 0, len(roster))
	for _, s := range roster {
		enrollments = append(enrollments, match.Enrollment{Identity: s.Identity(), Encoding: s.Encoding})
	}
	matcher := match.NewMatcher()
	matcher.Build(enrollments)
	return matcher, nil
}

// openStores opens the configured storage backend (PostgreSQL first,
// MariaDB as fallback) and runs migrations. The returned cleanup closes the
// connection pool.
func openStores(cfg *config.Config) (database.StudentWriter, database.AttendanceLedger, func(), error) {
	switch {
	case cfg.Database.URL != "":
		fmt.Printf("Connecting to PostgreSQL database...\n")
		pool, err := postgres.Initialize(&cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		return postgres.NewStudentRepository(pool),
			postgres.NewAttendanceRepository(pool),
			func() { _ = pool.Close() },
			nil

	case cfg.Database.MariaDBDSN != "":
		fmt.Printf("Connecting to MariaDB database...\n")
		pool, err := mariadb.NewPool(cfg.Database.MariaDBDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		if err := pool.Migrate(context.Background()); err != nil {
			_ = pool.Close()
			return nil, nil, nil, fmt.Errorf("failed to migrate MariaDB schema: %w", err)
		}
		return mariadb.NewStudentRepository(pool),
			mariadb.NewAttendanceRepository(pool),
			func() { _ = pool.Close() },
			nil

	default:
		return nil, nil, nil, errors.New("DATABASE_URL or MARIADB_DSN environment variable is required")
	}
}
