package migration

import (
	"database/sql"
	"os"
	"path/filepath"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

const migrationTable = "wallet_service_migrations"

// Run applies every pending migration under internal/migration, or under
// MIGRATION_DIR when set.
func Run(db *sql.DB, log *logrus.Logger) (int, error) {
	dir := os.Getenv("MIGRATION_DIR")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.WithError(err).Error("migration: cannot resolve working directory")
			return 0, err
		}
		dir = filepath.Join(wd, "internal/migration")
	}

	migrate.SetTable(migrationTable)
	migrations := &migrate.FileMigrationSource{Dir: dir}

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		log.WithError(err).WithField("dir", dir).Error("migration: failed to apply migrations")
		return 0, err
	}

	log.WithFields(logrus.Fields{"dir": dir, "applied": n}).Info("migration: schema up to date")
	return n, nil
}
