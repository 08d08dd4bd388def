// campusvoice/database/database.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"campusvoice/models"
	"campusvoice/utils"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// dialect captures the few places where SQLite and Postgres disagree.
type dialect struct {
	name      string
	numbered  bool   // $1, $2 placeholders instead of ?
	lockRow   string // suffix that takes a row lock inside a transaction
	unlimited string // LIMIT clause meaning "no limit", needed before OFFSET
	schema    []string
}

var dialects = map[string]dialect{
	"sqlite3": {name: "sqlite3", unlimited: "LIMIT -1", schema: sqliteSchema},
	"pgx":     {name: "pgx", numbered: true, lockRow: " FOR UPDATE", unlimited: "LIMIT ALL", schema: postgresSchema},
}

// DatabaseService is the central struct for all database operations.
type DatabaseService struct {
	DB      *sql.DB
	logger  *slog.Logger
	dialect dialect
	dsn     string
}

// InitDB connects to the database and brings the schema up to date.
func InitDB(driver, dataSourceName string, logger *slog.Logger) (*DatabaseService, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if driver == "sqlite3" {
		dataSourceName = sqliteDSN(dataSourceName)
	}

	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ds := &DatabaseService{DB: db, logger: logger, dialect: d, dsn: dataSourceName}

	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute base schema: %w", err)
		}
	}

	if err := ds.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	logger.Info("Database initialized", "driver", driver)
	return ds, nil
}

// sqliteDSN fills in the connection options the ledgers rely on: foreign
// keys for cascades, WAL, a busy timeout, and BEGIN IMMEDIATE so a
// transaction holds the write lock from its first read.
func sqliteDSN(dsn string) string {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dsn
	}
	defaults := map[string]string{
		"_foreign_keys": "on",
		"_journal_mode": "WAL",
		"_busy_timeout": "5000",
		"_txlock":       "immediate",
	}
	for k, v := range defaults {
		if q.Get(k) == "" {
			q.Set(k, v)
		}
	}
	return path + "?" + q.Encode()
}

// Driver returns the database/sql driver name in use.
func (ds *DatabaseService) Driver() string { return ds.dialect.name }

// Ping checks that the database is reachable.
func (ds *DatabaseService) Ping(ctx context.Context) error { return ds.DB.PingContext(ctx) }

func (ds *DatabaseService) Close() error { return ds.DB.Close() }

// rebind rewrites ? placeholders for drivers that number them.
func (ds *DatabaseService) rebind(query string) string {
	if !ds.dialect.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// withTx runs fn inside a transaction, committing on success.
func (ds *DatabaseService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := ds.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			ds.logger.Error("Failed to rollback transaction", "error", rerr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockProblem confirms a problem exists and, on drivers that support it,
// locks its row for the rest of the transaction.
func (ds *DatabaseService) lockProblem(ctx context.Context, tx *sql.Tx, problemID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, ds.rebind("SELECT id FROM problems WHERE id = ?"+ds.dialect.lockRow), problemID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("problem %d: %w", problemID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load problem %d: %w", problemID, err)
	}
	return nil
}

// isForeignKeyViolation reports a foreign key failure from either driver.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// runMigrations applies all un-applied migrations.
func (ds *DatabaseService) runMigrations(ctx context.Context) error {
	var latestVersion uint
	err := ds.DB.QueryRowContext(ctx, "SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("could not get db version: %w", err)
	}

	ds.logger.Info("Current database schema version", "version", latestVersion)

	for _, m := range allMigrations {
		if m.Version <= latestVersion {
			continue
		}
		ds.logger.Info("Applying migration", "version", m.Version)
		err := ds.withTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
				}
			}
			if _, err := tx.ExecContext(ctx, ds.rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"), m.Version, utils.GetSQLTime()); err != nil {
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		ds.logger.Info("Successfully applied migration", "version", m.Version)
	}
	return nil
}

// SchemaVersion returns the highest applied migration.
func (ds *DatabaseService) SchemaVersion(ctx context.Context) (uint, error) {
	var v uint
	err := ds.DB.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// BackupDatabase performs an online backup of the live SQLite database using
// VACUUM INTO and, when store is non-nil, hands the file to it. It returns
// the location of the stored backup.
func (ds *DatabaseService) BackupDatabase(ctx context.Context, backupDir string, store models.BackupStore) (string, error) {
	if ds.dialect.name != "sqlite3" {
		return "", fmt.Errorf("online backup for %s: %w", ds.dialect.name, models.ErrNotConfigured)
	}
	if backupDir == "" {
		return "", fmt.Errorf("backup directory: %w", models.ErrNotConfigured)
	}
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("could not create backup directory %s: %w", backupDir, err)
	}

	timestamp := utils.GetSQLTime().Format("2006-01-02_15-04-05.000")
	backupPath := filepath.Join(backupDir, fmt.Sprintf("campusvoice_backup_%s.db", timestamp))

	ds.logger.Info("Starting database backup", "destination", backupPath)

	if _, err := ds.DB.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		// If backup fails, attempt to remove the potentially incomplete file
		if removeErr := os.Remove(backupPath); removeErr != nil && !os.IsNotExist(removeErr) {
			ds.logger.Error("Failed to remove incomplete backup file", "path", backupPath, "error", removeErr)
		}
		return "", fmt.Errorf("VACUUM INTO command failed: %w", err)
	}

	if store == nil {
		return backupPath, nil
	}

	f, err := os.Open(backupPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	location, err := store.SaveBackup(ctx, filepath.Base(backupPath), f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to store backup: %w", err)
	}
	ds.logger.Info("Backup stored", "location", location, "bytes", info.Size())
	return location, nil
}
