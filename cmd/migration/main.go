// Command migration applies the competition store schema under db/migrations.
package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	"github.com/spf13/cobra"
)

var logger = logging.NewJSONTo(os.Stderr, logging.LevelInfo).With("component", "migration")

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

func main() {
	_ = godotenv.Load()
	err := newRootCmd().Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// target is where a run points: the database and the migration source.
type target struct {
	dbURL string
	dir   string
}

func newRootCmd() *cobra.Command {
	var t target

	root := &cobra.Command{
		Use:          "migration",
		Short:        "Competition store schema migrations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return t.resolve()
		},
	}
	root.PersistentFlags().StringVar(&t.dbURL, "db-url", os.Getenv("DB_URL"), "postgres URL (env DB_URL)")
	root.PersistentFlags().StringVar(&t.dir, "dir", os.Getenv("MIGRATIONS_DIR"), "migration directory (env MIGRATIONS_DIR)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return t.run(func(m *migrate.Migrate) error {
					return report(m.Up(), "migrations applied", "source", t.dir)
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps, err := parseSteps(args)
				if err != nil {
					return err
				}
				return t.run(func(m *migrate.Migrate) error {
					return report(m.Steps(-steps), "migrations rolled back", "steps", steps)
				})
			},
		},
		&cobra.Command{
			Use:     "goto <version>",
			Aliases: []string{"migrate"},
			Short:   "Migrate up or down to a target version",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				return t.run(func(m *migrate.Migrate) error {
					return report(m.Migrate(uint(version)), "migrated to version", "version", version)
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				return t.run(func(m *migrate.Migrate) error {
					if err := m.Force(version); err != nil {
						return fmt.Errorf("force version %d: %w", version, err)
					}
					logger.Info("schema version forced", "version", version)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return t.run(func(m *migrate.Migrate) error {
					version, dirty, err := m.Version()
					switch {
					case errors.Is(err, migrate.ErrNilVersion):
						_, err = fmt.Fprintln(cmd.OutOrStdout(), "version=none dirty=false")
						return err
					case err != nil:
						return fmt.Errorf("read version: %w", err)
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
					return err
				})
			},
		},
	)
	return root
}

func (t *target) resolve() error {
	t.dbURL = strings.TrimSpace(t.dbURL)
	if t.dbURL == "" {
		return errors.New("database URL is required (--db-url or DB_URL)")
	}

	candidates := append([]string{strings.TrimSpace(t.dir)}, defaultMigrationDirs...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			t.dir = abs
			return nil
		}
	}
	return fmt.Errorf("migration directory not found (tried %s)", strings.Join(candidates[1:], ", "))
}

func (t *target) run(fn func(*migrate.Migrate) error) error {
	m, err := migrate.New("file://"+filepath.ToSlash(t.dir), normalizeDBURL(t.dbURL))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			logger.Warn("close migrator failed", "error", err)
		}
	}()
	return fn(m)
}

// report logs a finished step. ErrNoChange counts as success.
func report(err error, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(msg, args...)
	return nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps < 1 {
		return 0, errors.New("down steps must be at least 1")
	}
	return steps, nil
}

// parseVersion accepts migration timestamps such as 20250920150000.
func parseVersion(raw string) (int, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, strconv.IntSize-1)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	return int(v), nil
}

// normalizeDBURL mirrors the API: DB_DISABLE_PREPARED_BINARY_RESULT=true adds
// the pooler flag unless the URL already sets it.
func normalizeDBURL(raw string) string {
	if on, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("DB_DISABLE_PREPARED_BINARY_RESULT"))); !on {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("disable_prepared_binary_result") {
		return raw
	}
	q.Set("disable_prepared_binary_result", "yes")
	u.RawQuery = q.Encode()
	return u.String()
}
