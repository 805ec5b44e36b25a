package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/avion00/medicare-backend/pkg/logging"
)

// ApplySchema executes every *.sql file under dir in lexical order. The files
// are expected to be idempotent (CREATE ... IF NOT EXISTS).
func ApplySchema(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, logger logging.Logger) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read schema dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read schema file %s: %w", name, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply schema file %s: %w", name, err)
		}
		if logger != nil {
			logger.WithField("file", name).Debug("Applied schema file")
		}
	}

	if logger != nil {
		logger.WithField("files", len(names)).Info("Database schema applied")
	}
	return nil
}
