// Package migrations provides version-ordered SQL migration loading and
// execution.
package migrations

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Migration directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Migration represents a database migration file.
type Migration struct {
	Version   string
	Name      string
	Direction string // "up" or "down"
	FilePath  string
}

// String returns the migration identifier.
func (m Migration) String() string {
	return fmt.Sprintf("%s_%s.%s.sql", m.Version, m.Name, m.Direction)
}

// ParseFilename parses a migration filename such as 000001_debtors.up.sql.
// ok is false for files that are not migrations.
func ParseFilename(filename string) (m Migration, ok bool) {
	for _, direction := range []string{DirectionUp, DirectionDown} {
		suffix := "." + direction + ".sql"
		base, found := strings.CutSuffix(filename, suffix)
		if !found {
			continue
		}
		version, name, found := strings.Cut(base, "_")
		if !found || version == "" || name == "" || !isDigits(version) {
			return Migration{}, false
		}
		return Migration{Version: version, Name: name, Direction: direction}, true
	}
	return Migration{}, false
}

// Load loads the migrations of one direction from fsys, sorted by version.
func Load(fsys fs.FS, direction string) ([]Migration, error) {
	var migrations []Migration
	seen := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		m, ok := ParseFilename(path.Base(p))
		if !ok || m.Direction != direction {
			return nil // Skip invalid filenames
		}
		if prev, dup := seen[m.Version]; dup {
			return fmt.Errorf("duplicate migration version %s: %s and %s", m.Version, prev, p)
		}
		seen[m.Version] = p
		m.FilePath = p

		migrations = append(migrations, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by version
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// ReadMigrationContent reads the content of a migration file.
func ReadMigrationContent(fsys fs.FS, m Migration) ([]byte, error) {
	return fs.ReadFile(fsys, m.FilePath)
}

// GetMigrationVersions returns all migration versions from a list.
func GetMigrationVersions(migrations []Migration) []string {
	versions := make([]string, len(migrations))
	for i, m := range migrations {
		versions[i] = m.Version
	}
	return versions
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
