package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// New migrations start from these stubs. Every table in this schema is
// tenant scoped, so the stub reminds the author about the tenant_id
// column and its index up front.
const upStub = `-- {{.Name}}
-- created {{.Timestamp}}
-- {{.Description}}

-- Tenant-scoped tables need a tenant_id uuid column and an index on it.

`

const downStub = `-- {{.Name}} (rollback)
-- created {{.Timestamp}}
-- Reverts: {{.Description}}

`

// MigrationFile describes a generated up/down stub pair.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes a timestamped up/down stub pair into dir,
// creating the directory if needed. The version prefix sorts
// lexicographically so golang-migrate applies pairs in creation order.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	now := time.Now()
	mf := &MigrationFile{
		Version:     now.Format("20060102150405"),
		Name:        name,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
	}
	base := mf.Version + "_" + sanitizeName(name)
	mf.UpPath = filepath.Join(dir, base+upSuffix)
	mf.DownPath = filepath.Join(dir, base+downSuffix)

	if err := writeStub(mf.UpPath, upStub, mf); err != nil {
		return nil, fmt.Errorf("write up migration: %w", err)
	}
	if err := writeStub(mf.DownPath, downStub, mf); err != nil {
		// Never leave a half pair behind; golang-migrate refuses to
		// run a directory with an up file missing its down.
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("write down migration: %w", err)
	}
	return mf, nil
}

func writeStub(path, stub string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(stub)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

// sanitizeName lowercases the name and collapses separator runs into
// single underscores so the file name stays shell friendly.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && b.String()[b.Len()-1] != '_' {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of the migration pairs in dir,
// one entry per up file. A missing directory is treated as empty.
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), upSuffix); ok {
			names = append(names, base)
		}
	}
	return names, nil
}
