package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/invmap/engine/internal/export"
)

func setEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("STORE_BACKEND", "sql")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(dir, "inv.db"))
	t.Setenv("MOVE_MODE", "direct")
	t.Setenv("ICON_BACKEND", "fs")
	t.Setenv("ICON_DIR", filepath.Join(dir, "icons"))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedThenExport(t *testing.T) {
	dir := setEnv(t)
	owner := uuid.NewString()

	out, err := run(t, "seed", "--owner", owner)
	require.NoError(t, err)
	require.Contains(t, out, "created 1 locations, 0 units, 6 equipment")

	file := filepath.Join(dir, "inv.xlsx")
	out, err = run(t, "export", "--owner", owner, "--out", file)
	require.NoError(t, err)
	require.Equal(t, file, strings.TrimSpace(out))

	wb, err := excelize.OpenFile(file)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	require.Equal(t, export.Headers, rows[0])
	require.Equal(t, "MANAUS", rows[1][4])
}

func TestSeedFromFile(t *testing.T) {
	dir := setEnv(t)
	fixture := filepath.Join(dir, "map.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
locations:
  - key: hq
    label: SEDE
units:
  - key: ti
    label: TI
    location: hq
equipment:
  - label: NOTE-01
    unit: ti
    location: hq
`), 0o644))

	out, err := run(t, "seed", "--owner", uuid.NewString(), "-f", fixture)
	require.NoError(t, err)
	require.Contains(t, out, "created 1 locations, 1 units, 1 equipment")
}

func TestOwnerIsValidated(t *testing.T) {
	setEnv(t)
	_, err := run(t, "export", "--owner", "someone")
	require.ErrorContains(t, err, "invalid --owner")

	_, err = run(t, "seed")
	require.ErrorContains(t, err, "owner")
}
