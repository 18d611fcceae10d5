package migration

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/shoppos/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSource_OrdersTillMigrations(t *testing.T) {
	src, err := EmbeddedSource()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(20260501090000), first)

	var versions []uint
	for v := first; ; {
		versions = append(versions, v)
		next, err := src.Next(v)
		if err != nil {
			require.ErrorIs(t, err, os.ErrNotExist)
			break
		}
		v = next
	}
	assert.Equal(t, []uint{20260501090000, 20260501090100, 20260501090200}, versions)

	r, ident, err := src.ReadUp(20260501090200)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "create_reconciliation", ident)
	assert.Contains(t, string(body), "count_archives")
}

func TestEmbeddedMigrations_HaveDownFiles(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestListMigrations_Repository(t *testing.T) {
	names, err := ListMigrations("../../../migrations")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20260501090000_create_till_ledger",
		"20260501090100_create_sales_log",
		"20260501090200_create_reconciliation",
	}, names)
}
