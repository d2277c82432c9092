package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotparts/internal/master"
	"hotparts/pkg/contracts/domain"
)

func seedDatabase(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "hot_parts.db")

	store, err := master.OpenSQLite(ctx, dbPath, nil)
	require.NoError(t, err)
	defer store.Close()

	acc, err := master.Open(ctx, store, nil)
	require.NoError(t, err)

	p := 12.5
	_, err = acc.MergeHotParts(ctx, []domain.HotPart{
		{MPN: "ABC123", Date: "2025.07.07", Manufacturer: "Broadcom"},
	})
	require.NoError(t, err)
	_, err = acc.MergeMatches(ctx, []domain.MatchRecord{
		{MPN: "ABC123", HotPartsDate: "2025.07.07", Manufacturer: "Broadcom", ExcessFilename: "stock.xlsx", ExcessQty: 40, TargetPrice: &p},
	})
	require.NoError(t, err)
	require.NoError(t, store.AppendLog(ctx, domain.ProcessingLog{
		Filename:    "Hot Parts 2025.07.07.xlsx",
		FileType:    domain.FileTypeHotParts,
		Status:      domain.StatusSuccess,
		ProcessedAt: time.Now(),
	}))
	return dbPath
}

func runQuery(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOTPARTS_PATHS_BASE_DIR", filepath.Dir(dbPath))
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"-db", dbPath}, args...), &out)
	return out.String(), err
}

func TestRun_Stats(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runQuery(t, dbPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Hot parts records:")
	assert.Contains(t, out, "2025.07.07 to 2025.07.07")
	assert.Contains(t, out, "Files logged:")
}

func TestRun_MastersAndSummary(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runQuery(t, dbPath, "masters", "matches", "-mpn", "abc123")
	require.NoError(t, err)
	assert.Contains(t, out, `"stock.xlsx"`)

	out, err = runQuery(t, dbPath, "summary", "hot_parts")
	require.NoError(t, err)
	assert.Contains(t, out, `"Broadcom"`)

	_, err = runQuery(t, dbPath, "summary", "bogus")
	assert.Error(t, err)
}

func TestRun_RandomAndLog(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runQuery(t, dbPath, "random", "-count", "5", "-min-price", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "ABC123")
	assert.Contains(t, out, "12.5")

	out, err = runQuery(t, dbPath, "log", "-limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Hot Parts 2025.07.07.xlsx")
}

func TestRun_Export(t *testing.T) {
	dbPath := seedDatabase(t)
	outputDir := filepath.Join(filepath.Dir(dbPath), "exports")
	t.Setenv("HOTPARTS_PATHS_OUTPUT_DIR", outputDir)

	out, err := runQuery(t, dbPath, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "Master_Matches_Data.xlsx")

	_, err = os.Stat(filepath.Join(outputDir, "Master_Matches_Data.xlsx"))
	assert.NoError(t, err)
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), nil, &out), errUsage)

	dbPath := seedDatabase(t)
	_, err := runQuery(t, dbPath, "frobnicate")
	assert.ErrorIs(t, err, errUsage)
}
