package numbering

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAllocation() Allocation {
	return Allocation{
		Number:        "01-2025/2026",
		FinancialYear: "2025/2026",
		Seq:           1,
		IssuedAt:      time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		Provisional:   true,
		Err:           &CounterUnavailableError{FinancialYear: "2025/2026", Err: errors.New("redis down")},
	}
}

func TestProvisionalLog_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	log := NewProvisionalLog(dir)

	require.NoError(t, log.RecordProvisional(testAllocation()))
	second := testAllocation()
	second.IssuedAt = second.IssuedAt.Add(time.Hour)
	require.NoError(t, log.RecordProvisional(second))

	got, err := log.Read()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "01-2025/2026", got[0].Number)
	assert.True(t, got[0].IssuedAt.Equal(testAllocation().IssuedAt))
	assert.True(t, got[1].Provisional)
	assert.Equal(t, "invoice counter for 2025/2026 unavailable: redis down", got[0].Err.Error())
}

func TestProvisionalLog_Header(t *testing.T) {
	dir := t.TempDir()
	log := NewProvisionalLog(dir)
	require.NoError(t, log.RecordProvisional(testAllocation()))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "provisional-numbers.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ProvisionalHeader+"\n")
	assert.Contains(t, string(data), "2025-06-01T10:30:00Z,2025/2026,01-2025/2026,1,redis down")
}

func TestProvisionalLog_NotFound(t *testing.T) {
	got, err := NewProvisionalLog(t.TempDir()).Read()
	require.NoError(t, err)
	assert.Nil(t, got)
}
