package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEntries_Disjoint(t *testing.T) {
	local := []LedgerEntry{entry(1, "2024-01-01", "10", "0", ""), entry(2, "2024-01-02", "0", "5", "")}
	remote := []LedgerEntry{entry(3, "2024-01-03", "7", "0", "")}

	got := MergeEntries(local, remote)

	assert.Len(t, got, len(local)+len(remote))
}

func TestMergeEntries_RemoteWins(t *testing.T) {
	local := []LedgerEntry{entry(1, "2024-01-01", "10", "0", "local note")}
	remote := []LedgerEntry{
		entry(1, "2024-01-01", "10", "0", "remote note"),
		entry(2, "2024-01-02", "3", "0", ""),
	}

	got := MergeEntries(local, remote)
	SortEntries(got)

	require.Len(t, got, 2)
	assertEntries(t, got, []LedgerEntry{remote[1], remote[0]})
}

func TestMergeEntries_Idempotent(t *testing.T) {
	x := []LedgerEntry{entry(1, "2024-01-01", "10", "0", "a"), entry(2, "2024-01-02", "0", "5", "b")}
	assertEntries(t, MergeEntries(x, x), x)
}

func TestMergeSnapshots(t *testing.T) {
	older := snapshot(1, "2024-01-01", "100", t0)
	newer := snapshot(2, "2024-01-01", "200", t0.Add(time.Minute))
	tie := snapshot(3, "2024-01-01", "300", t0)

	testCases := []struct {
		name          string
		local, remote AccountSnapshot
		want          AccountSnapshot
	}{
		{"remote newer wins", older, newer, newer},
		{"local newer wins", newer, older, newer},
		{"tie goes to remote", older, tie, tie},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeSnapshots([]AccountSnapshot{tc.local}, []AccountSnapshot{tc.remote})
			require.Len(t, got, 1)
			assert.True(t, got[0].Equal(tc.want), "got %+v want %+v", got[0], tc.want)
		})
	}
}

func TestMergeSnapshots_OnePerDate(t *testing.T) {
	local := []AccountSnapshot{snapshot(1, "2024-01-01", "1", t0), snapshot(2, "2024-01-02", "2", t0)}
	remote := []AccountSnapshot{snapshot(9, "2024-01-02", "3", t0), snapshot(8, "2024-01-03", "4", t0)}

	got := MergeSnapshots(local, remote)

	seen := map[string]bool{}
	for _, s := range got {
		assert.False(t, seen[s.Date.String()], "duplicate date %v", s.Date)
		seen[s.Date.String()] = true
	}
	assert.Len(t, got, 3)
}
