package journey

import (
	"time"

	"github.com/etnz/cryptojourney/date"
	"github.com/etnz/cryptojourney/merge"
)

// MergeEntries reconciles local ledger entries with the remote ones.
//
// Entries are matched by ID. On a collision the remote version wins, since the
// remote copy is the union of what every device has pushed.
//
// Known limitation: without an update timestamp, a local change to an entry
// that another device pushed in the meantime is lost.
func MergeEntries(local, remote []LedgerEntry) []LedgerEntry {
	return merge.ByKey(local, remote, entryKey, merge.RemoteWins[LedgerEntry])
}

// MergeSnapshots reconciles local account snapshots with the remote ones.
//
// Snapshots are matched by date. On a collision the most recently created
// snapshot wins, the remote one on a tie.
func MergeSnapshots(local, remote []AccountSnapshot) []AccountSnapshot {
	return merge.ByKey(local, remote, snapshotKey, merge.LatestWins(snapshotCreatedAt))
}

func entryKey(e LedgerEntry) int64                  { return e.ID }
func snapshotKey(s AccountSnapshot) date.Date       { return s.Date }
func snapshotCreatedAt(s AccountSnapshot) time.Time { return s.CreatedAt }
