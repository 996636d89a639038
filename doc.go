// Package journey tracks daily trading profit and loss and account balances for
// a single person, locally first, with an optional copy kept in one remote JSON
// document.
//
// The package holds the data model shared by every other package:
//   - LedgerEntry: one profit/loss record for a calendar day, identified by its
//     creation timestamp.
//   - AccountSnapshot: the balance of three asset sources on a calendar day,
//     at most one per day.
//   - Document: the wire format of the remote copy, and the tolerant decoder
//     that repairs whatever another device may have written into it.
//   - MergeEntries and MergeSnapshots: the last-writer-wins reconciliation of a
//     local collection with its remote counterpart.
//   - Export and Import: the user-facing backup file.
//
// Persistence lives in package store, the remote client in package gist, and the
// orchestration of both in package syncer.
package journey
