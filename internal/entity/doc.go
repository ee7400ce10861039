// Package entity holds the dispatch domain types and their SQLite
// repositories: ambulances, hospitals, equipment definitions and the
// per-hospital equipment items, plus calls, user profiles and settings.
//
// Repositories are the system of record's commit path. Each one accepts
// a ChangeNotifier and invokes it synchronously after a successful
// write, which is how the broker mirror learns about state changes. The
// notifier contract is one-way: implementations absorb their own
// failures, so a broker problem can never fail a committed transaction.
package entity
