// Package ranking recomputes leaderboard positions.
//
// For each category every position is cleared, then positions 1 to 5 are
// written per stat key, ordered by amount descending with the lower player id
// first on ties. Non-positive amounts are never ranked. Each category runs on
// its own pinned connection, which keeps MySQL temporary tables private to it;
// SQLite ranks one category at a time.
package ranking
