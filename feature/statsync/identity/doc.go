// Package identity resolves external player UUIDs to the integer ids used by
// every stat table.
//
// Resolve looks the UUID up, inserting a uuid_map row on first sight, and
// stamps player_last_online with the record's modification time. Resolved ids
// are kept in an LRU cache; a cached id whose row disappeared is evicted and
// resolved again. Concurrent inserts of the same UUID resolve to the row that
// won the unique constraint.
package identity
