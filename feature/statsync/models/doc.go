// Package models defines the stat categories and the persisted entities of the
// statistics database.
//
// # Tables
//
//   - uuid_map: PlayerIdentity, one row per external player UUID.
//   - one table per Category (broken, crafted, ... used): StatRecord rows keyed
//     by (player_id, stat_name) with the latest amount and an optional 1..5 position.
//   - sync_metadata: SyncMetadata, a single row with the last committed pass time
//     and the server descriptor shown by front-ends.
//   - hall_of_fame: HallOfFameEntry, placement counts and weighted score.
//
// Category values double as table names. They are the only identifiers ever
// interpolated into SQL text.
package models
