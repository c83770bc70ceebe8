// Package upsert applies changed player records to the stat tables.
//
// Each changed record becomes one worker pool task. A task parses the record,
// resolves the player id and overwrites every amount it carries: the record
// holds absolute values, so re-applying it is idempotent. A failed task is
// logged and leaves other players untouched.
package upsert
