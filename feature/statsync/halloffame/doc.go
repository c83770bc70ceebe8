// Package halloffame aggregates leaderboard placements per player.
//
// Each entry counts how often a player holds positions 1 to 5 across every
// category and stat key. The score weights those counts 10, 5, 3, 2 and 1.
package halloffame
