// Package utils provides small helpers shared by the player-statistics packages,
// mainly loose conversion of decoded JSON values.
package utils
