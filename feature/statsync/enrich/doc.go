// Package enrich fills the display names of players that have none.
//
// Names come from one of two HTTP namespaces chosen by the UUID shape:
//
//   - Java players: GET {profile_url}/{uuid}, name at decoded.profileName.
//   - Bridged console players (UUID prefix 00000000-0000-0000-): the trailing
//     16 hex digits form the account id, GET {gamertag_url}/{id}, name at gamertag.
//
// Lookups go through a fasthttp client bounded by the caller's deadline. There
// is no retry: a failed or empty lookup leaves the name null and the player is
// picked up again on the next pass.
package enrich
