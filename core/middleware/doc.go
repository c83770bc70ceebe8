// Package middleware groups the HTTP middleware of the player-statistics service.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - Auth: Implements API key validation to protect endpoints.
//   - RayID: Generates a unique Request ID (RayID) for every incoming request,
//     injecting it into the context and response headers for tracing.
//
// The sync service registers RayID globally and Auth in front of the control
// routes; read-only snapshot routes are exempted through Config.Skip.
package middleware
