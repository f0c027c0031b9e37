// Package http exposes the room reservation API over chi.
//
// Public routes:
//   - POST /auth/register, POST /auth/login: return {"token","expires_at","user"}.
//     The token is also set as the `session_token` cookie and the
//     `X-Session-Token` header.
//   - POST /auth/logout: revokes the presented session and clears the cookie.
//   - GET /healthz and GET /metrics.
//
// Every other route requires a session presented as a bearer token, the
// `X-Session-Token` header or the cookie:
//   - GET /auth/me
//   - GET /rooms (filters: min_capacity, max_capacity, projector, whiteboard,
//     audio, ventilation), GET /rooms/{id}, GET /rooms/{id}/schedule?week=YYYY-MM-DD.
//     POST, PUT and DELETE on rooms are admin only.
//   - GET /reservations (filters: room_id, user_id, status, week), POST
//     /reservations, GET and DELETE /reservations/{id}. PATCH
//     /reservations/{id}/status is admin only.
//   - /users is admin only: GET, POST, PUT /users/{id}/role, DELETE /users/{id}.
//
// Errors are returned as {"error_code","message","errors"}. DTOs live next to
// the handlers that use them.
package http
