// Package http provides HTTP handlers and middleware for the reservation API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user_id","role"} with the token also
//     surfaced via the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 No Content
//     and clears the cookie.
//   - POST /users: registers an account; restricted to administrators. Body:
//     {"email","display_name","role","password"}.
//   - GET /rooms, POST /rooms, GET /rooms/{id}, PUT /rooms/{id},
//     DELETE /rooms/{id}: room catalog endpoints exchanging the `roomDTO`
//     payload defined in room_handler.go. DELETE deactivates the room rather
//     than erasing it; listing is available to any authenticated principal
//     while mutations require the administrator role.
//   - GET /rooms/available?start=..&end=..&capacity=..: searches rooms free
//     for the requested window, optionally filtered by minimum capacity.
//   - GET /reservations, POST /reservations, GET /reservations/{id},
//     PATCH /reservations/{id}: reservation endpoints exchanging the
//     `reservationDTO` payload defined in reservation_handler.go. Organizers
//     only ever see their own reservations; PATCH carries partial updates and
//     reports `requires_reapproval` when a time change demoted an approved
//     reservation back to pending.
//   - GET /reservations/pending-approvals: reservations awaiting a decision,
//     visible to approvers and administrators.
//   - GET /reservations/upcoming?hours=..: approved reservations starting
//     within the window (24 hours by default).
//   - POST /reservations/{id}/approve, /reject, /cancel, /checkin, /noshow,
//     /complete: lifecycle transitions. Reject requires a {"reason"} body,
//     cancel accepts an optional one.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
