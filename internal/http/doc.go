// Package http exposes the governance services over a JSON API.
//
// Every route except POST /sessions and GET /system/branding requires a
// session token, sent as "Authorization: Bearer <token>" or the session_token
// cookie. Routes:
//   - POST /sessions {"userId","accessKey"} signs in and returns
//     {"token","expiresAt","user"}. DELETE /sessions/current signs out.
//   - GET /meetings?view=&department=, POST /meetings, GET|PUT /meetings/{id},
//     PUT /meetings/{id}/minutes, POST /meetings/{id}/signatures,
//     GET /meetings/{id}/conflicts and GET /meetings/occurrences?from=&to=.
//     Writes answer {"meeting","warnings"}.
//   - POST /meetings/{id}/directives {"rowId"} turns a minutes row into a task.
//   - GET /tasks?priority=&status=, POST /tasks, GET /tasks/board,
//     DELETE /tasks/{id} and POST /tasks/{id}/{approve|reject|start|complete}.
//   - GET /users?q=&department=, PUT /users/{id} and GET /designations.
//   - GET /calendars, POST /calendars and GET /calendars/{id}/meetings.
//   - GET /notifications, POST /notifications/read, DELETE /notifications/{id}.
//   - GET|PUT /system/branding, GET /system/export?compression=,
//     POST /system/import (raw file body) and POST /system/reset {"confirm":true}.
//   - GET /audit?action=&userId= and GET /dashboard.
//
// Failures use {"error_code","message","errors"}. Refused operations answer 403,
// locked meetings and invalid transitions 409, field errors 422 and an
// unconfirmed reset 428.
//
// Request and response DTOs live alongside their handlers.
package http
