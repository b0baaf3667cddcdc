// Package governance holds the domain model of the governance dashboard:
// entities, the meeting sign-off and task approval state machines, the
// authorization policy, visibility filters, seed data and the export format.
//
// Everything here is pure. Functions take values and return new values; the
// application package owns the state and decides when to persist it.
package governance
