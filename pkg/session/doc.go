/*
Package session implements access control and resolution of active workout
sessions.

The Manager serializes every operation on a user's snapshot with a
reference-counted local mutex and, when configured, a distributed lock so
several replicas can share one store. Resolve implements the resume-or-seed
rule used when a workout starts.
*/
package session
