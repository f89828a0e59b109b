/*
Package domain contains the core domain models of the IronLog workout engine.

It defines the catalog entities (Exercise, Template, Slot), the live session
(ActiveSession and its ExecutionData keyed by SlotKey) and the finalized
ExecutionRecord. This package is kept pure and free of I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Template: An ordered list of slots. A slot holds one exercise or a combined pair (bi-set).
  - ActiveSession: The resumable snapshot of a workout in progress. One per user.
  - ExecutionRecord: The immutable history entry produced when a session ends.
  - Effect: A side effect (rest timer, delayed focus advance) requested by the state machine for the host to run.
*/
package domain
