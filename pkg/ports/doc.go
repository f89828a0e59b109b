/*
Package ports defines the driven ports (interfaces) for the IronLog engine.

These interfaces decouple the session engine from external implementations,
allowing it to work with various storage backends for snapshots, catalogs and history.

# Key Interfaces

  - SessionStore: Persists the single active session snapshot of each user.
  - ExerciseCatalog / TemplateRepository: Read (and manage) what a workout is made of.
  - ExecutionArchive: Appends finished workouts and tracks the last completed template.
  - HistoryLookup: Finds the previous performance of an exercise for seeding.
  - DistributedLocker: Provides distributed locking for concurrent snapshot writes.

Every adapter is expected to pass the matching Run*Contract suite in this package.
*/
package ports
