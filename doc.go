/*
Package ironlog is a workout session engine for guided strength training.

It drives a single in-progress workout per user: seeding sets from the
user's history, tracking set completion across single and combined
("bi-set") slots, moving focus through the plan, running the rest timer,
and finalizing the session into an immutable execution record.

# Concept

The session logic is a synchronous state machine. Every mutation produces a
new session plus a list of effects (start the rest timer, advance focus after
a short delay). The Engine is the host: it persists a snapshot after each
mutation, executes the effects and reports what happened through lifecycle
hooks. Storage is reached only through the ports in pkg/ports, so the same
engine runs against memory, files, Redis, Firestore or SQL.

# Key Features

  - Resumable Sessions: a snapshot is saved after every change and adopted verbatim on restart.
  - Slot Synchronization: exercises of a combined slot always have the same number of sets.
  - Safe Finalization: once a session starts finalizing no autosave can overwrite it.
  - Hexagonal Architecture: core logic is decoupled from adapters (Storage, HTTP, MCP, CLI).

# Usage

	eng, err := ironlog.New(
		ironlog.WithCatalog(catalog),
		ironlog.WithTemplates(templates),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	ctx := context.Background()
	session, err := eng.StartSession(ctx, "alice", "push-day")
	if err != nil {
		log.Fatal(err)
	}

	// Complete the first set of the first slot.
	session, _ = eng.ToggleSetCompletion(ctx, "alice", 0, 0)

	record, err := eng.EndSession(ctx, "alice", true)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(record.Status)
*/
package ironlog
