/*
Package runner implements the interactive workout console on top of the engine.

It reads one command per line from a pluggable IOHandler, applies it to the
user's active session and shows the resulting frame. Leaving the console
(EOF, quit, Ctrl+C) never closes the workout: the session stays saved and the
next run resumes it.

# Key Components

  - Runner: the command loop.
  - IOHandler: decouples how frames are shown and commands read.
  - TextHandler: markdown console, optionally rendered for a terminal.
  - JSONHandler: one JSON object per line, for scripting.

# Usage

	r := runner.NewRunner(engine, "alice",
		runner.WithTemplate("push-day"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	outcome, err := r.Run(ctx)
*/
package runner
