// Package runtime holds the workout session state machine.
//
// Every operation takes a session and returns a new one plus the effects the
// caller must execute (rest timer, delayed focus advance). Nothing here
// sleeps, persists or logs.
package runtime
