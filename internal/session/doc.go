// Package session provides the session-scoped key-value stores the
// parameter form is mirrored into.
//
// A session plays the role of one browser tab: its keys live until the
// session is ended. Three drivers are available:
//
//   - [Memory]: in-process, gone when the process exits
//   - [File]: one YAML document per session under a data directory
//   - [SQLite]: a single database shared by all sessions
//
// Every store is safe for concurrent use.
package session
