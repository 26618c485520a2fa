// Package memory provides in-memory implementations of driven port interfaces.
// They back tests and runs with history disabled.
package memory
