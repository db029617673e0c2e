// Package model holds the editable in-memory database objects.
//
// Objects carry two views of themselves: the current state, which edits change
// immediately, and the saved state, which only moves forward once the database
// has accepted a change. Columns report their table as parent so the command
// engine nests column queues under table queues.
package model
