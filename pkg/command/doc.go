// Package command implements the edit-transaction engine behind LeapDB's
// object editors.
//
// Editors describe every change to a database object as a Command and push it
// into a Context. The Context keeps the commands in issue order together with
// an undo stack, and on SaveChanges it:
//
//  1. groups commands into one Queue per target object (reference identity),
//  2. lets each command merge with its predecessors in the same queue,
//  3. lets the object's ObjectManager filter the queue,
//  4. offers remaining commands to an Aggregator, if one is pending,
//  5. validates everything, then executes the PersistActions of each
//     surviving command in order and updates the in-memory model.
//
// Execution stops at the first failing action. Actions that already ran stay
// marked as executed, so calling SaveChanges again resumes at the failed
// action. ResetChanges discards all pending commands without touching the
// backend.
//
// Commands and their target objects are compared by identity; both must be
// pointers.
package command
