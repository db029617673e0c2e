// Package editor turns edits of model objects into commands for the command
// engine and the SQL that persists them.
//
// Table and column edits are applied to the model immediately and recorded as
// commands. Commands on objects whose creation is still pending produce no
// SQL of their own: the pending CREATE carries the current state. Property
// edits of existing objects collapse into one ALTER composite per object.
//
// Session is the entry point:
//
//	s := editor.NewSession(adp, logger)
//	users, _ := s.LoadTable(ctx, "users")
//	_ = s.RenameTable(users, "customers")
//	fmt.Println(s.Script())
//	err := s.Save(ctx)
package editor
