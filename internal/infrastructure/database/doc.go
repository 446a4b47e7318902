// Package database provides SQLite connection management for fodhald.
//
// The daemon keeps a small local event history (finger presses, releases,
// classified acquisition events) in SQLite for offline diagnostics. This
// package owns connection setup — pragmas, pool sizing, permissions —
// while the schema itself is created by the history package.
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.History.Path,
//	    WALMode:     cfg.History.WALMode,
//	    BusyTimeout: cfg.History.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package database
