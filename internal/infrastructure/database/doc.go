// Package database provides the SQLite file that hostlink keeps its local
// state in.
//
// The file is opened in WAL mode with a single writer. Schema changes are
// plain SQL files applied by Migrate, which takes the embedded filesystem
// from the migrations package.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.State.Path, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
