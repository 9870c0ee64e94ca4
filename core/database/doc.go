// Package database handles connections for the local store and schema inspection.
//
// It wraps GORM and configures a connection for one of three drivers:
// sqlite (default, single connection), mysql or postgres.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table. The integrity feature uses it
// to verify that the entity tables carry the columns the engine relies on.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "posts")
package database
