// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to
// properly configure the connection to the fleet inventory MySQL database.
//
// # Connect
//
// Connect establishes and verifies the connection. Inventory access is
// mandatory for sync and audit runs, so a connection failure is fatal at
// startup.
//
// # Schema Inspection
//
// The inspector retrieves table columns and verifies them against the
// column set the fleet source expects. Running it before the first query
// turns a schema drift surprise into a named preflight error.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.VerifyColumns(db, "fleet_hosts", required)
package database
