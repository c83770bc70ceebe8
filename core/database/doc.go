// Package database handles database connections and schema inspection.
//
// It wraps GORM and selects the driver from configuration: an embedded SQLite
// file, MySQL, MariaDB or PostgreSQL.
//
// # Connect
//
// Connect builds the driver's DSN, opens the pool and pings it. SQLite
// connections carry WAL, busy timeout and foreign key pragmas in the DSN so
// that every pooled connection gets them. The pool is sized from PoolSize;
// callers running N concurrent workers should pass WithMinPool(N) so that no
// two workers share one connection. GORM error translation is enabled, which
// turns unique violations into gorm.ErrDuplicatedKey.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table using PRAGMA on SQLite,
// SHOW COLUMNS on MySQL/MariaDB and information_schema on PostgreSQL.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database.WithMinPool(threads))
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "uuid_map")
package database
