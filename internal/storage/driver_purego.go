//go:build !sqlite_cgo

package storage

// Pure Go SQLite driver, no CGO required. This is the default build;
// pass -tags sqlite_cgo to link mattn/go-sqlite3 instead.
import _ "modernc.org/sqlite"

const driverName = "sqlite"
