//go:build sqlite_cgo

package storage

// CGO-backed SQLite driver, selected by building with -tags sqlite_cgo.
import _ "github.com/mattn/go-sqlite3"

const driverName = "sqlite3"
