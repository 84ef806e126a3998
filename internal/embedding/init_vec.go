//go:build sqlite_vec && cgo

package embedding

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// init registers the sqlite-vec extension with the mattn/go-sqlite3
// driver so the embedding store's SQLite file can use a vec0 virtual
// table for nearest-neighbor search instead of the pure-Go cosine scan
// in cosine.go, grounded in the teacher's internal/store/init_vec.go.
// This build is opt-in: the default build has no cgo dependency.
func init() {
	vec.Auto()
}
