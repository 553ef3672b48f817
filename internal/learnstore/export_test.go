package learnstore

import "database/sql"

// DB exposes the underlying database for test setup (backdating timestamps,
// planting cyclic namespace rows).
func (s *Store) DB() *sql.DB {
	return s.db
}
