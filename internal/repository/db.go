package repository

import "gorm.io/gorm"

// conn returns tx when the call runs inside a service transaction, else the
// repository's own handle.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
