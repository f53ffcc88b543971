package model

import "time"

// KVEntry is one key of the key-value namespace when it is stored in a SQL table.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:128"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName pins the table name so SQLite files and Postgres schemas match.
func (KVEntry) TableName() string {
	return "kv_entries"
}
