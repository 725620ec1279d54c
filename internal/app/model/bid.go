package model

import "time"

// Bid is a pledge placed against a beetl. Bids reference their beetl by
// its natural key pair, not by internal id.
type Bid struct {
	ID               string    `db:"id" gorm:"primaryKey;size:36"`
	SecretKey        string    `db:"secretkey" gorm:"column:secretkey;size:36;not null"`
	Name             string    `db:"name" gorm:"size:255;not null"`
	Min              int       `db:"min" gorm:"not null"`
	Mid              *int      `db:"mid"`
	Max              int       `db:"max" gorm:"not null"`
	BeetlObfuscation string    `db:"beetl_obfuscation" gorm:"size:16;not null;index:idx_bids_beetl_key"`
	BeetlSlug        string    `db:"beetl_slug" gorm:"size:64;not null;index:idx_bids_beetl_key"`
	Created          time.Time `db:"created" gorm:"autoCreateTime"`
	Updated          time.Time `db:"updated"`
}
