package model

import "time"

// Beetlmode values accepted by the API.
const (
	BeetlmodePublic  = "public"
	BeetlmodePrivate = "private"
)

// Method values accepted by the API.
const (
	MethodPercentage = "percentage"
	MethodStepwise   = "stepwise"
)

// Beetl describes the core funding-goal entity stored in Postgres.
// Clients never see ID or SecretKey on reads; the (Obfuscation, Slug)
// pair is the only key exposed outward.
type Beetl struct {
	ID          string    `db:"id" gorm:"primaryKey;size:36"`
	Obfuscation string    `db:"obfuscation" gorm:"size:16;not null;uniqueIndex:idx_beetls_natural_key"`
	Slug        string    `db:"slug" gorm:"size:64;not null;uniqueIndex:idx_beetls_natural_key"`
	Title       string    `db:"title" gorm:"size:255"`
	Description string    `db:"description" gorm:"type:text"`
	Target      *int      `db:"target"`
	Method      string    `db:"method" gorm:"size:16;not null"`
	Beetlmode   string    `db:"beetlmode" gorm:"size:8;not null;default:public"`
	SecretKey   string    `db:"secretkey" gorm:"column:secretkey;size:36;not null"`
	Created     time.Time `db:"created" gorm:"autoCreateTime"`
	Updated     time.Time `db:"updated"`
}

// BeetlKey is the natural key pair under which a beetl is addressed.
type BeetlKey struct {
	Obfuscation string
	Slug        string
}
