package models

import "time"

// LedgerEntry is a refresh token ledger entry. Only the SHA-256 of the token is
// stored. IssuedAt and ExpiresAt mirror the signed iat/exp claims.
type LedgerEntry struct {
	ID        string    `db:"id" bson:"_id"`
	UserID    string    `db:"user_id" bson:"user_id"`
	TokenHash string    `db:"token_hash" bson:"token_hash"`
	IssuedAt  time.Time `db:"issued_at" bson:"iat"`
	ExpiresAt time.Time `db:"expires_at" bson:"exp"`
}
