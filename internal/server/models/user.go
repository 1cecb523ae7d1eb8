package models

import "time"

// User is a credential-store record. EmailVerifyToken is empty once the
// address is verified; ForgotPasswordToken is empty when no reset is pending.
type User struct {
	ID                  string       `db:"id" bson:"_id"`
	Name                string       `db:"name" bson:"name"`
	Email               string       `db:"email" bson:"email"`
	PasswordHash        string       `db:"password_hash" bson:"password_hash"`
	EmailVerifyToken    string       `db:"email_verify_token" bson:"email_verify_token"`
	ForgotPasswordToken string       `db:"forgot_password_token" bson:"forgot_password_token"`
	Verify              VerifyStatus `db:"verify" bson:"verify"`
	Role                Role         `db:"role" bson:"role"`
	Level               Level        `db:"level" bson:"level"`
	CreatedAt           time.Time    `db:"created_at" bson:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" bson:"updated_at"`
}

// Identity returns the claims embedded into every token issued for u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Verify: u.Verify, Role: u.Role, Level: u.Level}
}

// Identity is the subject of a token plus its embedded authorization claims.
type Identity struct {
	UserID string
	Verify VerifyStatus
	Role   Role
	Level  Level
}
