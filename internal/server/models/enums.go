package models

// TokenKind tags a token with its purpose. Values are part of the signed
// payload and must not be renumbered.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
	ForgotPasswordToken
	EmailVerifyToken
)

func (k TokenKind) String() string {
	switch k {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	case ForgotPasswordToken:
		return "forgot_password"
	case EmailVerifyToken:
		return "email_verify"
	default:
		return "unknown"
	}
}

// TokenKinds lists every kind in payload order.
var TokenKinds = []TokenKind{AccessToken, RefreshToken, ForgotPasswordToken, EmailVerifyToken}

type VerifyStatus int

const (
	Unverified VerifyStatus = iota
	Verified
	Banned
)

func (v VerifyStatus) String() string {
	switch v {
	case Unverified:
		return "unverified"
	case Verified:
		return "verified"
	case Banned:
		return "banned"
	default:
		return "unknown"
	}
}

type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

// Level is the account tier shown on profiles.
type Level int

const (
	Bronze Level = iota
	Silver
	Gold
	Platinum
	Diamond
)

func (l Level) String() string {
	switch l {
	case Bronze:
		return "bronze"
	case Silver:
		return "silver"
	case Gold:
		return "gold"
	case Platinum:
		return "platinum"
	case Diamond:
		return "diamond"
	default:
		return "unknown"
	}
}
