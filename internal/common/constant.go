// Package common contains shared constants and sentinel errors used across
// sessionkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"

// RefreshTokenHeaderName is the gRPC metadata key carrying the refresh token
// for methods that accept it out of band (Logout).
const RefreshTokenHeaderName = "refresh_token"
