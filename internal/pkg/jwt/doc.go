// Package jwt issues and verifies the session token pair handed out after a
// successful OTP verification.
//
// Both tokens are HS512 signed with one shared secret. The access token is
// short lived and carries the user's contact details; the refresh token is
// long lived and carries only the subject. Every token has a token_type claim
// and each Verify method only accepts its own type.
package jwt
