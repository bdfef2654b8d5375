// Package hash hashes secrets and verifies plaintext against stored hashes.
//
// Passwords go through bcrypt or Argon2id (see NewPassword). Short-lived
// values such as pending OTP codes go through HMACSHA256 so the challenge
// store never holds them in plaintext.
package hash
