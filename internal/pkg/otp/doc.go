// Package otp issues and verifies short numeric one-time passcodes.
//
// Each identity has at most one pending challenge, stored under "otp:{identity}"
// in a challenge.Store with an absolute TTL. Issuing again overwrites the
// previous challenge, so only the newest code is ever valid. A correct code is
// consumed on verify; a wrong code leaves the challenge in place.
//
// Codes are drawn uniformly from 1000..9999. Codes with a leading zero are
// never produced, which leaves 9000 possible values.
package otp
