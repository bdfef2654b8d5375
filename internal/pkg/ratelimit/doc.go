// Package ratelimit bounds how many OTPs may be issued to one identity within
// a fixed window.
//
// Counters live in a challenge.Store under "rate:{identity}". The window starts
// on the first attempt and resets only by natural expiry of the counter key;
// there is no manual reset. Every attempt counts, including denied ones.
package ratelimit
