// Package validator checks request structs before they reach a usecase.
//
// V10Validator wraps go-playground/validator with English messages keyed by
// snake_case field names, plus the tags this service needs: password,
// phone (8XXXXXXXXXX), otp_code (four digits) and username.
package validator
