package inbound

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/identity/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	OTPVerify(ctx context.Context, in usecase.OTPVerifyInput) (*usecase.OTPVerifyOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)

	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

// PublicEndpoints are served without an access token.
var PublicEndpoints = []string{
	"POST /login",
	"POST /otp/verify",
	"POST /register",
	"POST /token/refresh",
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Two-step login
	r.POST("/login", end.Login)
	r.POST("/otp/verify", end.OTPVerify)
	r.POST("/token/refresh", end.RefreshToken)

	r.POST("/register", end.Register)

	// need authenticated
	r.GET("/me", end.Profile)
}
