package entity

import (
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/valueobject"
)

// CreateSMSDeliveryLog records one attempt to deliver a dispatched code.
// Recipient is always stored masked.
type CreateSMSDeliveryLog struct {
	ID               int64
	DispatchID       string
	UserID           int64
	Recipient        string
	Status           DeliveryStatus
	Attempts         int
	ProviderResponse valueobject.JSONMap
}

type SMSDeliveryLog struct {
	ID               int64
	DispatchID       string
	UserID           int64
	Recipient        string
	Status           DeliveryStatus
	Attempts         int
	ProviderResponse valueobject.JSONMap
	CreatedAt        time.Time
}
