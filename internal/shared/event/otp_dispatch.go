package event

import "time"

// OTPDispatchTopic carries login codes from identity to the SMS sender.
const OTPDispatchTopic string = "identity.otp.dispatch"

// OTPDispatchConsumerNotification is the consumer group of the notification module.
const OTPDispatchConsumerNotification string = "identity.otp.dispatch.notification"

// OTPDispatchMessage asks for one login code to be delivered. DispatchID is
// unique per issuance and used to drop broker redeliveries.
type OTPDispatchMessage struct {
	DispatchID  string    `json:"dispatch_id"`
	UserID      int64     `json:"user_id,string"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phone_number"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
}
