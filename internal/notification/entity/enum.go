package entity

type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusSent    DeliveryStatus = 1
	DeliveryStatusFailed  DeliveryStatus = 2
	DeliveryStatusExpired DeliveryStatus = 3
)

func DeliveryStatusFromString(raw string) DeliveryStatus {
	switch raw {
	case "sent":
		return DeliveryStatusSent
	case "failed":
		return DeliveryStatusFailed
	case "expired":
		return DeliveryStatusExpired
	default:
		return DeliveryStatusUnknown
	}
}

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	case DeliveryStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}
