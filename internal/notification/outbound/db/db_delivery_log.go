package db

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/notification/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/valueobject"
)

const (
	queryCreateSMSDeliveryLog = `
INSERT INTO sms_delivery_logs (id, dispatch_id, user_id, recipient, status, attempts, provider_response)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	queryListSMSDeliveryLogsByDispatch = `
SELECT id, dispatch_id, user_id, recipient, status, attempts, provider_response, created_at
FROM sms_delivery_logs
WHERE dispatch_id = $1
ORDER BY created_at, id`
)

func (s *DB) CreateSMSDeliveryLog(ctx context.Context, in entity.CreateSMSDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSMSDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	resp := in.ProviderResponse
	if resp == nil {
		resp = valueobject.JSONMap{}
	}

	_, err = s.conn.Exec(ctx, queryCreateSMSDeliveryLog,
		in.ID,
		in.DispatchID,
		in.UserID,
		in.Recipient,
		in.Status.String(),
		in.Attempts,
		resp,
	)
	err = s.mapError(err)
	return err
}

func (s *DB) ListSMSDeliveryLogs(ctx context.Context, dispatchID string) (_ []entity.SMSDeliveryLog, err error) {
	ctx, span := s.startSpan(ctx, "ListSMSDeliveryLogs")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListSMSDeliveryLogsByDispatch, dispatchID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var logs []entity.SMSDeliveryLog
	for rows.Next() {
		var (
			l      entity.SMSDeliveryLog
			status string
		)
		if err := rows.Scan(&l.ID, &l.DispatchID, &l.UserID, &l.Recipient, &status, &l.Attempts, &l.ProviderResponse, &l.CreatedAt); err != nil {
			return nil, s.mapError(err)
		}
		l.Status = entity.DeliveryStatusFromString(status)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return logs, nil
}
