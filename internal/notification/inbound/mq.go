package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.concurrency")
	if concurrency <= 0 {
		concurrency = 10
	}

	var consumers = []struct {
		name    string // consumer group on every driver
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.OTPDispatchConsumerNotification,
			topic:   event.OTPDispatchTopic,
			handler: mqHandler.OTPDispatch,
		},
	}

	for _, c := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, c.name) {
			err := routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name)
				return consumer.Consume(pCtx,
					c.topic,
					c.handler,
					messaging.WithGroup(c.name),
					messaging.WithConcurrency(concurrency),
					messaging.WithMaxInFlight(concurrency),
				)
			})
			if err != nil {
				slog.ErrorContext(ctx, "failed to start consumer", "consumer", c.name, "error", err)
			}
		}
	}
}
