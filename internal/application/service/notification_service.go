package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garyjia/backoffice-approvals/internal/application/dispatcher"
	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/event"
)

// NotificationService mails requesters when their request is settled or rejected.
// Delivery is best effort: failures are logged by the dispatcher and never retried.
type NotificationService interface {
	HandleSettled(ctx context.Context, evt *event.Event) error
	HandleRejected(ctx context.Context, evt *event.Event) error
	Register(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	users  port.UserRepository
	mailer port.MailDispatcher
	logger Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(users port.UserRepository, mailer port.MailDispatcher, logger Logger) NotificationService {
	return &notificationServiceImpl{
		users:  users,
		mailer: mailer,
		logger: logger,
	}
}

// Register subscribes the handlers to settlement and rejection events
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeRequestSettled, "notify-settled", s.HandleSettled)
	d.SubscribeNamed(event.TypeRequestRejected, "notify-rejected", s.HandleRejected)
}

func (s *notificationServiceImpl) HandleSettled(ctx context.Context, evt *event.Event) error {
	owner, ok, err := s.recipient(ctx, evt)
	if err != nil || !ok {
		return err
	}

	amount, err := decimal.NewFromString(evt.GetPayloadString(event.KeyAmount))
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}

	return s.send(ctx, evt, port.Mail{
		Kind:          port.MailSettled,
		To:            owner.Email,
		RecipientName: owner.DisplayName,
		RequestType:   entity.Module(evt.Module).Label(),
		RequestID:     evt.RequestID,
		Amount:        amount,
		Currency:      evt.GetPayloadString(event.KeyCurrency),
	})
}

func (s *notificationServiceImpl) HandleRejected(ctx context.Context, evt *event.Event) error {
	owner, ok, err := s.recipient(ctx, evt)
	if err != nil || !ok {
		return err
	}

	return s.send(ctx, evt, port.Mail{
		Kind:          port.MailRejected,
		To:            owner.Email,
		RecipientName: owner.DisplayName,
		RequestType:   entity.Module(evt.Module).Label(),
		RequestID:     evt.RequestID,
		RejectedBy:    evt.GetPayloadString(event.KeyActorName),
		Reason:        evt.GetPayloadString(event.KeyReason),
	})
}

// recipient returns ok=false when the requester has no address to mail
func (s *notificationServiceImpl) recipient(ctx context.Context, evt *event.Event) (*entity.User, bool, error) {
	ownerID := evt.GetPayloadString(event.KeyOwnerUserID)
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, false, fmt.Errorf("get requester %s: %w", ownerID, err)
	}
	if owner == nil || owner.Email == "" {
		s.logger.Info("Requester has no email, skipping notification",
			"request_id", evt.RequestID,
			"owner", ownerID,
			"event_type", evt.Type,
		)
		return nil, false, nil
	}
	return owner, true, nil
}

func (s *notificationServiceImpl) send(ctx context.Context, evt *event.Event, mail port.Mail) error {
	if err := s.mailer.Send(ctx, mail); err != nil {
		s.logger.Error("Failed to send notification",
			"error", err,
			"request_id", evt.RequestID,
			"module", evt.Module,
			"kind", mail.Kind,
		)
		return fmt.Errorf("send %s mail: %w", mail.Kind, err)
	}

	s.logger.Info("Notification sent", "request_id", evt.RequestID, "module", evt.Module, "kind", mail.Kind)
	return nil
}
