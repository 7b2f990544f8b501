package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/queue"
)

// NotificationStore persists notifications.
type NotificationStore interface {
	Create(ctx context.Context, ev model.NotificationEvent) (uint64, error)
	ListByRecipient(ctx context.Context, recipientID uint64, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uint64) error
	MarkAllRead(ctx context.Context, recipientID uint64) (int64, error)
	Delete(ctx context.Context, id, recipientID uint64) error
}

// Notifications stores notifications for the recipient's inbox and
// publishes them to the broker for any push channel listening there.
type Notifications struct {
	store  NotificationStore
	events EventPublisher
}

func NewNotifications(store NotificationStore, events EventPublisher) *Notifications {
	return &Notifications{store: store, events: events}
}

type notificationPayload struct {
	ID uint64 `json:"id"`
	model.NotificationEvent
}

// Notify persists ev and publishes it.
func (n *Notifications) Notify(ctx context.Context, ev model.NotificationEvent) error {
	if ev.RecipientID == 0 {
		return fmt.Errorf("%w: notification without recipient", model.ErrInvalidInput)
	}
	if !ev.Priority.Valid() {
		ev.Priority = model.PriorityMedium
	}
	if ev.Type == "" {
		ev.Type = model.NotifySystem
	}
	id, err := n.store.Create(ctx, ev)
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if err := n.events.Publish(ctx, queue.KeyNotification, notificationPayload{ID: id, NotificationEvent: ev}); err != nil {
		return fmt.Errorf("publish notification %d: %w", id, err)
	}
	return nil
}

// ListMine returns the actor's newest notifications.
func (n *Notifications) ListMine(ctx context.Context, actor model.Actor, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return n.store.ListByRecipient(ctx, actor.ID, unreadOnly, limit)
}

// MarkRead marks one of the actor's notifications as read. Other users'
// notifications are reported as not found.
func (n *Notifications) MarkRead(ctx context.Context, actor model.Actor, id uint64) error {
	return n.store.MarkRead(ctx, id, actor.ID)
}

// MarkAllRead clears the actor's unread inbox.
func (n *Notifications) MarkAllRead(ctx context.Context, actor model.Actor) (int64, error) {
	return n.store.MarkAllRead(ctx, actor.ID)
}

// Delete removes one of the actor's notifications.
func (n *Notifications) Delete(ctx context.Context, actor model.Actor, id uint64) error {
	return n.store.Delete(ctx, id, actor.ID)
}
