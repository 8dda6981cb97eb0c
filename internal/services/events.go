package services

import (
	"context"
	"fmt"

	"github.com/inhahackathon/foodmarket/internal/mq"
	"github.com/inhahackathon/foodmarket/internal/upload"
	"github.com/inhahackathon/foodmarket/types"
	"github.com/sirupsen/logrus"
)

// EventPublisher announces committed changes to other components.
type EventPublisher interface {
	PublishBoardsDeleted(ctx context.Context, event types.BoardsDeletedEvent) error
}

// BrokerPublisher sends events through the message broker.
type BrokerPublisher struct {
	mq      *mq.MQ
	channel string
}

func NewBrokerPublisher(m *mq.MQ, channel string) *BrokerPublisher {
	return &BrokerPublisher{mq: m, channel: channel}
}

func (p *BrokerPublisher) PublishBoardsDeleted(ctx context.Context, event types.BoardsDeletedEvent) error {
	if _, err := p.mq.PublishJSON(ctx, p.channel, event); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// InlinePublisher handles events in-process when no broker is configured.
type InlinePublisher struct {
	cleanup *ImageCleanup
}

func NewInlinePublisher(cleanup *ImageCleanup) *InlinePublisher {
	return &InlinePublisher{cleanup: cleanup}
}

func (p *InlinePublisher) PublishBoardsDeleted(ctx context.Context, event types.BoardsDeletedEvent) error {
	return p.cleanup.Handle(ctx, event)
}

// PrefixDeleter is the part of storage.Storage used for cleanup.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, p string) error
}

// ImageCleanup removes the stored images of deleted boards.
type ImageCleanup struct {
	storage PrefixDeleter
	logger  logrus.FieldLogger
}

func NewImageCleanup(storage PrefixDeleter, logger logrus.FieldLogger) *ImageCleanup {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImageCleanup{storage: storage, logger: logger}
}

// Handle deletes every /board/{id} directory named in event. It keeps going
// after a failure and returns the first error.
func (c *ImageCleanup) Handle(ctx context.Context, event types.BoardsDeletedEvent) error {
	var firstErr error
	for _, id := range event.BoardIDs {
		dir := upload.Dir(&id)
		if err := c.storage.DeletePrefix(ctx, dir); err != nil {
			c.logger.WithError(err).WithField("dir", dir).Warn("failed to remove board images")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.logger.WithField("dir", dir).Debug("removed board images")
	}
	return firstErr
}

// HandleMessage decodes a boards.deleted message and handles it.
func (c *ImageCleanup) HandleMessage(ctx context.Context, msg mq.Message) error {
	var event types.BoardsDeletedEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}
	return c.Handle(ctx, event)
}

// publish sends event and logs failures; deletions are already committed.
func publish(ctx context.Context, events EventPublisher, logger logrus.FieldLogger, event types.BoardsDeletedEvent) {
	if events == nil || len(event.BoardIDs) == 0 {
		return
	}
	if err := events.PublishBoardsDeleted(ctx, event); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"user_id":   event.UserID,
			"board_ids": event.BoardIDs,
		}).Warn("failed to publish boards deleted event")
	}
}
