// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"strings"

	"github.com/vidtube/go-backend/internal/core"
)

// Channels reports whether a user id refers to an existing account.
type Channels interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	repo     Repository
	channels Channels
}

func NewService(repo Repository, channels Channels) *Service {
	return &Service{repo: repo, channels: channels}
}

// Toggle subscribes when no edge exists and unsubscribes otherwise. The
// lookup and write are two steps, so concurrent toggles by the same user can
// leave a duplicate edge; the next toggle removes one of them.
func (s *Service) Toggle(ctx context.Context, subscriberID, channelID string) (*ToggleResult, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, core.BadRequestError("channel id is missing")
	}
	if channelID == subscriberID {
		return nil, core.BadRequestError("You cannot subscribe to your own channel")
	}

	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "subscription.toggle")
	defer span.End()

	existing, err := s.repo.Find(ctx, subscriberID, channelID)
	switch {
	case err == nil:
		if err := s.repo.Delete(ctx, existing.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
			core.SetSpanError(ctx, err)
			return nil, err
		}
		return &ToggleResult{ChannelID: channelID, Subscribed: false}, nil
	case errors.Is(err, core.ErrNotFound):
	default:
		core.SetSpanError(ctx, err)
		return nil, err
	}

	sub := &Subscription{Subscriber: subscriberID, Channel: channelID}
	if err := s.repo.Create(ctx, sub); err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return &ToggleResult{ChannelID: channelID, Subscribed: true}, nil
}

func (s *Service) Subscribers(ctx context.Context, channelID string) ([]Member, error) {
	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}

	return s.repo.ListSubscribers(ctx, channelID)
}

func (s *Service) SubscribedChannels(ctx context.Context, subscriberID string) ([]Member, error) {
	exists, err := s.channels.Exists(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.NotFoundError("User")
	}

	return s.repo.ListSubscribedChannels(ctx, subscriberID)
}

func (s *Service) requireChannel(ctx context.Context, channelID string) error {
	exists, err := s.channels.Exists(ctx, channelID)
	if err != nil {
		return err
	}
	if !exists {
		return core.NotFoundError("Channel")
	}
	return nil
}
