// AngelaMos | 2026
// store.go

package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/subscription"
	"github.com/vidtube/go-backend/internal/user"
	"github.com/vidtube/go-backend/internal/video"
)

// Store is an in-memory stand-in for the document store. The three
// repository views share one state so joins see every write. Ids are
// ObjectID hex strings, matching the default driver.
type Store struct {
	mu            sync.RWMutex
	users         map[string]*user.User
	subscriptions []*subscription.Subscription
	videos        map[string]*video.Video
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]*user.User),
		videos: make(map[string]*video.Video),
	}
}

func (s *Store) Users() user.Repository {
	return &userRepo{s}
}

func (s *Store) Subscriptions() subscription.Repository {
	return &subscriptionRepo{s}
}

func (s *Store) Videos() video.Repository {
	return &videoRepo{s}
}

// User returns a copy of the stored user, or nil.
func (s *Store) User(id string) *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

// SubscriptionCount counts stored edges, duplicates included.
func (s *Store) SubscriptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscriptions)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func checkID(op, id string) error {
	if _, err := core.ObjectID(id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func cloneUser(u *user.User) *user.User {
	c := *u
	c.WatchHistory = slices.Clone(u.WatchHistory)
	if c.WatchHistory == nil {
		c.WatchHistory = []string{}
	}
	return &c
}

type userRepo struct {
	*Store
}

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}

	ts := now()
	u.ID = newID()
	u.WatchHistory = []string{}
	u.CreatedAt = ts
	u.UpdatedAt = ts
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	if err := checkID("get user", id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u := r.findByUsernameOrEmail(username, email); u != nil {
		return cloneUser(u), nil
	}
	return nil, fmt.Errorf("get user by username or email: %w", core.ErrNotFound)
}

func (r *userRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.findByUsernameOrEmail(username, email) != nil, nil
}

func (r *userRepo) findByUsernameOrEmail(username, email string) *user.User {
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u
		}
	}
	return nil
}

func (r *userRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, id string, patch user.ProfilePatch) (*user.User, error) {
	var result *user.User
	err := r.mutate("update user", id, func(u *user.User) error {
		if patch.Email != nil {
			for otherID, other := range r.users {
				if otherID != id && other.Email == *patch.Email {
					return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
				}
			}
			u.Email = *patch.Email
		}
		if patch.FullName != nil {
			u.FullName = *patch.FullName
		}
		if patch.Avatar != nil {
			u.Avatar = *patch.Avatar
		}
		if patch.CoverImage != nil {
			u.CoverImage = *patch.CoverImage
		}
		result = cloneUser(u)
		return nil
	})
	return result, err
}

func (r *userRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.mutate("update password", id, func(u *user.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (r *userRepo) SetRefreshTokenHash(_ context.Context, id, hash string) error {
	return r.mutate("set refresh token", id, func(u *user.User) error {
		u.RefreshTokenHash = hash
		return nil
	})
}

func (r *userRepo) UnsetRefreshToken(_ context.Context, id string) error {
	return r.mutate("unset refresh token", id, func(u *user.User) error {
		u.RefreshTokenHash = ""
		return nil
	})
}

func (r *userRepo) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	if err := checkID("append watch history", videoID); err != nil {
		return err
	}

	return r.mutate("append watch history", userID, func(u *user.User) error {
		history := []string{videoID}
		for _, id := range u.WatchHistory {
			if id != videoID {
				history = append(history, id)
			}
		}
		u.WatchHistory = history
		return nil
	})
}

func (r *userRepo) ChannelProfile(_ context.Context, username, requesterID string) (*user.ChannelProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var channel *user.User
	for _, u := range r.users {
		if u.Username == username {
			channel = u
			break
		}
	}
	if channel == nil {
		return nil, fmt.Errorf("channel profile: %w", core.ErrNotFound)
	}

	profile := &user.ChannelProfile{
		ID:         channel.ID,
		FullName:   channel.FullName,
		Username:   channel.Username,
		Email:      channel.Email,
		Avatar:     channel.Avatar,
		CoverImage: channel.CoverImage,
	}
	for _, sub := range r.subscriptions {
		if sub.Channel == channel.ID {
			profile.SubscribersCount++
			if sub.Subscriber == requesterID {
				profile.IsSubscribed = true
			}
		}
		if sub.Subscriber == channel.ID {
			profile.ChannelsSubscribedToCount++
		}
	}

	return profile, nil
}

func (r *userRepo) WatchHistory(_ context.Context, userID string) ([]user.WatchedVideo, error) {
	if err := checkID("watch history", userID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("watch history: %w", core.ErrNotFound)
	}

	videos := make([]user.WatchedVideo, 0, len(u.WatchHistory))
	for _, id := range u.WatchHistory {
		v, ok := r.videos[id]
		if !ok {
			continue
		}

		entry := user.WatchedVideo{
			ID:          v.ID,
			VideoFile:   v.VideoFile,
			Thumbnail:   v.Thumbnail,
			Title:       v.Title,
			Description: v.Description,
			Duration:    v.Duration,
			Views:       v.Views,
			IsPublished: v.IsPublished,
			CreatedAt:   v.CreatedAt,
			UpdatedAt:   v.UpdatedAt,
		}
		if owner, ok := r.users[v.Owner]; ok {
			entry.Owner = &user.VideoOwner{
				ID:       owner.ID,
				FullName: owner.FullName,
				Username: owner.Username,
				Avatar:   owner.Avatar,
			}
		}
		videos = append(videos, entry)
	}

	return videos, nil
}

func (r *userRepo) mutate(op, id string, fn func(u *user.User) error) error {
	if err := checkID(op, id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = now()
	return nil
}

type subscriptionRepo struct {
	*Store
}

func (r *subscriptionRepo) Find(_ context.Context, subscriberID, channelID string) (*subscription.Subscription, error) {
	if err := checkID("find subscription", subscriberID); err != nil {
		return nil, err
	}
	if err := checkID("find subscription", channelID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subscriptions {
		if sub.Subscriber == subscriberID && sub.Channel == channelID {
			c := *sub
			return &c, nil
		}
	}
	return nil, fmt.Errorf("find subscription: %w", core.ErrNotFound)
}

func (r *subscriptionRepo) Create(_ context.Context, sub *subscription.Subscription) error {
	if err := checkID("create subscription", sub.Subscriber); err != nil {
		return err
	}
	if err := checkID("create subscription", sub.Channel); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ts := now()
	sub.ID = newID()
	sub.CreatedAt = ts
	sub.UpdatedAt = ts
	c := *sub
	r.subscriptions = append(r.subscriptions, &c)
	return nil
}

func (r *subscriptionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subscriptions {
		if sub.ID == id {
			r.subscriptions = slices.Delete(r.subscriptions, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("delete subscription: %w", core.ErrNotFound)
}

func (r *subscriptionRepo) ListSubscribers(_ context.Context, channelID string) ([]subscription.Member, error) {
	return r.members("list subscribers", channelID, func(sub *subscription.Subscription) (string, string) {
		return sub.Channel, sub.Subscriber
	})
}

func (r *subscriptionRepo) ListSubscribedChannels(_ context.Context, subscriberID string) ([]subscription.Member, error) {
	return r.members("list subscribed channels", subscriberID, func(sub *subscription.Subscription) (string, string) {
		return sub.Subscriber, sub.Channel
	})
}

// members walks edges newest first. ends returns the matched end and the
// end to resolve.
func (r *subscriptionRepo) members(
	op, id string,
	ends func(*subscription.Subscription) (string, string),
) ([]subscription.Member, error) {
	if err := checkID(op, id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	members := []subscription.Member{}
	for i := len(r.subscriptions) - 1; i >= 0; i-- {
		sub := r.subscriptions[i]
		matched, other := ends(sub)
		if matched != id {
			continue
		}
		u, ok := r.users[other]
		if !ok {
			continue
		}
		members = append(members, subscription.Member{
			ID:           u.ID,
			Username:     u.Username,
			FullName:     u.FullName,
			Avatar:       u.Avatar,
			SubscribedAt: sub.CreatedAt,
		})
	}

	return members, nil
}

type videoRepo struct {
	*Store
}

func (r *videoRepo) Create(_ context.Context, v *video.Video) error {
	if err := checkID("create video", v.Owner); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ts := now()
	v.ID = newID()
	v.Views = 0
	v.CreatedAt = ts
	v.UpdatedAt = ts
	c := *v
	r.videos[v.ID] = &c
	return nil
}

func (r *videoRepo) GetByID(_ context.Context, id string) (*video.Video, error) {
	if err := checkID("get video", id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.videos[id]
	if !ok {
		return nil, fmt.Errorf("get video: %w", core.ErrNotFound)
	}
	c := *v
	return &c, nil
}

func (r *videoRepo) IncrementViews(_ context.Context, id string) (*video.Video, error) {
	if err := checkID("increment views", id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.videos[id]
	if !ok {
		return nil, fmt.Errorf("increment views: %w", core.ErrNotFound)
	}
	v.Views++
	c := *v
	return &c, nil
}
