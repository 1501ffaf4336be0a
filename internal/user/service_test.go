// AngelaMos | 2026
// service_test.go

package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/media"
	"github.com/vidtube/go-backend/internal/subscription"
	"github.com/vidtube/go-backend/internal/testutil"
	"github.com/vidtube/go-backend/internal/user"
	"github.com/vidtube/go-backend/internal/video"
)

type fixture struct {
	svc      *user.Service
	store    *testutil.Store
	uploader *testutil.FakeUploader
	hasher   *core.PasswordHasher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewStore()
	uploader := &testutil.FakeUploader{}
	mediaSvc := media.NewService(uploader, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &fixture{
		svc:      user.NewService(store.Users(), mediaSvc),
		store:    store,
		uploader: uploader,
		hasher:   testutil.TestHasher(t),
	}
}

func (f *fixture) seed(t *testing.T, username string) *user.User {
	t.Helper()
	return testutil.NewUserBuilder().
		WithUsername(username).
		WithEmail(username+"@example.com").
		Build(t, f.store.Users(), f.hasher)
}

func (f *fixture) subscribe(t *testing.T, subscriber, channel *user.User) {
	t.Helper()
	require.NoError(t, f.store.Subscriptions().Create(context.Background(), &subscription.Subscription{
		Subscriber: subscriber.ID,
		Channel:    channel.ID,
	}))
}

func (f *fixture) video(t *testing.T, owner *user.User, title string) *video.Video {
	t.Helper()
	v := &video.Video{
		Title:       title,
		Description: title + " description",
		VideoFile:   "https://media.test/" + title + ".mp4",
		Thumbnail:   "https://media.test/" + title + ".png",
		Duration:    12.5,
		IsPublished: true,
		Owner:       owner.ID,
	}
	require.NoError(t, f.store.Videos().Create(context.Background(), v))
	return v
}

func TestService_GetCurrentUser(t *testing.T) {
	f := newFixture(t)
	alice := f.seed(t, "alice")
	require.NoError(t, f.svc.SetRefreshTokenHash(context.Background(), alice.ID, "hash"))

	resp, err := f.svc.GetCurrentUser(context.Background(), alice.ID)
	require.NoError(t, err)

	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, []string{}, resp.WatchHistory)

	_, err = f.svc.GetCurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestService_ResolveIdentity(t *testing.T) {
	f := newFixture(t)
	alice := f.seed(t, "alice")

	identity, err := f.svc.ResolveIdentity(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, identity.ID)
	assert.Equal(t, "alice", identity.Username)

	_, err = f.svc.ResolveIdentity(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.ResolveIdentity(context.Background(), "64b7f0c2a1b2c3d4e5f60718")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_UpdateAccount(t *testing.T) {
	f := newFixture(t)
	alice := f.seed(t, "alice")
	f.seed(t, "bob")

	tests := []struct {
		name       string
		req        user.UpdateAccountRequest
		wantStatus int
		wantEmail  string
	}{
		{name: "blank name", req: user.UpdateAccountRequest{FullName: " ", Email: "a@example.com"}, wantStatus: http.StatusBadRequest},
		{name: "blank email", req: user.UpdateAccountRequest{FullName: "Alice"}, wantStatus: http.StatusBadRequest},
		{name: "email taken", req: user.UpdateAccountRequest{FullName: "Alice", Email: "BOB@example.com"}, wantStatus: http.StatusConflict},
		{name: "success", req: user.UpdateAccountRequest{FullName: "Alice Cooper", Email: "Alice.C@Example.com"}, wantEmail: "alice.c@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.UpdateAccount(context.Background(), alice.ID, tt.req)
			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, core.FromError(err).StatusCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, resp.Email)
			assert.Equal(t, "Alice Cooper", resp.FullName)
			assert.Equal(t, tt.wantEmail, f.store.User(alice.ID).Email)
		})
	}
}

func TestService_UpdateAvatarAndCover(t *testing.T) {
	f := newFixture(t)
	alice := f.seed(t, "alice")
	ctx := context.Background()

	_, err := f.svc.UpdateAvatar(ctx, alice.ID, "")
	assert.Equal(t, http.StatusBadRequest, core.FromError(err).StatusCode)

	avatar := testutil.TempFile(t, ".png")
	resp, err := f.svc.UpdateAvatar(ctx, alice.ID, avatar)
	require.NoError(t, err)
	assert.Contains(t, resp.Avatar, "https://media.test/")
	_, statErr := os.Stat(avatar)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	f.uploader.FailOn = func(string) bool { return true }
	cover := testutil.TempFile(t, ".jpg")
	_, err = f.svc.UpdateCoverImage(ctx, alice.ID, cover)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, core.FromError(err).StatusCode)
	assert.Empty(t, f.store.User(alice.ID).CoverImage)
	_, statErr = os.Stat(cover)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestService_ChannelProfile(t *testing.T) {
	f := newFixture(t)
	alice := f.seed(t, "alice")
	bob := f.seed(t, "bob")
	carol := f.seed(t, "carol")

	f.subscribe(t, bob, alice)
	f.subscribe(t, carol, alice)
	f.subscribe(t, alice, carol)

	tests := []struct {
		name            string
		username        string
		requester       string
		wantSubscribers int64
		wantFollowing   int64
		wantSubscribed  bool
		wantStatus      int
	}{
		{name: "subscriber views channel", username: "ALICE", requester: bob.ID, wantSubscribers: 2, wantFollowing: 1, wantSubscribed: true},
		{name: "owner views own channel", username: "alice", requester: alice.ID, wantSubscribers: 2, wantFollowing: 1},
		{name: "channel with no subscribers", username: "bob", requester: alice.ID, wantFollowing: 1},
		{name: "blank username", username: "  ", wantStatus: http.StatusBadRequest},
		{name: "unknown channel", username: "nobody", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := f.svc.ChannelProfile(context.Background(), tt.username, tt.requester)
			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, core.FromError(err).StatusCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSubscribers, profile.SubscribersCount)
			assert.Equal(t, tt.wantFollowing, profile.ChannelsSubscribedToCount)
			assert.Equal(t, tt.wantSubscribed, profile.IsSubscribed)
		})
	}
}

func TestService_WatchHistoryOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seed(t, "alice")
	bob := f.seed(t, "bob")

	first := f.video(t, bob, "first")
	second := f.video(t, bob, "second")

	history, err := f.svc.WatchHistory(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, f.svc.RecordWatch(ctx, alice.ID, first.ID))
	require.NoError(t, f.svc.RecordWatch(ctx, alice.ID, second.ID))
	require.NoError(t, f.svc.RecordWatch(ctx, alice.ID, first.ID))

	history, err = f.svc.WatchHistory(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
	require.NotNil(t, history[0].Owner)
	assert.Equal(t, "bob", history[0].Owner.Username)
	assert.Equal(t, bob.ID, history[0].Owner.ID)
}
