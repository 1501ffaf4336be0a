// AngelaMos | 2026
// repository_test.go

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/subscription"
	"github.com/vidtube/go-backend/internal/testutil"
	"github.com/vidtube/go-backend/internal/user"
	"github.com/vidtube/go-backend/internal/video"
)

func TestMongoRepository_Integration(t *testing.T) {
	db := testutil.NewTestMongo(t)
	ctx := context.Background()

	users := user.NewRepository(db.DB)
	subs := subscription.NewRepository(db.DB)
	videos := video.NewRepository(db.DB)
	hasher := testutil.TestHasher(t)

	alice := testutil.NewUserBuilder().WithUsername("alice").WithEmail("alice@example.com").Build(t, users, hasher)
	bob := testutil.NewUserBuilder().WithUsername("bob").WithEmail("bob@example.com").Build(t, users, hasher)

	t.Run("unique username and email", func(t *testing.T) {
		err := users.Create(ctx, &user.User{Username: "alice", Email: "fresh@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, core.ErrDuplicateKey)

		exists, err := users.ExistsByUsernameOrEmail(ctx, "", "bob@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("refresh slot", func(t *testing.T) {
		require.NoError(t, users.SetRefreshTokenHash(ctx, alice.ID, "hash-1"))
		got, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-1", got.RefreshTokenHash)

		require.NoError(t, users.UnsetRefreshToken(ctx, alice.ID))
		got, err = users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, got.RefreshTokenHash)
	})

	t.Run("channel profile", func(t *testing.T) {
		require.NoError(t, subs.Create(ctx, &subscription.Subscription{Subscriber: bob.ID, Channel: alice.ID}))

		profile, err := users.ChannelProfile(ctx, "alice", bob.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, profile.ID)
		assert.Equal(t, int64(1), profile.SubscribersCount)
		assert.Equal(t, int64(0), profile.ChannelsSubscribedToCount)
		assert.True(t, profile.IsSubscribed)

		profile, err = users.ChannelProfile(ctx, "alice", alice.ID)
		require.NoError(t, err)
		assert.False(t, profile.IsSubscribed)

		_, err = users.ChannelProfile(ctx, "nobody", bob.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)

		members, err := subs.ListSubscribers(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "bob", members[0].Username)
	})

	t.Run("watch history order", func(t *testing.T) {
		first := &video.Video{Title: "first", Description: "d", VideoFile: "v1", Thumbnail: "t1", IsPublished: true, Owner: alice.ID}
		second := &video.Video{Title: "second", Description: "d", VideoFile: "v2", Thumbnail: "t2", IsPublished: true, Owner: alice.ID}
		require.NoError(t, videos.Create(ctx, first))
		require.NoError(t, videos.Create(ctx, second))

		require.NoError(t, users.AppendWatchHistory(ctx, bob.ID, first.ID))
		require.NoError(t, users.AppendWatchHistory(ctx, bob.ID, second.ID))
		require.NoError(t, users.AppendWatchHistory(ctx, bob.ID, first.ID))

		viewed, err := videos.IncrementViews(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), viewed.Views)

		history, err := users.WatchHistory(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, first.ID, history[0].ID)
		assert.Equal(t, second.ID, history[1].ID)
		require.NotNil(t, history[0].Owner)
		assert.Equal(t, "alice", history[0].Owner.Username)
	})
}
