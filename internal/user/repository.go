// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/go-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRefreshTokenHash(ctx context.Context, id, hash string) error
	UnsetRefreshToken(ctx context.Context, id string) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
	ChannelProfile(ctx context.Context, username, requesterID string) (*ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]WatchedVideo, error)
}

type userDocument struct {
	ID           primitive.ObjectID   `bson:"_id"`
	Username     string               `bson:"username"`
	Email        string               `bson:"email"`
	FullName     string               `bson:"fullName"`
	Avatar       string               `bson:"avatar"`
	CoverImage   string               `bson:"coverImage"`
	Password     string               `bson:"password"`
	RefreshToken string               `bson:"refreshToken,omitempty"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func (d *userDocument) toUser() *User {
	history := make([]string, 0, len(d.WatchHistory))
	for _, id := range d.WatchHistory {
		history = append(history, id.Hex())
	}

	return &User{
		ID:               d.ID.Hex(),
		Username:         d.Username,
		Email:            d.Email,
		FullName:         d.FullName,
		Avatar:           d.Avatar,
		CoverImage:       d.CoverImage,
		PasswordHash:     d.Password,
		RefreshTokenHash: d.RefreshToken,
		WatchHistory:     history,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type channelProfileDocument struct {
	ID                        primitive.ObjectID `bson:"_id"`
	FullName                  string             `bson:"fullName"`
	Username                  string             `bson:"username"`
	Email                     string             `bson:"email"`
	Avatar                    string             `bson:"avatar"`
	CoverImage                string             `bson:"coverImage"`
	SubscribersCount          int64              `bson:"subscribersCount"`
	ChannelsSubscribedToCount int64              `bson:"channelsSubscribedToCount"`
	IsSubscribed              bool               `bson:"isSubscribed"`
}

type ownerDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	FullName string             `bson:"fullName"`
	Username string             `bson:"username"`
	Avatar   string             `bson:"avatar"`
}

type watchedVideoDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	VideoFile   string             `bson:"videoFile"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Views       int64              `bson:"views"`
	IsPublished bool               `bson:"isPublished"`
	Owner       *ownerDocument     `bson:"owner"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type mongoRepository struct {
	users *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{users: db.Collection(core.CollectionUsers)}
}

func (r *mongoRepository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Avatar:       user.Avatar,
		CoverImage:   user.CoverImage,
		Password:     user.PasswordHash,
		WatchHistory: []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return core.MongoError("create user", err)
	}

	user.ID = doc.ID.Hex()
	user.WatchHistory = []string{}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*User, error) {
	oid, err := core.ObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return r.findOne(ctx, "get user", bson.D{{Key: "_id", Value: oid}})
}

func (r *mongoRepository) GetByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (*User, error) {
	filter, ok := usernameOrEmailFilter(username, email)
	if !ok {
		return nil, fmt.Errorf("get user by username or email: %w", core.ErrNotFound)
	}

	return r.findOne(ctx, "get user by username or email", filter)
}

func (r *mongoRepository) ExistsByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (bool, error) {
	filter, ok := usernameOrEmailFilter(username, email)
	if !ok {
		return false, nil
	}

	count, err := r.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, core.MongoError("check user exists", err)
	}

	return count > 0, nil
}

func (r *mongoRepository) Exists(ctx context.Context, id string) (bool, error) {
	oid, err := core.ObjectID(id)
	if err != nil {
		return false, nil //nolint:nilerr // malformed ids never exist
	}

	count, err := r.users.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}}, options.Count().SetLimit(1))
	if err != nil {
		return false, core.MongoError("check user exists", err)
	}

	return count > 0, nil
}

func (r *mongoRepository) UpdateProfile(
	ctx context.Context,
	id string,
	patch ProfilePatch,
) (*User, error) {
	oid, err := core.ObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.FullName != nil {
		set = append(set, bson.E{Key: "fullName", Value: *patch.FullName})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.Avatar != nil {
		set = append(set, bson.E{Key: "avatar", Value: *patch.Avatar})
	}
	if patch.CoverImage != nil {
		set = append(set, bson.E{Key: "coverImage", Value: *patch.CoverImage})
	}

	var doc userDocument
	err = r.users.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, core.MongoError("update user", err)
	}

	return doc.toUser(), nil
}

func (r *mongoRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, "update password", id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password", Value: passwordHash},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}},
	})
}

func (r *mongoRepository) SetRefreshTokenHash(ctx context.Context, id, hash string) error {
	return r.updateByID(ctx, "set refresh token", id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "refreshToken", Value: hash},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}},
	})
}

// UnsetRefreshToken removes the field rather than nulling it.
func (r *mongoRepository) UnsetRefreshToken(ctx context.Context, id string) error {
	return r.updateByID(ctx, "unset refresh token", id, bson.D{
		{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	})
}

func (r *mongoRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	vid, err := core.ObjectID(videoID)
	if err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}

	return r.updateByID(ctx, "append watch history", userID, prependWatchUpdate(vid))
}

func (r *mongoRepository) ChannelProfile(
	ctx context.Context,
	username, requesterID string,
) (*ChannelProfile, error) {
	requester, err := core.ObjectID(requesterID)
	if err != nil {
		requester = primitive.NilObjectID
	}

	cursor, err := r.users.Aggregate(ctx, channelProfilePipeline(username, requester))
	if err != nil {
		return nil, core.MongoError("channel profile", err)
	}

	var docs []channelProfileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.MongoError("channel profile", err)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("channel profile: %w", core.ErrNotFound)
	}

	d := docs[0]
	return &ChannelProfile{
		ID:                        d.ID.Hex(),
		FullName:                  d.FullName,
		Username:                  d.Username,
		Email:                     d.Email,
		Avatar:                    d.Avatar,
		CoverImage:                d.CoverImage,
		SubscribersCount:          d.SubscribersCount,
		ChannelsSubscribedToCount: d.ChannelsSubscribedToCount,
		IsSubscribed:              d.IsSubscribed,
	}, nil
}

func (r *mongoRepository) WatchHistory(ctx context.Context, userID string) ([]WatchedVideo, error) {
	oid, err := core.ObjectID(userID)
	if err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}

	cursor, err := r.users.Aggregate(ctx, watchHistoryPipeline(oid))
	if err != nil {
		return nil, core.MongoError("watch history", err)
	}

	var docs []struct {
		WatchHistory []watchedVideoDocument `bson:"watchHistory"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.MongoError("watch history", err)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("watch history: %w", core.ErrNotFound)
	}

	videos := make([]WatchedVideo, 0, len(docs[0].WatchHistory))
	for _, v := range docs[0].WatchHistory {
		entry := WatchedVideo{
			ID:          v.ID.Hex(),
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
		if v.Owner != nil {
			entry.Owner = &VideoOwner{
				ID:       v.Owner.ID.Hex(),
				FullName: v.Owner.FullName,
				Username: v.Owner.Username,
				Avatar:   v.Owner.Avatar,
			}
		}
		videos = append(videos, entry)
	}

	return videos, nil
}

func (r *mongoRepository) findOne(ctx context.Context, op string, filter bson.D) (*User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, core.MongoError(op, err)
	}
	return doc.toUser(), nil
}

func (r *mongoRepository) updateByID(ctx context.Context, op, id string, update any) error {
	oid, err := core.ObjectID(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := r.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return core.MongoError(op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func usernameOrEmailFilter(username, email string) (bson.D, bool) {
	or := bson.A{}
	if username != "" {
		or = append(or, bson.D{{Key: "username", Value: username}})
	}
	if email != "" {
		or = append(or, bson.D{{Key: "email", Value: email}})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.D{{Key: "$or", Value: or}}, true
}
