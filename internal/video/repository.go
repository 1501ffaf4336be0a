// AngelaMos | 2026
// repository.go

package video

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
	Create(ctx context.Context, video *Video) error
	GetByID(ctx context.Context, id string) (*Video, error)
	IncrementViews(ctx context.Context, id string) (*Video, error)
}

type videoDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	VideoFile   string             `bson:"videoFile"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Views       int64              `bson:"views"`
	IsPublished bool               `bson:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *videoDocument) toVideo() *Video {
	return &Video{
		ID:          d.ID.Hex(),
		VideoFile:   d.VideoFile,
		Thumbnail:   d.Thumbnail,
		Title:       d.Title,
		Description: d.Description,
		Duration:    d.Duration,
		Views:       d.Views,
		IsPublished: d.IsPublished,
		Owner:       d.Owner.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoRepository struct {
	videos *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{videos: db.Collection(core.CollectionVideos)}
}

func (r *mongoRepository) Create(ctx context.Context, video *Video) error {
	owner, err := core.ObjectID(video.Owner)
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := videoDocument{
		ID:          primitive.NewObjectID(),
		VideoFile:   video.VideoFile,
		Thumbnail:   video.Thumbnail,
		Title:       video.Title,
		Description: video.Description,
		Duration:    video.Duration,
		IsPublished: video.IsPublished,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.videos.InsertOne(ctx, doc); err != nil {
		return core.MongoError("create video", err)
	}

	video.ID = doc.ID.Hex()
	video.Views = 0
	video.CreatedAt = now
	video.UpdatedAt = now
	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Video, error) {
	oid, err := core.ObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	var doc videoDocument
	if err := r.videos.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, core.MongoError("get video", err)
	}

	return doc.toVideo(), nil
}

func (r *mongoRepository) IncrementViews(ctx context.Context, id string) (*Video, error) {
	oid, err := core.ObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}

	var doc videoDocument
	err = r.videos.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, core.MongoError("increment views", err)
	}

	return doc.toVideo(), nil
}
