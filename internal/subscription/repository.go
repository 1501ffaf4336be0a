// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/go-backend/internal/core"
)

type Repository interface {
	Find(ctx context.Context, subscriberID, channelID string) (*Subscription, error)
	Create(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id string) error
	ListSubscribers(ctx context.Context, channelID string) ([]Member, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]Member, error)
}

type subscriptionDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	Subscriber primitive.ObjectID `bson:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

type memberDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	FullName     string             `bson:"fullName"`
	Avatar       string             `bson:"avatar"`
	SubscribedAt time.Time          `bson:"subscribedAt"`
}

type mongoRepository struct {
	subscriptions *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{subscriptions: db.Collection(core.CollectionSubscriptions)}
}

func (r *mongoRepository) Find(
	ctx context.Context,
	subscriberID, channelID string,
) (*Subscription, error) {
	subscriber, err := core.ObjectID(subscriberID)
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	channel, err := core.ObjectID(channelID)
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}

	var doc subscriptionDocument
	err = r.subscriptions.FindOne(ctx, bson.D{
		{Key: "subscriber", Value: subscriber},
		{Key: "channel", Value: channel},
	}).Decode(&doc)
	if err != nil {
		return nil, core.MongoError("find subscription", err)
	}

	return &Subscription{
		ID:         doc.ID.Hex(),
		Subscriber: doc.Subscriber.Hex(),
		Channel:    doc.Channel.Hex(),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

func (r *mongoRepository) Create(ctx context.Context, sub *Subscription) error {
	subscriber, err := core.ObjectID(sub.Subscriber)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	channel, err := core.ObjectID(sub.Channel)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := subscriptionDocument{
		ID:         primitive.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := r.subscriptions.InsertOne(ctx, doc); err != nil {
		return core.MongoError("create subscription", err)
	}

	sub.ID = doc.ID.Hex()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := core.ObjectID(id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	res, err := r.subscriptions.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return core.MongoError("delete subscription", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete subscription: %w", core.ErrNotFound)
	}

	return nil
}

func (r *mongoRepository) ListSubscribers(ctx context.Context, channelID string) ([]Member, error) {
	channel, err := core.ObjectID(channelID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	return r.members(ctx, "list subscribers", memberPipeline("channel", "subscriber", channel))
}

func (r *mongoRepository) ListSubscribedChannels(
	ctx context.Context,
	subscriberID string,
) ([]Member, error) {
	subscriber, err := core.ObjectID(subscriberID)
	if err != nil {
		return nil, fmt.Errorf("list subscribed channels: %w", err)
	}

	return r.members(ctx, "list subscribed channels", memberPipeline("subscriber", "channel", subscriber))
}

func (r *mongoRepository) members(ctx context.Context, op string, pipeline mongo.Pipeline) ([]Member, error) {
	cursor, err := r.subscriptions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, core.MongoError(op, err)
	}

	var docs []memberDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.MongoError(op, err)
	}

	members := make([]Member, 0, len(docs))
	for _, d := range docs {
		members = append(members, Member{
			ID:           d.ID.Hex(),
			Username:     d.Username,
			FullName:     d.FullName,
			Avatar:       d.Avatar,
			SubscribedAt: d.SubscribedAt,
		})
	}

	return members, nil
}

// memberPipeline matches edges on matchField and resolves the user on the
// other end, newest edge first. Edges pointing at deleted users are dropped
// by the unwind.
func memberPipeline(matchField, otherField string, id primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: matchField, Value: id}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: core.CollectionUsers},
			{Key: "localField", Value: otherField},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "member"},
		}}},
		{{Key: "$unwind", Value: "$member"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: "$member._id"},
			{Key: "username", Value: "$member.username"},
			{Key: "fullName", Value: "$member.fullName"},
			{Key: "avatar", Value: "$member.avatar"},
			{Key: "subscribedAt", Value: "$createdAt"},
		}}},
	}
}
