// AngelaMos | 2026
// pipelines.go

package user

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/go-backend/internal/core"
)

// channelProfilePipeline joins the subscription edges twice, once with the
// user as channel and once as subscriber, then projects a whitelist so the
// raw edge lists never leave the database.
func channelProfilePipeline(username string, requesterID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "username", Value: username}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: core.CollectionSubscriptions},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "channel"},
			{Key: "as", Value: "subscribers"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: core.CollectionSubscriptions},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "subscriber"},
			{Key: "as", Value: "subscribedTo"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "subscribersCount", Value: bson.D{{Key: "$size", Value: "$subscribers"}}},
			{Key: "channelsSubscribedToCount", Value: bson.D{{Key: "$size", Value: "$subscribedTo"}}},
			{Key: "isSubscribed", Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{requesterID, "$subscribers.subscriber"}}}},
				{Key: "then", Value: true},
				{Key: "else", Value: false},
			}}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "fullName", Value: 1},
			{Key: "username", Value: 1},
			{Key: "email", Value: 1},
			{Key: "avatar", Value: 1},
			{Key: "coverImage", Value: 1},
			{Key: "subscribersCount", Value: 1},
			{Key: "channelsSubscribedToCount", Value: 1},
			{Key: "isSubscribed", Value: 1},
		}}},
	}
}

// watchHistoryPipeline resolves watchHistory into videos with a scalar
// owner. $lookup does not keep the order of the local array, so the result
// is rebuilt by mapping over the stored ids; ids whose video is gone are
// dropped.
func watchHistoryPipeline(userID primitive.ObjectID) mongo.Pipeline {
	ownerLookup := bson.D{
		{Key: "from", Value: core.CollectionUsers},
		{Key: "localField", Value: "owner"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "owner"},
		{Key: "pipeline", Value: mongo.Pipeline{
			{{Key: "$project", Value: bson.D{
				{Key: "fullName", Value: 1},
				{Key: "username", Value: 1},
				{Key: "avatar", Value: 1},
			}}},
		}},
	}

	matchStoredID := bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: "$watchedVideos"},
		{Key: "as", Value: "video"},
		{Key: "cond", Value: bson.D{{Key: "$eq", Value: bson.A{"$$video._id", "$$videoId"}}}},
	}}}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: userID}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: core.CollectionVideos},
			{Key: "localField", Value: "watchHistory"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "watchedVideos"},
			{Key: "pipeline", Value: mongo.Pipeline{
				{{Key: "$lookup", Value: ownerLookup}},
				{{Key: "$addFields", Value: bson.D{
					{Key: "owner", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$owner", 0}}}},
				}}},
			}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "watchHistory", Value: bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: bson.D{{Key: "$map", Value: bson.D{
					{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$watchHistory", bson.A{}}}}},
					{Key: "as", Value: "videoId"},
					{Key: "in", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{matchStoredID, 0}}}},
				}}}},
				{Key: "as", Value: "entry"},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$entry", nil}}}},
			}}}},
		}}},
	}
}

// prependWatchUpdate moves videoID to the front of watchHistory, removing
// any earlier occurrence. It is an update pipeline so the read and write
// happen in one atomic document update.
func prependWatchUpdate(videoID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "watchHistory", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.A{videoID},
				bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$watchHistory", bson.A{}}}}},
					{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", videoID}}}},
				}}},
			}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
}
