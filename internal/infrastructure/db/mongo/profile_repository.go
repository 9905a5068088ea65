package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/streamhub/account-service/internal/core/domain"
)

// ProfileRepository joins users with the subscriptions and videos
// collections owned by neighbouring services.
type ProfileRepository struct {
	users   *mongo.Collection
	timeout time.Duration
}

func NewProfileRepository(db *mongo.Database, timeout time.Duration) *ProfileRepository {
	return &ProfileRepository{users: db.Collection(collectionUsers), timeout: opTimeout(timeout)}
}

type channelDocument struct {
	ID                        primitive.ObjectID `bson:"_id"`
	Username                  string             `bson:"username"`
	FullName                  string             `bson:"full_name"`
	Email                     string             `bson:"email"`
	Avatar                    string             `bson:"avatar"`
	CoverImage                string             `bson:"cover_image"`
	SubscribersCount          int64              `bson:"subscribers_count"`
	ChannelsSubscribedToCount int64              `bson:"channels_subscribed_to_count"`
	IsSubscribed              bool               `bson:"is_subscribed"`
}

type ownerDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
	FullName string             `bson:"full_name"`
	Avatar   string             `bson:"avatar"`
}

type videoDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	VideoFile   string             `bson:"video_file"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Views       int64              `bson:"views"`
	CreatedAt   time.Time          `bson:"created_at"`
	Owner       *ownerDocument     `bson:"owner,omitempty"`
}

func (d *videoDocument) toDomain() domain.WatchHistoryEntry {
	e := domain.WatchHistoryEntry{
		ID:          d.ID.Hex(),
		VideoFile:   d.VideoFile,
		Thumbnail:   d.Thumbnail,
		Title:       d.Title,
		Description: d.Description,
		Duration:    d.Duration,
		Views:       d.Views,
		CreatedAt:   d.CreatedAt,
	}
	if d.Owner != nil {
		e.Owner = &domain.VideoOwner{
			ID:       d.Owner.ID.Hex(),
			Username: d.Owner.Username,
			FullName: d.Owner.FullName,
			Avatar:   d.Owner.Avatar,
		}
	}
	return e
}

// ChannelProfile returns domain.ErrNotFound when username has no account.
func (r *ProfileRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// An anonymous or malformed viewer id never matches a subscriber.
	viewer, err := objectID(viewerID)
	if err != nil {
		viewer = primitive.NilObjectID
	}

	cur, err := r.users.Aggregate(ctx, channelPipeline(username, viewer))
	if err != nil {
		return nil, fmt.Errorf("channel aggregate: %w", err)
	}
	var docs []channelDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("channel decode: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}

	d := docs[0]
	return &domain.ChannelProfile{
		ID:                        d.ID.Hex(),
		Username:                  d.Username,
		FullName:                  d.FullName,
		Email:                     d.Email,
		Avatar:                    d.Avatar,
		CoverImage:                d.CoverImage,
		SubscribersCount:          d.SubscribersCount,
		ChannelsSubscribedToCount: d.ChannelsSubscribedToCount,
		IsSubscribed:              d.IsSubscribed,
	}, nil
}

func (r *ProfileRepository) WatchHistory(ctx context.Context, userID string) ([]domain.WatchHistoryEntry, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.users.Aggregate(ctx, watchHistoryPipeline(oid))
	if err != nil {
		return nil, fmt.Errorf("history aggregate: %w", err)
	}
	var docs []videoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("history decode: %w", err)
	}

	entries := make([]domain.WatchHistoryEntry, 0, len(docs))
	for i := range docs {
		entries = append(entries, docs[i].toDomain())
	}
	return entries, nil
}

// channelPipeline counts the channel's subscribers and subscriptions and
// flags whether viewer is among the subscribers.
func channelPipeline(username string, viewer primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionSubscriptions,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionSubscriptions,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribed_to",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribers_count":            bson.M{"$size": "$subscribers"},
			"channels_subscribed_to_count": bson.M{"$size": "$subscribed_to"},
			"is_subscribed":                bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
		}}},
		{{Key: "$project", Value: bson.M{
			"username":                     1,
			"full_name":                    1,
			"email":                        1,
			"avatar":                       1,
			"cover_image":                  1,
			"subscribers_count":            1,
			"channels_subscribed_to_count": 1,
			"is_subscribed":                1,
		}}},
		{{Key: "$limit", Value: 1}},
	}
}

// watchHistoryPipeline resolves every watched video and its owner, keeping
// the order of the stored watch_history array.
func watchHistoryPipeline(userID primitive.ObjectID) mongo.Pipeline {
	ownerLookup := bson.A{
		bson.M{"$lookup": bson.M{
			"from":         collectionUsers,
			"localField":   "owner",
			"foreignField": "_id",
			"as":           "owner",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"username": 1, "full_name": 1, "avatar": 1}},
			},
		}},
		bson.M{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$unwind", Value: bson.M{"path": "$watch_history", "includeArrayIndex": "position"}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionVideos,
			"localField":   "watch_history",
			"foreignField": "_id",
			"as":           "video",
			"pipeline":     ownerLookup,
		}}},
		{{Key: "$unwind", Value: "$video"}},
		{{Key: "$sort", Value: bson.M{"position": 1}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$video"}}},
	}
}
