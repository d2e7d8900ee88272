package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/reaction"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// postDocument is a post as stored in MongoDB. The reaction sets live on the
// document so a toggle is a single-document update.
type postDocument struct {
	ID          uint      `bson:"_id"`
	AuthorID    uint      `bson:"author_id"`
	Image       string    `bson:"image,omitempty"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"created_at"`
	Likes       []uint    `bson:"likes"`
	Dislikes    []uint    `bson:"dislikes"`
}

func (d *postDocument) toModel() models.Post {
	return models.Post{
		ID:          d.ID,
		AuthorID:    d.AuthorID,
		Image:       d.Image,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		collection: db.Collection("posts"),
		counters:   db.Collection("counters"),
	}
}

// EnsureIndexes creates the indexes used by listings and reaction cleanup.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "likes", Value: 1}}},
		{Keys: bson.D{{Key: "dislikes", Value: 1}}},
	})
	return err
}

// nextID hands out numeric post ids so both stores expose the same id space.
func (r *MongoPostRepository) nextID(ctx context.Context) (uint, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx, bson.M{"_id": "posts"}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate post id: %w", err)
	}
	return uint(counter.Seq), nil
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}
	post.ID = id
	post.CreatedAt = time.Now().UTC()

	doc := postDocument{
		ID:          post.ID,
		AuthorID:    post.AuthorID,
		Image:       post.Image,
		Description: post.Description,
		CreatedAt:   post.CreatedAt,
		Likes:       []uint{},
		Dislikes:    []uint{},
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var doc postDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post := doc.toModel()
	return &post, nil
}

func (r *MongoPostRepository) ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	query := bson.M{}
	if filter.AuthorID != nil {
		query["author_id"] = *filter.AuthorID
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"likes": 0, "dislikes": 0})
	if filter.Skip > 0 {
		findOptions.SetSkip(int64(filter.Skip))
	}
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toModel())
	}
	return posts, nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id uint) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePostsByAuthor deletes the author's posts it read, by id, so every
// deleted post is in the returned slice.
func (r *MongoPostRepository) DeletePostsByAuthor(ctx context.Context, authorID uint) ([]models.Post, error) {
	posts, err := r.ListPosts(ctx, models.PostFilter{AuthorID: &authorID})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, err
	}
	return posts, nil
}

// MongoReactionRepository implements ReactionRepository on the likes and
// dislikes arrays of post documents.
type MongoReactionRepository struct {
	collection *mongo.Collection
}

func NewMongoReactionRepository(db *mongo.Database) *MongoReactionRepository {
	return &MongoReactionRepository{collection: db.Collection("posts")}
}

// Toggle runs the reaction transition as one pipeline update: the acted-on set
// gains or loses the user, the opposite set always loses the user.
func (r *MongoReactionRepository) Toggle(ctx context.Context, postID, userID uint, action reaction.Action) (*reaction.Summary, error) {
	own, other := "likes", "dislikes"
	if action == reaction.Dislike {
		own, other = other, own
	}
	uid := int64(userID)
	ownSet := bson.M{"$ifNull": bson.A{"$" + own, bson.A{}}}
	otherSet := bson.M{"$ifNull": bson.A{"$" + other, bson.A{}}}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: own, Value: bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{uid, ownSet}},
				bson.M{"$setDifference": bson.A{ownSet, bson.A{uid}}},
				bson.M{"$concatArrays": bson.A{ownSet, bson.A{uid}}},
			}}},
			{Key: other, Value: bson.M{"$setDifference": bson.A{otherSet, bson.A{uid}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1, "dislikes": 1})

	var doc postDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return &reaction.Summary{
		LikesCount:    int64(len(doc.Likes)),
		DislikesCount: int64(len(doc.Dislikes)),
		Viewer:        reaction.StateOf(containsID(doc.Likes, userID), containsID(doc.Dislikes, userID)),
	}, nil
}

func (r *MongoReactionRepository) Summaries(ctx context.Context, postIDs []uint, viewerID uint) (map[uint]reaction.Summary, error) {
	out := make(map[uint]reaction.Summary, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	for _, id := range postIDs {
		out[id] = reaction.Summary{Viewer: reaction.Neutral}
	}

	cursor, err := r.collection.Find(ctx,
		bson.M{"_id": bson.M{"$in": postIDs}},
		options.Find().SetProjection(bson.M{"likes": 1, "dislikes": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		s := reaction.Summary{
			LikesCount:    int64(len(doc.Likes)),
			DislikesCount: int64(len(doc.Dislikes)),
			Viewer:        reaction.Neutral,
		}
		if viewerID != 0 {
			s.Viewer = reaction.StateOf(containsID(doc.Likes, viewerID), containsID(doc.Dislikes, viewerID))
		}
		out[doc.ID] = s
	}
	return out, nil
}

func (r *MongoReactionRepository) DeleteUserReactions(ctx context.Context, userID uint) error {
	uid := int64(userID)
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"$or": bson.A{bson.M{"likes": uid}, bson.M{"dislikes": uid}}},
		bson.M{"$pull": bson.M{"likes": uid, "dislikes": uid}})
	return err
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
