package collection

import (
	"context"
	"errors"
	"time"

	"go-cms/internal/common/apperror"
	"go-cms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CollectionRepository interface {
	Create(ctx context.Context, collection *Collection) error
	FindBySlug(ctx context.Context, slug string) (*Collection, error)
	FindByUsername(ctx context.Context, username string) ([]Collection, error)
	FindBySlugs(ctx context.Context, slugs []string, includeAttributes bool) ([]Collection, error)
	Update(ctx context.Context, slug string, fields bson.M) (*Collection, error)
	UpdateAttributeByID(ctx context.Context, slug string, attribute Attribute) (*Collection, error)
	AddAttribute(ctx context.Context, slug string, attribute Attribute) (*Collection, error)
	DeleteAttribute(ctx context.Context, slug, attributeID string) (*Collection, error)
	DeleteBySlug(ctx context.Context, slug string) (bool, error)
}

type CollectionRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewCollectionRepository(mongodb *database.MongodbDB) CollectionRepository {
	return &CollectionRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionCollections),
	}
}

func (r *CollectionRepositoryImpl) Create(ctx context.Context, collection *Collection) error {
	res, err := r.Collection.InsertOne(ctx, collection)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.ErrDuplicateSlug.Wrap(err)
		}
		return apperror.Creation("failed to create collection", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		collection.ID = oid
	}
	return nil
}

func (r *CollectionRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*Collection, error) {
	var c Collection
	err := r.Collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrCollectionNotFound
	}
	if err != nil {
		return nil, apperror.Read("failed to read collection", err)
	}
	return &c, nil
}

func (r *CollectionRepositoryImpl) FindByUsername(ctx context.Context, username string) ([]Collection, error) {
	return r.find(ctx, bson.M{"username": username}, nil)
}

// FindBySlugs leaves out the attributes field unless includeAttributes is set
func (r *CollectionRepositoryImpl) FindBySlugs(ctx context.Context, slugs []string, includeAttributes bool) ([]Collection, error) {
	var projection bson.M
	if !includeAttributes {
		projection = bson.M{"attributes": 0}
	}
	return r.find(ctx, bson.M{"slug": bson.M{"$in": slugs}}, projection)
}

func (r *CollectionRepositoryImpl) find(ctx context.Context, filter, projection bson.M) ([]Collection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if projection != nil {
		opts.SetProjection(projection)
	}

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperror.Read("failed to list collections", err)
	}
	defer cursor.Close(ctx)

	collections := []Collection{}
	if err := cursor.All(ctx, &collections); err != nil {
		return nil, apperror.Read("failed to decode collections", err)
	}
	return collections, nil
}

func (r *CollectionRepositoryImpl) Update(ctx context.Context, slug string, fields bson.M) (*Collection, error) {
	fields["updatedAt"] = time.Now()
	return r.findOneAndUpdate(ctx, bson.M{"slug": slug}, bson.M{"$set": fields}, apperror.ErrCollectionNotFound)
}

// UpdateAttributeByID replaces one element of the attributes array in place
func (r *CollectionRepositoryImpl) UpdateAttributeByID(ctx context.Context, slug string, attribute Attribute) (*Collection, error) {
	return r.findOneAndUpdate(ctx,
		bson.M{"slug": slug, "attributes.id": attribute.ID},
		bson.M{"$set": bson.M{"attributes.$": attribute, "updatedAt": time.Now()}},
		apperror.ErrAttributeNotFound,
	)
}

func (r *CollectionRepositoryImpl) AddAttribute(ctx context.Context, slug string, attribute Attribute) (*Collection, error) {
	return r.findOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{
			"$push": bson.M{"attributes": attribute},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		apperror.ErrCollectionNotFound,
	)
}

func (r *CollectionRepositoryImpl) DeleteAttribute(ctx context.Context, slug, attributeID string) (*Collection, error) {
	return r.findOneAndUpdate(ctx,
		bson.M{"slug": slug, "attributes.id": attributeID},
		bson.M{
			"$pull": bson.M{"attributes": bson.M{"id": attributeID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		apperror.ErrAttributeNotFound,
	)
}

func (r *CollectionRepositoryImpl) findOneAndUpdate(ctx context.Context, filter, update bson.M, notFound *apperror.Error) (*Collection, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c Collection
	err := r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound
	}
	if err != nil {
		return nil, apperror.Update("failed to update collection", err)
	}
	return &c, nil
}

func (r *CollectionRepositoryImpl) DeleteBySlug(ctx context.Context, slug string) (bool, error) {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, apperror.Deletion("failed to delete collection", err)
	}
	return res.DeletedCount == 1, nil
}

type PostsRepository interface {
	Create(ctx context.Context, posts *PostsCollection) error
	FindBySlug(ctx context.Context, slug string) (*PostsCollection, error)
	PushPost(ctx context.Context, slug string, post Collection) (*PostsCollection, error)
	DeleteBySlug(ctx context.Context, slug string) (bool, error)
}

type PostsRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewPostsRepository(mongodb *database.MongodbDB) PostsRepository {
	return &PostsRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionPosts),
	}
}

func (r *PostsRepositoryImpl) Create(ctx context.Context, posts *PostsCollection) error {
	if posts.Posts == nil {
		posts.Posts = []Collection{}
	}
	res, err := r.Collection.InsertOne(ctx, posts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.ErrDuplicateSlug.Wrap(err)
		}
		return apperror.Creation("failed to create posts collection", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		posts.ID = oid
	}
	return nil
}

func (r *PostsRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*PostsCollection, error) {
	var p PostsCollection
	err := r.Collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrPostsCollectionNotFound
	}
	if err != nil {
		return nil, apperror.Read("failed to read posts collection", err)
	}
	return &p, nil
}

func (r *PostsRepositoryImpl) PushPost(ctx context.Context, slug string, post Collection) (*PostsCollection, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p PostsCollection
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{
			"$push": bson.M{"posts": post},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		opts,
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrPostsCollectionNotFound
	}
	if err != nil {
		return nil, apperror.Update("failed to add post", err)
	}
	return &p, nil
}

func (r *PostsRepositoryImpl) DeleteBySlug(ctx context.Context, slug string) (bool, error) {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, apperror.Deletion("failed to delete posts collection", err)
	}
	return res.DeletedCount == 1, nil
}
