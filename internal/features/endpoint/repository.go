package endpoint

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

type EndpointRepository interface {
	Create(ctx context.Context, endpoint *Endpoint) error
	FindBySlug(ctx context.Context, slug string) (*Endpoint, error)
	FindByUsername(ctx context.Context, username string) ([]Endpoint, error)
	FindByPrefixAndUsername(ctx context.Context, username, prefix string) ([]Endpoint, error)
	Update(ctx context.Context, username, slug string, fields bson.M) (*Endpoint, error)
	DeleteBySlug(ctx context.Context, username, slug string) (bool, error)
}

type EndpointRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewEndpointRepository(mongodb *database.MongodbDB) EndpointRepository {
	return &EndpointRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionEndpoints),
	}
}

func (r *EndpointRepositoryImpl) Create(ctx context.Context, endpoint *Endpoint) error {
	res, err := r.Collection.InsertOne(ctx, endpoint)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.ErrDuplicateSlug.Wrap(err)
		}
		return apperror.Creation("failed to create endpoint", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		endpoint.ID = oid
	}
	return nil
}

// FindBySlug returns nil, nil when the slug has no endpoint
func (r *EndpointRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*Endpoint, error) {
	var e Endpoint
	err := r.Collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Read("failed to read endpoint", err)
	}
	return &e, nil
}

func (r *EndpointRepositoryImpl) FindByUsername(ctx context.Context, username string) ([]Endpoint, error) {
	return r.find(ctx, bson.M{"username": username})
}

func (r *EndpointRepositoryImpl) FindByPrefixAndUsername(ctx context.Context, username, prefix string) ([]Endpoint, error) {
	return r.find(ctx, bson.M{"username": username, "prefix": prefix})
}

func (r *EndpointRepositoryImpl) find(ctx context.Context, filter bson.M) ([]Endpoint, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperror.Read("failed to list endpoints", err)
	}
	defer cursor.Close(ctx)

	endpoints := []Endpoint{}
	if err := cursor.All(ctx, &endpoints); err != nil {
		return nil, apperror.Read("failed to decode endpoints", err)
	}
	return endpoints, nil
}

func (r *EndpointRepositoryImpl) Update(ctx context.Context, username, slug string, fields bson.M) (*Endpoint, error) {
	fields["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e Endpoint
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"username": username, "slug": slug},
		bson.M{"$set": fields},
		opts,
	).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrEndpointNotFound
	}
	if err != nil {
		return nil, apperror.Update("failed to update endpoint", err)
	}
	return &e, nil
}

func (r *EndpointRepositoryImpl) DeleteBySlug(ctx context.Context, username, slug string) (bool, error) {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"username": username, "slug": slug})
	if err != nil {
		return false, apperror.Deletion("failed to delete endpoint", err)
	}
	return res.DeletedCount == 1, nil
}
