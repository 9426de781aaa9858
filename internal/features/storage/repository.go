package storage

import (
	"context"
	"errors"

	"go-cms/internal/common/apperror"
	"go-cms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FileRepository interface {
	CreateMany(ctx context.Context, files []FileInfo) error
	Find(ctx context.Context, username, id string) (*FileInfo, error)
	List(ctx context.Context, username, groupID string) ([]FileInfo, error)
	Delete(ctx context.Context, username, id string) error
	DeleteGroup(ctx context.Context, username, groupID string) ([]FileInfo, error)
}

type FileRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewFileRepository(mongodb *database.MongodbDB) FileRepository {
	return &FileRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionFiles),
	}
}

func (r *FileRepositoryImpl) CreateMany(ctx context.Context, files []FileInfo) error {
	if len(files) == 0 {
		return nil
	}
	docs := make([]interface{}, len(files))
	for i := range files {
		if files[i].ID.IsZero() {
			files[i].ID = primitive.NewObjectID()
		}
		docs[i] = files[i]
	}
	if _, err := r.Collection.InsertMany(ctx, docs); err != nil {
		return apperror.Creation("failed to record uploaded files", err)
	}
	return nil
}

func (r *FileRepositoryImpl) Find(ctx context.Context, username, id string) (*FileInfo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.ErrFileNotFound
	}

	var file FileInfo
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "username": username}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrFileNotFound
	}
	if err != nil {
		return nil, apperror.Read("failed to read file", err)
	}
	return &file, nil
}

func (r *FileRepositoryImpl) List(ctx context.Context, username, groupID string) ([]FileInfo, error) {
	filter := bson.M{"username": username}
	if groupID != "" {
		filter["group_id"] = groupID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperror.Read("failed to list files", err)
	}
	defer cursor.Close(ctx)

	files := []FileInfo{}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, apperror.Read("failed to decode files", err)
	}
	return files, nil
}

func (r *FileRepositoryImpl) Delete(ctx context.Context, username, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.ErrFileNotFound
	}

	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "username": username})
	if err != nil {
		return apperror.Deletion("failed to delete file", err)
	}
	if res.DeletedCount == 0 {
		return apperror.ErrFileNotFound
	}
	return nil
}

// DeleteGroup removes every catalog entry of a group and returns what was removed
func (r *FileRepositoryImpl) DeleteGroup(ctx context.Context, username, groupID string) ([]FileInfo, error) {
	files, err := r.List(ctx, username, groupID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return files, nil
	}

	if _, err := r.Collection.DeleteMany(ctx, bson.M{"username": username, "group_id": groupID}); err != nil {
		return nil, apperror.Deletion("failed to delete file group", err)
	}
	return files, nil
}
