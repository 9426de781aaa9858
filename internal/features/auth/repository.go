package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-cms/internal/common/apperror"
	"go-cms/internal/database"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CredentialRepository interface {
	Create(ctx context.Context, cred *Credential) error
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type CredentialRepositoryImpl struct {
	db *database.CredentialDB
}

func NewCredentialRepository(db *database.CredentialDB) CredentialRepository {
	return &CredentialRepositoryImpl{db: db}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (r *CredentialRepositoryImpl) Create(ctx context.Context, cred *Credential) error {
	_, err := r.db.DB.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO credentials (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`),
		cred.ID, cred.Email, cred.PasswordHash, cred.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateEmail.Wrap(err)
		}
		return apperror.Creation("failed to create credential", err)
	}
	return nil
}

// FindByEmail returns nil, nil when no credential uses the email
func (r *CredentialRepositoryImpl) FindByEmail(ctx context.Context, email string) (*Credential, error) {
	var (
		cred      Credential
		lastLogin sql.NullTime
	)
	err := r.db.DB.QueryRowContext(ctx,
		r.db.Rebind(`SELECT id, email, password_hash, created_at, last_login_at FROM credentials WHERE email = ?`),
		strings.ToLower(email),
	).Scan(&cred.ID, &cred.Email, &cred.PasswordHash, &cred.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Read("failed to read credential", err)
	}
	if lastLogin.Valid {
		cred.LastLoginAt = &lastLogin.Time
	}
	return &cred, nil
}

func (r *CredentialRepositoryImpl) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.DB.ExecContext(ctx,
		r.db.Rebind(`UPDATE credentials SET last_login_at = ? WHERE id = ?`),
		at, id,
	)
	if err != nil {
		return apperror.Update("failed to record login", err)
	}
	return nil
}

func (r *CredentialRepositoryImpl) Delete(ctx context.Context, id string) error {
	_, err := r.db.DB.ExecContext(ctx, r.db.Rebind(`DELETE FROM credentials WHERE id = ?`), id)
	if err != nil {
		return apperror.Deletion("failed to delete credential", err)
	}
	return nil
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionUsers),
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *User) error {
	res, err := r.Collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.ErrDuplicateUsername.Wrap(err)
		}
		return apperror.Creation("failed to create user", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *UserRepositoryImpl) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepositoryImpl) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	err := r.Collection.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, apperror.Read("failed to read user", err)
	}
	return &u, nil
}
