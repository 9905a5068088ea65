package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/streamhub/account-service/internal/core/domain"
)

// publicProjection strips credential fields from user reads.
var publicProjection = bson.M{"password_hash": 0, "refresh_token": 0}

type UserRepository struct {
	col     *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	return &UserRepository{
		col:     db.Collection(collectionUsers),
		timeout: opTimeout(timeout),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type userDocument struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Username     string               `bson:"username"`
	Email        string               `bson:"email"`
	FullName     string               `bson:"full_name"`
	Avatar       string               `bson:"avatar"`
	CoverImage   string               `bson:"cover_image,omitempty"`
	WatchHistory []primitive.ObjectID `bson:"watch_history"`
	PasswordHash string               `bson:"password_hash,omitempty"`
	RefreshToken string               `bson:"refresh_token,omitempty"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

func (d *userDocument) toDomain() *domain.User {
	history := make([]string, 0, len(d.WatchHistory))
	for _, id := range d.WatchHistory {
		history = append(history, id.Hex())
	}
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		Avatar:       d.Avatar,
		CoverImage:   d.CoverImage,
		WatchHistory: history,
		PasswordHash: d.PasswordHash,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newUserDocument(u *domain.User, now time.Time) (*userDocument, error) {
	history := make([]primitive.ObjectID, 0, len(u.WatchHistory))
	for _, hex := range u.WatchHistory {
		id, err := objectID(hex)
		if err != nil {
			return nil, err
		}
		history = append(history, id)
	}
	return &userDocument{
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		WatchHistory: history,
		PasswordHash: u.PasswordHash,
		RefreshToken: u.RefreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Create inserts a new user. A unique index violation on username or email
// maps to domain.ErrDuplicateUser.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := newUserDocument(user, r.now())
	if err != nil {
		return nil, err
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain().Public(), nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, loginFilter(username, email), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id, publicProjection)
}

func (r *UserRepository) FindByIDWithSecrets(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id, nil)
}

func (r *UserRepository) findByID(ctx context.Context, id string, projection bson.M) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, projection)
}

// FindByLogin matches identifier against both username and email.
func (r *UserRepository) FindByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	return r.findOne(ctx, loginFilter(identifier, identifier), nil)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, projection bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}

	var doc userDocument
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.update(ctx, id, nil, bson.M{"$set": bson.M{"refresh_token": token}})
}

// RotateRefreshToken swaps presented for next in a single conditional write so
// that two concurrent refreshes with the same token cannot both succeed.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, presented, next string) error {
	if presented == "" {
		return domain.ErrInvalidToken
	}
	err := r.update(ctx, id, bson.M{"refresh_token": presented}, bson.M{"$set": bson.M{"refresh_token": next}})
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrInvalidToken
	}
	return err
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.update(ctx, id, nil, bson.M{"$unset": bson.M{"refresh_token": ""}})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, revokeSessions bool) error {
	return r.update(ctx, id, nil, passwordUpdate(passwordHash, revokeSessions))
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*domain.User, error) {
	return r.updateAndGet(ctx, id, bson.M{"full_name": fullName, "email": email})
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url string) (*domain.User, error) {
	return r.updateAndGet(ctx, id, bson.M{"avatar": url})
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, url string) (*domain.User, error) {
	return r.updateAndGet(ctx, id, bson.M{"cover_image": url})
}

// update applies change to the user matching id and the optional extra
// filter. No match yields domain.ErrUserNotFound.
func (r *UserRepository) update(ctx context.Context, id string, extra bson.M, change bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"_id": oid}
	for k, v := range extra {
		filter[k] = v
	}
	touch(change, r.now())

	res, err := r.col.UpdateOne(ctx, filter, change)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) updateAndGet(ctx context.Context, id string, set bson.M) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	change := bson.M{"$set": set}
	touch(change, r.now())

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicProjection)

	var doc userDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, change, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique indexes on username and email.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func loginFilter(username, email string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
}

func passwordUpdate(hash string, revokeSessions bool) bson.M {
	change := bson.M{"$set": bson.M{"password_hash": hash}}
	if revokeSessions {
		change["$unset"] = bson.M{"refresh_token": ""}
	}
	return change
}

// touch stamps updated_at into the $set stage of change.
func touch(change bson.M, now time.Time) {
	set, ok := change["$set"].(bson.M)
	if !ok {
		set = bson.M{}
		change["$set"] = set
	}
	set["updated_at"] = now
}
