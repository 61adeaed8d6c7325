package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

type userDoc struct {
	ID        ref       `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d userDoc) user() user.User {
	return user.User{ID: string(d.ID), Name: d.Name, Email: d.Email, Role: d.Role, CreatedAt: d.CreatedAt.UTC()}
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

var byName = options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	doc := userDoc{
		ID:        newRef(),
		Name:      usr.Name,
		Email:     usr.Email,
		Role:      usr.Role,
		CreatedAt: mongoTime(usr.CreatedAt),
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return user.User{}, core.NewStorageError("inserting user", err)
	}
	return doc.user(), nil
}

func (repo userRepository) getOne(ctx context.Context, filter bson.M, op string) (user.User, error) {
	var doc userDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return user.User{}, trapNoDocsErr(err, user.ErrNotFound, op)
	}
	return doc.user(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getOne(ctx, bson.M{"_id": ref(id)}, "finding user by ID")
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getOne(ctx, bson.M{"email": email}, "finding user by email")
}

func (repo userRepository) query(ctx context.Context, filter bson.M, op string) ([]user.User, error) {
	var docs []userDoc
	if err := findAll(ctx, repo.coll, filter, &docs, byName); err != nil {
		return nil, core.NewStorageError(op, err)
	}
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.user())
	}
	return users, nil
}

func (repo userRepository) ResolveMany(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	return repo.query(ctx, bson.M{"_id": bson.M{"$in": refs(ids)}}, "resolving users")
}

func (repo userRepository) QueryByRole(ctx context.Context, role string) ([]user.User, error) {
	return repo.query(ctx, bson.M{"role": role}, "querying users by role")
}
