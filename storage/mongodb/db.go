package mongodb

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/academia/core"
)

// collections
const (
	usersCollection       = "users"
	aat1sCollection       = "aat1s"
	aat2sCollection       = "aat2s"
	sessionsCollection    = "remedialsessions"
	submissionsCollection = "studentaat1s"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}

// Open connects to the configured database and waits for the server to answer.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Mongo.URI).SetAppName(conf.AppName))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongo")
	}
	return client.Database(conf.Mongo.Database), nil
}

// ping waits for the server to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = client.Ping(ctx, readpref.Primary()); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "mongo ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "mongo ping timeout")
}

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	owned := []mongo.IndexModel{
		{Keys: bson.D{{Key: "facultyId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "name", Value: 1}}},
		},
		aat1sCollection:    owned,
		aat2sCollection:    owned,
		sessionsCollection: owned,
		submissionsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// trapNoDocsErr maps mongo "no documents" err to `notFound`.
func trapNoDocsErr(err, notFound error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return core.NewStorageError(op, err)
}

func ownedFilter(facultyID string) bson.M {
	if facultyID == "" {
		return bson.M{}
	}
	return bson.M{"facultyId": ref(facultyID)}
}

// mongoTime drops the precision BSON datetimes cannot hold, so returned records match stored ones.
func mongoTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// findAll runs `filter` on `coll` and decodes every match into `results`.
func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, results interface{}, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return cursor.All(ctx, results)
}

// ref is a record id or a reference to one. Ids that are ObjectId hex strings are stored as
// ObjectIds, like the documents written by the original application; anything else is kept as a string.
type ref string

func newRef() ref {
	return ref(primitive.NewObjectID().Hex())
}

func refs(ids []string) []ref {
	rs := make([]ref, 0, len(ids))
	for _, id := range ids {
		rs = append(rs, ref(id))
	}
	return rs
}

func refStrings(rs []ref) []string {
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, string(r))
	}
	return ids
}

func (r ref) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if oid, err := primitive.ObjectIDFromHex(string(r)); err == nil {
		return bson.MarshalValue(oid)
	}
	return bson.MarshalValue(string(r))
}

func (r *ref) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.ObjectID:
		*r = ref(rv.ObjectID().Hex())
	case bsontype.String:
		*r = ref(rv.StringValue())
	case bsontype.Null, bsontype.Undefined:
		*r = ""
	default:
		return errors.Errorf("cannot decode %s into a record reference", t)
	}
	return nil
}

// grade is a nullable grade. Documents written by the original application may hold numbers.
type grade struct {
	value *string
}

func (g grade) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if g.value == nil {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(*g.value)
}

func (g *grade) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	var s string
	switch t {
	case bsontype.Null, bsontype.Undefined:
		g.value = nil
		return nil
	case bsontype.String:
		s = rv.StringValue()
	case bsontype.Int32:
		s = strconv.FormatInt(int64(rv.Int32()), 10)
	case bsontype.Int64:
		s = strconv.FormatInt(rv.Int64(), 10)
	case bsontype.Double:
		s = strconv.FormatFloat(rv.Double(), 'f', -1, 64)
	default:
		return errors.Errorf("cannot decode %s into a grade", t)
	}
	g.value = &s
	return nil
}
