package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/remedial"
)

type sessionDoc struct {
	ID          ref       `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	StartTime   time.Time `bson:"startTime"`
	EndTime     time.Time `bson:"endTime"`
	Duration    int       `bson:"duration"`
	Link        string    `bson:"link"`
	FacultyID   ref       `bson:"facultyId"`
	Students    []ref     `bson:"students"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (d sessionDoc) session() remedial.Session {
	return remedial.Session{
		ID:          string(d.ID),
		Title:       d.Title,
		Description: d.Description,
		StartTime:   d.StartTime.UTC(),
		EndTime:     d.EndTime.UTC(),
		Duration:    d.Duration,
		Link:        d.Link,
		FacultyID:   string(d.FacultyID),
		Students:    refStrings(d.Students),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type remedialRepository struct {
	coll *mongo.Collection
}

var _ remedial.Repository = (*remedialRepository)(nil) // interface compliance check

func NewRemedialRepository(db *mongo.Database) *remedialRepository {
	return &remedialRepository{coll: db.Collection(sessionsCollection)}
}

// CreateSession stores the session and its invitees as one document.
func (repo remedialRepository) CreateSession(ctx context.Context, s remedial.Session) (remedial.Session, error) {
	doc := sessionDoc{
		ID:          newRef(),
		Title:       s.Title,
		Description: s.Description,
		StartTime:   mongoTime(s.StartTime),
		EndTime:     mongoTime(s.EndTime),
		Duration:    s.Duration,
		Link:        s.Link,
		FacultyID:   ref(s.FacultyID),
		Students:    refs(s.Students),
		CreatedAt:   mongoTime(s.CreatedAt),
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return remedial.Session{}, core.NewStorageError("inserting remedial session", err)
	}
	return doc.session(), nil
}

func (repo remedialRepository) GetSessionByID(ctx context.Context, id string) (remedial.Session, error) {
	var doc sessionDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": ref(id)}).Decode(&doc); err != nil {
		return remedial.Session{}, trapNoDocsErr(err, remedial.ErrNotFound, "finding remedial session by ID")
	}
	return doc.session(), nil
}

func (repo remedialRepository) QuerySessions(ctx context.Context, filter remedial.Filter) ([]remedial.Session, error) {
	var docs []sessionDoc
	opts := options.Find().SetSort(newestFirst)
	if err := findAll(ctx, repo.coll, ownedFilter(filter.FacultyID), &docs, opts); err != nil {
		return nil, core.NewStorageError("querying remedial sessions", err)
	}
	sessions := make([]remedial.Session, 0, len(docs))
	for _, doc := range docs {
		sessions = append(sessions, doc.session())
	}
	return sessions, nil
}
