package mongodb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
)

type (
	aat1Doc struct {
		ID         ref       `bson:"_id"`
		CourseLink string    `bson:"courseLink"`
		Deadline   time.Time `bson:"deadline"`
		FacultyID  ref       `bson:"facultyId"`
		CreatedAt  time.Time `bson:"createdAt"`
	}

	// aat2Doc keeps questions as embedded documents so they stay queryable.
	aat2Doc struct {
		ID        ref       `bson:"_id"`
		Title     string    `bson:"title"`
		Questions []bson.D  `bson:"questions"`
		StartTime time.Time `bson:"startTime"`
		EndTime   time.Time `bson:"endTime"`
		Duration  int       `bson:"duration"`
		FacultyID ref       `bson:"facultyId"`
		CreatedAt time.Time `bson:"createdAt"`
	}
)

func (d aat1Doc) aat1() assessment.AAT1 {
	return assessment.AAT1{
		ID:         string(d.ID),
		CourseLink: d.CourseLink,
		Deadline:   d.Deadline.UTC(),
		FacultyID:  string(d.FacultyID),
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

func (d aat2Doc) aat2() (assessment.AAT2, error) {
	questions := make([]json.RawMessage, 0, len(d.Questions))
	for _, q := range d.Questions {
		raw, err := bson.MarshalExtJSON(q, false, false)
		if err != nil {
			return assessment.AAT2{}, errors.Wrapf(err, "decoding aat2 %s questions", d.ID)
		}
		questions = append(questions, raw)
	}
	return assessment.AAT2{
		ID:        string(d.ID),
		Title:     d.Title,
		Questions: questions,
		StartTime: d.StartTime.UTC(),
		EndTime:   d.EndTime.UTC(),
		Duration:  d.Duration,
		FacultyID: string(d.FacultyID),
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

type assessmentRepository struct {
	aat1s *mongo.Collection
	aat2s *mongo.Collection
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *mongo.Database) *assessmentRepository {
	return &assessmentRepository{
		aat1s: db.Collection(aat1sCollection),
		aat2s: db.Collection(aat2sCollection),
	}
}

func (repo assessmentRepository) CreateAAT1(ctx context.Context, a assessment.AAT1) (assessment.AAT1, error) {
	doc := aat1Doc{
		ID:         newRef(),
		CourseLink: a.CourseLink,
		Deadline:   mongoTime(a.Deadline),
		FacultyID:  ref(a.FacultyID),
		CreatedAt:  mongoTime(a.CreatedAt),
	}
	if _, err := repo.aat1s.InsertOne(ctx, doc); err != nil {
		return assessment.AAT1{}, core.NewStorageError("inserting aat1", err)
	}
	return doc.aat1(), nil
}

func (repo assessmentRepository) GetAAT1ByID(ctx context.Context, id string) (assessment.AAT1, error) {
	var doc aat1Doc
	if err := repo.aat1s.FindOne(ctx, bson.M{"_id": ref(id)}).Decode(&doc); err != nil {
		return assessment.AAT1{}, trapNoDocsErr(err, assessment.ErrAAT1NotFound, "finding aat1 by ID")
	}
	return doc.aat1(), nil
}

func (repo assessmentRepository) QueryAAT1s(ctx context.Context, filter assessment.Filter) ([]assessment.AAT1, error) {
	var docs []aat1Doc
	opts := options.Find().SetSort(newestFirst)
	if err := findAll(ctx, repo.aat1s, ownedFilter(filter.FacultyID), &docs, opts); err != nil {
		return nil, core.NewStorageError("querying aat1s", err)
	}
	aats := make([]assessment.AAT1, 0, len(docs))
	for _, doc := range docs {
		aats = append(aats, doc.aat1())
	}
	return aats, nil
}

func (repo assessmentRepository) CreateAAT2(ctx context.Context, a assessment.AAT2) (assessment.AAT2, error) {
	questions := make([]bson.D, 0, len(a.Questions))
	for i, raw := range a.Questions {
		var q bson.D
		if err := bson.UnmarshalExtJSON(raw, false, &q); err != nil {
			return assessment.AAT2{}, core.NewStorageError("encoding aat2 questions", errors.Wrapf(err, "question %d", i))
		}
		questions = append(questions, q)
	}

	doc := aat2Doc{
		ID:        newRef(),
		Title:     a.Title,
		Questions: questions,
		StartTime: mongoTime(a.StartTime),
		EndTime:   mongoTime(a.EndTime),
		Duration:  a.Duration,
		FacultyID: ref(a.FacultyID),
		CreatedAt: mongoTime(a.CreatedAt),
	}
	if _, err := repo.aat2s.InsertOne(ctx, doc); err != nil {
		return assessment.AAT2{}, core.NewStorageError("inserting aat2", err)
	}
	// echo the caller's questions: the stored form is equivalent but may be formatted differently
	a.ID, a.StartTime, a.EndTime, a.CreatedAt = string(doc.ID), doc.StartTime, doc.EndTime, doc.CreatedAt
	return a, nil
}

func (repo assessmentRepository) GetAAT2ByID(ctx context.Context, id string) (assessment.AAT2, error) {
	var doc aat2Doc
	if err := repo.aat2s.FindOne(ctx, bson.M{"_id": ref(id)}).Decode(&doc); err != nil {
		return assessment.AAT2{}, trapNoDocsErr(err, assessment.ErrAAT2NotFound, "finding aat2 by ID")
	}
	a, err := doc.aat2()
	if err != nil {
		return assessment.AAT2{}, core.NewStorageError("finding aat2 by ID", err)
	}
	return a, nil
}

func (repo assessmentRepository) QueryAAT2s(ctx context.Context, filter assessment.Filter) ([]assessment.AAT2, error) {
	var docs []aat2Doc
	opts := options.Find().SetSort(newestFirst)
	if err := findAll(ctx, repo.aat2s, ownedFilter(filter.FacultyID), &docs, opts); err != nil {
		return nil, core.NewStorageError("querying aat2s", err)
	}
	aats := make([]assessment.AAT2, 0, len(docs))
	for _, doc := range docs {
		a, err := doc.aat2()
		if err != nil {
			return nil, core.NewStorageError("querying aat2s", err)
		}
		aats = append(aats, a)
	}
	return aats, nil
}
