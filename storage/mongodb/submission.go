package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/submission"
)

type (
	submissionDoc struct {
		ID          ref       `bson:"_id"`
		StudentID   ref       `bson:"studentId"`
		AAT1ID      ref       `bson:"aat1Id"`
		Certificate string    `bson:"certificate"`
		Grade       grade     `bson:"grade"`
		CreatedAt   time.Time `bson:"createdAt"`
		UpdatedAt   time.Time `bson:"updatedAt"`
	}

	viewDoc struct {
		ID          ref       `bson:"_id"`
		StudentName string    `bson:"studentName"`
		CourseTitle string    `bson:"courseTitle"`
		Certificate string    `bson:"certificate"`
		Grade       grade     `bson:"grade"`
		SubmittedAt time.Time `bson:"submittedAt"`
	}
)

func (d submissionDoc) submission() submission.Submission {
	return submission.Submission{
		ID:          string(d.ID),
		StudentID:   string(d.StudentID),
		AAT1ID:      string(d.AAT1ID),
		Certificate: d.Certificate,
		Grade:       d.Grade.value,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func placeholder(s string) string {
	if s == "" {
		return submission.UnknownPlaceholder
	}
	return s
}

type submissionRepository struct {
	coll *mongo.Collection
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *mongo.Database) *submissionRepository {
	return &submissionRepository{coll: db.Collection(submissionsCollection)}
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	doc := submissionDoc{
		ID:          newRef(),
		StudentID:   ref(s.StudentID),
		AAT1ID:      ref(s.AAT1ID),
		Certificate: s.Certificate,
		Grade:       grade{value: s.Grade},
		CreatedAt:   mongoTime(s.CreatedAt),
		UpdatedAt:   mongoTime(s.UpdatedAt),
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return submission.Submission{}, core.NewStorageError("inserting submission", err)
	}
	return doc.submission(), nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	var doc submissionDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": ref(id)}).Decode(&doc); err != nil {
		return submission.Submission{}, trapNoDocsErr(err, submission.ErrNotFound, "finding submission by ID")
	}
	return doc.submission(), nil
}

func (repo submissionRepository) QueryViews(ctx context.Context) ([]submission.View, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: newestFirst}},
		{{Key: "$lookup", Value: bson.M{
			"from": usersCollection, "localField": "studentId", "foreignField": "_id", "as": "student",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": aat1sCollection, "localField": "aat1Id", "foreignField": "_id", "as": "aat1",
		}}},
		{{Key: "$project", Value: bson.M{
			"certificate": 1,
			"grade":       1,
			"submittedAt": "$createdAt",
			"studentName": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$student.name", 0}}, ""}},
			"courseTitle": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$aat1.courseLink", 0}}, ""}},
		}}},
	}
	cursor, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, core.NewStorageError("querying submissions", err)
	}
	var docs []viewDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, core.NewStorageError("querying submissions", err)
	}

	views := make([]submission.View, 0, len(docs))
	for _, doc := range docs {
		views = append(views, submission.View{
			ID:          string(doc.ID),
			StudentName: placeholder(doc.StudentName),
			CourseTitle: placeholder(doc.CourseTitle),
			Certificate: doc.Certificate,
			Grade:       doc.Grade.value,
			SubmittedAt: doc.SubmittedAt.UTC(),
		})
	}
	return views, nil
}

// SetGrade atomically overwrites the grade and returns the document as it was before the update.
func (repo submissionRepository) SetGrade(ctx context.Context, id, g string) (submission.Submission, error) {
	update := bson.M{"$set": bson.M{"grade": g, "updatedAt": mongoTime(time.Now())}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before).SetUpsert(false)

	var doc submissionDoc
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": ref(id)}, update, opts).Decode(&doc); err != nil {
		return submission.Submission{}, trapNoDocsErr(err, submission.ErrNotFound, "grading submission")
	}
	return doc.submission(), nil
}
