// internal/app/store/documents/documentstore.go
package documentstore

import (
	"context"
	"errors"
	"time"

	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages legal_documents and their document_versions. Selection of
// the "current" version happens in the compliance package; this store only
// fetches candidates.
type Store struct {
	docs     *mongo.Collection
	versions *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		docs:     db.Collection("legal_documents"),
		versions: db.Collection("document_versions"),
	}
}

var ErrNotFound = errors.New("document not found")

// CreateDocument inserts a legal document.
func (s *Store) CreateDocument(ctx context.Context, d models.LegalDocument) (models.LegalDocument, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.docs.InsertOne(ctx, d); err != nil {
		return models.LegalDocument{}, err
	}
	return d, nil
}

// AddVersion appends a new version to a document.
func (s *Store) AddVersion(ctx context.Context, v models.DocumentVersion) (models.DocumentVersion, error) {
	if err := s.docs.FindOne(ctx, bson.M{"_id": v.DocumentID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.DocumentVersion{}, ErrNotFound
		}
		return models.DocumentVersion{}, err
	}
	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()
	if _, err := s.versions.InsertOne(ctx, v); err != nil {
		return models.DocumentVersion{}, err
	}
	return v, nil
}

// DocumentByID loads a single legal document.
func (s *Store) DocumentByID(ctx context.Context, id primitive.ObjectID) (models.LegalDocument, error) {
	var d models.LegalDocument
	err := s.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return models.LegalDocument{}, ErrNotFound
	}
	return d, err
}

// VersionByID loads a single version.
func (s *Store) VersionByID(ctx context.Context, id primitive.ObjectID) (models.DocumentVersion, error) {
	var v models.DocumentVersion
	err := s.versions.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return models.DocumentVersion{}, ErrNotFound
	}
	return v, err
}

// RequiredActiveByTeams returns required, active documents for the given
// teams in one query.
func (s *Store) RequiredActiveByTeams(ctx context.Context, teamIDs []primitive.ObjectID) ([]models.LegalDocument, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	cur, err := s.docs.Find(ctx, bson.M{
		"team_id":     bson.M{"$in": teamIDs},
		"is_required": true,
		"is_active":   true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LegalDocument
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EffectiveVersionsForDocuments returns, for the given documents, every
// version already effective at now, sorted by (document_id, effective_from
// asc, _id asc). The ascending _id order makes "last wins" equal to
// "most recently created wins" when effective timestamps collide.
func (s *Store) EffectiveVersionsForDocuments(ctx context.Context, documentIDs []primitive.ObjectID, now time.Time) ([]models.DocumentVersion, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "document_id", Value: 1},
		{Key: "effective_from", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.versions.Find(ctx, bson.M{
		"document_id":    bson.M{"$in": documentIDs},
		"effective_from": bson.M{"$lte": now},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.DocumentVersion
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
