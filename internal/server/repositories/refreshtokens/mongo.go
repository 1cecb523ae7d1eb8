package refreshtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "refresh_tokens"

// MongoRepository keeps ledger entries in a collection with a TTL index on
// exp, so MongoDB prunes expired entries by itself.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique token index, the TTL index and the user
// lookup index. It is idempotent.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "exp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create refresh_tokens indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, t *models.LedgerEntry) error {
	doc := *t
	doc.IssuedAt = doc.IssuedAt.UTC()
	doc.ExpiresAt = doc.ExpiresAt.UTC()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"token_hash": tokenHash})
	if err != nil {
		return false, fmt.Errorf("mongo error: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (r *MongoRepository) Exists(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"token_hash": tokenHash,
		"exp":        bson.M{"$gt": now.UTC()},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo error: %w", err)
	}
	return n > 0, nil
}

func (r *MongoRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("mongo error: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"exp": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("mongo error: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("mongo error: %w", err)
	}
	return n, nil
}

// MongoStore runs WithTx inside a session transaction when transactions are
// enabled (replica set or sharded cluster). Otherwise fn runs directly and
// rotation relies on the single-document compare-and-delete alone.
type MongoStore struct {
	*MongoRepository
	client       *mongo.Client
	transactions bool
}

func NewMongoStore(client *mongo.Client, db *mongo.Database, transactions bool) *MongoStore {
	return &MongoStore{MongoRepository: NewMongoRepository(db), client: client, transactions: transactions}
}

func (s *MongoStore) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if !s.transactions {
		return fn(ctx, s.MongoRepository)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s.MongoRepository)
	})
	return err
}
