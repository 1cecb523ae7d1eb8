package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepositoryManager keeps users and the ledger in one database. The
// ledger collection carries a TTL index, so no pruner is needed.
type MongoRepositoryManager struct {
	client        *mongo.Client
	users         *users.MongoRepository
	refreshTokens *refreshtokens.MongoStore
}

// OpenMongo connects to uri and pings the primary.
func OpenMongo(ctx context.Context, uri, database string, transactions bool) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	db := client.Database(database)
	return &MongoRepositoryManager{
		client:        client,
		users:         users.NewMongoRepository(db),
		refreshTokens: refreshtokens.NewMongoStore(client, db, transactions),
	}, nil
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MongoRepositoryManager) RefreshTokens() refreshtokens.Store {
	return m.refreshTokens
}

func (m *MongoRepositoryManager) NeedsPruning() bool {
	return false
}

// RunMigrations creates the collection indexes.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.refreshTokens.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
