package users

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const usersNS = "sessionkeeper." + CollectionName

var created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockRepo(mt *mtest.T) *MongoRepository {
	r := NewMongoRepository(mt.DB)
	r.now = func() time.Time { return created }
	return r
}

func updatedResponse(matched int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: matched}, bson.E{Key: "nModified", Value: matched})
}

func TestMongoRepository_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unique email", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		mt.ClearEvents()

		require.NoError(mt, r.EnsureIndexes(context.Background()))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		indexes, err := evt.Command.Lookup("indexes").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, indexes, 1)

		idx := indexes[0].Document()
		assert.Equal(mt, "email", idx.Lookup("key").Document().Index(0).Key())
		assert.True(mt, idx.Lookup("unique").Boolean())
	})
}

func TestMongoRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id and timestamps", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h1"}
		require.NoError(mt, r.Create(context.Background(), u))
		assert.NotEmpty(mt, u.ID)
		assert.True(mt, created.Equal(u.CreatedAt))
		assert.True(mt, created.Equal(u.UpdatedAt))
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		err := r.Create(context.Background(), &models.User{Email: "alice@example.com"})
		assert.ErrorIs(mt, err, common.ErrorAlreadyExists)
	})
}

func TestMongoRepository_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("by email", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "name", Value: "Alice"},
			{Key: "email", Value: "alice@example.com"},
			{Key: "password_hash", Value: "h1"},
			{Key: "email_verify_token", Value: "evt"},
			{Key: "verify", Value: int32(models.Banned)},
			{Key: "role", Value: int32(models.RoleAdmin)},
			{Key: "level", Value: int32(models.Gold)},
			{Key: "created_at", Value: created},
		}))

		got, err := r.FindByEmail(context.Background(), "alice@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", got.ID)
		assert.Equal(mt, "evt", got.EmailVerifyToken)
		assert.Equal(mt, models.Banned, got.Verify)
		assert.Equal(mt, models.RoleAdmin, got.Role)
		assert.Equal(mt, models.Gold, got.Level)
		assert.True(mt, created.Equal(got.CreatedAt))
	})

	mt.Run("missing", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch))

		_, err := r.FindByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("server error", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad"}))

		_, err := r.FindByID(context.Background(), "u1")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, common.ErrorNotFound)
	})
}

func TestMongoRepository_Updates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(updatedResponse(1), updatedResponse(1), updatedResponse(1), updatedResponse(1))
		ctx := context.Background()

		require.NoError(mt, r.MarkVerified(ctx, "u1"))
		require.NoError(mt, r.SetEmailVerifyToken(ctx, "u1", "evt"))
		require.NoError(mt, r.SetForgotPasswordToken(ctx, "u1", "fpt"))
		require.NoError(mt, r.UpdatePassword(ctx, "u1", "h2"))
	})

	mt.Run("unknown id", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(updatedResponse(0), updatedResponse(0))
		ctx := context.Background()

		assert.ErrorIs(mt, r.MarkVerified(ctx, "nope"), common.ErrorNotFound)
		assert.ErrorIs(mt, r.UpdatePassword(ctx, "nope", "h2"), common.ErrorNotFound)
	})

	mt.Run("server error", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad"}))

		err := r.SetEmailVerifyToken(context.Background(), "u1", "evt")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, common.ErrorNotFound)
	})
}
