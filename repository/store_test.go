package repository

import (
	"context"
	"testing"

	"civicsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func written(n int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n})
}

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "E11000 duplicate key error"})
}

// sent returns the next command the driver issued, checking its name.
func sent(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt, "no %s command was sent", name)
	require.Equal(mt, name, evt.CommandName)
	return evt.Command
}

func statusList(t *testing.T, value bson.RawValue) []string {
	t.Helper()
	values, err := value.Array().Values()
	require.NoError(t, err)
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.StringValue())
	}
	return out
}

func TestAdvanceStatus(t *testing.T) {
	mt := newMock(t)
	id := primitive.NewObjectID()
	authority := primitive.NewObjectID()
	from := []models.IssueStatus{models.StatusVerified, models.StatusInProgress}

	mt.Run("matched", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)},
			bson.E{Key: "nModified", Value: int32(1)},
		))

		ok, err := repo.AdvanceStatus(context.Background(), id, from, models.StatusResolved, &authority)
		require.NoError(mt, err)
		assert.True(mt, ok)

		cmd := sent(mt, "update")
		assert.Equal(mt, issuesCollection, cmd.Lookup("update").StringValue())
		assert.Equal(mt, id, cmd.Lookup("updates", "0", "q", "_id").ObjectID())
		assert.Equal(mt, []string{"VERIFIED", "IN_PROGRESS"}, statusList(mt.T, cmd.Lookup("updates", "0", "q", "status", "$in")))
		assert.Equal(mt, "RESOLVED", cmd.Lookup("updates", "0", "u", "$set", "status").StringValue())
		assert.Equal(mt, authority, cmd.Lookup("updates", "0", "u", "$set", "assigned_to").ObjectID())
	})

	mt.Run("stale status matches nothing", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))

		ok, err := repo.AdvanceStatus(context.Background(), id, []models.IssueStatus{models.StatusOpen}, models.StatusVerified, nil)
		require.NoError(mt, err)
		assert.False(mt, ok)

		cmd := sent(mt, "update")
		assert.Equal(mt, []string{"OPEN"}, statusList(mt.T, cmd.Lookup("updates", "0", "q", "status", "$in")))
		_, err = cmd.LookupErr("updates", "0", "u", "$set", "assigned_to")
		assert.Error(mt, err, "promotion leaves the assignee alone")
	})
}

func TestToggleUpvote(t *testing.T) {
	mt := newMock(t)
	issue := primitive.NewObjectID()
	user := primitive.NewObjectID()

	mt.Run("removes an existing upvote", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(written(1))

		upvoted, err := repo.ToggleUpvote(context.Background(), issue, user)
		require.NoError(mt, err)
		assert.False(mt, upvoted)

		cmd := sent(mt, "delete")
		assert.Equal(mt, upvotesCollection, cmd.Lookup("delete").StringValue())
		assert.Equal(mt, issue, cmd.Lookup("deletes", "0", "q", "issue_id").ObjectID())
		assert.Equal(mt, user, cmd.Lookup("deletes", "0", "q", "user_id").ObjectID())
		assert.Nil(mt, mt.GetStartedEvent(), "nothing is inserted")
	})

	mt.Run("inserts when absent", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(written(0), written(1))

		upvoted, err := repo.ToggleUpvote(context.Background(), issue, user)
		require.NoError(mt, err)
		assert.True(mt, upvoted)

		sent(mt, "delete")
		cmd := sent(mt, "insert")
		assert.Equal(mt, issue, cmd.Lookup("documents", "0", "issue_id").ObjectID())
		assert.Equal(mt, user, cmd.Lookup("documents", "0", "user_id").ObjectID())
	})

	mt.Run("losing the insert race still counts as upvoted", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(written(0), duplicateKey())

		upvoted, err := repo.ToggleUpvote(context.Background(), issue, user)
		require.NoError(mt, err)
		assert.True(mt, upvoted)
	})

	mt.Run("other write errors surface", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(written(0), mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 121, Message: "Document failed validation"}))

		_, err := repo.ToggleUpvote(context.Background(), issue, user)
		assert.Error(mt, err)
	})
}

func TestInsertVerification(t *testing.T) {
	mt := newMock(t)
	issue := primitive.NewObjectID()
	user := primitive.NewObjectID()

	mt.Run("first attestation", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(written(1))

		inserted, err := repo.InsertVerification(context.Background(), issue, user)
		require.NoError(mt, err)
		assert.True(mt, inserted)

		cmd := sent(mt, "insert")
		assert.Equal(mt, verificationsCollection, cmd.Lookup("insert").StringValue())
		assert.Equal(mt, issue, cmd.Lookup("documents", "0", "issue_id").ObjectID())
		assert.Equal(mt, user, cmd.Lookup("documents", "0", "user_id").ObjectID())
	})

	mt.Run("repeat attestation", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(duplicateKey())

		inserted, err := repo.InsertVerification(context.Background(), issue, user)
		require.NoError(mt, err)
		assert.False(mt, inserted)
	})
}

func TestCountUpvotes(t *testing.T) {
	mt := newMock(t)
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	quiet := primitive.NewObjectID()

	mt.Run("groups per issue", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "civicsync.upvotes", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: first}, {Key: "count", Value: int32(3)}},
			bson.D{{Key: "_id", Value: second}, {Key: "count", Value: int32(1)}},
		))

		counts, err := repo.CountUpvotes(context.Background(), []primitive.ObjectID{first, second, quiet})
		require.NoError(mt, err)
		assert.Equal(mt, map[primitive.ObjectID]int64{first: 3, second: 1}, counts)

		cmd := sent(mt, "aggregate")
		assert.Equal(mt, upvotesCollection, cmd.Lookup("aggregate").StringValue())
		ids, err := cmd.Lookup("pipeline", "0", "$match", "issue_id", "$in").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, ids, 3)
		assert.Equal(mt, first, ids[0].ObjectID())
		assert.Equal(mt, "$issue_id", cmd.Lookup("pipeline", "1", "$group", "_id").StringValue())
	})

	mt.Run("no ids sends nothing", func(mt *mtest.T) {
		repo := New(mt.DB)
		counts, err := repo.CountUpvotes(context.Background(), nil)
		require.NoError(mt, err)
		assert.Empty(mt, counts)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestFindIssue(t *testing.T) {
	mt := newMock(t)
	id := primitive.NewObjectID()

	mt.Run("found", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "civicsync.issues", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: id}, {Key: "title", Value: "Pothole on Elm St"}, {Key: "status", Value: "OPEN"}},
		))

		issue, err := repo.FindIssue(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, "Pothole on Elm St", issue.Title)
		assert.Equal(mt, models.StatusOpen, issue.Status)
		assert.Equal(mt, id, sent(mt, "find").Lookup("filter", "_id").ObjectID())
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := New(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "civicsync.issues", mtest.FirstBatch))

		_, err := repo.FindIssue(context.Background(), id)
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}
