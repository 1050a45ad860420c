package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkotelnikov/accountd/internal/server/models"
	"github.com/dkotelnikov/accountd/internal/server/store"
)

type fakeClient struct {
	getOut *dynamodb.GetItemOutput
	getErr error

	putIn  *dynamodb.PutItemInput
	putErr error

	delIn  *dynamodb.DeleteItemInput
	delErr error
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getOut, f.getErr
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.delIn = in
	return &dynamodb.DeleteItemOutput{}, f.delErr
}

func newFakeStore(f *fakeClient) *Store {
	return &Store{client: f, tableName: "accounts", now: time.Now}
}

func TestGetUser_RoundTrip(t *testing.T) {
	u := &userItem{
		ID: userID("alice@example.com"),
		User: models.User{
			EmailAddress:  "alice@example.com",
			FirstName:     "Alice",
			SaltyPassword: "s:1:d",
			CreateDate:    time.Unix(1700000000, 0).UTC(),
		},
	}
	av, err := attributevalue.MarshalMap(u)
	require.NoError(t, err)

	s := newFakeStore(&fakeClient{getOut: &dynamodb.GetItemOutput{Item: av}})
	got, err := s.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "s:1:d", got.SaltyPassword)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newFakeStore(&fakeClient{getOut: &dynamodb.GetItemOutput{}})
	_, err := s.GetUser(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetUser_RequireNewSetsCondition(t *testing.T) {
	f := &fakeClient{}
	s := newFakeStore(f)

	err := s.SetUser(context.Background(), &models.User{EmailAddress: "alice@example.com"}, true)
	require.NoError(t, err)
	require.NotNil(t, f.putIn.ConditionExpression)
	assert.Equal(t, "attribute_not_exists(id)", *f.putIn.ConditionExpression)

	err = s.SetUser(context.Background(), &models.User{EmailAddress: "alice@example.com"}, false)
	require.NoError(t, err)
	assert.Nil(t, f.putIn.ConditionExpression)
}

func TestSetUser_ConflictMapsToAlreadyExists(t *testing.T) {
	f := &fakeClient{putErr: &types.ConditionalCheckFailedException{}}
	s := newFakeStore(f)

	err := s.SetUser(context.Background(), &models.User{EmailAddress: "alice@example.com"}, true)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestConsumeToken_ConditionShape(t *testing.T) {
	f := &fakeClient{}
	s := newFakeStore(f)

	err := s.ConsumeToken(context.Background(), "alice@example.com", "v1", models.TokenTypeRefresh)
	require.NoError(t, err)

	key := f.delIn.Key["id"].(*types.AttributeValueMemberS)
	assert.Equal(t, "token_alice@example.com_v1", key.Value)
	assert.Equal(t, "attribute_exists(id) AND expiration >= :n AND #t = :t", *f.delIn.ConditionExpression)
	typ := f.delIn.ExpressionAttributeValues[":t"].(*types.AttributeValueMemberS)
	assert.Equal(t, "refresh", typ.Value)
}

func TestConsumeToken_ConditionFailedMapsToInvalid(t *testing.T) {
	f := &fakeClient{delErr: &types.ConditionalCheckFailedException{}}
	s := newFakeStore(f)

	err := s.ConsumeToken(context.Background(), "alice@example.com", "v1", models.TokenTypeRefresh)
	assert.ErrorIs(t, err, store.ErrTokenInvalid)
}
