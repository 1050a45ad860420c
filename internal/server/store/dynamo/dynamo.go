// Package dynamo implements the credential store over a single DynamoDB
// table. User and token records share the table under prefixed ids
// ("user_<email>", "token_<email>_<value>"); conditional expressions carry
// the create-if-absent and consume-once semantics.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dkotelnikov/accountd/internal/server/models"
	"github.com/dkotelnikov/accountd/internal/server/store"
)

// api is the subset of the DynamoDB client the store uses. Seam for tests.
type api interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type Store struct {
	client    api
	tableName string
	now       func() time.Time
}

// New returns a store writing to tableName through client.
func New(client *dynamodb.Client, tableName string) *Store {
	return &Store{client: client, tableName: tableName, now: time.Now}
}

type userItem struct {
	ID string `dynamodbav:"id"`
	models.User
}

type tokenItem struct {
	ID string `dynamodbav:"id"`
	models.Token
}

func userID(emailAddress string) string { return "user_" + emailAddress }

func tokenID(emailAddress, value string) string {
	return "token_" + emailAddress + "_" + value
}

func (s *Store) GetUser(ctx context.Context, emailAddress string) (*models.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: userID(emailAddress)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo get user: %w", err)
	}
	if out.Item == nil {
		return nil, store.ErrNotFound
	}
	item := &userItem{}
	if err := attributevalue.UnmarshalMap(out.Item, item); err != nil {
		return nil, fmt.Errorf("unmarshaling user item: %w", err)
	}
	return &item.User, nil
}

func (s *Store) SetUser(ctx context.Context, user *models.User, requireNew bool) error {
	av, err := attributevalue.MarshalMap(&userItem{ID: userID(user.EmailAddress), User: *user})
	if err != nil {
		return fmt.Errorf("marshaling user item: %w", err)
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}
	if requireNew {
		input.ConditionExpression = aws.String("attribute_not_exists(id)")
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("dynamo put user: %w", err)
	}
	return nil
}

func (s *Store) SetToken(ctx context.Context, token *models.Token) error {
	av, err := attributevalue.MarshalMap(&tokenItem{
		ID:    tokenID(token.EmailAddress, token.Value),
		Token: *token,
	})
	if err != nil {
		return fmt.Errorf("marshaling token item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("dynamo put token: %w", err)
	}
	return nil
}

func (s *Store) ConsumeToken(ctx context.Context, emailAddress, value string, expectedType models.TokenType) error {
	cutoff := s.now().Add(-store.ClockSkewTolerance).Unix()
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: tokenID(emailAddress, value)},
		},
		ConditionExpression: aws.String("attribute_exists(id) AND expiration >= :n AND #t = :t"),
		ExpressionAttributeNames: map[string]string{
			"#t": "type",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", cutoff)},
			":t": &types.AttributeValueMemberS{Value: string(expectedType)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return store.ErrTokenInvalid
		}
		return fmt.Errorf("dynamo consume token: %w", err)
	}
	return nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

var _ store.CredentialStore = (*Store)(nil)
