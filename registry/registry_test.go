package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/fleetops/device-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDB struct {
	dynamodbiface.DynamoDBAPI

	getIn  *dynamodb.GetItemInput
	getOut *dynamodb.GetItemOutput
	getErr error

	updateIn  *dynamodb.UpdateItemInput
	updateErr error
}

func (s *stubDB) GetItemWithContext(ctx aws.Context, in *dynamodb.GetItemInput, opts ...request.Option) (*dynamodb.GetItemOutput, error) {
	s.getIn = in
	return s.getOut, s.getErr
}

func (s *stubDB) UpdateItemWithContext(ctx aws.Context, in *dynamodb.UpdateItemInput, opts ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	s.updateIn = in
	return &dynamodb.UpdateItemOutput{}, s.updateErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func deviceName(t *testing.T, raw string) interfaces.DeviceName {
	t.Helper()
	name, err := interfaces.NewDeviceName(raw)
	require.NoError(t, err)
	return name
}

func TestStatus(t *testing.T) {
	db := &stubDB{getOut: &dynamodb.GetItemOutput{
		Item: map[string]*dynamodb.AttributeValue{
			attrDeviceName: {S: aws.String("device-001")},
			attrStatus:     {S: aws.String("unprovisioned")},
		},
	}}
	reg := NewDynamoRegistry(db, "enrollments", testLogger())

	status, err := reg.Status(context.Background(), deviceName(t, "device-001"))
	require.NoError(t, err)
	assert.Equal(t, interfaces.StatusUnprovisioned, status)

	require.NotNil(t, db.getIn)
	assert.Equal(t, "enrollments", aws.StringValue(db.getIn.TableName))
	assert.Equal(t, "device-001", aws.StringValue(db.getIn.Key[attrDeviceName].S))
	assert.True(t, aws.BoolValue(db.getIn.ConsistentRead))
}

func TestStatusMissingRecord(t *testing.T) {
	db := &stubDB{getOut: &dynamodb.GetItemOutput{}}
	reg := NewDynamoRegistry(db, "enrollments", testLogger())

	_, err := reg.Status(context.Background(), deviceName(t, "device-001"))
	assert.ErrorIs(t, err, interfaces.ErrRecordNotFound)
}

func TestStatusMissingAttribute(t *testing.T) {
	db := &stubDB{getOut: &dynamodb.GetItemOutput{
		Item: map[string]*dynamodb.AttributeValue{
			attrDeviceName: {S: aws.String("device-001")},
		},
	}}
	reg := NewDynamoRegistry(db, "enrollments", testLogger())

	_, err := reg.Status(context.Background(), deviceName(t, "device-001"))
	assert.ErrorIs(t, err, interfaces.ErrRecordNotFound)
}

func TestStatusTransportError(t *testing.T) {
	db := &stubDB{getErr: errors.New("throttled")}
	reg := NewDynamoRegistry(db, "enrollments", testLogger())

	_, err := reg.Status(context.Background(), deviceName(t, "device-001"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrRecordNotFound)
}

func TestMarkProvisioned(t *testing.T) {
	db := &stubDB{}
	reg := NewDynamoRegistry(db, "enrollments", testLogger())

	at := time.Date(2026, 8, 14, 9, 30, 45, 0, time.UTC)
	err := reg.MarkProvisioned(context.Background(), deviceName(t, "device-001"), "eu-west-1", at)
	require.NoError(t, err)

	require.NotNil(t, db.updateIn)
	values := db.updateIn.ExpressionAttributeValues
	assert.Equal(t, "provisioned", aws.StringValue(values[":s"].S))
	assert.Equal(t, "2026-08-14T09:30:45", aws.StringValue(values[":d"].S))
	assert.Equal(t, "eu-west-1", aws.StringValue(values[":r"].S))
	assert.Equal(t, "unprovisioned", aws.StringValue(values[":expected"].S))
	assert.Contains(t, aws.StringValue(db.updateIn.ConditionExpression), attrStatus)
}

func TestMarkProvisionedLosesRace(t *testing.T) {
	db := &stubDB{updateErr: awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "condition failed", nil)}
	reg := NewDynamoRegistry(db, "enrollments", testLogger())

	err := reg.MarkProvisioned(context.Background(), deviceName(t, "device-001"), "eu-west-1", time.Now())
	assert.ErrorIs(t, err, interfaces.ErrNotEligible)
}

func TestMarkProvisionedTransportError(t *testing.T) {
	db := &stubDB{updateErr: errors.New("throttled")}
	reg := NewDynamoRegistry(db, "enrollments", testLogger())

	err := reg.MarkProvisioned(context.Background(), deviceName(t, "device-001"), "eu-west-1", time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrNotEligible)
}
