// Package registry implements the durable enrollment registry on
// DynamoDB. Records are keyed by device name and created out-of-band by
// the allow-listing workflow; this package only reads enrollment status
// and performs the single conditional unprovisioned->provisioned
// transition.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/fleetops/device-provisioning-backend/interfaces"
)

// Attribute names of the enrollment table. The table is keyed by
// attrDeviceName with no sort key.
const (
	attrDeviceName    = "thing_name"
	attrStatus        = "prov_status"
	attrProvisionedAt = "prov_datetime"
	attrRegion        = "aws_region"
)

// provisionedAtLayout is the timestamp format recorded in the table,
// kept compatible with existing records.
const provisionedAtLayout = "2006-01-02T15:04:05"

// DynamoRegistry implements interfaces.EnrollmentRegistry on a DynamoDB
// table.
type DynamoRegistry struct {
	db    dynamodbiface.DynamoDBAPI
	table string
	log   *slog.Logger
}

// NewDynamoRegistry creates a registry client for the given table.
func NewDynamoRegistry(db dynamodbiface.DynamoDBAPI, table string, log *slog.Logger) *DynamoRegistry {
	return &DynamoRegistry{db: db, table: table, log: log}
}

// Status returns the enrollment status recorded for the device. A
// missing item and an item without a status attribute are logged
// distinctly but both surface as ErrRecordNotFound so callers cannot
// tell them apart.
func (r *DynamoRegistry) Status(ctx context.Context, name interfaces.DeviceName) (interfaces.EnrollmentStatus, error) {
	out, err := r.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]*dynamodb.AttributeValue{
			attrDeviceName: {S: aws.String(name.String())},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read enrollment record: %w", err)
	}

	if out.Item == nil {
		r.log.Warn("Device not found in enrollment registry", slog.String("device", name.String()))
		return "", interfaces.ErrRecordNotFound
	}

	statusAttr, ok := out.Item[attrStatus]
	if !ok || statusAttr.S == nil {
		r.log.Warn("Enrollment record has no status attribute", slog.String("device", name.String()))
		return "", interfaces.ErrRecordNotFound
	}

	return interfaces.EnrollmentStatus(*statusAttr.S), nil
}

// MarkProvisioned records the unprovisioned->provisioned transition.
// The update carries a condition on the current status, so two requests
// racing past the eligibility check cannot both complete: the loser
// gets ErrNotEligible.
func (r *DynamoRegistry) MarkProvisioned(ctx context.Context, name interfaces.DeviceName, region string, at time.Time) error {
	_, err := r.db.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]*dynamodb.AttributeValue{
			attrDeviceName: {S: aws.String(name.String())},
		},
		UpdateExpression:    aws.String("SET " + attrStatus + " = :s, " + attrProvisionedAt + " = :d, " + attrRegion + " = :r"),
		ConditionExpression: aws.String(attrStatus + " = :expected"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":s":        {S: aws.String(string(interfaces.StatusProvisioned))},
			":d":        {S: aws.String(at.UTC().Format(provisionedAtLayout))},
			":r":        {S: aws.String(region)},
			":expected": {S: aws.String(string(interfaces.StatusUnprovisioned))},
		},
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			r.log.Warn("Enrollment record changed concurrently, update rejected",
				slog.String("device", name.String()))
			return interfaces.ErrNotEligible
		}
		return fmt.Errorf("failed to update enrollment record: %w", err)
	}

	r.log.Info("Enrollment recorded",
		slog.String("device", name.String()),
		slog.String("region", region))
	return nil
}
