package issuer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/iot"
	"github.com/aws/aws-sdk-go/service/iot/iotiface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/fleetops/device-provisioning-backend/interfaces"
)

// dataEndpointType selects the TLS data endpoint of the fleet platform.
const dataEndpointType = "iot:Data-ATS"

// policyDocumentTemplate scopes each device to its own client id and its
// own topic namespace: connect only as itself, publish only under
// data/<client id>/. Placeholders are the account id and region.
const policyDocumentTemplate = `{
    "Version": "2012-10-17",
    "Statement": [{
        "Effect": "Allow",
        "Action": ["iot:Connect"],
        "Resource": [ "arn:aws:iot:%[1]s:%[2]s:client/${iot:ClientId}" ]
    },
    {
        "Effect": "Allow",
        "Action": ["iot:Publish"],
        "Resource": [ "arn:aws:iot:%[1]s:%[2]s:topic/data/${iot:ClientId}/*" ]
    }]
}`

// IoTIssuer implements interfaces.CredentialIssuer against the AWS IoT
// control plane. Clients are created per operating region and cached.
type IoTIssuer struct {
	sess       *session.Session
	sts        stsiface.STSAPI
	policyName string
	log        *slog.Logger

	mu        sync.Mutex
	clients   map[string]iotiface.IoTAPI
	clientFor func(region string) iotiface.IoTAPI
	accountID string
}

// NewIoTIssuer creates an issuer using the given session for regional
// IoT clients and STS for account resolution.
func NewIoTIssuer(sess *session.Session, policyName string, log *slog.Logger) *IoTIssuer {
	i := &IoTIssuer{
		sess:       sess,
		sts:        sts.New(sess),
		policyName: policyName,
		log:        log,
		clients:    make(map[string]iotiface.IoTAPI),
	}
	i.clientFor = func(region string) iotiface.IoTAPI {
		return iot.New(i.sess, aws.NewConfig().WithRegion(region))
	}
	return i
}

// WithClientFactory returns the issuer with regional IoT clients built
// by f instead of the AWS session. Used by tests.
func (i *IoTIssuer) WithClientFactory(f func(region string) iotiface.IoTAPI) *IoTIssuer {
	i.clientFor = f
	return i
}

// WithSTS returns the issuer with the given STS client. Used by tests.
func (i *IoTIssuer) WithSTS(client stsiface.STSAPI) *IoTIssuer {
	i.sts = client
	return i
}

// Issue runs the issuance sequence for the device in the named region:
//
//  1. Resolve the regional data endpoint.
//  2. Ensure the access policy exists (create if missing, tolerate
//     concurrent creation).
//  3. Register the device identity (tolerate already-exists).
//  4. Issue the certificate from the supplied CSR, or generate a key
//     pair and certificate server-side.
//  5. Attach the policy and the device identity to the certificate.
//
// Any non-idempotent failure aborts the whole sequence; no partial
// credential is ever returned.
func (i *IoTIssuer) Issue(ctx context.Context, name interfaces.DeviceName, region string, csr interfaces.CSRPEM) (*interfaces.IssuedCredential, error) {
	c := i.regionalClient(region)
	log := i.log.With(slog.String("device", name.String()), slog.String("region", region))

	endpoint, err := c.DescribeEndpointWithContext(ctx, &iot.DescribeEndpointInput{
		EndpointType: aws.String(dataEndpointType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve regional endpoint: %w", err)
	}

	if err := i.ensurePolicy(ctx, c, region, log); err != nil {
		return nil, err
	}

	_, err = c.CreateThingWithContext(ctx, &iot.CreateThingInput{
		ThingName: aws.String(name.String()),
	})
	if err != nil && !isAlreadyExists(err) {
		return nil, fmt.Errorf("failed to register device identity: %w", err)
	}
	if isAlreadyExists(err) {
		log.Info("Device identity already registered")
	}

	cred := &interfaces.IssuedCredential{
		EndpointAddress: aws.StringValue(endpoint.EndpointAddress),
	}

	var certificateArn string
	if csr != nil {
		out, err := c.CreateCertificateFromCsrWithContext(ctx, &iot.CreateCertificateFromCsrInput{
			CertificateSigningRequest: aws.String(string(csr)),
			SetAsActive:               aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to issue certificate from CSR: %w", err)
		}
		certificateArn = aws.StringValue(out.CertificateArn)
		cred.CertificateID = aws.StringValue(out.CertificateId)
		cred.Certificate = interfaces.CertificatePEM(aws.StringValue(out.CertificatePem))
	} else {
		out, err := c.CreateKeysAndCertificateWithContext(ctx, &iot.CreateKeysAndCertificateInput{
			SetAsActive: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate key pair and certificate: %w", err)
		}
		certificateArn = aws.StringValue(out.CertificateArn)
		cred.CertificateID = aws.StringValue(out.CertificateId)
		cred.Certificate = interfaces.CertificatePEM(aws.StringValue(out.CertificatePem))
		if out.KeyPair != nil {
			cred.PrivateKey = interfaces.PrivateKeyPEM(aws.StringValue(out.KeyPair.PrivateKey))
		}
	}

	log.Info("Certificate issued", slog.String("certificateID", cred.CertificateID))

	_, err = c.AttachPolicyWithContext(ctx, &iot.AttachPolicyInput{
		PolicyName: aws.String(i.policyName),
		Target:     aws.String(certificateArn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach policy to certificate: %w", err)
	}

	_, err = c.AttachThingPrincipalWithContext(ctx, &iot.AttachThingPrincipalInput{
		ThingName: aws.String(name.String()),
		Principal: aws.String(certificateArn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach device identity to certificate: %w", err)
	}

	return cred, nil
}

// ensurePolicy looks up the access policy and creates it when missing.
// A concurrent creation racing this call is treated as success.
func (i *IoTIssuer) ensurePolicy(ctx context.Context, c iotiface.IoTAPI, region string, log *slog.Logger) error {
	_, err := c.GetPolicyWithContext(ctx, &iot.GetPolicyInput{
		PolicyName: aws.String(i.policyName),
	})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to look up access policy: %w", err)
	}

	accountID, err := i.callerAccount(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve account for policy document: %w", err)
	}

	document := fmt.Sprintf(policyDocumentTemplate, region, accountID)
	_, err = c.CreatePolicyWithContext(ctx, &iot.CreatePolicyInput{
		PolicyName:     aws.String(i.policyName),
		PolicyDocument: aws.String(document),
	})
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("failed to create access policy: %w", err)
	}

	log.Info("Access policy ensured", slog.String("policy", i.policyName))
	return nil
}

// callerAccount resolves and caches the account id used in policy ARNs.
func (i *IoTIssuer) callerAccount(ctx context.Context) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.accountID != "" {
		return i.accountID, nil
	}

	out, err := i.sts.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}

	i.accountID = aws.StringValue(out.Account)
	return i.accountID, nil
}

// regionalClient returns the cached IoT client for the region, creating
// it on first use.
func (i *IoTIssuer) regionalClient(region string) iotiface.IoTAPI {
	i.mu.Lock()
	defer i.mu.Unlock()

	if c, ok := i.clients[region]; ok {
		return c
	}
	c := i.clientFor(region)
	i.clients[region] = c
	return c
}

func isAlreadyExists(err error) bool {
	var awsErr awserr.Error
	return errors.As(err, &awsErr) && awsErr.Code() == iot.ErrCodeResourceAlreadyExistsException
}

func isNotFound(err error) bool {
	var awsErr awserr.Error
	return errors.As(err, &awsErr) && awsErr.Code() == iot.ErrCodeResourceNotFoundException
}
