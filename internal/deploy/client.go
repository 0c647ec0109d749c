package deploy

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Environment variables read by NewClient.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken    = "AWS_SESSION_TOKEN"
	EnvRegion          = "AWS_REGION"
)

// DefaultRegion is used when neither the configuration nor the environment
// names one.
const DefaultRegion = "us-east-1"

// NewClient creates an S3 client with static credentials from the
// environment. A non-empty endpoint selects an S3 compatible store and
// path-style addressing.
func NewClient(region, endpoint string) *s3.Client {
	if region == "" {
		region = os.Getenv(EnvRegion)
	}
	if region == "" {
		region = DefaultRegion
	}

	return s3.New(s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials()),
	}, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     os.Getenv(EnvAccessKeyID),
			SecretAccessKey: os.Getenv(EnvSecretAccessKey),
			SessionToken:    os.Getenv(EnvSessionToken),
			Source:          "Environment",
		}, nil
	})
}
