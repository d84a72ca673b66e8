package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	log "github.com/sirupsen/logrus"
)

// ParameterGetter is the subset of the SSM client used to resolve secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewParameterClient creates an SSM client from the default AWS config.
func NewParameterClient(ctx context.Context) (*ssm.Client, error) {
	awsCfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// ResolveDatabaseURL replaces DatabaseURL with the decrypted value of
// DatabaseURLParameter. It is a no-op when no parameter is configured.
func (c *Config) ResolveDatabaseURL(ctx context.Context, client ParameterGetter) error {
	if c.DatabaseURLParameter == "" {
		return nil
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(c.DatabaseURLParameter),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to read SSM parameter %s: %w", c.DatabaseURLParameter, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return fmt.Errorf("SSM parameter %s is empty", c.DatabaseURLParameter)
	}

	log.Debugf("Database URL resolved from SSM parameter %s", c.DatabaseURLParameter)
	c.DatabaseURL = aws.ToString(out.Parameter.Value)
	return nil
}
