package config

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SecretsConfig names the Parameter Store entries holding API keys in prod.
type SecretsConfig struct {
	Region        string        `mapstructure:"region"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CoinCapParam  string        `mapstructure:"coincap_param"`
	WeatherParam  string        `mapstructure:"weather_param"`
	NewsDataParam string        `mapstructure:"newsdata_param"`
}

// ParameterGetter is the subset of the SSM client used to resolve secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewSSMClient builds a Parameter Store client from the default AWS chain.
func NewSSMClient(ctx context.Context, region string) (*ssm.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// ResolveSecrets fills API keys from Parameter Store when running in prod.
// Keys already present (config file or env) are kept. Outside prod this is a no-op.
func (c *Config) ResolveSecrets(ctx context.Context, client ParameterGetter) error {
	if c.Log.Environment != "prod" {
		return nil
	}

	targets := []struct {
		param string
		dst   *string
	}{
		{c.Secrets.CoinCapParam, &c.CoinCap.REST.APIKey},
		{c.Secrets.WeatherParam, &c.Weather.APIKey},
		{c.Secrets.NewsDataParam, &c.News.APIKey},
	}

	for _, t := range targets {
		if t.param == "" || *t.dst != "" {
			continue
		}
		value, err := getParameterStoreValue(ctx, client, t.param, c.Secrets.Timeout)
		if err != nil {
			return err
		}
		*t.dst = value
	}
	return nil
}

func getParameterStoreValue(ctx context.Context, client ParameterGetter, name string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	decrypt := true
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}

	return *result.Parameter.Value, nil
}
