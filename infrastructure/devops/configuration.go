package devops

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// QBOConfig is the Intuit app registration shared by all tenants.
type QBOConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RedirectURI  string `yaml:"redirectUri"`
	Environment  string `yaml:"environment"`
}

// AppConfig is the deployment configuration stored as one YAML document in
// SSM Parameter Store (SecureString).
type AppConfig struct {
	DSN         string    `yaml:"dsn"`
	VaultKey    string    `yaml:"vaultKey"`
	StateSecret string    `yaml:"stateSecret"`
	QBO         QBOConfig `yaml:"qbo"`
}

var (
	once    sync.Once
	appCfg  *AppConfig
	loadErr error
)

// LoadAppConfig fetches and caches the configuration parameter. The parameter
// name defaults to "crewclock-config" and can be overridden with
// CONFIG_PARAMETER.
func LoadAppConfig(ctx context.Context) (*AppConfig, error) {
	once.Do(func() {
		paramName := os.Getenv("CONFIG_PARAMETER")
		if paramName == "" {
			paramName = "crewclock-config"
		}

		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			loadErr = fmt.Errorf("load aws config: %w", err)
			return
		}

		client := ssm.NewFromConfig(cfg)

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(paramName),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			loadErr = fmt.Errorf("get parameter: %w", err)
			return
		}

		var parsed AppConfig
		if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &parsed); err != nil {
			loadErr = fmt.Errorf("unmarshal yaml: %w", err)
			return
		}

		appCfg = &parsed
	})

	return appCfg, loadErr
}
