// Package syncsecret loads Snowflake and SFMC credentials from AWS Secrets
// Manager.
package syncsecret

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/savaki/secrets"
	"github.com/urfave/cli/v2"

	"github.com/subscriberhub/sfmc-sync/sfmc"
	"github.com/subscriberhub/sfmc-sync/snowflake"
	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
)

var SecretOpts struct {
	SecretName string
}

var SecretNameFlag = synccli.StringFlag("secret-name", "Secrets Manager secret holding SNOWFLAKE_* and SFMC_* credentials", &SecretOpts.SecretName)

var SecretFlags = []cli.Flag{
	SecretNameFlag,
}

// Credentials is the JSON layout of the secret; keys match the environment
// variable names.
type Credentials struct {
	SnowflakeConfig
	SFMCConfig
}

type SnowflakeConfig = snowflake.Config
type SFMCConfig = sfmc.Config

func LoadSecret(s *session.Session, secretName string, data interface{}) error {
	api := secrets.WithSecretsManager(secretsmanager.New(s))
	manager, err := secrets.NewManager(api)
	if err != nil {
		return fmt.Errorf("failed to initialize secrets: %w", err)
	}

	if err := manager.Decode(secretName, data); err != nil {
		return fmt.Errorf("failed to load secret %v: %v", secretName, err)
	}
	return nil
}

func LoadCredentials(s *session.Session, secretName string) (Credentials, error) {
	var creds Credentials
	if err := LoadSecret(s, secretName, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func overlay(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// Apply copies every non-empty credential over the given configs.
func (c Credentials) Apply(wh *snowflake.Config, mc *sfmc.Config) {
	overlay(&wh.Account, c.Account)
	overlay(&wh.User, c.User)
	overlay(&wh.Password, c.Password)
	overlay(&wh.Warehouse, c.Warehouse)
	overlay(&wh.Database, c.Database)
	overlay(&wh.Schema, c.Schema)

	overlay(&mc.Subdomain, c.Subdomain)
	overlay(&mc.ClientID, c.ClientID)
	overlay(&mc.ClientSecret, c.ClientSecret)
	overlay(&mc.ExternalKey, c.ExternalKey)
}
