package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// GetSecret reads a secret string, or a base64 decoded secret binary, from AWS Secrets Manager.
func GetSecret(secretName, region string) (string, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return "", err
	}

	svc := secretsmanager.New(sess, aws.NewConfig().WithRegion(region))
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretName),
		VersionStage: aws.String("AWSCURRENT"),
	}
	result, err := svc.GetSecretValue(input)
	if err != nil {
		return "", err
	}

	if result.SecretString != nil {
		return *result.SecretString, nil
	}
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(result.SecretBinary)))
	n, err := base64.StdEncoding.Decode(decoded, result.SecretBinary)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret binary: %w", err)
	}
	return string(decoded[:n]), nil
}

// GetDBPass resolves the database password, reading it from AWS when the db config asks for it.
func GetDBPass(cfg *DBConfig) string {
	if cfg.KeyType != KeyTypeAWSKey {
		return cfg.Password
	}
	result, err := GetSecret(cfg.AWSSecretName, cfg.AWSRegion)
	if err != nil {
		panic(err)
	}
	type DBPass struct {
		DbPass string `json:"db_pass"`
	}
	var dbPassword DBPass
	if err := json.Unmarshal([]byte(result), &dbPassword); err != nil {
		panic(err)
	}
	return dbPassword.DbPass
}
