package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"frontdesk/internal/config"
	"frontdesk/internal/integrations/paramstore"
	"frontdesk/internal/repository"
)

func main() {
	root := &cobra.Command{
		Use:           "frontdesk",
		Short:         "Call forwarding and SMS auto-reply webhooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the webhooks (Lambda when running in AWS Lambda, HTTP otherwise)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		newLeadsCommand(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("frontdesk failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment (after .env files) and installs the logger.
func loadConfig() (config.Config, error) {
	config.LoadDotEnv()
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

// awsConfig is loaded only when an AWS-backed feature is configured.
func awsConfig(ctx context.Context, cfg config.Config) (*aws.Config, error) {
	if cfg.ParamPrefix == "" && cfg.LeadsTable == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &awsCfg, nil
}

func resolveSecrets(ctx context.Context, cfg *config.Config, awsCfg *aws.Config) error {
	if cfg.ParamPrefix == "" {
		return nil
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(*awsCfg))
	if err != nil {
		return err
	}
	return cfg.ResolveSecrets(ctx, ssmClient)
}

// openLeads returns the DynamoDB log when LEADS_TABLE is set, else the CSV log.
// With ensureHeader the CSV file is created up front.
func openLeads(cfg config.Config, awsCfg *aws.Config, ensureHeader bool) (repository.ReadWriter, error) {
	if cfg.LeadsTable != "" {
		return repository.NewDynamoLog(awsdynamodb.NewFromConfig(*awsCfg), cfg.LeadsTable)
	}
	leads, err := repository.NewCSVLog(cfg.LeadsCSV)
	if err != nil {
		return nil, err
	}
	if !ensureHeader {
		return leads, nil
	}
	created, err := leads.EnsureHeader()
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info("interaction log created", "path", leads.Path())
	}
	return leads, nil
}
