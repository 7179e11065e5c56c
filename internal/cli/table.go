package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacentio/kennel/config"
	"github.com/jacentio/kennel/driver/dynamo"
)

var initTableWait time.Duration

var initTableCmd = &cobra.Command{
	Use:   "init-table",
	Short: "Create the DynamoDB documents table",
	Long: `Create the documents table with its parent and group indexes and a
stream. An existing table is left as is.`,
	Args:    cobra.NoArgs,
	GroupID: "admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Driver != config.DriverDynamoDB {
			return fmt.Errorf("init-table requires the dynamodb driver, configured driver is %q", cfg.Driver)
		}
		awsCfg, err := loadAWSConfig(ctx, cfg.DynamoDB)
		if err != nil {
			return err
		}

		api := newDynamoClient(awsCfg, cfg.DynamoDB)
		if err := dynamo.CreateTable(ctx, api, cfg.DynamoDriverConfig(), initTableWait); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Table %s is ready", cfg.DynamoDB.Table))
		return nil
	},
}

func init() {
	initTableCmd.Flags().DurationVar(&initTableWait, "wait", 2*time.Minute, "How long to wait for the table to become active")
	rootCmd.AddCommand(initTableCmd)
}
