package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jacentio/kennel/model"
	"github.com/jacentio/kennel/scope"
)

var (
	listDogID       string
	listEntityID    string
	listAllSchedule bool
)

var dogsCmd = &cobra.Command{
	Use:     "dogs",
	Short:   "List an owner's dogs",
	Long:    `List every dog of --owner, or show one with --id.`,
	Args:    cobra.NoArgs,
	GroupID: "read",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer recoverViolation(&err)
		if err := requireOwner(); err != nil {
			return err
		}
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if listEntityID != "" {
			d, err := a.client.Dog(ctx, scope.DogOne(ownerID, listEntityID))
			if err != nil {
				return err
			}
			return printDogs(cmd.OutOrStdout(), []model.Dog{d})
		}
		dogs, err := a.client.Dogs(ctx, scope.DogAll(ownerID))
		if err != nil {
			return err
		}
		return printDogs(cmd.OutOrStdout(), dogs)
	},
}

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "List schedules",
	Long: `List the incomplete schedules of every dog of --owner, or of one dog
with --dog, by date. --all includes completed schedules after the
incomplete ones. --id shows a single schedule and requires --dog.`,
	Args:    cobra.NoArgs,
	GroupID: "read",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer recoverViolation(&err)
		if err := requireOwner(); err != nil {
			return err
		}
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if listEntityID != "" {
			s, err := a.client.Schedule(ctx, scope.ScheduleOne(ownerID, listDogID, listEntityID))
			if err != nil {
				return err
			}
			return printSchedules(cmd.OutOrStdout(), []model.Schedule{s})
		}
		schedules, err := a.client.Schedules(ctx, scheduleScope(), !listAllSchedule)
		if err != nil {
			return err
		}
		return printSchedules(cmd.OutOrStdout(), schedules)
	},
}

var certificatesCmd = &cobra.Command{
	Use:   "certificates",
	Short: "List certificates",
	Long: `List the certificates of every dog of --owner, or of one dog with --dog,
by date. --id shows a single certificate and requires --dog.`,
	Args:    cobra.NoArgs,
	GroupID: "read",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer recoverViolation(&err)
		if err := requireOwner(); err != nil {
			return err
		}
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if listEntityID != "" {
			c, err := a.client.Certificate(ctx, scope.CertificateOne(ownerID, listDogID, listEntityID))
			if err != nil {
				return err
			}
			return printCertificates(cmd.OutOrStdout(), []model.Certificate{c})
		}
		certificates, err := a.client.Certificates(ctx, certificateScope())
		if err != nil {
			return err
		}
		return printCertificates(cmd.OutOrStdout(), certificates)
	},
}

func scheduleScope() scope.Scope {
	if listDogID != "" {
		return scope.SchedulePerDog(ownerID, listDogID)
	}
	return scope.ScheduleAll(ownerID)
}

func certificateScope() scope.Scope {
	if listDogID != "" {
		return scope.CertificatePerDog(ownerID, listDogID)
	}
	return scope.CertificateAll(ownerID)
}

func init() {
	for _, c := range []*cobra.Command{dogsCmd, schedulesCmd, certificatesCmd} {
		c.Flags().StringVar(&listEntityID, "id", "", "Show a single document")
		rootCmd.AddCommand(c)
	}
	schedulesCmd.Flags().StringVar(&listDogID, "dog", "", "Restrict to one dog")
	certificatesCmd.Flags().StringVar(&listDogID, "dog", "", "Restrict to one dog")
	schedulesCmd.Flags().BoolVar(&listAllSchedule, "all", false, "Include completed schedules")
}
