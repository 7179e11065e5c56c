package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/kennel/model"
)

var (
	addDogID       string
	addName        string
	addBirthDate   string
	addSex         string
	addImageURL    string
	addDate        string
	addContent     string
	addTitle       string
	addDescription string
)

var addDogCmd = &cobra.Command{
	Use:     "add-dog",
	Short:   "Add a dog to an owner",
	Args:    cobra.NoArgs,
	GroupID: "write",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer recoverViolation(&err)
		if err := requireOwner(); err != nil {
			return err
		}
		born, err := parseDate(addBirthDate)
		if err != nil {
			return err
		}
		sex, err := model.ParseBiologicalSex(addSex)
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.client.CreateDog(ctx, model.Dog{
			OwnerID:       ownerID,
			Name:          addName,
			BirthDate:     born,
			BiologicalSex: sex,
			ImageURL:      addImageURL,
		})
		if err != nil {
			return err
		}
		return printCreated(cmd, "dog", id)
	},
}

var addScheduleCmd = &cobra.Command{
	Use:     "add-schedule",
	Short:   "Add a schedule to a dog",
	Args:    cobra.NoArgs,
	GroupID: "write",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer recoverViolation(&err)
		if err := requireOwner(); err != nil {
			return err
		}
		date, err := parseDate(addDate)
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.client.CreateSchedule(ctx, model.Schedule{
			OwnerID: ownerID,
			DogID:   addDogID,
			Content: addContent,
			Date:    date,
		})
		if err != nil {
			return err
		}
		return printCreated(cmd, "schedule", id)
	},
}

var addCertificateCmd = &cobra.Command{
	Use:     "add-certificate",
	Short:   "Add a certificate to a dog",
	Args:    cobra.NoArgs,
	GroupID: "write",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer recoverViolation(&err)
		if err := requireOwner(); err != nil {
			return err
		}
		date, err := parseDate(addDate)
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.client.CreateCertificate(ctx, model.Certificate{
			OwnerID:     ownerID,
			DogID:       addDogID,
			Title:       addTitle,
			Description: addDescription,
			ImageURL:    addImageURL,
			Date:        date,
		})
		if err != nil {
			return err
		}
		return printCreated(cmd, "certificate", id)
	},
}

func printCreated(cmd *cobra.Command, kind, id string) error {
	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), map[string]string{"kind": kind, "id": id})
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created %s %s", kind, id))
	return nil
}

func init() {
	addDogCmd.Flags().StringVar(&addName, "name", "", "Dog name")
	addDogCmd.Flags().StringVar(&addBirthDate, "birth-date", "", "Birth date (YYYY-MM-DD)")
	addDogCmd.Flags().StringVar(&addSex, "sex", "", "Biological sex (male or female)")
	addDogCmd.Flags().StringVar(&addImageURL, "image-url", "", "Image URL")
	_ = addDogCmd.MarkFlagRequired("name")
	_ = addDogCmd.MarkFlagRequired("birth-date")
	_ = addDogCmd.MarkFlagRequired("sex")

	addScheduleCmd.Flags().StringVar(&addDogID, "dog", "", "Dog id")
	addScheduleCmd.Flags().StringVar(&addDate, "date", "", "Date (YYYY-MM-DD)")
	addScheduleCmd.Flags().StringVar(&addContent, "content", "", "What to do")
	_ = addScheduleCmd.MarkFlagRequired("dog")
	_ = addScheduleCmd.MarkFlagRequired("date")

	addCertificateCmd.Flags().StringVar(&addDogID, "dog", "", "Dog id")
	addCertificateCmd.Flags().StringVar(&addDate, "date", "", "Date (YYYY-MM-DD)")
	addCertificateCmd.Flags().StringVar(&addTitle, "title", "", "Title")
	addCertificateCmd.Flags().StringVar(&addDescription, "description", "", "Description")
	addCertificateCmd.Flags().StringVar(&addImageURL, "image-url", "", "Image URL")
	_ = addCertificateCmd.MarkFlagRequired("dog")
	_ = addCertificateCmd.MarkFlagRequired("date")
	_ = addCertificateCmd.MarkFlagRequired("title")

	rootCmd.AddCommand(addDogCmd, addScheduleCmd, addCertificateCmd)
}
