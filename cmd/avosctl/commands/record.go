package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"avos/internal/repository"
)

var recordTable string

var recordCmd = &cobra.Command{
	Use:   "record <call-id>",
	Short: "Fetch an archived call record from DynamoDB",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := recordTable
		if table == "" {
			table = os.Getenv("STATE_TABLE")
		}
		if table == "" {
			return errors.New("a table is required (--table or STATE_TABLE)")
		}

		cfg, err := config.LoadDefaultConfig(cmd.Context())
		if err != nil {
			return err
		}
		repo, err := repository.New(awsdynamodb.NewFromConfig(cfg), table)
		if err != nil {
			return err
		}

		rec, found, err := repo.GetCallRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("call %s was never archived", args[0])
		}

		if outputJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		fmt.Printf("Call:       %s\n", rec.CallID)
		fmt.Printf("Restaurant: %s\n", rec.RestaurantID)
		fmt.Printf("Outcome:    %s (%s)\n", rec.Outcome, rec.FinalState)
		fmt.Printf("Language:   %s\n", rec.Language)
		fmt.Printf("Subtotal:   $%d.%02d\n", rec.SubtotalCents/100, rec.SubtotalCents%100)
		for _, it := range rec.Items {
			fmt.Printf("  %dx %s\n", it.Quantity, it.Name)
		}
		fmt.Println()
		for _, e := range rec.Transcript {
			fmt.Printf("%s: %s\n", e.Role, e.Text)
		}
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordTable, "table", "", "DynamoDB state table (defaults to $STATE_TABLE)")
}
