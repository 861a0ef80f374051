package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"avos/internal/domain"
	"avos/internal/intent"
	"avos/internal/replay"
	"avos/internal/session"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run a scripted conversation against the dialog engine",
	Long: `Replays a scripted call through the same session manager production
uses, with the keyword intent engine. No AWS access is needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == "" {
			return errors.New("a script file is required (-f script.yaml)")
		}
		script, err := replay.LoadScript(inputFile)
		if err != nil {
			return err
		}
		// Replays are offline: force the deterministic engine regardless of
		// what the restaurant config requests.
		script.Config.AIEngine = domain.EngineKeyword

		mgr, err := session.NewManager(session.Deps{
			NewRecognizer: func(domain.AIEngine) (session.Recognizer, error) {
				return intent.NewKeyword(), nil
			},
		})
		if err != nil {
			return err
		}

		sum, err := replay.Run(cmd.Context(), mgr, "replay-"+uuid.NewString(), script)
		if err != nil {
			return err
		}

		if outputJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}

		fmt.Printf("AI: %s\n", sum.Greeting)
		for _, ex := range sum.Exchanges {
			fmt.Printf("Caller: %s\n", ex.Utterance)
			fmt.Printf("AI: %s  [%s]\n", ex.Response, ex.State)
		}
		fmt.Printf("\nFinal state: %s\n", sum.FinalState)
		for _, it := range sum.Items {
			fmt.Printf("  %dx %s  $%d.%02d\n", it.Quantity, it.Name, it.PriceCents/100, it.PriceCents%100)
		}
		fmt.Printf("Subtotal: $%d.%02d\n", sum.SubtotalCents/100, sum.SubtotalCents%100)
		return nil
	},
}
