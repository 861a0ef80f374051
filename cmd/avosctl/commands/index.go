package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"avos/internal/catalog"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the phonetic index derived from a catalog file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == "" {
			return errors.New("a catalog file is required (-f menu.yaml)")
		}
		f, err := catalog.Load(inputFile)
		if err != nil {
			return err
		}
		entries := catalog.BuildIndex(f.Items)

		if outputJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tENGLISH\tPINYIN\tJYUTPING")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Item.ID, e.Item.Name, e.Keys.English, e.Keys.Pinyin, e.Keys.Jyutping)
		}
		return w.Flush()
	},
}
