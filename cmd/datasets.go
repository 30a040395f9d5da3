package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the files available in the data directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}

		files, err := s.Datasets.ListFiles()
		if err != nil {
			return err
		}
		for _, name := range files {
			if d, ok := s.Datasets.ByFilename(name); ok {
				fmt.Printf("%s\t%s\n", d.ID, name)
				continue
			}
			fmt.Printf("-\t%s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
