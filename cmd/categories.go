package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var catDataset string

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Build and print the category tree of a dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}

		tree, err := s.BuildCategories(cmd.Context(), catDataset, nil)
		if err != nil {
			return err
		}
		for _, name := range tree.Categories() {
			fmt.Printf("%s: %s\n", name, strings.Join(tree.Members(name), ", "))
		}
		return nil
	},
}

func init() {
	categoriesCmd.Flags().StringVarP(&catDataset, "dataset", "d", "", "Dataset id")
	_ = categoriesCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(categoriesCmd)
}
