package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/frame"
)

var (
	matUser       string
	matDataset    string
	matTransforms string
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Materialize a data view and print it as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}

		userID := matUser
		if userID == "" {
			userID = s.Users.DefaultUser().ID
		}

		var defs []api.TransformDef
		if matTransforms != "" {
			data, err := os.ReadFile(matTransforms)
			if err != nil {
				return fmt.Errorf("read transforms: %w", err)
			}
			if err := json.Unmarshal(data, &defs); err != nil {
				return fmt.Errorf("parse transforms: %w", err)
			}
		}

		v, err := s.GetOrCreateView(userID, matDataset, defs, nil)
		if err != nil {
			return err
		}
		f, err := s.MaterializeView(cmd.Context(), v.ID)
		if err != nil {
			return err
		}
		return writeCSV(os.Stdout, f)
	},
}

func writeCSV(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, col := range f.Columns {
			record[i] = frame.String(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func init() {
	materializeCmd.Flags().StringVarP(&matUser, "user", "u", "", "User id (defaults to the default user)")
	materializeCmd.Flags().StringVarP(&matDataset, "dataset", "d", "", "Dataset id")
	materializeCmd.Flags().StringVarP(&matTransforms, "transforms", "t", "", "Path to a JSON transform-def list")
	_ = materializeCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(materializeCmd)
}
