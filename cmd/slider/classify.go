package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"slider/internal/intent"
	slidererr "slider/pkg/errors"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Print the intent record for a message as JSON",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.TrimSpace(strings.Join(args, " "))
			if msg == "" {
				return slidererr.New(slidererr.CodeCLIInputInvalid, "message is required")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(intent.Classify(msg))
		},
	}
}
