package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

var (
	askRole string
	askID   string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and print the JSON response",
	Example: `  hr-assistant ask --role employee --id E007 "what is my salary"
  hr-assistant ask --role hr "how many employees work in Sales"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := query.ParseRole(askRole)
		if err != nil {
			return err
		}
		q := query.Query{Text: strings.Join(args, " "), CallerID: askID, Role: role}
		if q.CallerID == "" && !query.MayMutate(role) {
			return errors.New("--id is required for the employee role")
		}

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.store.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a.svc.Handle(cmd.Context(), q))
	},
}

func init() {
	askCmd.Flags().StringVar(&askRole, "role", "employee", "caller role: employee or hr")
	askCmd.Flags().StringVar(&askID, "id", "", "caller employee id")
}
