package main

import (
	"github.com/spf13/cobra"
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Inspect stacks",
}

var stackGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Show a stack by exact name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		stack, err := s.client.GetStackByName(cmd.Context(), s.projectID, args[0])
		if err != nil {
			return err
		}
		return printDocument(cmd, stack)
	},
}

func init() {
	stackCmd.AddCommand(stackGetCmd)
}
