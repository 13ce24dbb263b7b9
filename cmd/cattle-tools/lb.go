package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lbCmd = &cobra.Command{
	Use:   "lb",
	Short: "Inspect and rewire load balancer port rules",
}

// rulePath returns the --path flag, or nil when it was not given, so that
// rules without a path can be told apart from rules with an empty one
func rulePath(cmd *cobra.Command) *string {
	if !cmd.Flags().Changed("path") {
		return nil
	}
	path, _ := cmd.Flags().GetString("path")
	return &path
}

var lbGetTargetCmd = &cobra.Command{
	Use:   "get-target [LB_NAME]",
	Short: "Show the service a port rule points at",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt64("port")

		lb, err := resolveService(cmd, s, nameArg(args))
		if err != nil {
			return err
		}

		target, err := s.client.GetLBTarget(cmd.Context(), lb, port, rulePath(cmd))
		if err != nil {
			return err
		}
		return printDocument(cmd, target)
	},
}

var lbSetTargetCmd = &cobra.Command{
	Use:   "set-target [LB_NAME]",
	Short: "Point a port rule at another service",
	Long: `Rewrite the target of the first port rule matching --port and --path.
Leaving --path out matches only rules without a path; --path "" matches
only rules whose path is empty.

Examples:
  cattle-tools lb set-target public-lb --stack edge --port 80 --target web-green --target-stack frontend
  cattle-tools lb set-target --id 1s12 --port 443 --path /api --target-id 1s40`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt64("port")
		targetName, _ := cmd.Flags().GetString("target")
		targetID, _ := cmd.Flags().GetString("target-id")
		targetStack, _ := cmd.Flags().GetString("target-stack")

		if (targetName == "") == (targetID == "") {
			return fmt.Errorf("exactly one of --target or --target-id is required")
		}

		lb, err := resolveService(cmd, s, nameArg(args))
		if err != nil {
			return err
		}

		if targetID == "" {
			if targetStack == "" {
				targetStack, _ = cmd.Flags().GetString("stack")
			}
			if targetStack == "" {
				return fmt.Errorf("--target-stack is required when the balancer is addressed by --id")
			}
			stack, err := s.client.GetStackByName(cmd.Context(), s.projectID, targetStack)
			if err != nil {
				return err
			}
			target, err := s.client.GetServiceByStackAndName(cmd.Context(), stack, targetName)
			if err != nil {
				return err
			}
			targetID = target.ID
		}

		updated, err := s.client.ChangeLBTarget(cmd.Context(), lb, port, rulePath(cmd), targetID)
		if err != nil {
			return err
		}
		return printDocument(cmd, updated)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{lbGetTargetCmd, lbSetTargetCmd} {
		addServiceFlags(cmd)
		cmd.Flags().Int64("port", 0, "Source port of the rule (required)")
		cmd.Flags().String("path", "", "Path of the rule (omit for rules without one)")
		_ = cmd.MarkFlagRequired("port")
	}

	lbSetTargetCmd.Flags().String("target", "", "Name of the new target service")
	lbSetTargetCmd.Flags().String("target-id", "", "Id of the new target service")
	lbSetTargetCmd.Flags().String("target-stack", "", "Stack of the new target service (default: the balancer's --stack)")

	lbCmd.AddCommand(lbGetTargetCmd)
	lbCmd.AddCommand(lbSetTargetCmd)
}
