package main

import (
	"fmt"
	"time"

	"github.com/cuemby/cattle-tools/pkg/client"
	"github.com/cuemby/cattle-tools/pkg/types"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:     "service",
	Aliases: []string{"svc"},
	Short:   "Manage services",
}

// addServiceFlags registers the flags used to address an existing service
func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("stack", "s", "", "Stack holding the service")
	cmd.Flags().String("id", "", "Service id (instead of --stack and NAME)")
}

// addWaitFlags registers the flags that bound a wait
func addWaitFlags(cmd *cobra.Command, def time.Duration) {
	cmd.Flags().Duration("timeout", def, "Give up waiting after this long (0 waits forever)")
}

func waitOptions(cmd *cobra.Command) []client.WaitOption {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		return nil
	}
	return []client.WaitOption{client.WithTimeout(timeout)}
}

// resolveService finds the service named by --id, or by --stack and name
func resolveService(cmd *cobra.Command, s *session, name string) (*types.Service, error) {
	ctx := cmd.Context()

	id, _ := cmd.Flags().GetString("id")
	if id != "" {
		return s.client.GetService(ctx, s.projectID, id)
	}

	stackName, _ := cmd.Flags().GetString("stack")
	if stackName == "" || name == "" {
		return nil, fmt.Errorf("either --id or --stack and a service name are required")
	}

	stack, err := s.client.GetStackByName(ctx, s.projectID, stackName)
	if err != nil {
		return nil, err
	}
	return s.client.GetServiceByStackAndName(ctx, stack, name)
}

func nameArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

var serviceGetCmd = &cobra.Command{
	Use:   "get [NAME]",
	Short: "Show a service",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		svc, err := resolveService(cmd, s, nameArg(args))
		if err != nil {
			return err
		}
		return printDocument(cmd, svc)
	},
}

var serviceFindCmd = &cobra.Command{
	Use:   "find NAME",
	Short: "Report whether a service exists in a stack",
	Long: `Look a service up by exact name. Exits 0 and prints the service
when it exists; exits 0 and prints nothing when it does not. Transport
and API failures are still errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		stackName, _ := cmd.Flags().GetString("stack")
		stack, ok, err := s.client.FindStack(cmd.Context(), s.projectID, stackName)
		if err != nil || !ok {
			return err
		}

		svc, ok, err := s.client.FindServiceInStack(cmd.Context(), stack, args[0])
		if err != nil || !ok {
			return err
		}
		return printDocument(cmd, svc)
	},
}

var serviceCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new service in a stack",
	Long: `Create a new service. Scale defaults to 1, the service is started on
create and a tty is allocated; --overrides can adjust anything else:

  config:
    description: frontend
  launchConfig:
    environment:
      MODE: prod

Examples:
  cattle-tools service create web --stack frontend --image nginx:1.27
  cattle-tools service create web --stack frontend --image nginx:1.27 --scale 3 --overrides web.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		stackName, _ := cmd.Flags().GetString("stack")
		image, _ := cmd.Flags().GetString("image")
		overridesPath, _ := cmd.Flags().GetString("overrides")

		cfgOverrides, lcOverrides, err := loadOverrides(overridesPath)
		if err != nil {
			return err
		}

		stack, err := s.client.GetStackByName(cmd.Context(), s.projectID, stackName)
		if err != nil {
			return err
		}

		spec := client.NewServiceSpec(args[0], stack.ID, image)
		spec.Config = cfgOverrides
		spec.LaunchConfig = lcOverrides
		if cmd.Flags().Changed("scale") {
			scale, _ := cmd.Flags().GetInt64("scale")
			spec.WithScale(scale)
		}
		if noStart, _ := cmd.Flags().GetBool("no-start"); noStart {
			spec.WithStartOnCreate(false)
		}

		svc, err := s.client.CreateService(cmd.Context(), s.projectID, spec)
		if err != nil {
			return err
		}
		return printDocument(cmd, svc)
	},
}

var serviceCloneCmd = &cobra.Command{
	Use:   "clone NAME NEW_NAME",
	Short: "Create a copy of a service, optionally with a new image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		image, _ := cmd.Flags().GetString("image")
		overridesPath, _ := cmd.Flags().GetString("overrides")

		cfgOverrides, lcOverrides, err := loadOverrides(overridesPath)
		if err != nil {
			return err
		}

		svc, err := resolveService(cmd, s, args[0])
		if err != nil {
			return err
		}

		clone, err := s.client.CloneService(cmd.Context(), svc, args[1], client.CloneOptions{
			Image:        image,
			Config:       cfgOverrides,
			LaunchConfig: lcOverrides,
		})
		if err != nil {
			return err
		}
		return printDocument(cmd, clone)
	},
}

var serviceRenameCmd = &cobra.Command{
	Use:   "rename NAME NEW_NAME",
	Short: "Rename a service",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		svc, err := resolveService(cmd, s, args[0])
		if err != nil {
			return err
		}

		renamed, err := s.client.RenameService(cmd.Context(), svc, args[1])
		if err != nil {
			return err
		}
		return printDocument(cmd, renamed)
	},
}

var serviceUpgradeCmd = &cobra.Command{
	Use:   "upgrade [NAME]",
	Short: "Roll a service and its sidekicks onto new images",
	Long: `Start an in-service upgrade. Any previous upgrade still waiting to be
finished is finished first, and the service must become active before the
new images are submitted.

Examples:
  cattle-tools service upgrade web --stack frontend --image nginx:1.27
  cattle-tools service upgrade web --stack frontend --sidekick logs=fluentd:2 --wait`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		image, _ := cmd.Flags().GetString("image")
		sidekicks, _ := cmd.Flags().GetStringToString("sidekick")
		if image == "" && len(sidekicks) == 0 {
			return fmt.Errorf("nothing to upgrade: pass --image and/or --sidekick")
		}

		svc, err := resolveService(cmd, s, nameArg(args))
		if err != nil {
			return err
		}

		upgraded, err := s.client.UpgradeServiceImages(cmd.Context(), svc, client.UpgradeOptions{
			Image:           image,
			SecondaryImages: sidekicks,
			Wait:            waitOptions(cmd),
		})
		if err != nil {
			return err
		}

		if wait, _ := cmd.Flags().GetBool("wait"); wait {
			upgraded, err = s.client.AwaitField(cmd.Context(), upgraded, client.FieldState, types.StateUpgraded, waitOptions(cmd)...)
			if err != nil {
				return err
			}
		}
		return printDocument(cmd, upgraded)
	},
}

var serviceFinishUpgradeCmd = &cobra.Command{
	Use:   "finish-upgrade [NAME]",
	Short: "Finish an upgrade left in the upgraded state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		svc, err := resolveService(cmd, s, nameArg(args))
		if err != nil {
			return err
		}

		finished, err := s.client.FinishAnyPreviousUpgrade(cmd.Context(), svc)
		if err != nil {
			return err
		}
		return printDocument(cmd, finished)
	},
}

var serviceRestartCmd = &cobra.Command{
	Use:   "restart [NAME]",
	Short: "Restart a service in rolling batches",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		batchSize, _ := cmd.Flags().GetInt64("batch-size")
		interval, _ := cmd.Flags().GetDuration("interval")

		svc, err := resolveService(cmd, s, nameArg(args))
		if err != nil {
			return err
		}

		intervalMillis := interval.Milliseconds()
		restarted, err := s.client.RestartService(cmd.Context(), svc, client.RestartOptions{
			BatchSize:      &batchSize,
			IntervalMillis: &intervalMillis,
		})
		if err != nil {
			return err
		}
		return printDocument(cmd, restarted)
	},
}

var serviceWaitCmd = &cobra.Command{
	Use:   "wait [NAME]",
	Short: "Block until a service is active or healthy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		svc, err := resolveService(cmd, s, nameArg(args))
		if err != nil {
			return err
		}

		target, _ := cmd.Flags().GetString("for")
		switch target {
		case "active":
			svc, err = s.client.AwaitActive(cmd.Context(), svc, waitOptions(cmd)...)
		case "healthy":
			svc, err = s.client.AwaitHealthy(cmd.Context(), svc, waitOptions(cmd)...)
		default:
			return fmt.Errorf("unsupported --for value %q (want active or healthy)", target)
		}
		if err != nil {
			return err
		}
		return printDocument(cmd, svc)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{
		serviceGetCmd,
		serviceCloneCmd,
		serviceRenameCmd,
		serviceUpgradeCmd,
		serviceFinishUpgradeCmd,
		serviceRestartCmd,
		serviceWaitCmd,
	} {
		addServiceFlags(cmd)
	}

	serviceFindCmd.Flags().StringP("stack", "s", "", "Stack to search (required)")
	_ = serviceFindCmd.MarkFlagRequired("stack")

	serviceCreateCmd.Flags().StringP("stack", "s", "", "Stack to create the service in (required)")
	serviceCreateCmd.Flags().String("image", "", "Docker image (required)")
	serviceCreateCmd.Flags().Int64("scale", client.DefaultScale, "Number of containers")
	serviceCreateCmd.Flags().Bool("no-start", false, "Do not start the service once created")
	serviceCreateCmd.Flags().String("overrides", "", "YAML file with config and launchConfig overrides")
	_ = serviceCreateCmd.MarkFlagRequired("stack")
	_ = serviceCreateCmd.MarkFlagRequired("image")

	serviceCloneCmd.Flags().String("image", "", "Image for the clone (default: keep the source image)")
	serviceCloneCmd.Flags().String("overrides", "", "YAML file with config and launchConfig overrides")

	serviceUpgradeCmd.Flags().String("image", "", "New primary image")
	serviceUpgradeCmd.Flags().StringToString("sidekick", nil, "New sidekick image as NAME=IMAGE (repeatable)")
	serviceUpgradeCmd.Flags().Bool("wait", false, "Wait until the upgrade reaches the upgraded state")
	addWaitFlags(serviceUpgradeCmd, 5*time.Minute)

	serviceRestartCmd.Flags().Int64("batch-size", client.DefaultRestartBatchSize, "Containers restarted per batch")
	serviceRestartCmd.Flags().Duration("interval", time.Duration(client.DefaultRestartIntervalMillis)*time.Millisecond, "Pause between batches")

	serviceWaitCmd.Flags().String("for", "active", "Condition to wait for: active or healthy")
	addWaitFlags(serviceWaitCmd, 5*time.Minute)

	serviceCmd.AddCommand(serviceGetCmd)
	serviceCmd.AddCommand(serviceFindCmd)
	serviceCmd.AddCommand(serviceCreateCmd)
	serviceCmd.AddCommand(serviceCloneCmd)
	serviceCmd.AddCommand(serviceRenameCmd)
	serviceCmd.AddCommand(serviceUpgradeCmd)
	serviceCmd.AddCommand(serviceFinishUpgradeCmd)
	serviceCmd.AddCommand(serviceRestartCmd)
	serviceCmd.AddCommand(serviceWaitCmd)
}
