package cmd

import (
	"fmt"

	"github.com/Daskott/sos/permissions"
	"github.com/spf13/cobra"
)

func createPermissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Manage location and call permissions",
		Long: `Manage location and call permissions.

Both start undetermined. 'sos alert' asks once for each undetermined permission
and remembers your answer.`,
	}

	cmd.AddCommand(
		createPermissionsShowCmd(),
		createPermissionSetCmd("grant", permissions.Granted),
		createPermissionSetCmd("deny", permissions.Denied),
		createPermissionSetCmd("reset", permissions.Undetermined),
	)

	return cmd
}

func createPermissionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the status of every permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false, isVerbose)
			if err != nil {
				return err
			}
			defer a.close()

			statuses, err := a.permissions.All(cmd.Context())
			if err != nil {
				return err
			}

			for _, kind := range permissions.Kinds {
				fmt.Fprintf(cmd.OutOrStdout(), "%-9v %v\n", kind, statuses[kind])
			}

			return nil
		},
	}
}

// createPermissionSetCmd sets the named permissions, or all of them when
// none are named, to 'status'.
func createPermissionSetCmd(use string, status permissions.Status) *cobra.Command {
	return &cobra.Command{
		Use:       use + " [location|call]...",
		Short:     fmt.Sprintf("Set permissions to %v", status),
		ValidArgs: []string{string(permissions.Location), string(permissions.Call)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := permissions.Kinds
			if len(args) > 0 {
				kinds = []permissions.Kind{}
				for _, arg := range args {
					kind, err := permissions.ParseKind(arg)
					if err != nil {
						return formattedError("%v", err)
					}
					kinds = append(kinds, kind)
				}
			}

			a, err := newApp(cmd, false, isVerbose)
			if err != nil {
				return err
			}
			defer a.close()

			for _, kind := range kinds {
				if err := a.permissions.Set(cmd.Context(), kind, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%v permission %v\n", kind, status)
			}

			return nil
		},
	}
}
