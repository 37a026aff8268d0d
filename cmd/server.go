package cmd

import (
	"github.com/Daskott/sos/metrics"
	"github.com/Daskott/sos/server"
	"github.com/spf13/cobra"
)

func createServerCmd() *cobra.Command {
	var portArg int

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start an sos server",
		Long: `Start an sos server.

The server lets other devices manage your contacts and trigger alerts over HTTP.
Log in with the passphrase set by 'sos passphrase'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false, true)
			if err != nil {
				return err
			}
			defer a.close()

			collector := metrics.NewCollector()

			dispatcher, err := a.newDispatcher(dispatcherOptions{collector: collector})
			if err != nil {
				return err
			}

			config := a.config.Server
			if portArg != 0 {
				config.Port = portArg
			}

			srv, err := server.New(config, server.Dependencies{
				DB:          a.db,
				Contacts:    a.contacts,
				Permissions: a.permissions,
				Dispatcher:  dispatcher,
				Collector:   collector,
			}, a.logg)
			if err != nil {
				return err
			}

			srv.Start()
			return nil
		},
	}

	cmd.Flags().IntVarP(&portArg, "port", "p", 0, "port to listen on (default is server.port)")

	return cmd
}
