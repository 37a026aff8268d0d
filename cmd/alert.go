package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/Daskott/sos/alarm"
	"github.com/Daskott/sos/colors"
	"github.com/Daskott/sos/dispatch"
	"github.com/spf13/cobra"
)

func createAlertCmd() *cobra.Command {
	var (
		dryRunArg bool
		policyArg string
		jsonArg   bool
		alarmArg  bool
	)

	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Send a distress signal to your emergency contacts",
		Long: `Send a distress signal to your emergency contacts.

Every saved contact gets an SMS, with a map link to your current location when
one is available. Your primary contact is then called, always or only when no
SMS was delivered, depending on 'dispatch.callPolicy'.

With --alarm the terminal bell rings from the moment the signal is sent until
you press Enter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true, isVerbose)
			if err != nil {
				return err
			}
			defer a.close()

			dispatcher, err := a.newDispatcher(dispatcherOptions{dryRun: dryRunArg, policy: policyArg})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ring := alarm.New(a.out, alarm.DEFAULT_INTERVAL, a.logg)
			defer ring.Stop()

			if alarmArg {
				contact, err := a.contacts.Get(ctx)
				if err != nil {
					return err
				}

				// no alarm until there is someone to alert
				if contact != nil {
					ring.Start(ctx)
				}
			}

			outcome := dispatcher.Dispatch(ctx, dispatch.Trigger{Source: "cli", Confirm: a.confirmCall})

			if jsonArg {
				encoder := json.NewEncoder(a.out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(outcome); err != nil {
					return err
				}
			}

			if outcome.SetupRequired() {
				return formattedError("%s %s", outcome.Notice(), setupHint)
			}

			notice := colors.Green(outcome.Notice())
			if outcome.FailureReason != "" || outcome.Cancelled {
				notice = colors.Yellow(outcome.Notice())
			}
			fmt.Fprintln(a.out, notice)

			if ring.Ringing() {
				fmt.Fprintln(a.out, "Alarm ringing, press Enter to stop it.")
				if _, err := a.prompter.ReadLine(ctx); err != nil {
					a.logg.Warnf("alarm stopped without input: %v", err)
				}
				ring.Stop()
				fmt.Fprintln(a.out, "Alarm stopped")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRunArg, "dry-run", false, "print the SMS and call instead of sending them")
	cmd.Flags().StringVar(&policyArg, "policy", "", "override dispatch.callPolicy: always-call or call-on-sms-failure")
	cmd.Flags().BoolVar(&jsonArg, "json", false, "print the full dispatch outcome as JSON")
	cmd.Flags().BoolVar(&alarmArg, "alarm", false, "ring the terminal bell until Enter is pressed")

	return cmd
}
