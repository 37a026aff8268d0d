package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/Daskott/sos/colors"
	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/utils"
	"github.com/spf13/cobra"
)

const setupHint = "Run 'sos contacts set --primary <number> [--secondary <number>]' to set them up."

func createContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage your emergency contacts",
	}

	cmd.AddCommand(createContactsSetCmd(), createContactsShowCmd(), createContactsClearCmd())

	return cmd
}

func createContactsSetCmd() *cobra.Command {
	var nameArg, primaryArg, secondaryArg, numbersArg string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save your primary and optional secondary emergency contact",
		Long: `Save your primary and optional secondary emergency contact.

Numbers may contain spaces, dashes or brackets, they are stored as digits only
and must have at least 10 digits. An invalid secondary number is dropped.
Saving replaces whatever was stored before. --numbers cannot be combined with
--primary or --secondary.`,
		Example: `  sos contacts set --name Tony --primary "(555) 123-4567" --secondary 555.987.6543
  sos contacts set --numbers 5551234567,5559876543`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if primaryArg == "" && numbersArg == "" {
				return formattedError("\"primary\" or \"numbers\" must be set")
			}

			if numbersArg != "" && (primaryArg != "" || secondaryArg != "") {
				return formattedError("\"numbers\" cannot be combined with \"primary\" or \"secondary\"")
			}

			primary, secondary := primaryArg, secondaryArg
			if numbersArg != "" {
				var err error
				primary, secondary, err = contacts.SelectNumbers(utils.SplitList(numbersArg))
				if err != nil {
					return formattedError("%v", err)
				}
			}

			a, err := newApp(cmd, false, isVerbose)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if cmd.Flags().Changed("name") {
				err = a.contacts.Save(ctx, nameArg, primary, secondary)
			} else {
				err = a.contacts.Set(ctx, primary, secondary)
			}

			if errors.Is(err, contacts.ErrInvalidInput) {
				return formattedError("%v", err)
			}
			if err != nil {
				return err
			}

			contact, err := a.contacts.Get(ctx)
			if err != nil {
				return err
			}

			if secondaryArg != "" && contact.Secondary == "" {
				fmt.Fprintln(cmd.OutOrStdout(), warningLabel, "secondary number is invalid and was not saved")
			}

			fmt.Fprintln(cmd.OutOrStdout(), colors.Green("Emergency contacts saved"))
			printContact(cmd.OutOrStdout(), contact)
			return nil
		},
	}

	cmd.Flags().StringVarP(&nameArg, "name", "n", "", "your name, included in alert messages")
	cmd.Flags().StringVarP(&primaryArg, "primary", "p", "", "primary emergency number, texted and called")
	cmd.Flags().StringVarP(&secondaryArg, "secondary", "s", "", "secondary emergency number, texted only")
	cmd.Flags().StringVar(&numbersArg, "numbers", "", "comma separated numbers, the first two valid ones are saved")

	return cmd
}

func createContactsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your emergency contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false, isVerbose)
			if err != nil {
				return err
			}
			defer a.close()

			contact, err := a.contacts.Get(cmd.Context())
			if err != nil {
				return err
			}

			if contact == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No emergency contacts configured.", setupHint)
				return nil
			}

			printContact(cmd.OutOrStdout(), contact)
			return nil
		},
	}
}

func createContactsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove your emergency contacts and name",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false, isVerbose)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.contacts.Clear(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Emergency contacts cleared")
			return nil
		},
	}
}

func printContact(out io.Writer, contact *contacts.EmergencyContact) {
	if contact.DisplayName != "" {
		fmt.Fprintf(out, "%s %v\n", colors.Bold("Name:     "), contact.DisplayName)
	}

	fmt.Fprintf(out, "%s %v\n", colors.Bold("Primary:  "), contact.Primary)
	if contact.Secondary != "" {
		fmt.Fprintf(out, "%s %v\n", colors.Bold("Secondary:"), contact.Secondary)
	}
}
