package main

import (
	"fmt"
	"io"

	"github.com/akeren/klyr-waitlist/pkg/capture"
	"github.com/akeren/klyr-waitlist/pkg/client"
	"github.com/akeren/klyr-waitlist/pkg/constants"
	"github.com/spf13/cobra"
)

func newJoinCmd(app *cli) *cobra.Command {
	var fields capture.Fields
	var source string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join the Klyr waitlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := client.NewConfigFromEnv()
			cfg.Logger = app.logger
			c, err := client.New(cfg)
			if err != nil {
				return err
			}

			form := capture.NewForm(c, printNotifications(cmd.OutOrStdout()), capture.Options{})
			form.Open(source)
			defer form.Close()

			for _, set := range []struct {
				apply func(string) error
				value string
			}{
				{form.SetEmail, fields.Email},
				{form.SetRole, fields.Role},
				{form.SetMeetings, fields.Meetings},
				{form.SetSuggestions, fields.Suggestions},
			} {
				if err := set.apply(set.value); err != nil {
					return err
				}
			}

			return form.Submit(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&fields.Email, "email", "", "email address (required)")
	flags.StringVar(&fields.Role, "role", "", "role: product-manager, engineer, designer, consultant or other")
	flags.StringVar(&fields.Meetings, "meetings", "", "meetings per week: 5-10, 11-20 or 21+")
	flags.StringVar(&fields.Suggestions, "suggestions", "", "anything you would like us to build")
	flags.StringVar(&source, "source", constants.DefaultSource, "call-to-action tag recorded with the submission")

	return cmd
}

func printNotifications(w io.Writer) capture.Notifier {
	return capture.NotifierFunc(func(n capture.Notification) {
		if n.Description == "" {
			fmt.Fprintln(w, n.Title)
			return
		}
		fmt.Fprintf(w, "%s %s\n", n.Title, n.Description)
	})
}
