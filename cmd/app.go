package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/Daskott/sos/calling"
	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/dispatch"
	"github.com/Daskott/sos/location"
	"github.com/Daskott/sos/logger"
	"github.com/Daskott/sos/messaging"
	"github.com/Daskott/sos/metrics"
	"github.com/Daskott/sos/models"
	"github.com/Daskott/sos/permissions"
	"github.com/Daskott/sos/shared"
	"github.com/Daskott/sos/twilio"
	"github.com/Daskott/sos/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the components shared by every command.
type app struct {
	config      shared.Config
	logg        *zap.SugaredLogger
	db          *gorm.DB
	contacts    *contacts.Store
	permissions *permissions.Resolver
	prompter    *permissions.StdinPrompter
	out         io.Writer
}

// newApp loads the config and opens the database. Interactive apps prompt
// on the command's input and output for undetermined permissions.
func newApp(cmd *cobra.Command, interactive, verbose bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logg := logger.NewNopLogger()
	if verbose || isDevEnv {
		logg = logger.NewLogger(isDevEnv)
	}

	db, err := models.OpenDB(cfg.Store.Dir)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:   cfg,
		logg:     logg,
		db:       db,
		contacts: contacts.NewStore(db),
		out:      utils.NewSyncWriter(cmd.OutOrStdout()),
	}

	var prompter permissions.Prompter
	if interactive {
		a.prompter = permissions.NewStdinPrompter(cmd.InOrStdin(), a.out)
		prompter = a.prompter
	}
	a.permissions = permissions.NewResolver(db, prompter, logg)

	return a, nil
}

func (a *app) close() {
	sqlDB, err := a.db.DB()
	if err == nil {
		sqlDB.Close()
	}
	a.logg.Sync()
}

type dispatcherOptions struct {
	dryRun    bool
	policy    string
	collector *metrics.Collector
}

func (a *app) newDispatcher(opts dispatcherOptions) (*dispatch.Dispatcher, error) {
	policyName := a.config.Dispatch.CallPolicy
	if opts.policy != "" {
		policyName = opts.policy
	}

	policy, err := dispatch.ParseCallPolicy(policyName)
	if err != nil {
		return nil, err
	}

	source, err := a.locationSource()
	if err != nil {
		return nil, err
	}

	var (
		messenger dispatch.Messenger
		caller    dispatch.Caller
	)

	if opts.dryRun {
		messenger = messaging.ConsoleGateway{Out: a.out}
		caller = calling.ConsoleGateway{Out: a.out, Checker: a.permissions, Logg: a.logg}
	} else {
		client := twilio.NewClient(a.config.Twilio)
		messenger = messaging.NewTwilioGateway(client, a.logg)
		caller = calling.NewTwilioGateway(client, a.permissions, a.logg)
	}

	dispatchOpts := []dispatch.Option{
		dispatch.WithPolicy(policy),
		dispatch.WithCallConfirmation(a.config.Dispatch.RequireCallConfirmation),
		dispatch.WithLocationBounds(a.config.Dispatch.LocationTimeout, a.config.Dispatch.LocationMaxStaleness),
		dispatch.WithLogger(a.logg),
	}

	if a.prompter != nil && a.config.Dispatch.PromptCallPermission {
		dispatchOpts = append(dispatchOpts, dispatch.WithPermissionRequester(a.permissions))
	}

	if opts.collector != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithRecorder(opts.collector))
	}

	return dispatch.New(
		a.contacts,
		location.NewProvider(a.permissions, source, a.logg),
		messenger,
		caller,
		dispatchOpts...,
	), nil
}

func (a *app) locationSource() (location.Source, error) {
	switch a.config.Location.Source {
	case shared.STATIC_LOCATION_SOURCE:
		return location.StaticSource{
			Latitude:  a.config.Location.Static.Latitude,
			Longitude: a.config.Location.Static.Longitude,
		}, nil
	case shared.HTTP_LOCATION_SOURCE:
		if a.config.Location.HTTP.URL == "" {
			return nil, formattedError("must set 'location.http.url' when location.source is %q", shared.HTTP_LOCATION_SOURCE)
		}
		return location.NewHTTPSource(a.config.Location.HTTP.URL), nil
	default:
		return location.NoSource{}, nil
	}
}

// confirmCall asks before dialing 'number'. Without a prompter the call is declined.
func (a *app) confirmCall(ctx context.Context, number contacts.PhoneNumber) bool {
	if a.prompter == nil {
		return false
	}

	confirmed, err := a.prompter.Ask(ctx, fmt.Sprintf("Call %v now?", number))
	if err != nil {
		a.logg.Warnf("call confirmation unresolved: %v", err)
		return false
	}

	return confirmed
}
