package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spachava753/smscview/config"
	"github.com/spachava753/smscview/csvexport"
	applog "github.com/spachava753/smscview/log"
	"github.com/spachava753/smscview/sms"
	"github.com/spachava753/smscview/store/imapbackup"
	"github.com/spachava753/smscview/store/mmssms"
)

type app struct {
	configPath string
	logLevel   string
	filter     string
	limit      int
	storeKind  string
	storePath  string

	cfg config.Config
	log *zerolog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "smscview",
		Short:        "View SMS with their SMSC and export them to CSV",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./smscview.yaml or $SMSCVIEW_CONFIG)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.filter, "filter", "", "boxes to read: both, inbox, sent")
	flags.IntVar(&a.limit, "limit", 0, "number of most recent messages")
	flags.StringVar(&a.storeKind, "store", "", "message store: mmssms or imap")
	flags.StringVar(&a.storePath, "db", "", "path to mmssms.db")

	root.AddCommand(
		newListCommand(a),
		newExportCommand(a),
		newWatchCommand(a),
		newMailCommand(a),
		newConfigCommand(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	// Config loading logs before the configured level is known.
	bootstrap := applog.New("warn", cmd.ErrOrStderr())
	cfg, _, err := config.Load(bootstrap, a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("filter") {
		cfg.Filter = a.filter
	}
	if flags.Changed("limit") {
		cfg.Limit = a.limit
	}
	if flags.Changed("store") {
		cfg.Store.Kind = a.storeKind
	}
	if flags.Changed("db") {
		cfg.Store.Path = a.storePath
	}

	a.cfg = cfg
	a.log = applog.New(cfg.LogLevel, cmd.ErrOrStderr())
	return nil
}

// openStore never fails for an unreadable store: it falls back to an empty
// store carrying the authorization status so the caller can explain the
// empty result.
func (a *app) openStore() (sms.Store, func(), error) {
	switch a.cfg.Store.Kind {
	case config.StoreMMSSMS, "":
		status := mmssms.FileAuthorization(a.cfg.Store.Path)
		if status != sms.AuthStatusAuthorized {
			a.log.Warn().Str("path", a.cfg.Store.Path).Str("status", string(status)).Msg("message database not readable")
			return unreadableStore(status), func() {}, nil
		}
		store, err := mmssms.Open(a.cfg.Store.Path)
		if err != nil {
			a.log.Warn().Err(err).Msg("opening message database failed")
			return unreadableStore(sms.AuthStatusUnavailable), func() {}, nil
		}
		return store, func() { store.Close() }, nil
	case config.StoreIMAP:
		store, err := imapbackup.Dial(imapbackup.Config{
			Addr:     a.cfg.IMAP.Addr,
			Username: a.cfg.IMAP.Username,
			Password: a.cfg.IMAP.Password,
			Mailbox:  a.cfg.IMAP.Mailbox,
			Insecure: a.cfg.IMAP.Insecure,
		}, a.log)
		if err != nil {
			a.log.Warn().Err(err).Msg("connecting to IMAP backup failed")
			return unreadableStore(sms.AuthStatusUnavailable), func() {}, nil
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", a.cfg.Store.Kind)
	}
}

func unreadableStore(status sms.AuthStatus) *sms.MemoryStore {
	store := sms.NewMemoryStore()
	store.Status = status
	return store
}

// records fetches with the current filter and limit and applies search.
func (a *app) records(ctx context.Context, search string) ([]sms.Record, sms.AuthStatus, error) {
	filter, err := sms.ParseFilter(a.cfg.Filter)
	if err != nil {
		return nil, "", err
	}

	store, closeStore, err := a.openStore()
	if err != nil {
		return nil, "", err
	}
	defer closeStore()

	status := sms.AuthStatusAuthorized
	if authorizer, ok := store.(sms.Authorizer); ok {
		status = authorizer.Authorization(ctx)
	}

	records, err := sms.NewRepository(store, a.log).Fetch(ctx, filter, a.cfg.Limit)
	if err != nil {
		return nil, status, err
	}
	return sms.Search(records, search), status, nil
}

func (a *app) location() (*time.Location, error) {
	if a.cfg.Export.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.cfg.Export.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid export timezone %q: %w", a.cfg.Export.Timezone, err)
	}
	return loc, nil
}

func (a *app) exporter(dirOverride string) (csvexport.Exporter, error) {
	loc, err := a.location()
	if err != nil {
		return csvexport.Exporter{}, err
	}
	dir := dirOverride
	if dir == "" {
		dir = a.cfg.Export.Dir
	}
	if dir == "" {
		dir, err = csvexport.DefaultDir()
		if err != nil {
			return csvexport.Exporter{}, err
		}
	}
	return csvexport.Exporter{Dir: dir, Location: loc}, nil
}
