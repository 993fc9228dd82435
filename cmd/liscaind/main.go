// liscaind is the zero-touch provisioning controller: it serves the TFTP
// boot files factory-fresh switches request, listens for Option-82 relay
// reports, drives each device's Init/Configure lifecycle through its
// vendor driver, and answers the liscainctl command surface over NATS.
//
// Usage:
//
//	liscaind -c /etc/liscain/liscain.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/liscain-net/liscain/pkg/adopt"
	"github.com/liscain-net/liscain/pkg/adopt/cdp"
	"github.com/liscain-net/liscain/pkg/adopt/opt82"
	"github.com/liscain-net/liscain/pkg/bootstrap"
	"github.com/liscain-net/liscain/pkg/broker"
	"github.com/liscain-net/liscain/pkg/commander"
	"github.com/liscain-net/liscain/pkg/config"
	"github.com/liscain-net/liscain/pkg/driver"
	"github.com/liscain-net/liscain/pkg/driver/iosdriver"
	"github.com/liscain-net/liscain/pkg/driver/sonicdriver"
	"github.com/liscain-net/liscain/pkg/ephemeral"
	"github.com/liscain-net/liscain/pkg/ingest"
	"github.com/liscain-net/liscain/pkg/rpc"
	"github.com/liscain-net/liscain/pkg/sessionpool"
	"github.com/liscain-net/liscain/pkg/store"
	"github.com/liscain-net/liscain/pkg/util"
	"github.com/liscain-net/liscain/pkg/version"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "liscaind",
	Short:         "Zero-touch provisioning controller",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/liscain/liscain.yaml", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func run(ctx context.Context) error {
	if verbose {
		util.SetLogLevel("debug")
	}
	util.Infof("liscaind %s starting", version.Info())

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	deviceStore, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening device store: %w", err)
	}
	defer deviceStore.Close()

	blobs, err := ephemeral.NewStore()
	if err != nil {
		return fmt.Errorf("creating ephemeral blob store: %w", err)
	}

	conn, natsCleanup, err := connectNATS(cfg)
	if err != nil {
		return err
	}
	defer natsCleanup()

	registry := buildDriverRegistry(cfg)
	cmdr := commander.New()
	defer cmdr.Stop()

	var adopter adopt.Adopter
	if cfg.AutoconfEnabled {
		adopter, err = buildAdopter(cfg, deviceStore, cmdr, registry, blobs)
		if err != nil {
			return fmt.Errorf("building autoadoption strategy: %w", err)
		}
	}

	ingestListener := ingest.NewListener(conn, cfg.Opt82Subject, deviceStore)
	if err := ingestListener.Start(); err != nil {
		return fmt.Errorf("starting opt82 ingest listener: %w", err)
	}
	defer ingestListener.Stop()

	cmdServer := rpc.NewServer(conn, cfg.CommandSubject, deviceStore, registry, cmdr, blobs, cfg.AutoconfEnabled, adopter)
	if err := cmdServer.Start(); err != nil {
		return fmt.Errorf("starting command rpc server: %w", err)
	}
	defer cmdServer.Stop()

	bootServer := bootstrap.NewServer(cfg.TFTPBind, deviceStore, registry, cmdr, blobs, cfg.DefaultDeviceClass, cfg.AutoconfEnabled, adopter)
	util.Infof("liscaind: tftp bootstrap listening on %s", cfg.TFTPBind)
	return bootServer.Serve(ctx)
}

// connectNATS dials cfg.NATSURL, first bringing up an embedded broker at
// cfg.EmbeddedNATSBind if the config asks for one. The returned cleanup
// func closes the connection and, if started, shuts the embedded broker
// down; it's always safe to call even when embedding was never used.
func connectNATS(cfg *config.Config) (*nats.Conn, func(), error) {
	var embedded *broker.Embedded
	if cfg.EmbeddedNATS {
		var err error
		embedded, err = broker.Start(cfg.EmbeddedNATSBind)
		if err != nil {
			return nil, nil, fmt.Errorf("starting embedded nats broker: %w", err)
		}
		util.Infof("liscaind: embedded nats broker listening on %s", cfg.EmbeddedNATSBind)
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, nil, fmt.Errorf("connecting to nats at %s: %w", cfg.NATSURL, err)
	}

	return conn, func() {
		conn.Close()
		if embedded != nil {
			embedded.Shutdown()
		}
	}, nil
}

// buildDriverRegistry registers every driver.Driver this binary knows how
// to speak, each backed by a session pool that dials and caches live
// connections per device.
func buildDriverRegistry(cfg *config.Config) *driver.Registry {
	registry := driver.NewRegistry()

	sonicPool := sessionpool.NewSonicPool(cfg.LiscainInitUsername, cfg.LiscainInitPassword, cfg.DeviceSSHPort)
	registry.Register("sonic", sonicdriver.NewDriver(sonicPool.Get, cfg.LiscainAdoptDN))

	iosPool := sessionpool.NewIOSPool(cfg.LiscainInitUsername, cfg.LiscainInitPassword)
	registry.Register("cisco-ios", iosdriver.NewDriver(iosPool.Get, cfg.LiscainAdoptDN, cfg.LiscainInitUsername, cfg.LiscainInitPassword))

	return registry
}

// buildAdopter constructs the configured autoadoption strategy. versionWhitelist
// is parsed from the comma-separated autoconf_version_whitelist_prefix key.
func buildAdopter(cfg *config.Config, st *store.Store, cmdr *commander.Commander, registry *driver.Registry, blobs *ephemeral.Store) (adopt.Adopter, error) {
	base := adopt.Base{
		Commander:        cmdr,
		AutoconfPath:     cfg.AutoconfPath,
		VersionWhitelist: util.SplitCommaSeparated(cfg.AutoconfVersionWhitelistPrefix),
		Store:            st,
		Blobs:            blobs,
	}

	switch cfg.AutoconfMode {
	case "opt82":
		drv, err := registry.Get(cfg.DefaultDeviceClass)
		if err != nil {
			return nil, err
		}
		base.Driver = drv
		return &opt82.Adopter{Base: base, Associations: st}, nil
	case "cdp":
		drv, err := registry.Get(cfg.DefaultDeviceClass)
		if err != nil {
			return nil, err
		}
		base.Driver = drv
		return &cdp.Adopter{Base: base, APIBaseURL: cfg.AutoconfCDPJaspyAPI}, nil
	default:
		return nil, fmt.Errorf("unknown autoconf_mode %q", cfg.AutoconfMode)
	}
}
