package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/logger"
	"github.com/autobrr/seedgc/pkg/paths"
)

const appName = "seedgc"

var (
	// Global flags
	flagLogLevel   = 0
	flagConfigFile string
	flagLogFile    string

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "Free disk space by removing seeded torrents",
		Long: `Removes torrents that reached the delete ratio or the maximum age, then removes the
oldest seeding torrents one at a time until the mountpoint has enough free space.`,
		Args: cobra.NoArgs,
		Run:  runClean,
	}
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("Command failed")
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()

	// core
	pf.StringVarP(&flagConfigFile, "config", "c", "", "Config file (default: config.yaml in the user config dir or next to the binary)")
	pf.StringVarP(&flagLogFile, "log", "l", "", "Rotating log file")
	pf.CountVarP(&flagLogLevel, "verbose", "v", "Verbose level (-v debug, -vv trace)")

	// client
	pf.String("client", config.ClientTransmission, "Torrent client: transmission, qbittorrent or deluge")
	pf.StringP("url", "u", "localhost", "Client URL or host")
	pf.IntP("port", "p", 9091, "Client port")
	pf.String("user", "", "Client username")
	pf.String("password", "", "Client password")
	pf.Duration("timeout", 30*time.Second, "Client request timeout")
	pf.Bool("deluge-v2", false, "Use the Deluge v2 protocol")

	// policy
	pf.BoolP("dryrun", "d", false, "Don't actually delete anything")
	pf.Int("min-age", 2, "Minimum age in days before the delete ratio applies")
	pf.Int("max-age", 90, "Delete seeding torrents after this many days")
	pf.Float64("delete-ratio", 2.0, "Delete torrents at or above this ratio")
	pf.String("mountpoint", "/", "Path to the mountpoint for the free space check")
	pf.Int64("mountpoint-treshold", 100, "Evict torrents while free space is below this (in GB)")
	pf.Duration("evict-delay", 2*time.Second, "Pause after each eviction before checking free space again")
	pf.Int("max-evictions", 0, "Stop after this many evictions (0 = no limit)")

	// output
	pf.String("metrics-textfile", "", "Write Prometheus metrics of the run to this file")
}

func initCore(cmd *cobra.Command) {
	// Init Logging
	if err := logger.Init(flagLogLevel, flagLogFile); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logging")
	}

	log := logger.GetLogger("app")

	// Init Config
	if flagConfigFile == "" {
		flagConfigFile = paths.FindConfigFile(paths.DefaultConfigName, paths.ConfigDirs(appName)...)
	}

	if err := config.Init(flagConfigFile, cmd.Flags()); err != nil {
		log.WithError(err).Fatal("Failed to initialize config")
	}

	config.ShowUsing()
}
