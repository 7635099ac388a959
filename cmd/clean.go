package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autobrr/seedgc/pkg/client"
	"github.com/autobrr/seedgc/pkg/config"
	"github.com/autobrr/seedgc/pkg/diskspace"
	"github.com/autobrr/seedgc/pkg/expression"
	"github.com/autobrr/seedgc/pkg/logger"
	"github.com/autobrr/seedgc/pkg/metrics"
	"github.com/autobrr/seedgc/pkg/notification"
	"github.com/autobrr/seedgc/pkg/policy"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Run the cleanup once (default command)",
	Long:  `Applies the ratio and age rules, then evicts the oldest seeding torrents while free space is below the threshold.`,
	Args:  cobra.NoArgs,
	Run:   runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	// init core
	initCore(cmd)

	cfg := config.Config
	log := logger.GetLogger("clean").WithField("run", uuid.NewString())

	noti := notification.NewDiscordSender(log, cfg.Notifications)

	// compile filters
	exp, err := expression.Compile(&cfg.Filters)
	if err != nil {
		log.WithError(err).Fatal("Failed compiling ignore filters")
	}

	// load client object
	c, err := client.NewClient(cfg.Client)
	if err != nil {
		log.WithError(err).Fatalf("Failed initializing client: %q", cfg.Client.Type)
	}

	log.Infof("Initialized client, type: %s (%d ignore filters)", c.Type(), len(exp.Ignores))

	// connect to client
	if err := c.Connect(ctx); err != nil {
		log.WithError(err).Fatal("Failed connecting")
	}
	log.Debugf("Connected to client")

	if cfg.Policy.DryRun {
		log.Warn("Dry run enabled, no torrents will be removed")
	}

	cleaner := &policy.Cleaner{
		Client:  c,
		Probe:   diskspace.New(),
		Filters: exp,
		Policy:  cfg.Policy,
		Log:     log,
	}

	rep, runErr := cleaner.Run(ctx)
	logSummary(log, rep)

	// metrics
	if cfg.Metrics.Textfile != "" {
		m := metrics.NewRun(c.Type())
		m.Record(rep)
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.WithError(err).Error("Failed writing metrics")
		}
	}

	// notification
	if noti.CanSend() {
		if err := noti.Send(context.WithoutCancel(ctx), buildMessage(noti, c.Type(), rep)); err != nil {
			log.WithError(err).Error("Failed sending notification")
		}
	} else {
		log.Debug("Notifications disabled, skipping...")
	}

	if runErr != nil {
		log.WithError(runErr).Fatal("Cleanup failed")
	}
}

func logSummary(log *logrus.Entry, rep *policy.Report) {
	removed := rep.Removed()

	if rep.DryRun {
		log.Infof("[DRY-RUN] %d torrent(s) met the retention thresholds", len(rep.Retention))
	} else {
		log.Infof("Removed %d torrent(s) (%v), %d failure(s)", len(removed),
			humanize.IBytes(uint64(rep.RemovedBytes())), len(rep.Failures))
	}

	if rep.BelowThreshold {
		log.Warnf("Free space is still below the threshold: %dGB", rep.FreeSpaceGB)
	}
}

func buildMessage(s notification.Sender, clientType string, rep *policy.Report) notification.Message {
	fields := make([]notification.Field, 0, len(rep.Retention)+len(rep.Evicted)+len(rep.Failures))

	retention := rep.RetentionRemoved
	if rep.DryRun {
		retention = rep.Retention
	}

	for _, d := range retention {
		fields = append(fields, s.BuildField(notification.ActionRetention, notification.BuildOptions{
			Torrent: d.Torrent,
			Reason:  string(d.Reason),
			AgeDays: d.AgeDays,
		}))
	}

	for _, d := range rep.Evicted {
		fields = append(fields, s.BuildField(notification.ActionEviction, notification.BuildOptions{
			Torrent:     d.Torrent,
			Reason:      string(d.Reason),
			FreeSpaceGB: d.FreeSpaceGB,
		}))
	}

	for _, f := range rep.Failures {
		fields = append(fields, s.BuildField(notification.ActionFailure, notification.BuildOptions{
			Torrent: f.Torrent,
			Err:     f.Err,
		}))
	}

	removed := len(rep.Removed())
	if rep.DryRun {
		removed = len(rep.Retention)
	}

	return notification.Message{
		Title: "Torrent Cleanup",
		Description: fmt.Sprintf("Removed **%d** torrent(s) (%s), free space **%d GB**",
			removed, humanize.IBytes(uint64(rep.RemovedBytes())), rep.FreeSpaceGB),
		Client:  clientType,
		RunTime: time.Since(rep.Started),
		Fields:  fields,
		DryRun:  rep.DryRun,
	}
}
