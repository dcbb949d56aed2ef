// Package main implements catalogctl, a thin inspection/maintenance front
// end over the catalog library: it lists instances/backups, reports chain
// health, and plans retention. It is not the backup pipeline's CLI (out of
// scope per spec.md §1) — it never takes or restores a backup.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"

	"github.com/hashmap-kz/pgcatalog/catalog"
	"github.com/hashmap-kz/pgcatalog/config"
	"github.com/hashmap-kz/pgcatalog/internal/catalogmetrics"
)

const version = "0.1.0"

func app() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config file",
		Aliases: []string{"c"},
		Sources: cli.EnvVars("PGCATALOG_CONFIG_PATH"),
	}
	instanceFlag := &cli.StringFlag{
		Name:     "instance",
		Usage:    "Instance name",
		Required: true,
	}
	walSegSizeFlag := &cli.IntFlag{
		Name:  "xlog-seg-size",
		Usage: "Instance WAL segment size in bytes",
		Value: 16 * 1024 * 1024,
	}
	walDepthFlag := &cli.IntFlag{
		Name:  "wal-depth",
		Usage: "Number of recent backups to keep WAL for (overrides config default)",
		Value: -1,
	}

	return &cli.Command{
		Name:    "catalogctl",
		Usage:   "Inspect and maintain a physical-backup catalog",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "instances",
				Usage: "List instances under the catalog root",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, lg := bootstrap(c)
					e := &catalog.Enumerator{CatalogRoot: cfg.CatalogRoot, Logger: lg}
					instances, err := e.ListInstances(ctx)
					if err != nil {
						return err
					}
					catalogmetrics.M.SetInstancesEnumerated(float64(len(instances)))
					for _, name := range instances {
						fmt.Println(name)
					}
					return nil
				},
			},
			{
				Name:  "backups",
				Usage: "List backups for an instance, descending by id",
				Flags: []cli.Flag{configFlag, instanceFlag},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, lg := bootstrap(c)
					e := &catalog.Enumerator{CatalogRoot: cfg.CatalogRoot, Logger: lg}
					backups, err := e.ListBackups(ctx, c.String("instance"), 0)
					if err != nil {
						return err
					}
					for _, b := range backups {
						catalogmetrics.M.AddBackupsByStatus(b.Status.String(), 1)
						fmt.Printf("%s\t%s\t%s\ttli=%d\tparent=%s\n",
							b.ID, b.Mode, b.Status, b.TLI, parentIDString(b))
					}
					return nil
				},
			},
			{
				Name:  "chain",
				Usage: "Report chain health for one backup",
				Flags: []cli.Flag{
					configFlag, instanceFlag,
					&cli.StringFlag{Name: "id", Required: true, Usage: "base36 backup id"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, lg := bootstrap(c)
					e := &catalog.Enumerator{CatalogRoot: cfg.CatalogRoot, Logger: lg}
					id, err := catalog.ParseBackupID(c.String("id"))
					if err != nil {
						return err
					}
					backups, err := e.ListBackups(ctx, c.String("instance"), 0)
					if err != nil {
						return err
					}
					target := findBackup(backups, id)
					if target == nil {
						return fmt.Errorf("catalogctl: no such backup: %s", c.String("id"))
					}
					code, witness := catalog.ScanParentChain(target)
					if code == catalog.ChainBroken {
						catalogmetrics.M.AddChainBroken()
					} else if code == catalog.ChainInvalid {
						catalogmetrics.M.AddChainInvalid()
					}
					fmt.Printf("chain=%s witness=%s\n", code, witness.ID)
					return nil
				},
			},
			{
				Name:  "plan-retention",
				Usage: "Reconstruct timelines and plan WAL retention for an instance",
				Flags: []cli.Flag{configFlag, instanceFlag, walSegSizeFlag, walDepthFlag},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runPlanRetention(ctx, c)
				},
			},
			{
				Name:  "watch",
				Usage: "Re-run plan-retention on a cron schedule",
				Flags: []cli.Flag{
					configFlag, instanceFlag, walSegSizeFlag, walDepthFlag,
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron schedule (with seconds field)",
						Value: "0 */5 * * * *",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					_, lg := bootstrap(c)
					sched := cron.New(cron.WithSeconds())
					_, err := sched.AddFunc(c.String("schedule"), func() {
						if err := runPlanRetention(ctx, c); err != nil {
							lg.Warning("scheduled plan-retention failed", "err", err)
						}
					})
					if err != nil {
						return fmt.Errorf("catalogctl: bad schedule: %w", err)
					}
					sched.Start()
					defer sched.Stop()
					<-ctx.Done()
					return nil
				},
			},
		},
	}
}

func runPlanRetention(ctx context.Context, c *cli.Command) error {
	cfg, lg := bootstrap(c)
	walSegSize := uint64(c.Int("xlog-seg-size"))
	walDepth := c.Int("wal-depth")
	if walDepth < 0 {
		walDepth = cfg.DefaultWalDepth
	}

	e := &catalog.Enumerator{CatalogRoot: cfg.CatalogRoot, Logger: lg}
	backups, err := e.ListBackups(ctx, c.String("instance"), 0)
	if err != nil {
		return err
	}

	walPath, err := catalog.WALPath(cfg.CatalogRoot, c.String("instance"))
	if err != nil {
		return err
	}
	r := &catalog.TimelineReconstructor{WalSegSize: walSegSize, Logger: lg}
	timelines, err := r.Reconstruct(ctx, walPath, backups)
	if err != nil {
		return err
	}

	catalog.PlanRetention(timelines, walDepth, walSegSize, lg)

	lostIntervals := 0
	for _, t := range timelines {
		kept, purgeable := 0, 0
		for _, f := range t.XlogFilelist {
			if f.Keep {
				kept++
			} else {
				purgeable++
			}
		}
		catalogmetrics.M.AddWALSegmentsKept(float64(kept))
		catalogmetrics.M.AddWALSegmentsPurgeable(float64(purgeable))
		lostIntervals += len(t.LostSegments)
		fmt.Printf("tli=%d files=%d kept=%d purgeable=%d lost_segments=%d anchor_lsn=%s\n",
			t.TLI, t.NXlogFiles, kept, purgeable, len(t.LostSegments), t.AnchorLSN)
	}
	catalogmetrics.M.SetLostSegmentIntervals(c.String("instance"), float64(lostIntervals))
	return nil
}

func bootstrap(c *cli.Command) (*config.Config, catalog.Logger) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		cfg = config.MustLoad(path)
	} else {
		cfg = config.MustEnvconfig()
	}
	lg := catalog.NewSlogLogger(catalog.SlogLoggerOpts{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
	return cfg, lg
}

func parentIDString(b *catalog.BackupRecord) string {
	if b.IsFull() {
		return "-"
	}
	return b.ParentID.String()
}

func findBackup(backups []*catalog.BackupRecord, id catalog.BackupID) *catalog.BackupRecord {
	i := sort.Search(len(backups), func(i int) bool { return backups[i].ID <= id })
	if i < len(backups) && backups[i].ID == id {
		return backups[i]
	}
	return nil
}

