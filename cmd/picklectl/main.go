// Command picklectl runs admin operations directly against the configured
// store: CSV imports, review approvals, scrape triggers and seeding.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/config"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/matches"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/mocks"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/sorting"
)

func main() {
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "picklectl",
		Usage: "PickleWickel scores admin tool",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "Path to the configuration file", EnvVars: []string{"CONFIG_FILE"}},
			&cli.BoolFlag{Name: "json", Usage: "print results as JSON"},
		},
		Commands: []*cli.Command{
			newImportCommand(),
			newReviewCommand(),
			newTargetsCommand(),
			newScheduleCommand(),
			{
				Name:  "trigger",
				Usage: "send active tournament-mode targets to the scraping webhook",
				Action: func(c *cli.Context) error {
					return withService(c, func(svc *service.Service) error {
						res, err := svc.TriggerScraping(c.Context, "manual")
						if err != nil {
							return err
						}
						return output(c, res, res.Message)
					})
				},
			},
			{
				Name:      "seed",
				Usage:     "load JSON seed files into the store",
				ArgsUsage: "<dir>",
				Action: func(c *cli.Context) error {
					dir := c.Args().First()
					if dir == "" {
						return fmt.Errorf("seed directory is required")
					}
					_, store, err := open(c)
					if err != nil {
						return err
					}
					defer store.Close()

					seeded, err := dal.LoadSeedDir(c.Context, store, dir)
					if err != nil {
						return err
					}
					fmt.Printf("Seeded collections: %v\n", seeded)
					return nil
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newImportCommand() *cli.Command {
	run := func(commit bool) cli.ActionFunc {
		return func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("file path is required")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return withService(c, func(svc *service.Service) error {
				parse := svc.PreviewCSV
				if commit {
					parse = svc.CommitCSV
				}
				preview, err := parse(c.Context, filepath.Base(path), data)
				if err != nil {
					return err
				}
				for _, e := range preview.Errors {
					fmt.Fprintln(os.Stderr, e)
				}
				return output(c, preview, fmt.Sprintf("valid: %d, duplicate: %d, errors: %d",
					preview.Counts.Valid, preview.Counts.Duplicate, preview.Counts.Error))
			})
		}
	}

	return &cli.Command{
		Name:  "import",
		Usage: "CSV and XLSX match imports",
		Subcommands: []*cli.Command{
			{Name: "preview", Usage: "parse a file and report every row", ArgsUsage: "<file>", Action: run(false)},
			{Name: "commit", Usage: "save the valid rows of a file", ArgsUsage: "<file>", Action: run(true)},
		},
	}
}

func newReviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "scraped matches awaiting approval",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list pending matches",
				Action: func(c *cli.Context) error {
					return withService(c, func(svc *service.Service) error {
						ms, err := svc.ListPending(c.Context)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return output(c, ms, "")
						}
						for _, m := range ms {
							printMatch(m)
						}
						fmt.Printf("%d pending\n", len(ms))
						return nil
					})
				},
			},
			{
				Name:      "approve",
				Usage:     "approve the given ids, or every pending match with --all",
				ArgsUsage: "[id...]",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "all"}},
				Action: func(c *cli.Context) error {
					return withService(c, func(svc *service.Service) error {
						ids := c.Args().Slice()
						if c.Bool("all") {
							pending, err := svc.ListPending(c.Context)
							if err != nil {
								return err
							}
							ids = service.PendingIDs(pending)
						}
						if len(ids) == 0 {
							return fmt.Errorf("no matches to approve")
						}
						ms, err := svc.ApproveMany(c.Context, ids)
						if err != nil {
							return err
						}
						return output(c, ms, fmt.Sprintf("Approved %d matches", len(ms)))
					})
				},
			},
			{
				Name:      "reject",
				Usage:     "discard a pending match",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					return withService(c, func(svc *service.Service) error {
						if err := svc.Reject(c.Context, c.Args().First()); err != nil {
							return err
						}
						fmt.Printf("Rejected %s\n", c.Args().First())
						return nil
					})
				},
			},
		},
	}
}

func newTargetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "targets",
		Usage: "list scrape targets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "league"},
			&cli.BoolFlag{Name: "active", Usage: "only active targets"},
			&cli.IntFlag{Name: "limit"},
		},
		Action: func(c *cli.Context) error {
			f := service.TargetFilter{League: c.String("league"), Limit: c.Int("limit")}
			if c.IsSet("active") {
				active := c.Bool("active")
				f.IsActive = &active
			}
			return withService(c, func(svc *service.Service) error {
				list, err := svc.ListTargets(c.Context, f)
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return output(c, list, "")
				}
				for _, t := range list.Targets {
					fmt.Printf("%s  %-4s  active=%t tournamentMode=%t autoApproval=%t  %s\n",
						t.ID, t.League, t.IsActive, t.TournamentMode, t.AutoApproval, t.URL)
				}
				fmt.Printf("%d of %d targets\n", list.Count, list.Summary.Total)
				return nil
			})
		},
	}
}

func newScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "print the public schedule for a date",
		Flags: []cli.Flag{&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD, defaults to today"}},
		Action: func(c *cli.Context) error {
			return withService(c, func(svc *service.Service) error {
				view, err := svc.Schedule(c.Context, c.String("date"))
				if err != nil {
					return err
				}
				if !c.Bool("json") {
					printSchedule(view.Schedule)
				}
				return output(c, view, fmt.Sprintf("%s: %d live, %d priority rounds, %d other rounds",
					view.Date, len(view.Live), len(view.Priority), len(view.Collapsible)))
			})
		},
	}
}

func printMatch(m models.Match) {
	fmt.Printf("%s  %s %s  %s  %s / %s  %s vs %s  %s\n",
		m.ID, m.Date, matches.FormatTime12h(m.Time), m.TournamentName, m.DrawName, m.Round,
		matches.FormatPlayers(m.Team1), matches.FormatPlayers(m.Team2),
		matches.FormatScores(m.SetScoresTeam1, m.SetScoresTeam2))
}

func printSchedule(s sorting.Schedule) {
	if len(s.Live) > 0 {
		fmt.Println("Live")
		for _, m := range s.Live {
			printMatch(m)
		}
	}
	for _, groups := range [][]sorting.RoundGroup{s.Priority, s.Collapsible} {
		for _, g := range groups {
			fmt.Println(g.Round)
			for _, m := range g.Matches {
				printMatch(m)
			}
		}
	}
}

func open(c *cli.Context) (*config.Config, dal.Store, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.InitWithLevel(cfg.LogLevel)

	var store dal.Store
	switch cfg.Database.Driver {
	case "sqlite":
		store, err = dal.NewSQLiteStore(cfg.Database.SQLiteFile)
	case "postgres":
		if cfg.Database.URL == "" {
			store, err = mocks.NewMockPostgresStore(cfg.Database.SQLiteFile)
		} else {
			store, err = dal.NewPostgresStore(cfg.Database.URL)
		}
	default:
		return nil, nil, fmt.Errorf("picklectl needs a persistent store, got driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// withService runs fn against a service that records its events locally
// instead of publishing to NATS.
func withService(c *cli.Context, fn func(*service.Service) error) error {
	cfg, store, err := open(c)
	if err != nil {
		return err
	}
	defer store.Close()

	events := mocks.NewMockNATSPubSub()
	defer events.Close()

	svc := service.New(store, events, service.Options{
		IngestionEnabled: cfg.Ingestion.Enabled,
		WebhookURL:       cfg.Scraper.WebhookURL,
		HTTPClient:       &http.Client{Timeout: cfg.Scraper.Timeout},
		Location:         cfg.Location(),
	})
	if err := fn(svc); err != nil {
		return err
	}

	for _, t := range events.Types() {
		logger.Debug("Event recorded", "type", t)
	}
	return nil
}

func output(c *cli.Context, v any, summary string) error {
	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if summary != "" {
		fmt.Println(summary)
	}
	return nil
}
