package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"amy-extractor/lib/configutil"
	"amy-extractor/lib/scrapers/amy"
	"amy-extractor/services/extractor"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

var (
	baseUrl        *string
	username       *string
	password       *string
	country        *string
	workshopsOut   *string
	instructorsOut *string
	archiveDb      *string
)

func init() {
	baseUrl = extractCmd.Flags().String("base-url", "", "The registry to extract from. Defaults to https://amy.carpentries.org.")
	username = extractCmd.Flags().String("username", "", "Registry username. Without credentials only the public workshop feed is extracted.")
	password = extractCmd.Flags().String("password", "", "Registry password.")
	country = extractCmd.Flags().String("country", "GB", "Two-letter country code to filter by, or \"all\" for no filter.")
	workshopsOut = extractCmd.Flags().String("workshops-out", "", "Workshops csv path. Defaults to carpentry-workshops_<country>_<date>.csv.")
	instructorsOut = extractCmd.Flags().String("instructors-out", "", "Instructors csv path. Defaults to carpentry-instructors_<country>_<date>.csv.")
	archiveDb = extractCmd.Flags().String("archive-db", "", "Optionally archive this run's records to a sqlite database at the given path.")

	rootCmd.AddCommand(extractCmd)
}

func defaultOutPath(kind, country string) string {
	return fmt.Sprintf(
		"carpentry-%s_%s_%s.csv",
		kind, country, time.Now().Format("2006-01-02"),
	)
}

var extractCmd = &cobra.Command{
	Use:   "extract [--country <code>] [--username <user> --password <pass>]",
	Short: "Extracts workshop and instructor records and writes the csv reports.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil && !os.IsNotExist(err) {
			fatal("failed to read config", err)
		}
		if *baseUrl != "" {
			cfg.BaseUrl = *baseUrl
		}
		if cfg.BaseUrl == "" {
			cfg.BaseUrl = "https://amy.carpentries.org"
		}
		if *username != "" {
			cfg.Username = *username
		}
		if *password != "" {
			cfg.Password = *password
		}

		client, err := amy.NewClient(ctx, amy.ClientOptions{BaseUrl: cfg.BaseUrl})
		if err != nil {
			fatal("failed to initialize registry client", err)
		}

		if cfg.Username != "" {
			err := client.Login(ctx, cfg.Username, cfg.Password)
			if err != nil {
				slog.Error(
					"login failed, continuing with the public feed only",
					"username", cfg.Username, "err", err,
				)
			}
		} else {
			slog.Warn("no credentials given, continuing with the public feed only")
		}

		ext := extractor.New(client)

		workshops := ext.CollectWorkshops(ctx, *country)
		workshops = ext.EnrichWorkshops(ctx, workshops)

		airports := ext.CollectAirports(ctx, *country)
		var geoFilter []extractor.Airport
		if *country != "" && *country != extractor.CountryAll {
			geoFilter = airports
		}
		instructors := ext.CollectInstructors(ctx, geoFilter)

		workshopsPath := *workshopsOut
		if workshopsPath == "" {
			workshopsPath = defaultOutPath("workshops", *country)
		}
		instructorsPath := *instructorsOut
		if instructorsPath == "" {
			instructorsPath = defaultOutPath("instructors", *country)
		}

		writeFailed := false
		if err := extractor.WriteWorkshopsCSV(workshops, workshopsPath); err != nil {
			writeFailed = true
		}
		if client.Authenticated() {
			if err := extractor.WriteInstructorsCSV(instructors, instructorsPath); err != nil {
				writeFailed = true
			}
		} else {
			// without a session there is no instructor baseline at
			// all, an empty report would be misleading
			slog.Warn("skipping instructors csv, nothing was collected", "path", instructorsPath)
			instructorsPath = "(skipped)"
		}

		if *archiveDb != "" {
			archive, err := extractor.OpenArchive(*archiveDb)
			if err != nil {
				fatal("failed to open archive db", err)
			}
			defer archive.Close()
			err = extractor.ArchiveRun(ctx, archive, *country, workshops, instructors)
			if err != nil {
				fatal("failed to archive run", err)
			}
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"records", "count", "output"})
		t.AppendRow(table.Row{"workshops", len(workshops), workshopsPath})
		t.AppendRow(table.Row{"instructors", len(instructors), instructorsPath})
		t.Render()

		if writeFailed {
			os.Exit(1)
		}
	},
}
