package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"sjsage522/auctionwatcher/config"
	"sjsage522/auctionwatcher/internal/model"
	"sjsage522/auctionwatcher/internal/scraper"
	"sjsage522/auctionwatcher/logger"
	"sjsage522/auctionwatcher/services/httpapi"
	"sjsage522/auctionwatcher/services/notifier"
	"sjsage522/auctionwatcher/services/scheduler"
)

const shutdownTimeout = 10 * time.Second

func runScrape(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	pages := fs.Int("pages", cfg.MaxPagesPerScrape, "maximum auction groups to visit")
	details := fs.Bool("details", cfg.ScrapeDetails, "fetch each lot's detail page")
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	services, err := initializeServices(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	res, runErr := services.Scraper.Run(ctx, scraper.RunOptions{MaxGroups: *pages, Details: *details})
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printSummary(os.Stdout, res)
	}
	return runErr
}

func printSummary(w io.Writer, res scraper.Result) {
	fmt.Fprintf(w, "Scrape session %d: %s\n", res.SessionID, res.Status)
	fmt.Fprintf(w, "  groups visited: %d\n  items found:    %d\n  items saved:    %d\n  items flagged:  %d\n",
		res.GroupsVisited, res.ItemsFound, res.ItemsSaved, res.ItemsFlagged)
	if res.ItemsAnalyzed > 0 {
		fmt.Fprintf(w, "  items analyzed: %d\n", res.ItemsAnalyzed)
	}
	if res.ExpiredItems > 0 {
		fmt.Fprintf(w, "  expired items:  %d\n", res.ExpiredItems)
	}

	if len(res.Valuable) > 0 {
		fmt.Fprintln(w, "\nPotentially valuable:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, v := range res.Valuable {
			fmt.Fprintf(tw, "  $%.2f\tscore %d\t%s\t[%s]\n", v.CurrentBid, v.Score, v.Title, strings.Join(v.Keywords, ", "))
		}
		tw.Flush()
	}
	if len(res.WatchMatches) > 0 {
		fmt.Fprintln(w, "\nWatchlist matches:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, m := range res.WatchMatches {
			fmt.Fprintf(tw, "  %s (%s)\t$%.2f\t%s\n", m.Keyword, m.Source, m.CurrentBid, m.Title)
		}
		tw.Flush()
	}
	if len(res.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}

func runMonitor(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	addr := fs.String("addr", cfg.StatusAddr, "status API listen address; empty disables it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	services, err := initializeServices(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	sched := scheduler.New(cfg.SchedulerPoll, taskErrorLog(cfg), scheduler.WithMetrics(services.Metrics))
	services.Monitor.Register(sched)

	var server *httpapi.Server
	if *addr != "" {
		server = httpapi.NewServer(*addr, httpapi.NewRouter(httpapi.Deps{
			Store:     services.Store,
			Scheduler: sched,
			Limiter:   services.Limiter,
			Channels:  services.Notifier.Channels(),
			Gatherer:  services.Registry,
		}))
		server.Start()
	}

	log := logger.ForMonitor()
	log.Info().
		Dur("urgent_interval", cfg.UrgentCheckInterval).
		Dur("scrape_interval", cfg.ScrapeInterval).
		Dur("cleanup_interval", cfg.CleanupInterval).
		Msg("Starting auction monitor")

	// Blocks until a shutdown signal cancels ctx
	sched.Start(ctx)

	log.Info().Msg("Shutting down gracefully...")
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Status API shutdown")
		}
	}
	return nil
}

func runCheck(ctx context.Context, cfg *config.Config) error {
	services, err := initializeServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	n, err := services.Monitor.CheckUrgent(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Urgent items: %d\n", n)
	return nil
}

func runView(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "active items to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	services, err := initializeServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer services.Cleanup()
	st := services.Store

	items, err := st.ActiveItems(ctx, *limit)
	if err != nil {
		return err
	}
	undervalued, err := st.UndervaluedItems(ctx, cfg.MinProfitPercentage)
	if err != nil {
		return err
	}
	sessions, err := st.RecentSessions(ctx, 5)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Active items (%d shown)\n", len(items))
	for _, it := range items {
		fmt.Fprintf(w, "  %s\t$%.2f\t%s\t%s\n", it.ExternalID, it.CurrentBid, endsIn(it.AuctionEnd), it.Title)
	}

	fmt.Fprintf(w, "\nUndervalued items (margin >= %.0f%%)\n", cfg.MinProfitPercentage)
	for _, ia := range undervalued {
		fmt.Fprintf(w, "  %s\t$%.2f -> $%.2f\t%.1f%%\tnet $%.2f\t%s\t%s\n",
			ia.Item.ExternalID, ia.Analysis.CurrentBid, ia.Analysis.EstimatedValue,
			ia.Analysis.ProfitMargin, ia.Analysis.NetProfit, ia.Analysis.Recommendation, ia.Item.Title)
	}

	fmt.Fprintln(w, "\nRecent scrape sessions")
	for _, s := range sessions {
		fmt.Fprintf(w, "  #%d\t%s\t%s\tfound %d\tflagged %d\t%s\n",
			s.ID, s.StartedAt.Local().Format("2006-01-02 15:04"), s.Status, s.ItemsFound, s.ItemsFlagged, s.ErrorMessage)
	}
	return nil
}

func endsIn(end *time.Time) string {
	if end == nil {
		return "end unknown"
	}
	d := time.Until(*end)
	if d <= 0 {
		return "ended"
	}
	return fmt.Sprintf("%.1fh left", d.Hours())
}

func runWatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	category := fs.String("category", "", "category label for the keyword")
	minProfit := fs.Float64("min-profit", 0, "minimum profit threshold")
	maxBid := fs.Float64("max-bid", 0, "ignore lots bid above this amount; 0 means no cap")
	list := fs.Bool("list", false, "list watchlist entries")
	disable := fs.Int64("disable", 0, "deactivate the entry with this id")
	enable := fs.Int64("enable", 0, "reactivate the entry with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	services, err := initializeServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer services.Cleanup()
	st := services.Store

	switch {
	case *list:
		watches, err := st.Watchlist(ctx, false)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, wt := range watches {
			capText := "-"
			if wt.MaxBidAmount != nil {
				capText = fmt.Sprintf("$%.2f", *wt.MaxBidAmount)
			}
			fmt.Fprintf(w, "#%d\t%s\t%s\tmax bid %s\tactive %t\n", wt.ID, wt.Keyword, wt.Category, capText, wt.Active)
		}
		return w.Flush()
	case *disable > 0 || *enable > 0:
		id, active := *enable, true
		if *disable > 0 {
			id, active = *disable, false
		}
		ok, err := st.SetWatchActive(ctx, id, active)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no watchlist entry #%d", id)
		}
		fmt.Printf("Watchlist entry #%d active=%t\n", id, active)
		return nil
	}

	keyword := strings.Join(fs.Args(), " ")
	watch := model.Watch{Keyword: keyword, Category: *category, MinProfitThreshold: *minProfit}
	if *maxBid > 0 {
		watch.MaxBidAmount = maxBid
	}
	id, err := st.AddWatch(ctx, watch)
	if err != nil {
		return err
	}
	fmt.Printf("Added %q to watchlist (#%d)\n", strings.TrimSpace(keyword), id)
	return nil
}

func runTest(ctx context.Context, cfg *config.Config) error {
	services, err := initializeServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	report, err := services.Monitor.TestSystem(ctx)
	printReport(os.Stdout, report)
	if err != nil {
		return err
	}
	fmt.Println("Database: ok")
	return nil
}

func printReport(w io.Writer, r notifier.Report) {
	fmt.Fprintf(w, "Delivered: %s\n", strings.Join(r.Delivered, ", "))
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped:   %s\n", strings.Join(r.Skipped, ", "))
	}
	for name, err := range r.Failed {
		fmt.Fprintf(w, "Failed:    %s: %v\n", name, err)
	}
}
