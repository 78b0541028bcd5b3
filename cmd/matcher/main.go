package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/optiprice/backend/config"
	"github.com/optiprice/backend/internal/bootstrap"
	"github.com/optiprice/backend/internal/domain"
	"github.com/optiprice/backend/internal/usecase"
)

func main() {
	keyword := flag.String("keyword", "", "marketplace search keyword (required)")
	description := flag.String("description", "", "description of your own product")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall time limit for the match")
	flag.Parse()

	if *keyword == "" {
		fmt.Fprintln(os.Stderr, "usage: matcher -keyword <term> -description <text>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(*keyword, *description, *timeout); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run(keyword, description string, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	result, err := app.Service.FindBestMatch(ctx, description, keyword)
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			return fmt.Errorf("match cancelled: %w", err)
		}
		return fmt.Errorf("match failed: %w", err)
	}

	printResult(result)
	return nil
}

func printResult(result *domain.MatchResult) {
	fmt.Printf("Strategy: %s\n", result.Strategy)

	if result.BestMatch == nil {
		fmt.Println("No competitors found.")
		return
	}

	for _, c := range result.AllCandidates {
		fmt.Printf("  %-12s %8.2f %s  similarity %.4f  %s\n",
			c.ID, c.Price.Amount, c.Price.Currency, c.Similarity, usecase.Truncate(c.Title, 40))
	}

	best := result.BestMatch
	fmt.Println()
	if result.Degraded {
		fmt.Println("Similarity scoring unavailable; showing the first listing found.")
	}
	fmt.Printf("Best match: %s\n", best.Title)
	fmt.Printf("Price:      %.2f %s\n", best.Price.Amount, best.Price.Currency)
	if best.Link != "" {
		fmt.Printf("Link:       %s\n", best.Link)
	}
	if best.Preview != "" {
		fmt.Printf("Preview:    %s\n", best.Preview)
	}
	if result.Suggestion != nil {
		fmt.Printf("Suggested price range: %.2f - %.2f %s\n",
			result.Suggestion.Low, result.Suggestion.High, result.Suggestion.Currency)
	}
}
