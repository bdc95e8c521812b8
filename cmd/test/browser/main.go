package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"go-greenhouse-scraper/internal/browser"
	"go-greenhouse-scraper/internal/config"
	"go-greenhouse-scraper/internal/runner"
)

//manual check that a driver can start, load a board and see its listings
func main() {
	var driver, screenshot string

	cmd := &cobra.Command{
		Use:          "browser-check [board-url]",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg.Driver = driver
			if len(args) == 1 {
				cfg.TargetURL = args[0]
			}
			return check(cmd.Context(), cfg, screenshot)
		},
	}
	cmd.Flags().StringVar(&driver, "driver", config.DriverPlaywright, "driver to check")
	cmd.Flags().StringVar(&screenshot, "screenshot", "browser-check.png", "where to save the page screenshot")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func check(ctx context.Context, cfg *config.Config, screenshot string) error {
	fmt.Printf("🌐 Testing %s driver...\n", cfg.Driver)

	launcher, err := browser.NewLauncher(cfg.Driver)
	if err != nil {
		return err
	}
	session, err := launcher.Launch(ctx, runner.Options(cfg))
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()
	fmt.Println("✅ Browser started")

	fmt.Printf("🔍 Navigating to %s...\n", cfg.TargetURL)
	start := time.Now()
	if err := session.Navigate(ctx, cfg.TargetURL); err != nil {
		return err
	}
	if err := session.WaitFor(ctx, cfg.ContainerSelector, cfg.ReadyTimeout); err != nil {
		log.Printf("⚠️ Listings did not appear: %v", err)
	}
	listings, err := session.QueryAll(ctx, cfg.ContainerSelector)
	if err != nil {
		return err
	}
	fmt.Printf("✅ %d listings at %s (%s)\n", len(listings), session.URL(), time.Since(start).Round(time.Millisecond))

	if shooter, ok := session.(browser.Screenshotter); ok {
		if err := shooter.Screenshot(ctx, screenshot); err != nil {
			log.Printf("Failed to take screenshot: %v", err)
		} else {
			fmt.Printf("📸 Screenshot saved: %s\n", screenshot)
		}
	}
	fmt.Println("✨ Test complete!")
	return nil
}
