// Package main provides prompt management utilities.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"dailyprompt/internal/bootstrap"
	"dailyprompt/internal/config"
	"dailyprompt/internal/service"

	"github.com/google/uuid"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin list                 - List all prompts")
	fmt.Println("  go run ./cmd/admin activate <prompt_id> - Make a prompt the active one")
	fmt.Println("  go run ./cmd/admin rotate [YYYY-MM-DD]  - Activate the scheduled prompt for a day")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("❌ %s failed: %v", os.Args[1], err)
	}
}

func run(command string, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, rdb, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer bootstrap.Shutdown(db, rdb)

	prompts := bootstrap.NewPromptService(cfg, db, rdb)

	switch command {
	case "list":
		return listPrompts(ctx, prompts)
	case "activate":
		if len(args) < 1 {
			usage()
			return fmt.Errorf("missing prompt id")
		}
		return activatePrompt(ctx, prompts, args[0])
	case "rotate":
		day := time.Now()
		if len(args) >= 1 {
			day, err = time.Parse(time.DateOnly, args[0])
			if err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
			}
		}
		return rotatePrompt(ctx, prompts, day)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func listPrompts(ctx context.Context, prompts *service.PromptService) error {
	all, err := prompts.List(ctx, nil)
	if err != nil {
		return err
	}
	for _, p := range all {
		marker := " "
		if p.ActivePrompt {
			marker = "*"
		}
		fmt.Printf("%s %s  [%s] %s\n", marker, p.ID, p.Tag, p.Content)
	}
	fmt.Printf("%d prompts\n", len(all))
	return nil
}

func activatePrompt(ctx context.Context, prompts *service.PromptService, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("malformed prompt id %q: %w", rawID, err)
	}
	p, err := prompts.SetActivePrompt(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Active prompt is now %s: %s\n", p.ID, p.Content)
	return nil
}

func rotatePrompt(ctx context.Context, prompts *service.PromptService, day time.Time) error {
	p, err := prompts.RotateDaily(ctx, day)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Prompt for %s is %s: %s\n", day.Format(time.DateOnly), p.ID, p.Content)
	return nil
}
