// Command main loads a prompt catalog into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"dailyprompt/internal/bootstrap"
	"dailyprompt/internal/config"
	"dailyprompt/internal/seed"
)

func main() {
	file := flag.String("file", "prompts.yml", "YAML prompt catalog (empty to skip)")
	fake := flag.Int("fake", 0, "Number of generated prompts to add")
	clean := flag.Bool("clean", false, "Remove existing prompts and answers first")
	rotate := flag.Bool("rotate", false, "Activate today's prompt after seeding")
	flag.Parse()

	opts := seed.Options{
		File:   *file,
		Fake:   *fake,
		Clean:  *clean,
		Rotate: *rotate,
	}
	if err := run(opts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}

func run(opts seed.Options) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, rdb, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer bootstrap.Shutdown(db, rdb)

	log.Printf("Seeding prompts: file=%q fake=%d clean=%v rotate=%v", opts.File, opts.Fake, opts.Clean, opts.Rotate)

	res, err := seed.Run(ctx, bootstrap.NewPromptService(cfg, db, rdb), opts)
	if err != nil {
		return err
	}

	log.Printf("Inserted %d prompts", res.Inserted)
	if res.Active != nil {
		log.Printf("Active prompt: %s (%s)", res.Active.Content, res.Active.ID)
	}
	return nil
}
