package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"variant-manager/core/config"
	"variant-manager/core/variant"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: debug_resolve <path> [path...]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	roots, err := cfg.Variant.Roots()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("main=%s\nchannel=%s\noutput=%s\n\n", roots.Main, roots.Channel, roots.Output)

	mgr, err := variant.NewManager(roots, variant.Options{Ignore: cfg.Variant.Ignore})
	if err != nil {
		log.Fatal(err)
	}
	matcher, err := variant.NewMatcher(cfg.Variant.Ignore)
	if err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, path := range os.Args[1:] {
		res, err := mgr.Resolve(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			continue
		}
		fmt.Printf("=== %s (ignored=%t) ===\n", path, matcher.Match(res.Rel))
		if err := enc.Encode(res); err != nil {
			log.Fatal(err)
		}
	}
}
