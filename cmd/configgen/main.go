package main

import (
	"flag"
	"log"

	"github.com/danmuck/powermon/internal/config"
)

func main() {
	kind := flag.String("kind", "monitor", "config kind: monitor|sim")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		switch *kind {
		case "monitor":
			if _, err := config.LoadMonitorConfig(path); err != nil {
				log.Fatal(err)
			}
		case "sim":
			if _, err := config.LoadSimulatorConfig(path); err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "monitor":
		return "cmd/powermon/config.toml"
	case "sim":
		return "cmd/powermon-sim/config.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}
