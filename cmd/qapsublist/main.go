package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"qap/pkg/config"
	"qap/pkg/sublist"
)

func main() {
	// Parse command line arguments
	dataDir := flag.String("data", "", "Site folder containing raw imaging data")
	outputPath := flag.String("output", "participant_list.yml", "Output sublist YAML filename")
	configPath := flag.String("config", "", "Pipeline configuration YAML (optional)")
	include := flag.String("include", "", "Comma-separated participant IDs to include (default: all)")
	format := flag.String("format", "", "Custom directory format, e.g. /{site}/{participant}/{session}/{series}")
	flag.Parse()

	// Validate inputs
	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The flag overrides any format carried in the configuration
	directoryFormat := cfg.Sublist.DirectoryFormat
	if *format != "" {
		directoryFormat = *format
	}

	var inclusion []string
	if *include != "" {
		inclusion = strings.Split(*include, ",")
	}

	paths, err := sublist.GatherFilepaths(*dataDir)
	if err != nil {
		log.Fatalf("Failed to gather imaging filepaths: %v", err)
	}
	fmt.Printf("Found %d imaging files under %s\n", len(paths), *dataDir)

	var dict sublist.DataDict
	if directoryFormat != "" {
		dict, err = sublist.GatherCustomRawData(paths, *dataDir, directoryFormat,
			cfg.Sublist.AnatomicalKeywords, cfg.Sublist.FunctionalKeywords)
	} else {
		dict, err = sublist.ParseRawDataList(paths, *dataDir, inclusion)
	}
	if err != nil {
		log.Fatalf("Failed to build the participant list: %v", err)
	}

	written, err := sublist.WriteYAML(dict, *outputPath)
	if err != nil {
		log.Fatalf("Failed to write the participant list: %v", err)
	}

	fmt.Printf("Participant list with %d participants saved to: %s\n", len(dict), written)
}
