package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"qap/pkg/cloud"
	"qap/pkg/config"
	"qap/pkg/sublist"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "pipeline.yml", "Pipeline configuration YAML")
	imgType := flag.String("type", "rest", "Image type to list: anat or rest")
	listPath := flag.String("list", "", "Write the bucket sublist to this YAML file")
	participant := flag.Int("participant", -1, "Index of the participant to download (sorted by ID)")
	uploadDir := flag.String("upload", "", "Upload this output directory to the bucket")
	flag.Parse()

	// Validate inputs
	if *imgType != "anat" && *imgType != "rest" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Interrupts cancel in-flight transfers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := cloud.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	if *uploadDir != "" {
		fmt.Printf("Uploading outputs from %s to bucket %s...\n", *uploadDir, cfg.S3.BucketName)
		if err := client.UploadOutputs(ctx, *uploadDir); err != nil {
			log.Fatalf("Upload failed: %v", err)
		}
		fmt.Println("Upload completed!")
		return
	}

	fmt.Printf("Listing %s scans from bucket %s...\n", *imgType, cfg.S3.BucketName)
	dict, err := client.ListScans(ctx, *imgType)
	if err != nil {
		log.Fatalf("Failed to list the bucket: %v", err)
	}
	fmt.Printf("Found %d participants\n", len(dict))

	if *listPath != "" {
		written, err := sublist.WriteYAML(dict, *listPath)
		if err != nil {
			log.Fatalf("Failed to write the bucket sublist: %v", err)
		}
		fmt.Printf("Bucket sublist saved to: %s\n", written)
	}

	if *participant >= 0 {
		fmt.Printf("Downloading participant %d...\n", *participant)
		local, err := client.DownloadParticipant(ctx, dict, *participant)
		if err != nil {
			log.Fatalf("Download failed: %v", err)
		}
		for id, sessions := range local {
			fmt.Printf("Downloaded %s (%d sessions) to %s\n", id, len(sessions), cfg.S3.LocalPrefix)
		}
	}
}
