package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"qap/internal/models"
	"qap/pkg/afni"
	"qap/pkg/config"
	"qap/pkg/report"
	"qap/pkg/temporal"
)

func main() {
	// Parse command line arguments
	motionFile := flag.String("motion", "", "Motion file: affine matrix series or precomputed rel.rms displacements")
	funcFile := flag.String("func", "", "Functional NIfTI file for AFNI outlier/quality metrics (optional)")
	maskFile := flag.String("mask", "", "Brain mask NIfTI file for the outlier count (optional)")
	participant := flag.String("participant", "", "Participant ID")
	session := flag.String("session", "session_1", "Session ID")
	series := flag.String("series", "func_1", "Series/scan ID")
	site := flag.String("site", "", "Collection site name (optional)")
	configPath := flag.String("config", "", "Pipeline configuration YAML (optional)")
	gather := flag.Bool("gather", false, "Gather per-scan JSON records from the output directory into a CSV")
	compareDir := flag.String("compare", "", "Previous run's output directory to correlate against (with -gather)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	outputDir := cfg.Pipeline.OutputDirectory

	if *gather {
		gatherRecords(outputDir, *compareDir)
		return
	}

	// Validate inputs
	if *motionFile == "" || *participant == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Interrupts cancel in-flight AFNI runs
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scan := models.ScanInfo{
		Site:        *site,
		Participant: *participant,
		Session:     *session,
		Scan:        *series,
	}
	rec := &report.Record{
		Participant: scan.Participant,
		Session:     scan.Session,
		Series:      scan.Scan,
		Site:        scan.Site,
	}

	displacements := computeDisplacements(*motionFile, cfg.Pipeline.RMax)

	scanDir := filepath.Join(outputDir, scan.Participant, scan.Session, scan.Scan)
	if err := os.MkdirAll(scanDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	fdPath := filepath.Join(scanDir, "framewise_displacement.1D")
	if err := temporal.WriteDisplacementFile(fdPath, displacements); err != nil {
		log.Fatalf("Failed to write the displacement file: %v", err)
	}
	fmt.Printf("Framewise displacement series saved to: %s\n", fdPath)

	fdSummary, err := temporal.SummarizeSeries(displacements)
	if err != nil {
		log.Fatalf("Failed to summarize framewise displacement: %v", err)
	}
	rec.RMSDMean = &fdSummary.Mean
	rec.RMSDMedian = &fdSummary.Median
	fmt.Printf("RMSD mean %.4f, median %.4f\n", fdSummary.Mean, fdSummary.Median)

	if *funcFile != "" {
		outliers, err := afni.OutlierTimepoints(ctx, *funcFile, *maskFile, cfg.Pipeline.OutlierFraction)
		if err != nil {
			log.Fatalf("3dToutcount failed: %v", err)
		}
		outlierSummary, err := temporal.SummarizeSeries(outliers)
		if err != nil {
			log.Fatalf("Failed to summarize outlier timepoints: %v", err)
		}
		rec.FracOutliersMean = &outlierSummary.Mean
		rec.FracOutliersIQR = &outlierSummary.IQR
		rec.FracOutliersPct = &outlierSummary.PercentOutliers
		fmt.Printf("Fraction of outliers mean %.4f\n", outlierSummary.Mean)

		quality, err := afni.QualityTimepoints(ctx, *funcFile)
		if err != nil {
			log.Fatalf("3dTqual failed: %v", err)
		}
		qualitySummary, err := temporal.SummarizeSeries(quality)
		if err != nil {
			log.Fatalf("Failed to summarize quality timepoints: %v", err)
		}
		rec.QualityMean = &qualitySummary.Mean
		rec.QualityIQR = &qualitySummary.IQR
		rec.QualityPct = &qualitySummary.PercentOutliers
		fmt.Printf("Quality index mean %.4f\n", qualitySummary.Mean)
	}

	recPath := filepath.Join(scanDir, scan.Key()+"_qap_temporal.json")
	if err := report.WriteJSON(rec, recPath); err != nil {
		log.Fatalf("Failed to write the metrics record: %v", err)
	}
	fmt.Printf("Metrics record saved to: %s\n", recPath)
}

// computeDisplacements loads the motion file and turns it into a framewise
// displacement series. Precomputed MCFLIRT rel.rms files pass through
// unchanged.
func computeDisplacements(motionFile string, rmax float64) []float64 {
	if temporal.IsPrecomputedDisplacement(motionFile) {
		series, err := temporal.LoadDisplacementFile(motionFile)
		if err != nil {
			log.Fatalf("Failed to load the displacement file: %v", err)
		}
		return series
	}

	transforms, err := temporal.LoadAffineMatrixFile(motionFile)
	if err != nil {
		log.Fatalf("Failed to load the affine matrix file: %v", err)
	}
	series, err := temporal.FramewiseDisplacement(transforms, rmax)
	if err != nil {
		log.Fatalf("Failed to compute framewise displacement: %v", err)
	}
	return series
}

// gatherRecords merges the per-scan JSON records under outputDir into one
// CSV, optionally correlating the metrics against a previous run.
func gatherRecords(outputDir, compareDir string) {
	records, err := report.GatherJSONInfo(outputDir)
	if err != nil {
		log.Fatalf("Failed to gather JSON records: %v", err)
	}
	if len(records) == 0 {
		log.Fatalf("No JSON records found under %s", outputDir)
	}

	csvPath := filepath.Join(outputDir, "qap_temporal.csv")
	if err := report.WriteCSV(records, csvPath); err != nil {
		log.Fatalf("Failed to write the CSV report: %v", err)
	}
	fmt.Printf("CSV report with %d scans saved to: %s\n", len(records), csvPath)

	if compareDir != "" {
		previous, err := report.GatherJSONInfo(compareDir)
		if err != nil {
			log.Fatalf("Failed to gather the previous run's records: %v", err)
		}

		fmt.Println("\nMetric correlations against the previous run:")
		for name, corr := range report.Correlations(previous, records) {
			fmt.Printf("  %s: %.4f\n", name, corr)
		}
	}
}
