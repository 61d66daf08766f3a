// Package report collects per-scan quality metric records from JSON output
// files, exports them to CSV, and compares metric columns across pipeline
// runs.
package report

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// Record is one scan's quality metrics. Metric fields are pointers so that
// metrics a run did not compute stay out of its JSON and leave empty CSV
// cells. Column names follow the QAP CSV convention.
type Record struct {
	Participant string `csv:"Participant" json:"Participant"`
	Session     string `csv:"Session" json:"Session"`
	Series      string `csv:"Series" json:"Series"`
	Site        string `csv:"Site" json:"Site,omitempty"`

	RMSDMean   *float64 `csv:"RMSD (Mean)" json:"RMSD (Mean),omitempty"`
	RMSDMedian *float64 `csv:"RMSD (Median)" json:"RMSD (Median),omitempty"`

	FracOutliersMean *float64 `csv:"Fraction of Outliers (Mean)" json:"Fraction of Outliers (Mean),omitempty"`
	FracOutliersIQR  *float64 `csv:"Fraction of Outliers (IQR)" json:"Fraction of Outliers (IQR),omitempty"`
	FracOutliersPct  *float64 `csv:"Fraction of Outliers (Percent Outliers)" json:"Fraction of Outliers (Percent Outliers),omitempty"`

	QualityMean *float64 `csv:"Quality (Mean)" json:"Quality (Mean),omitempty"`
	QualityIQR  *float64 `csv:"Quality (IQR)" json:"Quality (IQR),omitempty"`
	QualityPct  *float64 `csv:"Quality (Percent Outliers)" json:"Quality (Percent Outliers),omitempty"`

	GCOR        *float64 `csv:"GCOR" json:"GCOR,omitempty"`
	NuisanceStd *float64 `csv:"Estimated Nuisance (Std)" json:"Estimated Nuisance (Std),omitempty"`
	SFSMean     *float64 `csv:"Signal Fluctuation Sensitivity (Mean)" json:"Signal Fluctuation Sensitivity (Mean),omitempty"`
}

// Key identifies the scan a record describes.
func (r *Record) Key() string {
	return r.Participant + "/" + r.Session + "/" + r.Series
}

// metricColumns maps CSV column names to their field accessors, for the
// run-to-run comparison.
var metricColumns = []struct {
	name string
	get  func(*Record) *float64
}{
	{"RMSD (Mean)", func(r *Record) *float64 { return r.RMSDMean }},
	{"RMSD (Median)", func(r *Record) *float64 { return r.RMSDMedian }},
	{"Fraction of Outliers (Mean)", func(r *Record) *float64 { return r.FracOutliersMean }},
	{"Fraction of Outliers (IQR)", func(r *Record) *float64 { return r.FracOutliersIQR }},
	{"Fraction of Outliers (Percent Outliers)", func(r *Record) *float64 { return r.FracOutliersPct }},
	{"Quality (Mean)", func(r *Record) *float64 { return r.QualityMean }},
	{"Quality (IQR)", func(r *Record) *float64 { return r.QualityIQR }},
	{"Quality (Percent Outliers)", func(r *Record) *float64 { return r.QualityPct }},
	{"GCOR", func(r *Record) *float64 { return r.GCOR }},
	{"Estimated Nuisance (Std)", func(r *Record) *float64 { return r.NuisanceStd }},
	{"Signal Fluctuation Sensitivity (Mean)", func(r *Record) *float64 { return r.SFSMean }},
}

// WriteJSON writes a single scan record to path as indented JSON.
func WriteJSON(rec *Record, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing record file: %w", err)
	}
	return nil
}

// GatherJSONInfo walks the output directory and loads every ".json" per-scan
// record found under it.
func GatherJSONInfo(outputDir string) ([]*Record, error) {
	var records []*Record

	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading record file %s: %w", path, err)
		}

		rec := &Record{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("parsing record file %s: %w", path, err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gathering JSON records under %s: %w", outputDir, err)
	}

	return records, nil
}

// WriteCSV writes the records to a CSV file sorted by participant, session
// and series.
func WriteCSV(records []*Record, path string) error {
	sorted := make([]*Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&sorted, f); err != nil {
		return fmt.Errorf("writing CSV file %s: %w", path, err)
	}
	return nil
}

// Correlations computes the Pearson correlation of each metric column
// between two runs, joined on scan identity. Columns with fewer than two
// scan pairs carrying the metric in both runs are omitted.
func Correlations(oldRun, newRun []*Record) map[string]float64 {
	oldByKey := make(map[string]*Record, len(oldRun))
	for _, rec := range oldRun {
		oldByKey[rec.Key()] = rec
	}

	out := make(map[string]float64)
	for _, col := range metricColumns {
		var xs, ys []float64
		for _, rec := range newRun {
			prev, ok := oldByKey[rec.Key()]
			if !ok {
				continue
			}
			x := col.get(prev)
			y := col.get(rec)
			if x == nil || y == nil {
				continue
			}
			xs = append(xs, *x)
			ys = append(ys, *y)
		}
		if len(xs) < 2 {
			continue
		}
		out[col.name] = stat.Correlation(xs, ys, nil)
	}

	return out
}
