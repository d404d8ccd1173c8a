// Command sensorcast runs the multi-target regression pipeline: it loads a
// time-stamped training table and a test table, trains one gradient-boosted
// model per trailing label column, prints the per-label validation MAE and
// writes the submission file.
//
// Any failure aborts the run before the submission file is created, so an
// existing output file always covers the full label set.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/YuminosukeSato/sensorcast/dataset"
	"github.com/YuminosukeSato/sensorcast/pipeline"
	"github.com/YuminosukeSato/sensorcast/pkg/log"
	"github.com/YuminosukeSato/sensorcast/report"
)

func main() {
	var (
		trainPath    = flag.String("train", "train.csv", "path to the training table")
		testPath     = flag.String("test", "test.csv", "path to the test table")
		outPath      = flag.String("out", "submit.csv", "path for the submission table")
		idColumn     = flag.String("id-column", "序号", "identifier column name")
		timeColumn   = flag.String("time-column", "时间", "timestamp column name")
		numLabels    = flag.Int("labels", 34, "number of trailing target columns")
		holdout      = flag.Float64("holdout", 0.2, "validation holdout fraction")
		seed         = flag.Int64("seed", 42, "random seed for the split and the models")
		learningRate = flag.Float64("learning-rate", 0.05, "boosting learning rate")
		rounds       = flag.Int("rounds", 200, "boosting round ceiling")
		workers      = flag.Int("workers", 1, "parallel label workers")
		plotPath     = flag.String("plot", "", "optional path for a MAE bar chart PNG")
		logLevel     = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	log.Setup(*logLevel)

	train, err := loadTable(*trainPath, *idColumn, *timeColumn)
	if err != nil {
		fail("load-train", err)
	}
	test, err := loadTable(*testPath, *idColumn, *timeColumn)
	if err != nil {
		fail("load-test", err)
	}

	cfg := pipeline.Config{
		IDColumn:        *idColumn,
		TimeColumn:      *timeColumn,
		NumLabels:       *numLabels,
		HoldoutFraction: *holdout,
		Seed:            *seed,
		LearningRate:    *learningRate,
		NumIterations:   *rounds,
		Workers:         *workers,
	}

	result, err := pipeline.Run(train, test, cfg)
	if err != nil {
		fail("train", err)
	}

	if err := report.Write(os.Stdout, result.Scores, result.Labels); err != nil {
		fail("report", err)
	}
	if *plotPath != "" {
		if err := report.SavePlot(*plotPath, result.Scores, result.Labels); err != nil {
			fail("report", err)
		}
	}

	out, err := os.Create(*outPath)
	if err != nil {
		fail("write-submission", err)
	}
	defer out.Close()
	if err := dataset.WriteCSV(out, result.Submission); err != nil {
		fail("write-submission", err)
	}

	slog.Info("submission written", "path", *outPath, "rows", result.Submission.NumRows())
}

func loadTable(path, idColumn, timeColumn string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.ReadCSV(f, dataset.Schema{IDColumn: idColumn, TimeColumn: timeColumn})
}

func fail(stage string, err error) {
	slog.Error("pipeline failed", "stage", stage, log.ErrAttr(err))
	os.Exit(1)
}
