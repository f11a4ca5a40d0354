// Command segpipe runs one stage of a paired-raster training session from
// a YAML config: fit, test or predict.
package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rastml/segpipe/internal/config"
	"github.com/rastml/segpipe/internal/localengine"
	"github.com/rastml/segpipe/internal/logging"
	"github.com/rastml/segpipe/internal/rasterio"
	"github.com/rastml/segpipe/internal/statusdb"
	"github.com/rastml/segpipe/internal/telemetry"
	"github.com/rastml/segpipe/pkg/datamodule"
	"github.com/rastml/segpipe/pkg/dataset"
	"github.com/rastml/segpipe/pkg/pipeline"
	"github.com/rastml/segpipe/pkg/pipeline/drawer"
	"github.com/rastml/segpipe/pkg/transform"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "segpipe",
		Short:         "paired raster segmentation pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "segpipe.yaml", "path to the config file")

	stages := map[string]string{
		"fit":     "train on the train split and validate on the val split",
		"test":    "evaluate on the held-out split",
		"predict": "produce predictions for the held-out split",
	}
	for name, short := range stages {
		root.AddCommand(newStageCmd(&cfgPath, name, short))
	}

	return root
}

func newStageCmd(cfgPath *string, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStage(cmd.Context(), *cfgPath, name)
		},
	}
}

func runStage(ctx context.Context, cfgPath, name string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logging.Configure(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	log := logging.L()

	stage, err := datamodule.ParseStage(name)
	if err != nil {
		return err
	}

	if cfg.MetricsPort > 0 {
		telemetry.Expose(cfg.MetricsPort)
	}

	padder, err := transform.NewPadder(cfg.TargetHeight, cfg.TargetWidth)
	if err != nil {
		return err
	}

	mod, err := datamodule.New(datamodule.Config{
		TrainPath:      cfg.TrainPath,
		AnnotationPath: cfg.AnnotationPath,
		BatchSize:      cfg.BatchSize,
		NumWorkers:     cfg.NumWorkers,
	}, padder, func(dir string) (dataset.Reader, error) {
		return rasterio.Open(dir)
	})
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithLogger(log)}

	if cfg.SaveRunStatus {
		store, closeStore, err := openStatusStore(cfg.RunStatus)
		if err != nil {
			return err
		}
		if closeStore != nil {
			defer closeStore()
		}
		opts = append(opts, pipeline.WithStatusStore(store))
	}

	var flow *drawer.Flow
	if cfg.FlowFile != "" {
		flow = drawer.New(cfg.FlowFile)
		opts = append(opts, pipeline.WithDrawer(flow))
	}

	runner, err := pipeline.New(
		localengine.NewThresholdModel(0.5),
		localengine.New(cfg.MaxEpochs, log),
		opts...,
	)
	if err != nil {
		return err
	}

	log.Info("starting run",
		zap.String("stage", stage.String()),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("workers", mod.Workers()),
	)

	preds, err := runner.Run(ctx, mod, stage)
	if err != nil {
		return err
	}

	if stage == datamodule.StagePredict {
		log.Info("predictions ready", zap.Int("count", len(preds)))
	}
	if flow != nil {
		if err := flow.Draw(); err != nil {
			log.Warn("draw flow", zap.Error(err))
		}
	}

	return nil
}

func openStatusStore(cfg config.RunStatus) (pipeline.StatusStore, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := statusdb.Open(cfg.Path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open status store")
		}

		return store, func() { _ = store.Close() }, nil
	default:
		return pipeline.NewFileStore(cfg.Path), nil, nil
	}
}
