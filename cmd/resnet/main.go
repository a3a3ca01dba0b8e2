// Package main provides the resnet CLI: print the network summary or run a
// short training session on synthetic data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/born-ml/resnet"
	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/internal/config"
	"github.com/born-ml/resnet/internal/optim"
	"github.com/born-ml/resnet/internal/tensor"
	"github.com/born-ml/resnet/internal/train"
)

const version = "v0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("resnet %s\n", version)
		return
	case "summary":
		err = runSummary(os.Args[2:])
	case "train":
		err = runTrain(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Println("ResNet-v1 with dilated residual stages")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  summary    Print the layer table and parameter counts")
	fmt.Println("  train      Train on synthetic data")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("Run 'resnet <command> -h' for command flags.")
}

// commonFlags are shared by summary and train. Values given on the command
// line override the config file.
type commonFlags struct {
	configPath string
	downsample bool
	input      string
	classes    int
	seed       int64
	workers    int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or ./"+config.ConfigFileName+")")
	fs.BoolVar(&c.downsample, "downsample", false, "use stride 2 instead of dilation growth")
	fs.StringVar(&c.input, "input", "32,32,3", "input shape as height,width,channels")
	fs.IntVar(&c.classes, "classes", 10, "number of classes")
	fs.Int64Var(&c.seed, "seed", 1, "weight initialization seed")
	fs.IntVar(&c.workers, "workers", 0, "CPU kernel workers (0 = one per CPU)")
}

// load reads the config file and applies the flags that were set explicitly.
func (c *commonFlags) load(fs *flag.FlagSet) (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if c.configPath != "" {
		cfg, path, err = config.LoadFromPath(c.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Printf("loaded config from %s", path)
	}

	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "downsample":
			cfg.Model.UseDownsampling = c.downsample
		case "input":
			shape, err := parseShape(c.input)
			if err != nil {
				parseErr = err
				return
			}
			cfg.Model.InputShape = shape
		case "classes":
			cfg.Model.NumClasses = c.classes
		case "seed":
			cfg.Model.Seed = c.seed
		case "workers":
			cfg.Parallel.Workers = c.workers
		}
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return cfg, nil
}

func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	shape := make([]int, len(parts))
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid input shape %q: %w", s, err)
		}
		shape[i] = d
	}
	return shape, nil
}

func buildModel(cfg *config.Config) (*resnet.Model, error) {
	return resnet.New(resnet.Options{
		Name:            cfg.Model.Name,
		InputShape:      tensor.Shape(cfg.Model.InputShape),
		NumClasses:      cfg.Model.NumClasses,
		UseDownsampling: cfg.Model.UseDownsampling,
		Seed:            cfg.Model.Seed,
		Backend:         cpu.NewWithConfig(cfg.ParallelConfig()),
	})
}

func runSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	model, err := buildModel(cfg)
	if err != nil {
		return err
	}
	return model.Summary(os.Stdout)
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	steps := fs.Int("steps", 100, "number of training steps")
	batch := fs.Int("batch", 32, "batch size")
	lr := fs.Float64("lr", 0.01, "learning rate")
	optName := fs.String("optimizer", "sgd", "optimizer: sgd or adam")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "steps":
			cfg.Train.Steps = *steps
		case "batch":
			cfg.Train.BatchSize = *batch
			if cfg.Train.Samples < *batch {
				cfg.Train.Samples = *batch
			}
		case "lr":
			cfg.Train.LearningRate = float32(*lr)
		case "optimizer":
			cfg.Train.Optimizer = *optName
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	model, err := buildModel(cfg)
	if err != nil {
		return err
	}
	opt, err := optim.New(cfg.OptimizerConfig())
	if err != nil {
		return err
	}
	ds, err := train.NewSyntheticDataset(cfg.Train.Samples, tensor.Shape(cfg.Model.InputShape),
		cfg.Model.NumClasses, cfg.Train.DataSeed)
	if err != nil {
		return err
	}

	fmt.Printf("Model %q: %d layers, %d params (%d trainable)\n",
		model.Name(), len(model.Layers()), model.CountParams(), model.TrainableParams())
	fmt.Printf("Optimizer: %s (lr=%g), batch size %d, %d steps on %d synthetic samples\n",
		cfg.Train.Optimizer, cfg.Train.LearningRate, cfg.Train.BatchSize, cfg.Train.Steps, ds.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	trainer := &train.Trainer{
		Model:     model,
		Optimizer: opt,
		BatchSize: cfg.Train.BatchSize,
		Steps:     cfg.Train.Steps,
		LogEvery:  cfg.Train.LogEvery,
		Logger:    log.New(os.Stderr, "train: ", log.LstdFlags),
	}

	start := time.Now()
	history, err := trainer.Run(ctx, ds)
	if err != nil {
		return fmt.Errorf("after %d steps: %w", history.Len(), err)
	}
	eval, err := trainer.Evaluate(ctx, ds)
	if err != nil {
		return err
	}

	fmt.Printf("\nFinished %d steps in %s\n", history.Len(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Last train loss: %.4f\n", history.Last().Loss)
	fmt.Printf("   Eval loss: %.4f, accuracy: %.2f%%\n", eval.Loss, eval.Accuracy*100)
	return nil
}
