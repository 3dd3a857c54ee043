package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-sfa/algorithms/binning"
	"github.com/RyanBlaney/sonido-sfa/logging"
	"github.com/RyanBlaney/sonido-sfa/sfa"
	"github.com/RyanBlaney/sonido-sfa/sfa/config"
)

type options struct {
	configPath   string
	trainPath    string
	testPath     string
	labelled     bool
	logLevel     string
	wordLength   int
	alphabetSize int
	windowSize   int
	method       string
	levels       int
	bigrams      bool
	norm         bool
	nJobs        int
}

// bagRecord is one output line.
type bagRecord struct {
	Series int               `json:"series"`
	Label  *float64          `json:"label,omitempty"`
	Total  uint64            `json:"total"`
	Bag    map[string]uint32 `json:"bag"`
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:           "sfa",
		Short:         "Symbolic Fourier Approximation of time series collections",
		Long:          "Fits SFA breakpoints on a CSV training collection and writes one JSON bag of words per series.",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cfg, opts, stdout)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&opts.trainPath, "train", "t", "", "CSV file of training series, one per row")
	flags.StringVar(&opts.testPath, "test", "", "CSV file of series to transform (defaults to the training set)")
	flags.BoolVarP(&opts.labelled, "labels", "l", false, "The first CSV column holds the class label")
	flags.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")

	// Overrides for the configuration file
	flags.IntVarP(&opts.wordLength, "word-length", "w", defaults.WordLength, "Letters per word")
	flags.IntVarP(&opts.alphabetSize, "alphabet-size", "a", defaults.AlphabetSize, "Symbols per letter")
	flags.IntVar(&opts.windowSize, "window-size", defaults.WindowSize, "Sliding window length, 0 for the whole series")
	flags.StringVarP(&opts.method, "method", "m", defaults.BinningMethod.String(), "Binning method")
	flags.IntVar(&opts.levels, "levels", defaults.Levels, "Spatial pyramid levels")
	flags.BoolVar(&opts.bigrams, "bigrams", defaults.Bigrams, "Add bigrams of words one window apart")
	flags.BoolVar(&opts.norm, "norm", defaults.Norm, "Drop the mean coefficient")
	flags.IntVarP(&opts.nJobs, "jobs", "j", defaults.NJobs, "Parallel workers, negative counts back from the CPU count")

	_ = rootCmd.MarkFlagRequired("train")
	return rootCmd
}

// resolveConfig loads the configuration file, if any, and applies the flags
// the user set explicitly on top of it.
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("word-length") {
		cfg.WordLength = opts.wordLength
	}
	if flags.Changed("alphabet-size") {
		cfg.AlphabetSize = opts.alphabetSize
	}
	if flags.Changed("window-size") {
		cfg.WindowSize = opts.windowSize
	}
	if flags.Changed("method") {
		method, err := binning.ParseMethod(opts.method)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
		cfg.BinningMethod = method
	}
	if flags.Changed("levels") {
		cfg.Levels = opts.levels
	}
	if flags.Changed("bigrams") {
		cfg.Bigrams = opts.bigrams
	}
	if flags.Changed("norm") {
		cfg.Norm = opts.norm
	}
	if flags.Changed("jobs") {
		cfg.NJobs = opts.nJobs
	}
	if flags.Changed("log-level") || opts.configPath == "" {
		cfg.LogLevel = opts.logLevel
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, err
	}
	logging.SetLevel(level)
	return cfg, nil
}

func run(cfg config.Config, opts *options, stdout io.Writer) error {
	logger := logging.WithFields(logging.Fields{"component": "cli"})

	train, err := readCollection(opts.trainPath, opts.labelled)
	if err != nil {
		return err
	}
	transformer := sfa.New(cfg)
	target := train
	var (
		model *sfa.Model
		res   *sfa.Result
	)
	if opts.testPath == "" {
		if model, res, err = transformer.FitTransform(train.series, train.labels); err != nil {
			return err
		}
	} else {
		if target, err = readCollection(opts.testPath, opts.labelled); err != nil {
			return err
		}
		if model, err = transformer.Fit(train.series, train.labels); err != nil {
			return err
		}
		if res, err = model.Transform(target.series); err != nil {
			return err
		}
	}

	logger.Info("transformed collection", logging.Fields{
		"train":       len(train.series),
		"series":      len(target.series),
		"window_size": model.WindowSize(),
	})

	enc := json.NewEncoder(stdout)
	for i, bag := range res.Bags {
		rec := bagRecord{Series: i, Total: bag.Total(), Bag: make(map[string]uint32, len(bag))}
		if target.labels != nil {
			rec.Label = &target.labels[i]
		}
		for k, c := range bag {
			rec.Bag[model.DescribeKey(k)] = c
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write bag %d: %w", i, err)
		}
	}
	return nil
}
