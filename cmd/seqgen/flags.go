package main

import "github.com/urfave/cli/v3"

var (
	ensemblePath string
	maxLength    int64
	beamSize     int64
	kBest        int64
	workers      int64
	poolSize     int64
	logLevel     string
	logFormat    string
	debug        bool
)

func ensembleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "ensemble",
			Aliases:     []string{"e"},
			Usage:       "path to the ensemble definition (yaml); defaults to $" + envSeqgenEnsemble,
			Destination: &ensemblePath,
		},
		&cli.Int64Flag{
			Name:        "max-length",
			Usage:       "maximum number of output tokens (0 uses the ensemble file, then 100)",
			Destination: &maxLength,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Usage:       "hypotheses expanded in parallel per step",
			Value:       1,
			Destination: &workers,
		},
		&cli.Int64Flag{
			Name:        "pool",
			Usage:       "number of independent decoders",
			Value:       1,
			Destination: &poolSize,
		},
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "beam-size",
			Aliases:     []string{"b"},
			Usage:       "beam width",
			Value:       10,
			Destination: &beamSize,
		},
		&cli.Int64Flag{
			Name:        "kbest",
			Aliases:     []string{"k"},
			Usage:       "number of hypotheses to print per sentence",
			Value:       3,
			Destination: &kBest,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
