package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/seqgen/internal/logger"
	"github.com/samcharles93/seqgen/internal/vocab"
)

func vocabCmd() *cli.Command {
	return &cli.Command{
		Name:  "vocab",
		Usage: "Vocabulary tools",
		Commands: []*cli.Command{
			vocabBuildCmd(),
		},
	}
}

func vocabBuildCmd() *cli.Command {
	var (
		corpus string
		out    string
		side   string
	)
	return &cli.Command{
		Name:  "build",
		Usage: "Build a frozen vocabulary from one side of a corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "corpus",
				Aliases:     []string{"i"},
				Usage:       "corpus file with one sentence per line (- for stdin)",
				Value:       "-",
				Destination: &corpus,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path (default: <corpus>.vocab.json)",
				Destination: &out,
			},
			&cli.StringFlag{
				Name:        "side",
				Usage:       "corpus side to read from \"src ||| tgt\" lines: source or target",
				Value:       "source",
				Destination: &side,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			s, err := vocab.ParseSide(side)
			if err != nil {
				return err
			}
			path, err := resolveOutPath(corpus, out)
			if err != nil {
				return err
			}
			d, err := buildVocab(corpus, s, os.Stdin)
			if err != nil {
				return err
			}
			if err := d.Save(path); err != nil {
				return fmt.Errorf("write vocabulary: %w", err)
			}
			log.Info("wrote vocabulary", "path", path, "side", s, "words", d.Size())
			return nil
		},
	}
}

func buildVocab(corpus string, side vocab.Side, stdin io.Reader) (*vocab.Dict, error) {
	if corpus == "" || corpus == "-" {
		return vocab.Build(stdin, side)
	}
	f, err := os.Open(corpus)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return vocab.Build(f, side)
}
