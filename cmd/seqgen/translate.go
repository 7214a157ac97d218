package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/seqgen/internal/logger"
	"github.com/samcharles93/seqgen/internal/logits"
	"github.com/samcharles93/seqgen/internal/translate"
)

func translateCmd() *cli.Command {
	var (
		format      string
		sample      bool
		temperature float64
		seed        int64
	)

	flags := append(ensembleFlags(), searchFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "format",
			Usage:       "output format (text, json)",
			Value:       "text",
			Destination: &format,
		},
		&cli.BoolFlag{
			Name:        "sample",
			Usage:       "draw one translation by sampling instead of beam search",
			Destination: &sample,
		},
		&cli.Float64Flag{
			Name:        "temperature",
			Aliases:     []string{"t"},
			Usage:       "sampling temperature (0 is greedy)",
			Value:       1,
			Destination: &temperature,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "sampling seed",
			Destination: &seed,
		},
	)

	return &cli.Command{
		Name:      "translate",
		Usage:     "Translate \"source ||| reference\" lines read from stdin",
		ArgsUsage: "< source.txt",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyEnsembleConfig(cmd, cfg)
			applySearchConfig(cmd, cfg)
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown --format %q (want text or json)", format)
			}

			svc, err := openService(ctx)
			if err != nil {
				return err
			}

			opts := translate.Options{K: int(kBest), BeamWidth: int(beamSize)}
			if sample {
				opts.Sampling = &logits.SamplerConfig{
					Seed:          seed,
					Temperature:   float32(temperature),
					RepeatPenalty: 1,
				}
			}

			// The first interrupt cancels the running decode and ends the
			// loop; once stop runs, a second interrupt kills the process.
			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			go func() {
				<-sigCtx.Done()
				stop()
			}()

			p := &predictor{
				svc:         svc,
				opts:        opts,
				asJSON:      format == "json",
				out:         os.Stdout,
				diag:        os.Stderr,
				interactive: stdinIsTTY(),
				log:         logger.FromContext(ctx),
			}
			return p.run(sigCtx, os.Stdin)
		},
	}
}

type sentenceTranslator interface {
	Translate(ctx context.Context, text string, opts translate.Options) (*translate.Result, error)
}

type predictor struct {
	svc         sentenceTranslator
	opts        translate.Options
	asJSON      bool
	out         io.Writer
	diag        io.Writer
	interactive bool
	log         logger.Logger
}

type jsonLine struct {
	Source     string                 `json:"source"`
	Reference  string                 `json:"reference,omitempty"`
	Hypotheses []translate.Hypothesis `json:"hypotheses"`
	Partial    bool                   `json:"partial,omitempty"`
}

// run translates one line of in at a time until EOF or cancellation. A
// decode interrupted by ctx still prints its partial k-best.
func (p *predictor) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	enc := json.NewEncoder(p.out)
	for {
		if p.interactive {
			_, _ = fmt.Fprint(p.diag, "> ")
		}
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		source, reference := translate.ParseLine(line)
		if source == "" {
			continue
		}
		_, _ = fmt.Fprintf(p.diag, "Read source sentence: %s\n", strings.Join(strings.Fields(source), " "))
		if reference != "" {
			_, _ = fmt.Fprintf(p.diag, "  Read reference: %s\n", strings.Join(strings.Fields(reference), " "))
		}

		res, err := p.svc.Translate(ctx, source, p.opts)
		if err != nil {
			return err
		}
		if p.asJSON {
			if err := enc.Encode(jsonLine{
				Source:     source,
				Reference:  reference,
				Hypotheses: res.Hypotheses,
				Partial:    res.Partial,
			}); err != nil {
				return err
			}
		} else {
			for _, h := range res.Hypotheses {
				if _, err := fmt.Fprintf(p.out, "%g\t%s\n", h.Score, h.Text); err != nil {
					return err
				}
			}
		}
		if res.Partial {
			p.log.Info("decode interrupted", "source", source, "completed", len(res.Hypotheses))
			return nil
		}
	}
}
