package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/IO"
	"github.com/QuoteVote/quotevote-ai/api"
	"github.com/QuoteVote/quotevote-ai/params"
	"github.com/QuoteVote/quotevote-ai/predictor"
	"github.com/QuoteVote/quotevote-ai/utils"
)

// app carries the output streams shared by every command.
type app struct {
	out    io.Writer
	errOut io.Writer
}

// NewApp builds the command tree. Results go to out, logs to errOut.
func NewApp(out, errOut io.Writer) *cli.Command {
	a := &app{out: out, errOut: errOut}
	return &cli.Command{
		Name:      "quotevote-ai",
		Usage:     "comment scoring service and model tooling",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "environment file path",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides LOG_LEVEL)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json or text (overrides LOG_FORMAT)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the GraphQL API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "listen address (overrides SCORE_ADDR)",
					},
				},
				Action: a.serve,
			},
			{
				Name:      "score",
				Usage:     "score one comment with the model",
				ArgsUsage: "[comment]",
				Action:    a.score,
			},
			{
				Name:      "reception",
				Usage:     "keyword reception estimate for a text",
				ArgsUsage: "<text>",
				Action:    a.reception,
			},
			{
				Name:  "evaluate",
				Usage: "measure model accuracy on a label,comment csv",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Usage:    "labelled csv file",
						Required: true,
					},
				},
				Action: a.evaluate,
			},
			{
				Name:  "init-model",
				Usage: "write a freshly initialised checkpoint for the configured model",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "checkpoint path (defaults to SCORE_MODEL_PATH)",
					},
				},
				Action: a.initModel,
			},
			{
				Name:  "export-vocab",
				Usage: "build a vocabulary from a text corpus",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "corpus",
						Usage:    "text file, one comment per line",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "vocabulary path (defaults to SCORE_VOCAB_PATH)",
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "vocabulary size including special tokens (defaults to SCORE_VOCAB_LENGTH)",
					},
				},
				Action: a.exportVocab,
			},
		},
	}
}

// setup loads the service config and installs the logger.
func (a *app) setup(cmd *cli.Command) (*params.ServiceConfig, *slog.Logger, error) {
	cfg, err := params.Load(cmd.String("env"))
	if err != nil {
		return nil, nil, err
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = cmd.String("log-format")
	}
	return cfg, utils.NewLogger(a.errOut, cfg.LogLevel, cfg.LogFormat), nil
}

func (a *app) serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("addr") {
		cfg.Addr = cmd.String("addr")
	}
	svc, err := api.Open(cfg, logger)
	if err != nil {
		return err
	}
	return api.Run(ctx, cfg.Addr, api.NewRouter(svc, logger), logger)
}

func (a *app) score(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	svc, err := api.Open(cfg, logger)
	if err != nil {
		return err
	}
	var comment *string
	if cmd.Args().Present() {
		c := strings.Join(cmd.Args().Slice(), " ")
		comment = &c
	}
	s, err := svc.Score(ctx, comment)
	if err != nil {
		return err
	}
	return writeJSON(a.out, s)
}

func (a *app) reception(_ context.Context, cmd *cli.Command) error {
	if !cmd.Args().Present() {
		return errors.New("reception needs a text argument")
	}
	return writeJSON(a.out, api.PredictReception(strings.Join(cmd.Args().Slice(), " ")))
}

func (a *app) evaluate(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	svc, err := api.Open(cfg, logger)
	if err != nil {
		return err
	}
	f, err := os.Open(cmd.String("data"))
	if err != nil {
		return errors.Wrap(err, "opening evaluation data")
	}
	defer f.Close()

	ev, err := svc.Evaluate(ctx, f)
	if err != nil {
		return err
	}
	if err := writeJSON(a.out, ev); err != nil {
		return err
	}
	accuracyBar(a.out, ev.Accuracy)
	return nil
}

func (a *app) initModel(_ context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	out := cfg.ModelPath
	if cmd.IsSet("out") {
		out = cmd.String("out")
	}
	if out == "" {
		return errors.New("no checkpoint path: set --out or SCORE_MODEL_PATH")
	}

	vocab, err := IO.ImportVocabJSON(cfg.VocabPath)
	if err != nil {
		return err
	}
	var vectors *mat.Dense
	if cfg.VectorsPath != "" {
		if vectors, err = IO.LoadWordVectors(cfg.VectorsPath, vocab); err != nil {
			return err
		}
	}
	model, err := api.NewModel(cfg, vocab, vectors)
	if err != nil {
		return err
	}
	if err := predictor.Save(model, out); err != nil {
		return err
	}
	logger.Info("checkpoint written",
		"path", out,
		"kind", model.Kind(),
		"tensors", len(model.StateDict()))
	return nil
}

func (a *app) exportVocab(_ context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	out := cfg.VocabPath
	if cmd.IsSet("out") {
		out = cmd.String("out")
	}
	size := cfg.VocabLength
	if cmd.IsSet("size") {
		size = cmd.Int("size")
	}

	f, err := os.Open(cmd.String("corpus"))
	if err != nil {
		return errors.Wrap(err, "opening corpus")
	}
	defer f.Close()

	counts, err := IO.NewTokenizer(params.Vocabulary{}).CountStems(f)
	if err != nil {
		return err
	}
	vocab, err := IO.BuildVocab(counts, size)
	if err != nil {
		return err
	}
	if err := IO.ExportVocabJSON(out, vocab); err != nil {
		return err
	}
	logger.Info("vocabulary written",
		"path", out,
		"distinct_stems", len(counts),
		"size", IO.VocabSize(vocab))
	return nil
}
