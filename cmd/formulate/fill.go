package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/goliatone/go-formulate/pkg/controller"
	"github.com/goliatone/go-formulate/pkg/events"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/renderers/tui"
	"github.com/goliatone/go-formulate/pkg/submission"
)

func runFill(ctx context.Context, args []string, stdout io.Writer) error {
	return fill(ctx, args, stdout, tui.NewSurveyDriver(stdout))
}

func fill(ctx context.Context, args []string, stdout io.Writer, driver tui.PromptDriver) error {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	var shared common
	shared.register(fs)
	formPath := fs.String("form", "", "form definition file (JSON or YAML)")
	url := fs.String("url", "", "override the definition's submission URL")
	attempts := fs.Int("attempts", 0, "stop after this many invalid attempts (0 asks each time)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *formPath == "" {
		return fmt.Errorf("-form is required")
	}

	cfg, logger, err := shared.load()
	if err != nil {
		return err
	}
	texts, err := loadTexts(cfg)
	if err != nil {
		return err
	}
	def, err := model.LoadFile(*formPath)
	if err != nil {
		return err
	}
	if *url != "" {
		def.URL = *url
	}

	bus := events.NewBus()
	var outcome error
	bus.Subscribe(events.SubmitOK, func(_ context.Context, e *events.Event) {
		ok := e.Payload.(controller.SubmitOK)
		fmt.Fprintf(stdout, "Submitted %s.\n", ok.Name)
	})
	bus.Subscribe(events.SubmitFailed, func(_ context.Context, e *events.Event) {
		failed := e.Payload.(controller.SubmitFailed)
		outcome = fmt.Errorf("submission failed: %s", failed.Message)
	})

	poster := submission.NewClient(
		submission.WithHTTPClient(submission.NewHTTPClient(cfg.Submit.Timeout)),
		submission.WithLogger(logger),
	)
	ctrl := controller.New(def,
		controller.WithBus(bus),
		controller.WithPoster(poster),
		controller.WithLogger(logger),
	)
	defer ctrl.Close()
	if err := ctrl.Attach(); err != nil {
		return err
	}

	filler := tui.New(
		tui.WithPromptDriver(driver),
		tui.WithTranslator(shared.locale, texts),
		tui.WithMaxAttempts(*attempts),
		tui.WithTheme(tui.Theme{ErrorPrefix: "✗ "}),
		tui.WithLogger(logger),
	)
	if err := filler.Run(ctx, ctrl); err != nil {
		return err
	}
	return outcome
}
