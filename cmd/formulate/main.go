package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formulate/internal/config"
	"github.com/goliatone/go-formulate/internal/logging"
	"github.com/goliatone/go-formulate/pkg/localize"
	"github.com/goliatone/go-formulate/pkg/model"
	"github.com/goliatone/go-formulate/pkg/orchestrator"
	"github.com/goliatone/go-formulate/pkg/render"
)

const usage = `Usage: formulate <command> [flags]

Commands:
  render    render a form definition to HTML
  fill      fill a form in the terminal and submit it
  serve     run the submission receiver
  localize  resolve a category label

Run "formulate <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	args := os.Args[2:]

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(ctx, args, os.Stdout)
	case "fill":
		err = runFill(ctx, args, os.Stdout)
	case "serve":
		err = runServe(ctx, args)
	case "localize":
		err = runLocalize(args, os.Stdout)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "formulate %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// common holds the flags shared by every command.
type common struct {
	configPath string
	localesDir string
	locale     string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file (FORMULATE_* env vars also apply)")
	fs.StringVar(&c.localesDir, "locales", "", "directory of locale YAML files (overrides config)")
	fs.StringVar(&c.locale, "locale", "", "locale used for labels")
}

func (c *common) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.localesDir != "" {
		cfg.Locales.Dir = c.localesDir
	}
	return cfg, logging.NewWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr), nil
}

func loadTexts(cfg *config.Config) (*localize.TextService, error) {
	texts := localize.NewTextService(localize.TextServiceConfig{DefaultLang: cfg.Locales.Default})
	if cfg.Locales.Dir == "" {
		return texts, nil
	}
	if err := texts.LoadFS(os.DirFS(cfg.Locales.Dir)); err != nil {
		return nil, err
	}
	return texts, nil
}

func runRender(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var shared common
	shared.register(fs)
	formPath := fs.String("form", "", "form definition file (JSON or YAML)")
	rendererName := fs.String("renderer", "", "renderer to use (default html)")
	formName := fs.String("name", "form1", "form name attribute")
	output := fs.String("output", "", "output file (stdout if empty)")
	presetPath := fs.String("preset", "", "JSON preset applied before rendering")
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

	var options []orchestrator.Option
	if *presetPath != "" {
		preset, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(filepath.Dir(*presetPath)), filepath.Base(*presetPath))
		if err != nil {
			return err
		}
		options = append(options, orchestrator.WithTransformers(preset))
	}

	out, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Definition: &def,
		Renderer:   *rendererName,
		RenderOptions: render.RenderOptions{
			FormName:   *formName,
			Locale:     shared.locale,
			Translator: texts,
		},
	})
	if err != nil {
		return err
	}

	if *output == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(*output, out, 0o644); err != nil {
		return err
	}
	logger.WithField("path", *output).Info("form written")
	return nil
}

func runLocalize(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("localize", flag.ExitOnError)
	var shared common
	shared.register(fs)
	category := fs.String("category", string(localize.CategoryDataValueName), "label category: "+categoryList())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("at least one name is required")
	}

	cfg, _, err := shared.load()
	if err != nil {
		return err
	}
	texts, err := loadTexts(cfg)
	if err != nil {
		return err
	}

	labels := localize.New(texts.Locale(shared.locale))
	for _, name := range fs.Args() {
		if _, err := fmt.Fprintf(stdout, "%s\t%s\n", localize.Key(localize.Category(*category), name), labels.Name(localize.Category(*category), name)); err != nil {
			return err
		}
	}
	return nil
}

func categoryList() string {
	names := make([]string, 0, len(localize.Categories()))
	for _, c := range localize.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
