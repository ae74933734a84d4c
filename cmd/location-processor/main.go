package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	locationprocessor "github.com/menta2k/location-processor"
	"github.com/menta2k/location-processor/internal/config"
	"github.com/menta2k/location-processor/internal/logging"
	"github.com/menta2k/location-processor/internal/store"
	"github.com/menta2k/location-processor/internal/utils"
	"github.com/menta2k/location-processor/pkg/annotation"
	"github.com/menta2k/location-processor/pkg/client"
	"github.com/menta2k/location-processor/pkg/llamacpp"
	"github.com/menta2k/location-processor/pkg/ollama"
	"github.com/menta2k/location-processor/pkg/processing"
	"github.com/menta2k/location-processor/pkg/suggest"
	"github.com/menta2k/location-processor/pkg/surface"
	"github.com/menta2k/location-processor/pkg/types"
)

type options struct {
	in, fields, result, outDir string
	key, mode, dbPath          string
	maxW, maxH                 int
	lineWidth                  float64
	useSpace, overlay, crops   bool

	suggest             bool
	backend, url, model string
	logLevel, logFile   string
}

func main() {
	cfgPath := os.Getenv("LP_CONFIG")
	if cfgPath == "" {
		cfgPath = config.GetConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var o options
	flag.StringVar(&o.in, "in", "", "input image path, URL or directory (jpg/png/webp)")
	flag.StringVar(&o.fields, "fields", "", "JSON file with the field definitions")
	flag.StringVar(&o.result, "result", "", "JSON file with the drawing surface entries to merge")
	flag.StringVar(&o.outDir, "out", cfg.Output.OutputDir, "output directory")
	flag.StringVar(&o.key, "key", "", "widget key (defaults to the image file name)")
	flag.StringVar(&o.mode, "mode", "auto", "field set mode: auto|fresh|annotated")
	flag.IntVar(&o.maxW, "max-width", cfg.Display.MaxWidth, "maximum display width (px)")
	flag.IntVar(&o.maxH, "max-height", cfg.Display.MaxHeight, "maximum display height (px)")
	flag.Float64Var(&o.lineWidth, "line-width", cfg.Display.LineWidth, "rectangle stroke width")
	flag.BoolVar(&o.useSpace, "use-space", cfg.Display.UseSpace, "finish with the space bar")
	flag.BoolVar(&o.overlay, "overlay", false, "write a preview with every box drawn")
	flag.BoolVar(&o.crops, "crops", false, "write one crop per annotated field")
	flag.StringVar(&o.dbPath, "db", cfg.Store.Path, "sqlite file keeping per-image fields between runs")

	flag.BoolVar(&o.suggest, "suggest", false, "pre-annotate missing boxes with a vision model")
	flag.StringVar(&o.backend, "backend", cfg.Suggest.Backend, "backend to use: ollama or llamacpp")
	flag.StringVar(&o.url, "url", cfg.Suggest.URL, "vision server URL")
	flag.StringVar(&o.model, "model", cfg.Suggest.Model, "model name")

	flag.StringVar(&o.logLevel, "log-level", cfg.Log.Level, "log level")
	flag.StringVar(&o.logFile, "log-file", cfg.Log.File, "also log to this rotating file")
	flag.Parse()

	log, err := logging.New(logging.Options{Level: o.logLevel, File: o.logFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	if o.in == "" {
		log.Fatalf("usage: %s -in image|URL|dir [-fields fields.json] [-result entries.json] [-out outdir] [-mode auto|fresh|annotated] [-suggest -backend ollama|llamacpp]", filepath.Base(os.Args[0]))
	}
	if err := run(context.Background(), cfg, o, log); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, o options, log *logrus.Logger) error {
	if err := utils.EnsureDir(o.outDir); err != nil {
		return err
	}

	mode, err := types.ParseMode(o.mode)
	if err != nil {
		return err
	}

	defaults := types.FieldSet{}
	if o.fields != "" {
		data, err := os.ReadFile(o.fields)
		if err != nil {
			return fmt.Errorf("failed to read fields: %w", err)
		}
		if defaults, err = types.ParseFieldSet(data); err != nil {
			return err
		}
	}

	state := annotation.NewState()
	var db *store.Store
	if o.dbPath != "" {
		if db, err = store.Open(o.dbPath); err != nil {
			return err
		}
		defer db.Close()
		if state, err = db.LoadState(ctx); err != nil {
			return err
		}
		log.WithField("images", state.Len()).Info("loaded annotation state")
	}

	var surf surface.Surface = surface.Static{Response: surface.Pending}
	if o.result != "" {
		data, err := os.ReadFile(o.result)
		if err != nil {
			return fmt.Errorf("failed to read result: %w", err)
		}
		var entries []surface.Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
		surf = surface.Static{Response: surface.Finished(entries)}
	}

	var suggester *suggest.Suggester
	if o.suggest {
		vc, err := newVisionClient(o.backend, o.url)
		if err != nil {
			return err
		}
		suggester = suggest.NewWithConfig(vc, suggest.Config{
			SendFormat:    cfg.Suggest.SendFormat,
			SendSize:      cfg.Suggest.SendSize,
			SendQuality:   cfg.Suggest.SendQuality,
			MinConfidence: cfg.Suggest.MinConfidence,
		})
		suggester.SetLogger(log)
	}

	inputs := []string{o.in}
	if !utils.IsURL(o.in) && utils.DirExists(o.in) {
		if inputs, err = utils.ListImageFiles(o.in); err != nil {
			return err
		}
		if o.key != "" || o.result != "" {
			return fmt.Errorf("-key and -result need a single input image")
		}
	}

	p := locationprocessor.NewWithConfig(processing.Config{DefaultQuality: cfg.Display.Quality}, log)
	opts := locationprocessor.Options{
		MaxWidth:  o.maxW,
		MaxHeight: o.maxH,
		LineWidth: o.lineWidth,
		UseSpace:  o.useSpace,
		Mode:      mode,
		Format:    cfg.Display.Format,
		Quality:   cfg.Display.Quality,
	}

	for _, in := range inputs {
		opts.Key = o.key
		if opts.Key == "" {
			opts.Key = utils.SanitizeFilename(filepath.Base(in))
		}
		fields, err := processImage(ctx, p, suggester, in, state.GetOr(opts.Key, defaults), opts, surf, o, cfg, log)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		state = state.With(opts.Key, fields)
		if db != nil {
			if err := db.Save(ctx, opts.Key, fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func processImage(ctx context.Context, p *locationprocessor.Processor, suggester *suggest.Suggester, in string, fields types.FieldSet, opts locationprocessor.Options, surf surface.Surface, o options, cfg *config.Config, log *logrus.Logger) (types.FieldSet, error) {
	img, err := p.LoadImage(in)
	if err != nil {
		return types.FieldSet{}, err
	}

	if suggester != nil {
		if fields, err = suggester.Suggest(ctx, o.model, img, fields); err != nil {
			return types.FieldSet{}, err
		}
	}

	prep, err := p.PrepareImage(img, fields, opts)
	if err != nil {
		return types.FieldSet{}, err
	}
	log.Printf("key=%q original=%s display=%s scale=%.4f mode=%s boxes=%d",
		prep.Key, prep.Original, prep.Resized, float64(prep.Scale), prep.Mode, len(prep.Request.BBoxInfo))

	base := filepath.Join(o.outDir, prep.Key)
	if err := utils.EnsureDir(base); err != nil {
		return types.FieldSet{}, err
	}

	displayPath := filepath.Join(base, "display."+prep.Display.Format)
	if err := os.WriteFile(displayPath, prep.Display.Data, 0o644); err != nil {
		return types.FieldSet{}, err
	}
	if err := writeJSON(filepath.Join(base, "request.json"), prep.Request); err != nil {
		return types.FieldSet{}, err
	}

	resp, err := surf.Render(ctx, prep.Request)
	if err != nil {
		return types.FieldSet{}, err
	}
	merged, done, err := p.Finalize(prep, resp)
	if err != nil {
		return types.FieldSet{}, err
	}
	if !done {
		log.Printf("no drawing surface result for %q; wrote %s", prep.Key, displayPath)
	}

	data, err := merged.MarshalJSON()
	if err != nil {
		return types.FieldSet{}, err
	}
	fieldsPath := filepath.Join(base, "fields.json")
	if err := os.WriteFile(fieldsPath, data, 0o644); err != nil {
		return types.FieldSet{}, err
	}
	log.Printf("wrote %s", fieldsPath)

	if o.overlay {
		overlayPath := utils.GenerateOutputFilename(in, base, "", cfg.Output.Suffix, "png")
		if err := p.SaveImage(p.Overlay(img, merged, 0), overlayPath, "png"); err != nil {
			log.Printf("overlay save failed: %v", err)
		} else {
			log.Printf("wrote %s", overlayPath)
		}
	}

	if o.crops {
		if err := writeCrops(p, img, merged, base, log); err != nil {
			log.Printf("crops failed: %v", err)
		}
	}
	return merged, nil
}

func writeCrops(p *locationprocessor.Processor, img image.Image, fields types.FieldSet, dir string, log *logrus.Logger) error {
	crops, err := p.Crops(img, fields)
	if err != nil {
		return err
	}
	for i, c := range crops {
		path := filepath.Join(dir, fmt.Sprintf("%03d_%s.png", i+1, utils.SanitizeFilename(strings.ToLower(c.Name))))
		if err := p.SaveImage(c.Image, path, "png"); err != nil {
			log.Printf("save %s failed: %v", path, err)
			continue
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func newVisionClient(backend, url string) (client.VisionClient, error) {
	switch backend {
	case "ollama":
		if url == "" {
			url = "http://localhost:11434/api/chat"
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		if url == "" {
			url = "http://localhost:8080"
		}
		c, err := llamacpp.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", backend)
	}
}

func writeJSON(path string, v any) error {
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, js, 0o644)
}
