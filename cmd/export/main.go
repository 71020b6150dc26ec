// Command export renders a résumé template to HTML, PNG or PDF without the
// server. The document comes from the configured storage slot, a JSON file or
// the built-in sample.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"go.uber.org/zap"

	repo "github.com/junsantilla/cvalley/internal/adapter/repository"
	"github.com/junsantilla/cvalley/internal/config"
	"github.com/junsantilla/cvalley/internal/logger"
	"github.com/junsantilla/cvalley/internal/model"
	"github.com/junsantilla/cvalley/internal/render"
	"github.com/junsantilla/cvalley/internal/store"
	"github.com/junsantilla/cvalley/internal/usecase"
	infra "github.com/junsantilla/cvalley/pkg/infrastructure"
)

func main() {
	var (
		templateID = pflag.StringP("template", "t", "professional", "template id")
		format     = pflag.StringP("format", "f", "pdf", "html, png or pdf")
		in         = pflag.StringP("in", "i", "", "read the document from this JSON file")
		sample     = pflag.Bool("sample", false, "export the sample document")
		outDir     = pflag.StringP("out", "o", ".", "output directory")
		name       = pflag.StringP("name", "n", "", "output file name")
		list       = pflag.Bool("list", false, "list templates and exit")
	)
	pflag.Parse()

	if *list {
		for _, info := range render.All() {
			fmt.Printf("%-14s %-12s %s\n", info.ID, info.Category, info.Title)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	lg := logger.New(cfg)
	defer lg.Sync()

	doc, err := loadDocument(cfg, *in, *sample, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load document: %v\n", err)
		os.Exit(2)
	}

	v, err := render.Lookup(*templateID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	vd, err := v.Render(&doc, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create out: %v\n", err)
		os.Exit(2)
	}
	sink := usecase.NewDirSink(zfilesystem.NewOSFileSystem(*outDir))
	ctx := context.Background()

	switch strings.ToLower(*format) {
	case "html":
		fileName := *name
		if fileName == "" {
			fileName = cfg.Export.BaseName + ".html"
		}
		out := usecase.Output{FileName: fileName, ContentType: "text/html", Data: []byte(vd.HTML)}
		if err := sink.Deliver(ctx, out); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", filepath.Join(*outDir, fileName))
		return
	case "png", "pdf":
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(2)
	}

	renderer := infra.NewChromedpRenderer(infra.ChromeOptions{
		ExecPath: cfg.Chrome.Path,
		Scale:    cfg.Export.Scale,
		Timeout:  cfg.Export.Timeout,
	}, lg)
	exporter := usecase.NewExporter(renderer, renderer, repo.NewExportsRepo(1), lg,
		usecase.WithBaseName(cfg.Export.BaseName),
		usecase.WithTimeout(cfg.Export.Timeout))

	req := usecase.Request{TemplateID: v.ID(), HTML: vd.HTML, ElementID: render.CaptureElementID, FileName: *name}
	export := exporter.ExportAsPdf
	if strings.EqualFold(*format, "png") {
		export = exporter.ExportAsImage
	}
	job, err := export(ctx, req, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", filepath.Join(*outDir, job.FileName), job.Size)
}

// loadDocument decodes --in the way the server decodes its slot, migrating
// older layouts in memory only; the input file is never rewritten.
func loadDocument(cfg *config.Config, in string, sample bool, lg *zap.Logger) (model.ResumeDocument, error) {
	if sample {
		return model.Sample(), nil
	}
	if in != "" {
		b, err := os.ReadFile(in)
		if err != nil {
			return model.ResumeDocument{}, err
		}
		doc, err := store.Decode(b, lg)
		if err != nil {
			return model.ResumeDocument{}, fmt.Errorf("%s: %w", in, err)
		}
		return doc, nil
	}
	st := store.Open(zfilesystem.NewOSFileSystem(cfg.Storage.Dir), lg, store.WithKey(cfg.Storage.Key))
	if !st.Available() {
		return model.ResumeDocument{}, fmt.Errorf("storage in %s is unavailable", cfg.Storage.Dir)
	}
	return st.Get(), nil
}
