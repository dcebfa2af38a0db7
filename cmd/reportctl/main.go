// reportctl composes reports from the command line, without a server.
// Point it at a layout file and an artifact source (a bundle directory, a
// sqlite database, or a remote artifact service) and it writes the rendered
// outputs to disk.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/reportforge/internal/compose"
	"github.com/dgallion1/reportforge/internal/layout"
	"github.com/dgallion1/reportforge/internal/render"
	"github.com/dgallion1/reportforge/internal/store"
)

var (
	bundleDir  string
	dbPath     string
	assetURL   string
	assetToken string
	outDir     string
	formatArgs []string
	titleFlag  string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "Compose hierarchical reports from named artifacts",
	Long: `reportctl builds reports without the reportforge server: it loads a
layout file, fetches the artifacts the layout references, and writes the
rendered outputs to disk.

Artifact sources:
  --bundle DIR     directory holding a manifest.yaml plus artifact files
  --db PATH        sqlite artifact database
  --asset-url URL  remote artifact service (with --asset-token)`,
}

var composeCmd = &cobra.Command{
	Use:   "compose LAYOUT",
	Short: "Render a report from a layout file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompose,
}

var validateCmd = &cobra.Command{
	Use:   "validate LAYOUT...",
	Short: "Check layout files without rendering anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect LAYOUT",
	Short: "Print the composed block outline without rendering",
	Long: `inspect composes a layout against stub artifacts built from its own
references and prints the resulting outline: headings, labels, and captions.
Stub tables never pair with a chart, so numbering can differ from a real run
when the real artifacts declare pairings.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List the artifacts in a bundle or database",
	RunE:  runArtifacts,
}

func init() {
	composeCmd.Flags().StringVar(&bundleDir, "bundle", "", "artifact bundle directory")
	composeCmd.Flags().StringVar(&dbPath, "db", "", "sqlite artifact database")
	composeCmd.Flags().StringVar(&assetURL, "asset-url", "", "remote artifact service base URL")
	composeCmd.Flags().StringVar(&assetToken, "asset-token", "", "bearer token for the remote artifact service")
	composeCmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory")
	composeCmd.Flags().StringSliceVarP(&formatArgs, "format", "f", []string{"html"}, "output formats (html, docx)")
	composeCmd.Flags().StringVar(&titleFlag, "title", "", "override the layout's report title")
	composeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "artifact fetch timeout")

	artifactsCmd.Flags().StringVar(&bundleDir, "bundle", "", "artifact bundle directory")
	artifactsCmd.Flags().StringVar(&dbPath, "db", "", "sqlite artifact database")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(artifactsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCompose(cmd *cobra.Command, args []string) error {
	def, err := layout.Load(args[0])
	if err != nil {
		return err
	}
	report := def.Report()
	if titleFlag != "" {
		report.Title = titleFlag
	}
	if err := report.Validate(); err != nil {
		return err
	}

	formats, err := render.ParseFormats(formatArgs)
	if err != nil {
		return err
	}

	src, closeSrc, err := openSource()
	if err != nil {
		return err
	}
	defer closeSrc()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	snapshot, err := store.Materialize(ctx, src, report)
	if err != nil {
		return fmt.Errorf("fetch artifacts: %w", err)
	}
	doc, err := compose.Compose(report, snapshot)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	base := def.Name
	if base == "" {
		base = "report"
	}
	for _, format := range formats {
		r, err := render.For(format)
		if err != nil {
			return err
		}
		if d, ok := r.(*render.DOCX); ok {
			d.ImageDir = bundleDir
		}
		var buf bytes.Buffer
		if err := r.Render(doc, &buf); err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		path := filepath.Join(outDir, base+"."+format.Ext())
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, buf.Len())
	}
	fmt.Printf("composed %q: %d blocks\n", doc.Title, len(doc.Blocks))
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		def, err := layout.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		subs := 0
		for _, sec := range def.Sections {
			subs += len(sec.Subsections)
		}
		fmt.Printf("%s: ok (%d sections, %d subsections)\n", path, len(def.Sections), subs)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d layouts failed validation", failed, len(args))
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	def, err := layout.Load(args[0])
	if err != nil {
		return err
	}
	report := def.Report()
	if err := report.Validate(); err != nil {
		return err
	}

	doc, err := compose.Compose(report, stubStore(report))
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d blocks)\n", doc.Title, len(doc.Blocks))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, b := range doc.Blocks {
		switch b.Kind {
		case compose.BlockSectionHeading, compose.BlockSubsectionHeading:
			note := ""
			if b.Heading.PageBreak {
				note = "page break"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Kind, b.Heading.Text, note)
		case compose.BlockParagraph:
			fmt.Fprintf(tw, "%s\t%s\t\n", b.Kind, truncate(b.Paragraph.Text, 48))
		case compose.BlockSingleTable:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Kind, b.Table.Caption, b.Table.Name)
		case compose.BlockSingleChart:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Kind, b.Chart.Caption, b.Chart.Name)
		case compose.BlockPairedTableChart:
			fmt.Fprintf(tw, "%s\t%s / %s\t%s\n", b.Kind, b.Paired.Table.Caption, b.Paired.Chart.Caption, b.Paired.Table.Name)
		case compose.BlockPicture:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Kind, b.Picture.Caption, b.Picture.Image)
		}
	}
	return tw.Flush()
}

// stubStore registers a placeholder artifact for every name the report
// references, letting the outline compose without real artifacts.
func stubStore(report compose.Report) *store.Memory {
	mem := store.NewMemory()
	for _, sec := range report.Sections {
		for _, sub := range sec.Subsections {
			for _, el := range sub.Elements {
				switch el.Type {
				case compose.ElementTable:
					mem.RegisterTable(el.ArtifactName, compose.TableArtifact{Markup: "<table><tr><td></td></tr></table>"})
				case compose.ElementChart:
					mem.RegisterChart(el.ArtifactName, compose.ChartArtifact{Image: el.ArtifactName + ".png"})
				}
			}
		}
	}
	return mem
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func runArtifacts(cmd *cobra.Command, args []string) error {
	var infos []store.ArtifactInfo
	switch {
	case bundleDir != "":
		d, err := store.OpenDir(bundleDir)
		if err != nil {
			return err
		}
		infos = d.List()
	case dbPath != "":
		db, err := store.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		infos, err = db.List(context.Background())
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("an artifact source is required: --bundle or --db")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tCHART\tUPDATED")
	for _, info := range infos {
		chart := ""
		if info.Kind == compose.KindTable && info.HasChart {
			chart = "paired"
		}
		updated := "-"
		if !info.UpdatedAt.IsZero() {
			updated = info.UpdatedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Kind, info.Name, chart, updated)
	}
	return tw.Flush()
}

// openSource picks the artifact backend from the flags, preferring a local
// bundle when several are given.
func openSource() (store.Source, func(), error) {
	switch {
	case bundleDir != "":
		d, err := store.OpenDir(bundleDir)
		if err != nil {
			return nil, nil, err
		}
		return d, func() {}, nil
	case dbPath != "":
		db, err := store.OpenSQLite(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case assetURL != "":
		remote := store.NewRemote(assetURL, assetToken, timeout)
		return remote, remote.Close, nil
	default:
		return nil, nil, fmt.Errorf("an artifact source is required: --bundle, --db, or --asset-url")
	}
}
