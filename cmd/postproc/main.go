package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/postproc/internal/analysis"
	"github.com/san-kum/postproc/internal/config"
	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/logging"
	"github.com/san-kum/postproc/internal/rawdata"
	"github.com/san-kum/postproc/internal/rawdata/md"
	"github.com/san-kum/postproc/internal/rawdata/openfoam"
	"github.com/san-kum/postproc/internal/registry"
	"github.com/san-kum/postproc/internal/storage"
	"github.com/san-kum/postproc/internal/viz"
)

var (
	dataDir    string
	configFile string
	verbose    int

	// field selection
	resultsDir string
	format     string
	fieldName  string
	dtype      string
	perBin     int
	columns    []string
	startRec   int
	endRec     int
	bins       string
	missing    string

	// reductions
	axis      int
	comp      int
	divideBy  string
	perVolume bool
	magnitude bool

	// output
	outPath   string
	exportTo  string
	perRecord bool
	dryRun    bool
)

var logger = logging.Default()

func main() {
	rootCmd := &cobra.Command{
		Use:           "postproc",
		Short:         "read binned simulation output",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".postproc", "storage directory for saved extractions")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "read config file (yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "log more (-v info)")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "describe a field: grid, components and records",
		RunE:  showInfo,
	}
	readCmd := &cobra.Command{
		Use:   "read",
		Short: "read records and print per-component statistics",
		RunE:  readField,
	}
	volumesCmd := &cobra.Command{
		Use:   "volumes",
		Short: "print bin volumes",
		RunE:  showVolumes,
	}
	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot a spatial profile",
		RunE:  plotProfile,
	}
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "time series and power spectrum of the spatial mean",
		RunE:  analyzeField,
	}
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "export records to netcdf, csv, json or an svg profile",
		RunE:  exportField,
	}
	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "write records as MD bin files",
		RunE:  writeField,
	}
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "save records to the storage directory",
		RunE:  saveField,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved extractions",
		RunE:  listSaved,
	}
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list MD field presets",
		RunE:  listPresets,
	}
	loadCmd := &cobra.Command{
		Use:   "load <id>",
		Short: "describe a saved extraction and summarise its records",
		Args:  cobra.ExactArgs(1),
		RunE:  loadSaved,
	}
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "list the readable fields of a results directory",
		RunE:  scanDir,
	}

	for _, c := range []*cobra.Command{infoCmd, readCmd, volumesCmd, plotCmd, analyzeCmd, exportCmd, writeCmd, saveCmd, scanCmd} {
		addSourceFlags(c)
	}
	for _, c := range []*cobra.Command{readCmd, volumesCmd, plotCmd, analyzeCmd, exportCmd, writeCmd, saveCmd} {
		addSelectionFlags(c)
	}
	for _, c := range []*cobra.Command{plotCmd, analyzeCmd, exportCmd} {
		c.Flags().IntVar(&comp, "comp", 0, "component")
	}
	for _, c := range []*cobra.Command{readCmd, plotCmd, analyzeCmd, exportCmd} {
		c.Flags().StringVar(&divideBy, "divide-by", "", "divide by a one-component field read over the same records and bins (e.g. mbins)")
		c.Flags().BoolVar(&perVolume, "per-volume", false, "divide by bin volume")
		c.Flags().BoolVar(&magnitude, "magnitude", false, "replace the components by their norm")
	}
	for _, c := range []*cobra.Command{plotCmd, exportCmd} {
		c.Flags().IntVar(&axis, "axis", 1, "profile axis (0 x, 1 y, 2 z)")
	}
	exportCmd.Flags().StringVar(&exportTo, "to", "netcdf", "netcdf, csv, json or svg")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file")
	_ = exportCmd.MarkFlagRequired("out")
	writeCmd.Flags().StringVarP(&outPath, "out", "o", "", "output results directory")
	writeCmd.Flags().BoolVar(&perRecord, "per-record", false, "write one file per record")
	writeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the files without writing")
	_ = writeCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(infoCmd, readCmd, volumesCmd, plotCmd, analyzeCmd, exportCmd, writeCmd, saveCmd, listCmd, loadCmd, presetsCmd, scanCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusError.Render("error:"), err)
		os.Exit(1)
	}
}

func addSourceFlags(c *cobra.Command) {
	c.Flags().StringVarP(&resultsDir, "dir", "d", config.DefaultDir, "results directory")
	c.Flags().StringVarP(&format, "format", "f", config.DefaultFormat, "md, vtk, openfoam or lammps")
	c.Flags().StringVar(&fieldName, "field", config.DefaultField, "field (file base name)")
	c.Flags().StringVar(&dtype, "dtype", "", "MD data type (int32, float64, ...)")
	c.Flags().IntVar(&perBin, "per-bin", 0, "MD values per bin")
	c.Flags().StringSliceVar(&columns, "columns", nil, "LAMMPS chunk columns")
}

func addSelectionFlags(c *cobra.Command) {
	c.Flags().IntVar(&startRec, "start", 0, "first record")
	c.Flags().IntVar(&endRec, "end", -1, "last record (-1 = last available)")
	c.Flags().StringVar(&bins, "bins", "", "bin limits lo:hi,lo:hi,lo:hi (':' keeps an axis)")
	c.Flags().StringVar(&missing, "missing", config.DefaultMissing, "raise, returnzeros or skip")
}

// loadConfig merges the config file with the flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = resultsDir
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("field") {
		cfg.Field = fieldName
	}
	if flags.Changed("dtype") {
		cfg.DType = dtype
	}
	if flags.Changed("per-bin") {
		cfg.PerBin = perBin
	}
	if flags.Changed("columns") {
		cfg.Columns = columns
	}
	if flags.Changed("start") {
		cfg.StartRec = startRec
	}
	if flags.Changed("end") {
		cfg.EndRec = endRec
	}
	if flags.Changed("bins") {
		b, err := parseBins(bins)
		if err != nil {
			return nil, err
		}
		cfg.BinLimits = b
	}
	if flags.Changed("missing") {
		cfg.MissingRec = missing
	}
	// the chunk file name is looked up in log.lammps unless given
	if cfg.Format == "lammps" && !flags.Changed("field") && cfg.Field == config.DefaultField {
		cfg.Field = ""
	}
	if cfg.Format == "md" {
		cfg.ApplyPreset()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	if verbose > 0 {
		level = logging.LevelWarn + logging.Level(verbose)
	}
	logger.SetLevel(level)
	return cfg, nil
}

// parseBins reads "lo:hi,lo:hi,lo:hi"; an axis given as ":" is not restricted.
func parseBins(s string) ([][]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("bins %q: need three comma separated axes", s)
	}
	out := make([][]int, 3)
	for ax, p := range parts {
		p = strings.TrimSpace(p)
		if p == ":" || p == "" {
			continue
		}
		lo, hi, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("bins %q: axis %d is not lo:hi", s, ax)
		}
		l, err1 := strconv.Atoi(lo)
		h, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("bins %q: axis %d is not lo:hi", s, ax)
		}
		out[ax] = []int{l, h}
	}
	return out, nil
}

func openSource(cfg *config.Config) (rawdata.Backend, error) {
	return openSourceFrom(registry.SourceFromConfig(cfg))
}

func openSourceFrom(src registry.Source) (rawdata.Backend, error) {
	return registry.NewRegistry().Open(src)
}

type selection struct {
	cfg     *config.Config
	backend rawdata.Backend
	limits  grid.BinLimits
	start   int
	end     int
	data    *field.Array
}

func readSelection(cmd *cobra.Command) (*selection, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	b, err := openSource(cfg)
	if err != nil {
		return nil, err
	}
	limits, _ := cfg.Limits()
	policy, _ := cfg.Missing()
	sel := &selection{cfg: cfg, backend: b, limits: limits, start: cfg.StartRec, end: cfg.EndFor(b.MaxRec())}
	if sel.data, err = b.Read(sel.start, sel.end, limits, policy); err != nil {
		return nil, err
	}

	d := derived{magnitude: magnitude}
	if divideBy != "" {
		src := registry.SourceFromConfig(cfg)
		src.DType, src.PerBin = "", 0
		if cfg.Format == "lammps" {
			src.Columns = []string{divideBy}
		} else {
			src.Field = divideBy
		}
		db, err := openSourceFrom(src)
		if err != nil {
			return nil, err
		}
		if d.divideBy, err = db.Read(sel.start, sel.end, limits, policy); err != nil {
			return nil, err
		}
	}
	if perVolume {
		if d.volumes, err = b.Volumes(limits); err != nil {
			return nil, err
		}
	}
	if sel.data, err = d.apply(sel.data); err != nil {
		return nil, err
	}
	return sel, nil
}

func plotFreq(b rawdata.Backend) int {
	if p, ok := b.(interface{ PlotFreq() int }); ok {
		return p.PlotFreq()
	}
	return 0
}

func showInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := openSource(cfg)
	if err != nil {
		return err
	}
	top := b.Topology()
	layout := b.Layout()
	fields := []viz.Field{
		viz.F("format", cfg.Format),
		viz.F("directory", cfg.Dir),
		viz.F("grid", top.System()),
		viz.F("bins", top.Counts()),
		viz.F("bin size", top.Sizes()),
		viz.F("extent", top.Extent()),
		viz.F("components", b.Components()),
		viz.F("layout", layout.Mode),
		viz.F("records", b.MaxRec()+1),
	}
	if f := plotFreq(b); f > 0 {
		fields = append(fields, viz.F("plot frequency", f))
	}
	if top.System() == grid.CylindricalPolar {
		fields = append(fields, viz.F("inner radius", top.InnerRadius()))
	}
	if r, ok := b.(*openfoam.Reader); ok {
		fields = append(fields, viz.F("nu", r.Nu()))
	}
	name := cfg.Field
	if name == "" {
		name = layout.Base
	}
	fmt.Println(viz.KeyValues(name, fields))
	return nil
}

func readField(cmd *cobra.Command, args []string) error {
	sel, err := readSelection(cmd)
	if err != nil {
		return err
	}
	a := sel.data
	requested := sel.end - sel.start + 1
	fmt.Printf("%s: records %d..%d, shape %v\n", sel.cfg.Field, sel.start, sel.end, a.Shape())
	fmt.Printf("read %d of %d %s\n\n", a.NumRecords(), requested,
		viz.ProgressBar(float64(a.NumRecords())/float64(requested), 30))
	return printSummary(a)
}

func printSummary(a *field.Array) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMP\tMIN\tMAX\tMEAN\tSTDDEV")
	for c := 0; c < a.NumComponents(); c++ {
		s, err := analysis.Summarize(a, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%.6g\t%.6g\t%.6g\t%.6g\n", c, s.Min, s.Max, s.Mean, s.StdDev)
	}
	return w.Flush()
}

func showVolumes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := openSource(cfg)
	if err != nil {
		return err
	}
	limits, _ := cfg.Limits()
	v, err := b.Volumes(limits)
	if err != nil {
		return err
	}
	fmt.Println(viz.KeyValues("bin volumes", []viz.Field{
		viz.F("bins", v.Shape[:3]),
		viz.F("limits", limits),
		viz.F("total", floats.Sum(v.Elements)),
		viz.F("min", floats.Min(v.Elements)),
		viz.F("max", floats.Max(v.Elements)),
	}))
	return nil
}

func plotProfile(cmd *cobra.Command, args []string) error {
	sel, err := readSelection(cmd)
	if err != nil {
		return err
	}
	prof, err := analysis.Profile(sel.data, axis, comp)
	if err != nil {
		return err
	}
	graph := asciigraph.Plot(prof,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s component %d along axis %d, records %d..%d", sel.cfg.Field, comp, axis, sel.start, sel.end)),
	)
	fmt.Println(graph)
	return nil
}

func analyzeField(cmd *cobra.Command, args []string) error {
	sel, err := readSelection(cmd)
	if err != nil {
		return err
	}
	ts, err := analysis.TimeSeries(sel.data, comp)
	if err != nil {
		return err
	}
	if len(ts) < 2 {
		return fmt.Errorf("need at least two records, got %d", len(ts))
	}
	fmt.Println(asciigraph.Plot(ts,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("spatial mean of component %d", comp)),
	))

	ps := analysis.PowerSpectrum(ts)
	freqs := analysis.Frequencies(len(ts), plotFreq(sel.backend))
	peak := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[peak] {
			peak = i
		}
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(ps,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum"),
	))
	if freqs != nil && peak < len(freqs) {
		fmt.Printf("\ndominant frequency: %.4g per step (bin %d)\n", freqs[peak], peak)
	} else if len(ps) > 1 {
		fmt.Printf("\ndominant bin: %d\n", peak)
	}
	return nil
}

func exportField(cmd *cobra.Command, args []string) error {
	sel, err := readSelection(cmd)
	if err != nil {
		return err
	}
	if err := exportSelection(sel, exportTo, outPath); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", sel.cfg.Field, outPath)
	return nil
}

func writeField(cmd *cobra.Command, args []string) error {
	sel, err := readSelection(cmd)
	if err != nil {
		return err
	}
	dt := md.Float64
	if sel.cfg.Format == "md" {
		if dt, err = md.ParseDType(sel.cfg.DType); err != nil {
			return err
		}
	}
	if !dryRun {
		if err := os.MkdirAll(outPath, 0755); err != nil {
			return err
		}
		h, err := md.NewHeader(sel.backend.Topology(), sel.limits, plotFreq(sel.backend))
		if err != nil {
			return err
		}
		if err := h.Write(outPath); err != nil {
			return err
		}
	}
	name := sel.cfg.Field
	if name == "" {
		name = filepath.Base(sel.backend.Layout().Base)
	}
	if recs := sel.data.Records(); !contiguous(recs, 0) {
		logger.Warnf("write: source records %v are written as records 0..%d", recs, len(recs)-1)
	}
	paths, err := md.Write(outPath, name, sel.data, 0, -1, md.WriteOptions{PerRecord: perRecord, DType: dt, DryRun: dryRun})
	for _, p := range paths {
		fmt.Println(p)
	}
	return err
}

func saveField(cmd *cobra.Command, args []string) error {
	sel, err := readSelection(cmd)
	if err != nil {
		return err
	}
	name := sel.cfg.Field
	if name == "" {
		name = strings.Join(sel.cfg.Columns, "_")
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(storage.Extraction{
		Source:     sel.cfg.Dir,
		Format:     sel.cfg.Format,
		Field:      sanitize(name),
		Components: sel.backend.Components().String(),
		Missing:    sel.cfg.MissingRec,
		PlotFreq:   plotFreq(sel.backend),
	}, sel.backend.Topology(), sel.limits, sel.data)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s\n", id)
	return nil
}

// sanitize makes a column list or path usable as a file name.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, s)
}

func listSaved(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no saved extractions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFORMAT\tFIELD\tTIME\tSHAPE\tRECORDS\tBINS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%d\t%s\n",
			run.ID,
			run.Format,
			run.Field,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Shape,
			len(run.Records),
			run.BinLimits,
		)
	}
	return w.Flush()
}

func loadSaved(cmd *cobra.Command, args []string) error {
	r, meta, err := storage.New(dataDir).Open(args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.KeyValues(meta.ID, []viz.Field{
		viz.F("source", meta.Source),
		viz.F("format", meta.Format),
		viz.F("field", meta.Field),
		viz.F("saved", meta.Timestamp.Format("2006-01-02 15:04:05")),
		viz.F("bins", r.Topology().Counts()),
		viz.F("bin limits", meta.BinLimits),
		viz.F("components", meta.Components),
		viz.F("source records", meta.Records),
	}))
	if r.MaxRec() < 0 {
		return nil
	}
	a, err := r.Read(0, r.MaxRec(), nil, rawdata.Raise)
	if err != nil {
		return err
	}
	if err := a.SetRecords(meta.Records); err != nil {
		return err
	}
	return printSummary(a)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tDTYPE\tPER BIN\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, p.DType, p.PerBin, p.Description)
	}
	return w.Flush()
}

func scanDir(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	candidates, err := registry.Candidates(cfg.Format, cfg.Dir)
	if err != nil {
		return err
	}
	found, err := registry.NewRegistry().Scan(candidates)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Printf("no readable %s fields in %s\n", cfg.Format, cfg.Dir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tBINS\tCOMPONENTS\tLAYOUT\tRECORDS")
	for _, f := range found {
		b := f.Backend
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%d\n", f.Source, b.Topology().Counts(), b.Components(), b.Layout().Mode, b.MaxRec()+1)
	}
	return w.Flush()
}
