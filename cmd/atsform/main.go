package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/atsform/internal/backend"
	"github.com/san-kum/atsform/internal/config"
	"github.com/san-kum/atsform/internal/export"
	"github.com/san-kum/atsform/internal/form"
	"github.com/san-kum/atsform/internal/frontend"
	"github.com/san-kum/atsform/internal/imagecheck"
	"github.com/san-kum/atsform/internal/session"
	"github.com/san-kum/atsform/internal/tui"
	"github.com/san-kum/atsform/internal/viz"
)

var (
	configFile string
	profile    string
	dataDir    string
	sessionID  string
	backendURL string
	driver     string
	timeout    time.Duration
	logLevel   string

	// submit
	overrides []string
	noWait    bool
	checkNext bool
	// check
	htmlDir string
	// export
	exportFormat string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "atsform",
		Short:         "parameter form for the ATS safety simulation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&profile, "profile", "", "use a built-in configuration profile")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir(), "data directory for sessions and logs")
	pf.StringVar(&sessionID, "session", "", "session id (default: the remembered session)")
	pf.StringVar(&backendURL, "backend", config.DefaultBackendURL, "simulation service base URL")
	pf.StringVar(&driver, "driver", config.DefaultDriver, "session storage: memory, file or sqlite")
	pf.DurationVar(&timeout, "timeout", 0, "request timeout (0 waits indefinitely)")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "open the parameter page: restore the last finished run or randomize",
		RunE:  runLoad,
	}

	randomizeCmd := &cobra.Command{
		Use:   "randomize",
		Short: "fill every field with random values",
		RunE:  runRandomize,
	}

	setCmd := &cobra.Command{
		Use:   "set [field] [value] ...",
		Short: "edit stored fields by element id, e.g. fak1_a 0.55",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected field/value pairs")
			}
			return nil
		},
		RunE: runSet,
	}
	// values such as -0.5 are positional, not shorthand flags
	setCmd.Flags().SetInterspersed(false)

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "send the form to /draw_graphics",
		RunE:  runSubmit,
	}
	submitCmd.Flags().StringArrayVar(&overrides, "set", nil, "field=value applied before submitting (repeatable)")
	submitCmd.Flags().BoolVar(&noWait, "no-wait", false, "do not wait for the move to the results page")
	submitCmd.Flags().BoolVar(&checkNext, "check", false, "check the results page after a finished run")

	checkCmd := &cobra.Command{
		Use:       "check [graphic|disturbances|diagrams]",
		Short:     "check that the result charts load",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"graphic", "disturbances", "diagrams"},
		RunE:      runCheck,
	}
	checkCmd.Flags().StringVar(&htmlDir, "html", "", "write the checked pages to this directory")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "delete the charts rendered by the service",
		RunE:  runClear,
	}

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "plot the input disturbances",
		RunE:  runPreview,
	}

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "export the parameters to JSON or xlsx",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "json or xlsx (default: from the file extension)")

	sessionCmd := &cobra.Command{Use: "session", Short: "manage stored sessions"}
	sessionCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "list sessions", RunE: runSessionList},
		&cobra.Command{Use: "end [id]", Short: "end a session and drop its values", Args: cobra.MaximumNArgs(1), RunE: runSessionEnd},
	)

	presetCmd := &cobra.Command{Use: "preset", Short: "coefficient presets"}
	presetCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "list presets", RunE: runPresetList},
		&cobra.Command{Use: "apply [name]", Short: "apply a preset to the stored form", Args: cobra.ExactArgs(1), RunE: runPresetApply},
	)

	configCmd := &cobra.Command{Use: "config", Short: "configuration files"}
	configCmd.AddCommand(
		&cobra.Command{Use: "init [path]", Short: "write the effective configuration", Args: cobra.ExactArgs(1), RunE: runConfigInit},
		&cobra.Command{Use: "profiles", Short: "list built-in profiles", RunE: runConfigProfiles},
	)

	rootCmd.AddCommand(loadCmd, randomizeCmd, setCmd, submitCmd, checkCmd, clearCmd, previewCmd, exportCmd, sessionCmd, presetCmd, configCmd)
	return rootCmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	return tui.Run(e.store, e.client, e.pageOptions())
}

func runLoad(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	st, err := e.newPage(nil).Load()
	if err != nil {
		return err
	}
	printState(st)
	return nil
}

func runRandomize(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	p := e.newPage(nil)
	if _, err := p.Resume(); err != nil {
		return err
	}
	st, err := p.Randomize()
	if err != nil {
		return err
	}
	printState(st)
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	st, err := form.Restore(e.store, e.layout)
	if err != nil {
		return err
	}
	for i := 0; i < len(args); i += 2 {
		id, err := form.ParseElementID(args[i])
		if err != nil {
			return err
		}
		if id.Group == form.GroupStatus {
			if st, err = form.SaveStatus(e.store, st, args[i+1]); err != nil {
				return err
			}
			continue
		}
		if !id.Persisted() {
			return fmt.Errorf("%s is not stored between page loads; use submit --set %s=%s", args[i], args[i], args[i+1])
		}
		if err := st.Set(id, args[i+1]); err != nil {
			return err
		}
	}
	if err := form.Persist(e.store, st); err != nil {
		return err
	}
	printState(st)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	navigated := make(frontend.ChanNavigator, 1)
	p := e.newPage(navigated)
	if _, err := p.Resume(); err != nil {
		return err
	}
	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		if !ok {
			return fmt.Errorf("--set %q: expected field=value", o)
		}
		id, err := form.ParseElementID(key)
		if err != nil {
			return err
		}
		if err := p.SetField(id, value); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := p.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Println(viz.Label.Render("Статус: ") + viz.StatusStyle(res.Status).Render(res.Status))
	if res.Detail != "" {
		fmt.Println(viz.Subtle.Render(res.Detail))
	}
	if !res.Done() {
		if res.Kind != backend.KindOK {
			return res.Err
		}
		return nil
	}
	if noWait {
		return nil
	}

	var path string
	select {
	case path = <-navigated:
	case <-time.After(frontend.NavigationDelay + 5*time.Second):
		return fmt.Errorf("no navigation after a finished run")
	}
	fmt.Println("→ " + e.client.Resolve(path))

	if !checkNext {
		return nil
	}
	w, err := imagecheck.Lookup(path)
	if err != nil {
		return err
	}
	return e.check(ctx, []imagecheck.Watch{w})
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	watches := imagecheck.Watches
	if len(args) == 1 {
		w, err := imagecheck.Lookup(args[0])
		if err != nil {
			return err
		}
		watches = []imagecheck.Watch{w}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return e.check(ctx, watches)
}

func runClear(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.client.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Println("charts cleared")
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	st, err := form.Restore(e.store, e.layout)
	if err != nil {
		return err
	}
	fmt.Println(viz.DisturbancePreview(st, 60, 12))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	st, err := form.Restore(e.store, e.layout)
	if err != nil {
		return err
	}

	format := exportFormat
	if format == "" && len(args) == 1 {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(args[0])), ".")
	}
	switch format {
	case "", "json":
		if len(args) == 0 {
			return export.JSON(os.Stdout, st)
		}
		return export.JSONFile(args[0], st)
	case "xlsx":
		if len(args) == 0 {
			return fmt.Errorf("xlsx export needs a file name")
		}
		return export.XLSX(args[0], st)
	}
	return fmt.Errorf("unknown export format: %s", format)
}

func runSessionList(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	infos, err := e.reg.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKEYS\tUPDATED\tCURRENT")
	for _, info := range infos {
		current := ""
		if info.ID == e.id {
			current = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", info.ID, info.Keys, info.Updated.Format("2006-01-02 15:04:05"), current)
	}
	return w.Flush()
}

func runSessionEnd(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	id := e.id
	if len(args) == 1 {
		id = args[0]
	}
	if err := e.reg.End(id); err != nil {
		return err
	}
	if err := session.ForgetCurrent(e.cfg.Session.Dir, id); err != nil {
		return err
	}
	fmt.Printf("session %s ended\n", id)
	return nil
}

func runPresetList(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range form.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, form.Presets[name].Description)
	}
	return w.Flush()
}

func runPresetApply(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	p := e.newPage(nil)
	if _, err := p.Resume(); err != nil {
		return err
	}
	st, err := p.ApplyPreset(args[0])
	if err != nil {
		return err
	}
	if err := form.Persist(e.store, st); err != nil {
		return err
	}
	printState(st)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func runConfigProfiles(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListProfiles() {
		p := config.Profiles[name]
		fmt.Printf("  %-10s driver=%s\n", name, p.Session.Driver)
	}
	return nil
}

func printState(st form.State) {
	fmt.Println(viz.Label.Render("Статус: ") + viz.StatusStyle(st.Status).Render(st.Status))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tNAME\tVALUE")
	for _, id := range form.Fields(st.Layout()) {
		v, _ := st.Value(id)
		fmt.Fprintf(w, "%s\t%s\t%s\n", id.ElementID(), form.Describe(id), v)
	}
	_ = w.Flush()
}

func (e *env) check(ctx context.Context, watches []imagecheck.Watch) error {
	checker := imagecheck.New(e.client, e.log)
	failed := 0
	for _, w := range watches {
		rep, err := checker.Check(ctx, w)
		if err != nil {
			fmt.Printf("%s  %s\n", viz.StatusFailed.Render("✗ "+w.Page), err)
			failed++
			continue
		}
		if rep.Available() {
			fmt.Println(viz.StatusDone.Render("✓ " + w.Page))
		} else {
			fmt.Println(viz.StatusFailed.Render("✗ "+w.Page) + "  " + w.Fallback.Title)
			failed++
		}
		for _, img := range rep.Images {
			mark := "ok"
			if !img.OK() {
				mark = img.Err.Error()
			}
			fmt.Printf("    %s  %s\n", e.client.Resolve(img.Src), viz.Subtle.Render(mark))
		}
		if htmlDir != "" {
			if err := os.MkdirAll(htmlDir, 0755); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(htmlDir, w.Name+".html"), []byte(rep.HTML), 0644); err != nil {
				return err
			}
		}
	}
	e.log.Info("check finished", zap.Int("pages", len(watches)), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d pages without charts", failed, len(watches))
	}
	return nil
}
