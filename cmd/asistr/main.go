package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/christopherklint97/asistr/internal/api"
	"github.com/christopherklint97/asistr/internal/auth"
	"github.com/christopherklint97/asistr/internal/calendar"
	"github.com/christopherklint97/asistr/internal/config"
	"github.com/christopherklint97/asistr/internal/export"
	"github.com/christopherklint97/asistr/internal/notify"
	"github.com/christopherklint97/asistr/internal/register"
	"github.com/christopherklint97/asistr/internal/store"
	"github.com/christopherklint97/asistr/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:          "asistr",
	Short:        "Attendance register client",
	Long:         "asistr browses the monthly attendance register of a ficha, exports it and keeps an offline copy.",
	SilenceUsage: true,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and cache the session tokens",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached session",
	RunE:  runLogout,
}

var fichasCmd = &cobra.Command{
	Use:   "fichas",
	Short: "List the fichas you can see",
	RunE:  runFichas,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Browse the monthly attendance register",
	RunE:  runRegister,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the monthly register spreadsheet",
	RunE:  runExport,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Write the month's classes as an iCalendar feed",
	RunE:  runCalendar,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the monthly register payload",
	RunE:  runSchema,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Write debug logs to the log file")

	loginCmd.Flags().String("email", "", "Account email")

	fichasCmd.Flags().Int64("set", 0, "Save this ficha as the default")

	for _, cmd := range []*cobra.Command{registerCmd, exportCmd, calendarCmd} {
		cmd.Flags().Int64("ficha", 0, "Ficha ID (defaults to register.ficha_id)")
		cmd.Flags().String("month", "", `Month as YYYY-MM or a phrase like "last month" (defaults to this month)`)
	}
	registerCmd.Flags().Bool("cached", false, "Show the locally cached copy without fetching")
	registerCmd.Flags().Bool("plain", false, "Print the grid instead of opening the interactive view")
	exportCmd.Flags().String("dir", "", "Directory to save into (defaults to export.dir)")
	calendarCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(fichasCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

const stateLastFicha = "last_ficha"

// app bundles what most commands need.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	session *auth.Session
	client  *api.Client
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API base URL not configured, run 'asistr config' to set it up")
	}

	a := &app{cfg: cfg}

	debug, _ := cmd.Flags().GetBool("debug")
	logger, closeLog, err := newLogger(cfg, debug)
	if err != nil {
		return nil, err
	}
	a.logger = logger
	a.closers = append(a.closers, closeLog)

	tokenPath, err := config.TokenPath()
	if err != nil {
		a.Close()
		return nil, err
	}

	timeout := time.Duration(cfg.API.TimeoutSeconds) * time.Second
	public := api.NewClient(cfg.API.BaseURL, nil, timeout, logger)
	a.session = auth.NewSession(public, auth.NewStore(tokenPath), logger)
	a.client = api.NewClient(cfg.API.BaseURL, a.session, timeout, logger)
	return a, nil
}

func newLogger(cfg *config.Config, debug bool) (*slog.Logger, func(), error) {
	level := strings.ToLower(cfg.Log.Level)
	if debug {
		level = "debug"
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	default:
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	path, err := config.LogPath(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	return logger, func() { f.Close() }, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// resolveQuery builds the register query from the --ficha and --month flags.
func resolveQuery(cmd *cobra.Command, cfg *config.Config) (register.Query, error) {
	fichaID, _ := cmd.Flags().GetInt64("ficha")
	if fichaID == 0 {
		fichaID = cfg.Register.FichaID
	}
	if fichaID == 0 {
		fichaID = lastFicha()
	}
	if fichaID == 0 {
		return register.Query{}, fmt.Errorf("no ficha selected, pass --ficha or run 'asistr fichas --set <id>'")
	}

	monthStr, _ := cmd.Flags().GetString("month")
	year, month, err := parseMonth(monthStr, time.Now())
	if err != nil {
		return register.Query{}, err
	}
	return register.Query{FichaID: fichaID, Year: year, Month: month}, nil
}

// lastFicha is the ficha browsed most recently, or 0.
func lastFicha() int64 {
	db, err := openStore()
	if err != nil {
		return 0
	}
	defer db.Close()

	v, err := db.GetState(stateLastFicha)
	if err != nil || v == "" {
		return 0
	}
	id, _ := strconv.ParseInt(v, 10, 64)
	return id
}

func openStore() (*store.DB, error) {
	path, err := config.DBPath()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		fmt.Print("Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := a.session.Login(ctx, email, string(password)); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runFichas(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if id, _ := cmd.Flags().GetInt64("set"); id != 0 {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if err := config.SaveFichaID(path, id); err != nil {
			return fmt.Errorf("saving default ficha: %w", err)
		}
		fmt.Printf("Default ficha set to %d\n", id)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	fichas, err := a.client.Fichas(ctx)
	if err != nil {
		return fmt.Errorf("fetching fichas: %w", err)
	}

	if len(fichas) == 0 {
		fmt.Println("No fichas found.")
		return nil
	}

	fmt.Printf("Found %d fichas:\n\n", len(fichas))
	for _, f := range fichas {
		marker := " "
		if f.ID == a.cfg.Register.FichaID {
			marker = "*"
		}
		fmt.Printf(" %s %-6d  %-10s  %s\n", marker, f.ID, f.Number, f.Program.Name)
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := resolveQuery(cmd, a.cfg)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	loader := register.NewLoader(a.client, db, a.logger)

	cachedOnly, _ := cmd.Flags().GetBool("cached")
	plain, _ := cmd.Flags().GetBool("plain")

	var initial *register.Result
	if cachedOnly {
		cached, err := db.GetRegister(q.FichaID, q.Year, q.Month)
		if err != nil {
			return err
		}
		if cached == nil {
			available, err := db.ListRegisters(q.FichaID)
			if err != nil {
				return err
			}
			return noCachedMonthError(q, available)
		}
		initial = loader.FromCache(q, cached.Payload)
		fmt.Fprintf(os.Stderr, "Showing copy fetched %s\n", cached.FetchedAt.Local().Format("2006-01-02 15:04"))
	}

	if plain {
		res := initial
		if res == nil {
			res = loader.Load(ctx, q)
		}
		if res.Err != nil {
			return res.Err
		}
		width := 120
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		fmt.Print(tui.RenderPlain(res.Grid, width))
		return nil
	}

	model := tui.NewApp(ctx, loader, q)
	if initial != nil {
		model.ShowCached(initial)
	}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}

	last := model.Query()
	if err := db.SetState(stateLastFicha, strconv.FormatInt(last.FichaID, 10)); err != nil {
		a.logger.Warn("failed to remember last ficha", "error", err)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := resolveQuery(cmd, a.cfg)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = a.cfg.Export.Dir
	}

	ctx, cancel := signalContext()
	defer cancel()

	exporter := export.New(a.client, notify.New(a.cfg.Notifications.Enabled, a.logger), a.logger)
	wb, err := exporter.Download(ctx, q, dir)
	if err != nil {
		return err
	}

	fmt.Printf("Saved %s (%d bytes, sheets: %s)\n", wb.Path, wb.Size, strings.Join(wb.Sheets, ", "))
	return nil
}

func runCalendar(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := resolveQuery(cmd, a.cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res := register.NewLoader(a.client, nil, a.logger).Load(ctx, q)
	if res.Err != nil {
		return res.Err
	}

	var w io.Writer = os.Stdout
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	events := calendar.Events(res.Grid, time.Local)
	name := fmt.Sprintf("Ficha %d — %04d-%02d", q.FichaID, q.Year, q.Month)
	return calendar.Write(w, name, events, time.Now())
}

func runSchema(cmd *cobra.Command, args []string) error {
	out, err := register.PayloadSchema()
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data := fmt.Sprintf(`[api]
base_url = "%s"
timeout_seconds = %d

[register]
ficha_id = %d

[export]
dir = "%s"

[notifications]
enabled = %t

[log]
level = "%s"
`,
			cfg.API.BaseURL,
			cfg.API.TimeoutSeconds,
			cfg.Register.FichaID,
			cfg.Export.Dir,
			cfg.Notifications.Enabled,
			cfg.Log.Level,
		)
		if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
