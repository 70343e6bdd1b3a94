package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/asistr/internal/register"
)

var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

type registerLoadedMsg struct {
	res *register.Result
}

// App is the Bubbletea model for browsing a ficha's monthly register.
type App struct {
	ctx     context.Context
	loader  *register.Loader
	query   register.Query
	grid    *register.Grid
	errMsg  string
	loading bool
	cached  bool
	spinner spinner.Model

	row    int
	col    int
	offset int
	width  int
}

func NewApp(ctx context.Context, loader *register.Loader, q register.Query) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return &App{
		ctx:     ctx,
		loader:  loader,
		query:   q,
		spinner: s,
	}
}

// ShowCached starts the app on a grid built from the local cache instead of
// fetching.
func (a *App) ShowCached(res *register.Result) {
	a.cached = true
	a.apply(res)
}

func (a *App) Init() tea.Cmd {
	if a.grid != nil || a.errMsg != "" {
		return nil
	}
	return a.load()
}

func (a *App) Query() register.Query {
	return a.query
}

func (a *App) load() tea.Cmd {
	gen := a.loader.Next()
	q := a.query
	a.loading = true
	a.errMsg = ""

	fetch := func() tea.Msg {
		return registerLoadedMsg{res: a.loader.LoadGeneration(a.ctx, q, gen)}
	}
	return tea.Batch(a.spinner.Tick, fetch)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.scrollToCursor()
		return a, nil

	case registerLoadedMsg:
		if !a.loader.IsCurrent(msg.res.Generation) {
			return a, nil
		}
		a.cached = false
		a.apply(msg.res)
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "[":
		a.query = a.query.Shift(-1)
		return a, a.load()
	case "]":
		a.query = a.query.Shift(1)
		return a, a.load()
	case "r":
		return a, a.load()
	}

	if a.grid == nil || a.loading {
		return a, nil
	}

	switch msg.String() {
	case "left", "h":
		if a.col > 0 {
			a.col--
		}
	case "right", "l":
		if a.col < len(a.grid.Columns)-1 {
			a.col++
		}
	case "up", "k":
		if a.row > 0 {
			a.row--
		}
	case "down", "j":
		if a.row < len(a.grid.Rows)-1 {
			a.row++
		}
	case "home":
		a.col = 0
	case "end":
		a.col = len(a.grid.Columns) - 1
	}
	a.scrollToCursor()
	return a, nil
}

// apply replaces the displayed register with res. On error the previous grid
// is discarded rather than left on screen.
func (a *App) apply(res *register.Result) {
	a.loading = false
	if res.Err != nil {
		a.grid = nil
		a.errMsg = describeError(res.Err)
		return
	}
	a.grid = res.Grid
	a.errMsg = ""
	a.clampCursor()
}

func (a *App) clampCursor() {
	if a.grid == nil {
		return
	}
	if a.row >= len(a.grid.Rows) {
		a.row = max(len(a.grid.Rows)-1, 0)
	}
	if a.col >= len(a.grid.Columns) {
		a.col = max(len(a.grid.Columns)-1, 0)
	}
	a.scrollToCursor()
}

func (a *App) scrollToCursor() {
	n := visibleColumns(a.width)
	if a.col < a.offset {
		a.offset = a.col
	}
	if a.col >= a.offset+n {
		a.offset = a.col - n + 1
	}
	if a.offset < 0 {
		a.offset = 0
	}
}

func describeError(err error) string {
	var be *register.BusinessError
	switch {
	case errors.As(err, &be):
		return be.Message
	case errors.Is(err, register.ErrConnection):
		return "Error de conexión. Presiona r para reintentar."
	default:
		return err.Error()
	}
}

func (a *App) title() string {
	month := ""
	if a.query.Month >= 1 && a.query.Month <= 12 {
		month = monthNames[a.query.Month-1]
	}
	t := fmt.Sprintf("Registro de asistencia — Ficha %d · %s %d", a.query.FichaID, month, a.query.Year)
	if a.cached {
		t += " (sin conexión)"
	}
	return t
}

func (a *App) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(a.title()))
	sb.WriteString("\n")

	switch {
	case a.loading:
		sb.WriteString(a.spinner.View() + " Cargando registro...")
	case a.errMsg != "":
		sb.WriteString(errorStyle.Render("Error: ") + a.errMsg)
	case a.grid != nil:
		sb.WriteString(renderGrid(a.grid, a.row, a.col, a.offset, visibleColumns(a.width)))
		sb.WriteString("\n")
		if len(a.grid.Rows) > 0 {
			sb.WriteString(renderDetail(a.grid, a.row, a.col))
			sb.WriteString("\n")
		}
		sb.WriteString(renderLegend(a.grid))
		if s := renderSummary(a.grid.Summary); s != "" {
			sb.WriteString("\n" + subtitleStyle.Render(s))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("←/→ columna • ↑/↓ aprendiz • [/] mes • r recargar • q salir"))
	return sb.String()
}
