package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/asistr/internal/api"
	"github.com/christopherklint97/asistr/internal/register"
)

const febPayload = `{
  "days": ["2026-02-02", "2026-02-03"],
  "slots": [{"code": "am", "label": "Mañana"}],
  "classes_by_date_slot": {"2026-02-02": {"am": [{"id": 1}, {"id": 2}]}},
  "day_info_by_date": {"2026-02-03": {"day_state": "no_class_day", "reason": {"name": "Feriado"}}},
  "apprentices": [
    {"id": 1, "full_name": "Ana Pérez", "marks_by_date_slot": {"2026-02-02": {"am": [{"status": "present"}, {"status": "late"}]}}},
    {"id": 2, "full_name": "Luis Mora", "marks_by_date_slot": {}}
  ],
  "summary": {"present": 1, "late": 1}
}`

type stubFetcher struct{}

func (stubFetcher) Get(context.Context, string, url.Values) (*api.Response, error) {
	return &api.Response{OK: true, Status: 200, Data: []byte(febPayload)}, nil
}

var febQuery = register.Query{FichaID: 2558104, Year: 2026, Month: 2}

func newTestApp(t *testing.T) (*App, *register.Loader) {
	t.Helper()
	loader := register.NewLoader(stubFetcher{}, nil, nil)
	app := NewApp(context.Background(), loader, febQuery)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app, loader
}

func loaded(t *testing.T, loader *register.Loader, gen uint64) registerLoadedMsg {
	t.Helper()
	return registerLoadedMsg{res: loader.LoadGeneration(context.Background(), febQuery, gen)}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApp_AppliesCurrentResult(t *testing.T) {
	app, loader := newTestApp(t)
	app.Update(loaded(t, loader, loader.Next()))

	if app.grid == nil {
		t.Fatal("grid not applied")
	}
	view := app.View()
	for _, want := range []string{"Lun 02/02", "Ana Pérez", "febrero 2026", "Sin clase"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApp_IgnoresStaleResult(t *testing.T) {
	app, loader := newTestApp(t)
	stale := loader.Next()
	current := loader.Next()

	app.Update(loaded(t, loader, current))
	grid := app.grid

	app.Update(registerLoadedMsg{res: &register.Result{Query: febQuery, Generation: stale, Err: register.ErrConnection}})
	if app.grid != grid || app.errMsg != "" {
		t.Error("stale result replaced the current one")
	}
}

func TestApp_ErrorReplacesGrid(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"business", &register.BusinessError{Message: "No tiene permisos sobre la ficha"}, "No tiene permisos sobre la ficha"},
		{"connection", fmt.Errorf("%w: timeout", register.ErrConnection), "Error de conexión. Presiona r para reintentar."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, loader := newTestApp(t)
			app.Update(loaded(t, loader, loader.Next()))

			gen := loader.Next()
			app.Update(registerLoadedMsg{res: &register.Result{Query: febQuery, Generation: gen, Err: tt.err}})
			if app.grid != nil {
				t.Error("previous grid still shown after error")
			}
			if app.errMsg != tt.want {
				t.Errorf("errMsg = %q, want %q", app.errMsg, tt.want)
			}
		})
	}
}

func TestApp_Navigation(t *testing.T) {
	app, loader := newTestApp(t)
	app.Update(loaded(t, loader, loader.Next()))

	app.Update(key("right"))
	app.Update(key("l"))
	if app.col != 2 {
		t.Errorf("col = %d, want 2", app.col)
	}
	app.Update(key("l"))
	if app.col != 2 {
		t.Errorf("col moved past last column: %d", app.col)
	}
	app.Update(key("h"))
	app.Update(key("down"))
	app.Update(key("j"))
	if app.row != 1 {
		t.Errorf("row = %d, want 1", app.row)
	}
	app.Update(key("end"))
	if app.col != len(app.grid.Columns)-1 {
		t.Errorf("end: col = %d", app.col)
	}
}

func TestApp_MonthShiftStartsNewGeneration(t *testing.T) {
	app, loader := newTestApp(t)
	first := loader.Next()

	_, cmd := app.Update(key("]"))
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	if got := app.Query(); got.Month != 3 || got.Year != 2026 {
		t.Errorf("query = %v", got)
	}
	if !app.loading {
		t.Error("expected loading state")
	}
	if loader.IsCurrent(first) {
		t.Error("shifting months should supersede the earlier request")
	}

	app.Update(key("["))
	app.Update(key("["))
	if got := app.Query(); got.Month != 1 {
		t.Errorf("query = %v", got)
	}
}

func TestApp_QuitKey(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRenderPlain(t *testing.T) {
	res := register.NewLoader(stubFetcher{}, nil, nil).FromCache(febQuery, []byte(febPayload))
	out := RenderPlain(res.Grid, 200)

	for _, want := range []string{"Lun", "02/02", "Mar", "03/02", "AP Ana Pérez", "M1", "M2", "late: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestSlotHeader(t *testing.T) {
	c := register.Column{Slot: "pm", SlotLabel: "tarde", Index: 1}
	if got := slotHeader(c, 1); got != "T" {
		t.Errorf("single = %q", got)
	}
	if got := slotHeader(c, 3); got != "T2" {
		t.Errorf("concurrent = %q", got)
	}
}
