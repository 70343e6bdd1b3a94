package register

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/christopherklint97/asistr/internal/api"
)

const monthlyRegisterPath = "attendances/monthly_register"

// ErrConnection covers transport failures and timeouts while fetching.
var ErrConnection = errors.New("connection error")

// BusinessError is a failure the server reported with a message.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// Query selects one ficha's register for one month.
type Query struct {
	FichaID int64 `validate:"gt=0"`
	Year    int   `validate:"gte=2000,lte=2100"`
	Month   int   `validate:"gte=1,lte=12"`
}

func (q Query) Values() url.Values {
	return url.Values{
		"ficha_id": {strconv.FormatInt(q.FichaID, 10)},
		"year":     {strconv.Itoa(q.Year)},
		"month":    {strconv.Itoa(q.Month)},
	}
}

// Shift returns the query moved by delta months.
func (q Query) Shift(delta int) Query {
	t := time.Date(q.Year, time.Month(q.Month)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	q.Year, q.Month = t.Year(), int(t.Month())
	return q
}

func (q Query) String() string {
	return fmt.Sprintf("ficha %d, %04d-%02d", q.FichaID, q.Year, q.Month)
}

// Fetcher is the part of the API client the loader needs.
type Fetcher interface {
	Get(ctx context.Context, path string, query url.Values) (*api.Response, error)
}

// Cache persists raw payloads so a register can be shown offline.
type Cache interface {
	SaveRegister(fichaID int64, year, month int, payload []byte) error
}

// Result is the outcome of one Load. A result whose Generation is no longer
// current belongs to a superseded request and must be discarded.
type Result struct {
	Query      Query
	Generation uint64
	Grid       *Grid
	Raw        []byte
	Err        error
}

type Loader struct {
	api      Fetcher
	cache    Cache
	builder  *Builder
	validate *validator.Validate
	gen      atomic.Uint64
	logger   *slog.Logger
}

func NewLoader(fetcher Fetcher, cache Cache, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		api:      fetcher,
		cache:    cache,
		builder:  NewBuilder(),
		validate: validator.New(),
		logger:   logger,
	}
}

// Next reserves a new generation, superseding every in-flight Load.
func (l *Loader) Next() uint64 {
	return l.gen.Add(1)
}

func (l *Loader) IsCurrent(gen uint64) bool {
	return l.gen.Load() == gen
}

// Load fetches and builds the register for q under a fresh generation.
func (l *Loader) Load(ctx context.Context, q Query) *Result {
	return l.LoadGeneration(ctx, q, l.Next())
}

// LoadGeneration fetches under a generation reserved earlier with Next.
func (l *Loader) LoadGeneration(ctx context.Context, q Query, gen uint64) *Result {
	res := &Result{Query: q, Generation: gen}

	if err := l.validate.Struct(q); err != nil {
		res.Err = fmt.Errorf("invalid register query: %w", err)
		return res
	}

	resp, err := l.api.Get(ctx, monthlyRegisterPath, q.Values())
	if err != nil {
		l.logger.Error("fetching monthly register", "query", q.String(), "error", err)
		if errors.Is(err, api.ErrNotAuthenticated) {
			res.Err = err
		} else {
			res.Err = fmt.Errorf("%w: %v", ErrConnection, err)
		}
		return res
	}
	if !resp.OK {
		msg := resp.Message
		if msg == "" {
			msg = "the server could not load the register"
		}
		res.Err = &BusinessError{Message: msg}
		return res
	}

	if !l.IsCurrent(gen) {
		l.logger.Debug("discarding superseded register response", "query", q.String(), "generation", gen)
		return res
	}

	raw := []byte(resp.Data)
	grid, err := l.builder.Build(raw)
	if err != nil {
		res.Err = fmt.Errorf("decoding register: %w", err)
		return res
	}
	res.Grid = grid
	res.Raw = raw

	if l.cache != nil {
		if err := l.cache.SaveRegister(q.FichaID, q.Year, q.Month, raw); err != nil {
			l.logger.Warn("failed to cache register", "query", q.String(), "error", err)
		}
	}

	l.logger.Debug("register loaded", "query", q.String(), "columns", len(grid.Columns), "rows", len(grid.Rows))
	return res
}

// FromCache builds a grid from a previously stored payload.
func (l *Loader) FromCache(q Query, raw []byte) *Result {
	res := &Result{Query: q, Generation: l.Next(), Raw: raw}
	grid, err := l.builder.Build(raw)
	if err != nil {
		res.Err = fmt.Errorf("decoding cached register: %w", err)
		return res
	}
	res.Grid = grid
	return res
}
