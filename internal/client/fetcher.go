package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
)

// ErrSuperseded marks the result of a fetch a newer fetch replaced
var ErrSuperseded = errors.New("report fetch superseded")

// Ticket identifies one started fetch
type Ticket struct {
	Token string
	ctx   context.Context
}

// Result is what a fetch produced
type Result struct {
	Token    string
	Data     *models.ReportData
	Err      error
	Duration time.Duration
}

// Fetcher runs report fetches one at a time. Beginning a fetch cancels the
// one in flight, and only the result of the latest fetch is accepted.
type Fetcher struct {
	source Source
	log    *logrus.Entry

	mu      sync.Mutex
	current string
	cancel  context.CancelFunc
	state   models.FetchState
	hasData bool
}

// NewFetcher creates a fetcher over source
func NewFetcher(source Source, log *logrus.Entry) *Fetcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Fetcher{
		source: source,
		log:    log.WithField("component", "fetcher"),
		state:  models.FetchIdle,
	}
}

// Begin starts a new fetch and cancels the previous one. The state becomes
// Loading for the first fetch and Updating once data has been shown.
func (f *Fetcher) Begin(parent context.Context) Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	f.current = uuid.NewString()
	f.cancel = cancel

	if f.hasData {
		f.state = models.FetchUpdating
	} else {
		f.state = models.FetchLoading
	}

	f.log.WithField("token", f.current).Debug("fetch started")
	return Ticket{Token: f.current, ctx: ctx}
}

// Run performs the fetch of a ticket. It blocks, and is safe to call from any
// goroutine. A panic in the source is returned as the result's error.
func (f *Fetcher) Run(t Ticket, req Request) Result {
	start := time.Now()
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	var data *models.ReportData
	var err error

	var pc panics.Catcher
	pc.Try(func() {
		data, err = f.source.GetReport(ctx, req)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}

	return Result{
		Token:    t.Token,
		Data:     data,
		Err:      err,
		Duration: time.Since(start),
	}
}

// Complete accepts a result. A result whose token is no longer current
// returns ErrSuperseded and leaves the state alone.
func (f *Fetcher) Complete(r Result) (*models.ReportData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	log := f.log.WithFields(logrus.Fields{"token": r.Token, "duration_ms": r.Duration.Milliseconds()})

	if r.Token != f.current {
		log.Debug("dropping superseded fetch")
		return nil, ErrSuperseded
	}

	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}

	if r.Err != nil {
		f.state = models.FetchError
		log.WithError(r.Err).Warn("fetch failed")
		return nil, r.Err
	}

	f.state = models.FetchDone
	f.hasData = true
	log.Debug("fetch done")
	return r.Data, nil
}

// Cancel stops the fetch in flight, if any. Its result will be superseded and
// data already shown stays Done.
func (f *Fetcher) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.current = ""
	switch {
	case f.state == models.FetchUpdating && f.hasData:
		f.state = models.FetchDone
	case f.state == models.FetchLoading || f.state == models.FetchUpdating:
		f.state = models.FetchIdle
	}
}

// State returns the fetch state
func (f *Fetcher) State() models.FetchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Current returns the token of the latest fetch
func (f *Fetcher) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}
