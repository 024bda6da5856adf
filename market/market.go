package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/gateway"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stock is one row of a best or worst performers list.
type Stock struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
}

// Transaction is one executed trade.
type Transaction struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	ExecutedAt time.Time `json:"executedAt"`
}

// MsgConnectionFailed is shown whenever no usable answer arrived.
const MsgConnectionFailed = "Failed to connect to server. Please try again later."

// ErrRejected marks an answer that did not report success.
var ErrRejected = errors.New("market data request rejected")

// FetchError is the failure of one list. Message is what the page shows.
type FetchError struct {
	Section string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Section, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Service fetches landing page lists. It is safe for concurrent use.
type Service struct {
	caller    authflow.Caller
	endpoints authflow.EndpointsConfig
	logger    *zap.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithLogger sets the logger for fetch failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Service that reads from caller using the market paths in
// endpoints.
func New(caller authflow.Caller, endpoints authflow.EndpointsConfig, opts ...Option) *Service {
	s := &Service{
		caller:    caller,
		endpoints: endpoints,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromClient creates a Service that shares client's gateway and session.
func FromClient(client *authflow.Client, opts ...Option) *Service {
	return New(client.Caller(), client.Config().Endpoints, opts...)
}

type section struct {
	name     string
	field    string
	fallback string
}

var (
	sectionBest = section{
		name:     "best stocks",
		field:    "bestStocks",
		fallback: "Failed to fetch best performing stock list",
	}
	sectionWorst = section{
		name:     "worst stocks",
		field:    "worstStocks",
		fallback: "Failed to fetch worst performing stock list",
	}
	sectionLatest = section{
		name:     "latest transactions",
		field:    "latestTransactions",
		fallback: "Failed to fetch latest transactions",
	}
)

// BestStocks fetches today's best performing stocks.
func (s *Service) BestStocks(ctx context.Context) ([]Stock, error) {
	var out []Stock
	err := s.fetch(ctx, s.endpoints.BestStocks, sectionBest, &out)
	return out, err
}

// WorstStocks fetches today's worst performing stocks.
func (s *Service) WorstStocks(ctx context.Context) ([]Stock, error) {
	var out []Stock
	err := s.fetch(ctx, s.endpoints.WorstStocks, sectionWorst, &out)
	return out, err
}

// LatestTransactions fetches the most recent executed trades.
func (s *Service) LatestTransactions(ctx context.Context) ([]Transaction, error) {
	var out []Transaction
	err := s.fetch(ctx, s.endpoints.LatestTransactions, sectionLatest, &out)
	return out, err
}

// fetch performs one GET. A non-2xx status counts as no usable answer even
// when the body parses.
func (s *Service) fetch(ctx context.Context, path string, sec section, dst any) error {
	if s == nil || s.caller == nil {
		return &FetchError{Section: sec.name, Message: MsgConnectionFailed, Err: authflow.ErrClientNotReady}
	}

	res, err := s.caller.Do(ctx, gateway.Request{
		Method:          http.MethodGet,
		Path:            path,
		WithCredentials: true,
	})
	if err != nil {
		s.logger.Warn("market fetch failed", zap.String("section", sec.name), zap.Error(err))
		return &FetchError{Section: sec.name, Message: MsgConnectionFailed, Err: err}
	}
	if !res.OK {
		err := &gateway.TransportError{Op: http.MethodGet + " " + path, Status: res.HTTPStatus, Err: fmt.Errorf("server returned %d", res.HTTPStatus)}
		s.logger.Warn("market fetch failed", zap.String("section", sec.name), zap.Error(err))
		return &FetchError{Section: sec.name, Message: MsgConnectionFailed, Err: err}
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = sec.fallback
		}
		return &FetchError{Section: sec.name, Message: msg, Err: ErrRejected}
	}

	if _, err := res.Field(sec.field, dst); err != nil {
		err = &gateway.TransportError{Op: http.MethodGet + " " + path, Status: res.HTTPStatus, Err: errors.Join(gateway.ErrContract, err)}
		s.logger.Warn("market list undecodable", zap.String("section", sec.name), zap.Error(err))
		return &FetchError{Section: sec.name, Message: MsgConnectionFailed, Err: err}
	}
	return nil
}

// Overview holds the three landing lists. A list that failed is nil and its
// error is set.
type Overview struct {
	Best      []Stock
	BestErr   error
	Worst     []Stock
	WorstErr  error
	Latest    []Transaction
	LatestErr error
}

// Overview fetches all three lists concurrently. One failing list does not
// stop the others; the returned error joins every failure.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var ov Overview
	// Goroutines report through ov and never fail the group, so one section
	// cannot cancel another. The group only bounds and joins the fetches.
	var g errgroup.Group
	g.SetLimit(3)

	g.Go(func() error {
		ov.Best, ov.BestErr = s.BestStocks(ctx)
		return nil
	})
	g.Go(func() error {
		ov.Worst, ov.WorstErr = s.WorstStocks(ctx)
		return nil
	})
	g.Go(func() error {
		ov.Latest, ov.LatestErr = s.LatestTransactions(ctx)
		return nil
	})
	_ = g.Wait()

	return ov, errors.Join(ov.BestErr, ov.WorstErr, ov.LatestErr)
}
