package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kazuke353/magnus/internal/models"
)

// Client fetches a user's portfolio from the upstream API.
type Client interface {
	Fetch(ctx context.Context, settings *models.UserSettings) (*models.PortfolioSnapshot, error)
}

// Fetcher calls the upstream portfolio API and normalizes its response into
// the internal snapshot shape. It never retries: failures propagate to the
// caller, which decides whether to serve stale cache instead.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	nowFunc    func() time.Time
}

// NewFetcher creates a fetcher targeting the given upstream base URL.
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		nowFunc:    time.Now,
	}
}

// upstreamPayload mirrors the upstream wire format. Unknown fields are
// ignored by the decoder; optional fields use pointers so "not provided"
// stays distinguishable from zero.
type upstreamPayload struct {
	Pies     []upstreamPie   `json:"pies"`
	Overall  upstreamOverall `json:"overall"`
	Deposits upstreamDeposit `json:"deposits"`
}

type upstreamPie struct {
	Name        string               `json:"name"`
	Invested    float64              `json:"invested"`
	Value       float64              `json:"value"`
	Result      float64              `json:"result"`
	ReturnPct   float64              `json:"returnPct"`
	Instruments []upstreamInstrument `json:"instruments"`
}

type upstreamInstrument struct {
	Ticker           string           `json:"ticker"`
	Quantity         float64          `json:"quantity"`
	Invested         float64          `json:"invested"`
	Value            float64          `json:"value"`
	Result           float64          `json:"result"`
	Currency         string           `json:"currency"`
	Type             string           `json:"type"`
	DividendYieldPct *float64         `json:"dividendYieldPct"`
	Performance      *upstreamPerform `json:"performance"`
}

type upstreamPerform struct {
	OneWeek     *float64 `json:"oneWeek"`
	OneMonth    *float64 `json:"oneMonth"`
	ThreeMonths *float64 `json:"threeMonths"`
	OneYear     *float64 `json:"oneYear"`
}

type upstreamOverall struct {
	Invested        float64 `json:"invested"`
	InvestedOverall float64 `json:"investedOverall"`
	Result          float64 `json:"result"`
	ReturnPct       float64 `json:"returnPct"`
}

type upstreamDeposit struct {
	MonthlyBudget float64 `json:"monthlyBudget"`
	Spent         float64 `json:"spent"`
	Remaining     float64 `json:"remaining"`
	Next          float64 `json:"next"`
}

// Fetch retrieves and normalizes the portfolio for the given user settings.
// GET {base}/v1/portfolio?country=&currency=&budget=
func (f *Fetcher) Fetch(ctx context.Context, settings *models.UserSettings) (*models.PortfolioSnapshot, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings must not be nil")
	}

	query := url.Values{}
	query.Set("country", settings.Country)
	query.Set("currency", settings.Currency)
	query.Set("budget", strconv.FormatFloat(settings.MonthlyBudget, 'f', -1, 64))

	endpoint := f.baseURL + "/v1/portfolio?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var payload upstreamPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UpstreamFormatError{Err: err}
	}

	snapshot := f.normalize(settings.UserID, &payload)
	if err := snapshot.Validate(); err != nil {
		return nil, &UpstreamFormatError{Err: err}
	}
	return snapshot, nil
}

// normalize converts the upstream payload into the internal snapshot shape.
// Dividend yields arrive as percentages and are stored as fractions of
// current value; absent optional fields stay nil.
func (f *Fetcher) normalize(userID string, payload *upstreamPayload) *models.PortfolioSnapshot {
	snapshot := &models.PortfolioSnapshot{
		UserID:    userID,
		FetchedAt: f.nowFunc().UTC(),
		Pies:      make([]models.Pie, 0, len(payload.Pies)),
		Overall: models.OverallSummary{
			TotalInvested:        payload.Overall.Invested,
			TotalInvestedOverall: payload.Overall.InvestedOverall,
			TotalResult:          payload.Overall.Result,
			ReturnPct:            payload.Overall.ReturnPct,
		},
		DepositInfo: models.DepositInfo{
			MonthlyBudget:   payload.Deposits.MonthlyBudget,
			BudgetSpent:     payload.Deposits.Spent,
			BudgetRemaining: payload.Deposits.Remaining,
			NextDeposit:     payload.Deposits.Next,
		},
	}

	for _, up := range payload.Pies {
		pie := models.Pie{
			Name:          up.Name,
			TotalInvested: up.Invested,
			CurrentValue:  up.Value,
			Result:        up.Result,
			ReturnPct:     up.ReturnPct,
			Positions:     make([]models.InstrumentPosition, 0, len(up.Instruments)),
		}
		for _, inst := range up.Instruments {
			pie.Positions = append(pie.Positions, normalizeInstrument(inst))
		}
		snapshot.Pies = append(snapshot.Pies, pie)
	}

	return snapshot
}

func normalizeInstrument(inst upstreamInstrument) models.InstrumentPosition {
	pos := models.InstrumentPosition{
		Ticker:        inst.Ticker,
		OwnedQuantity: inst.Quantity,
		InvestedValue: inst.Invested,
		CurrentValue:  inst.Value,
		ResultValue:   inst.Result,
		Currency:      inst.Currency,
		Type:          normalizeInstrumentType(inst.Type),
	}

	if inst.DividendYieldPct != nil {
		yield := *inst.DividendYieldPct / 100
		pos.DividendYield = &yield
	}

	if inst.Performance != nil {
		pos.Performance = &models.PerformanceMetrics{
			Week:        inst.Performance.OneWeek,
			Month:       inst.Performance.OneMonth,
			ThreeMonths: inst.Performance.ThreeMonths,
			Year:        inst.Performance.OneYear,
		}
	}

	return pos
}

// normalizeInstrumentType maps upstream type labels to the internal enum.
// ETFs and mutual funds both map to fund; anything unrecognized is treated
// as a stock.
func normalizeInstrumentType(t string) models.InstrumentType {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "fund", "etf", "mutual_fund":
		return models.InstrumentTypeFund
	default:
		return models.InstrumentTypeStock
	}
}
