package kucoin

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	xhttp "github.com/OQueQuantFirm/Market-Analyzer/pkg/http"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"
	"github.com/OQueQuantFirm/Market-Analyzer/pkg/util"
)

const okCode = "200000"

// Client talks to the KuCoin futures REST API. It implements both
// repository.MarketData and repository.OrderGateway.
type Client struct {
	host       string
	apiKey     string
	apiSecret  string
	passphrase string
	http       *xhttp.Client
	logger     *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// NewClient creates a KuCoin futures REST client.
func NewClient(host, apiKey, apiSecret, passphrase string, opts ...Option) *Client {
	c := &Client{
		host:       host,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
		http:       xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithLogger sets the client logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// FetchCandles returns up to limit klines, oldest first.
func (c *Client) FetchCandles(ctx context.Context, instrument, timeframe string, limit int) ([]models.Candle, error) {
	granularity := util.TimeframeMinutes(timeframe)
	to := time.Now()
	from := to.Add(-time.Duration(limit) * util.TimeframeDuration(timeframe))

	var rows []klineRow
	err := c.get(ctx, "/api/v1/kline/query", map[string][]string{
		"symbol":      {instrumentToSymbol(instrument)},
		"granularity": {strconv.Itoa(granularity)},
		"from":        {strconv.FormatInt(from.UnixMilli(), 10)},
		"to":          {strconv.FormatInt(to.UnixMilli(), 10)},
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.ErrDataUnavailable
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		candles = append(candles, models.Candle{
			Timestamp: int64(r[0]),
			Open:      r[1],
			High:      r[2],
			Low:       r[3],
			Close:     r[4],
			Volume:    r[5],
		})
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// FetchDepth returns a level2 order book snapshot.
func (c *Client) FetchDepth(ctx context.Context, instrument string, limit int) (*models.DepthSnapshot, error) {
	path := "/api/v1/level2/depth100"
	if limit <= 20 {
		path = "/api/v1/level2/depth20"
	}

	var data depthData
	err := c.get(ctx, path, map[string][]string{
		"symbol": {instrumentToSymbol(instrument)},
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.Bids == nil && data.Asks == nil {
		return nil, models.ErrDataUnavailable
	}

	snap := &models.DepthSnapshot{
		Bids: make([]models.PriceLevel, 0, len(data.Bids)),
		Asks: make([]models.PriceLevel, 0, len(data.Asks)),
	}
	for _, b := range data.Bids {
		snap.Bids = append(snap.Bids, models.PriceLevel{Price: b[0], Size: b[1]})
	}
	for _, a := range data.Asks {
		snap.Asks = append(snap.Asks, models.PriceLevel{Price: a[0], Size: a[1]})
	}
	return snap, nil
}

// FetchBalance returns the USDT account equity.
func (c *Client) FetchBalance(ctx context.Context) (models.Balance, error) {
	var data accountOverview
	err := c.signedGet(ctx, "/api/v1/account-overview", map[string][]string{
		"currency": {"USDT"},
	}, &data)
	if err != nil {
		return models.Balance{}, err
	}
	return models.Balance{Equity: data.AccountEquity}, nil
}

// OpenOrders returns orders matching the given statuses. KuCoin only
// exposes an "active" filter, so results are filtered client-side.
func (c *Client) OpenOrders(ctx context.Context, instrument string, statuses []models.OrderStatus) ([]models.OrderRef, error) {
	var data orderList
	err := c.signedGet(ctx, "/api/v1/orders", map[string][]string{
		"symbol": {instrumentToSymbol(instrument)},
		"status": {"active"},
	}, &data)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		want[string(s)] = true
	}

	refs := make([]models.OrderRef, 0, len(data.Items))
	for _, it := range data.Items {
		if len(want) > 0 && !want[it.Status] {
			continue
		}
		refs = append(refs, models.OrderRef{
			ID:         it.ID,
			Instrument: instrument,
			Side:       models.Side(it.Side),
			Status:     models.OrderStatus(it.Status),
		})
	}
	return refs, nil
}

// SubmitOrder places a limit order.
func (c *Client) SubmitOrder(ctx context.Context, order models.Order) (*models.OrderRef, error) {
	body := map[string]interface{}{
		"clientOid":   newClientOid(),
		"symbol":      instrumentToSymbol(order.Instrument),
		"side":        string(order.Side),
		"type":        string(order.Type),
		"price":       strconv.FormatFloat(order.Price, 'f', -1, 64),
		"size":        strconv.FormatFloat(order.Size, 'f', -1, 64),
		"leverage":    strconv.Itoa(order.Leverage),
		"timeInForce": string(order.TimeInForce),
		"postOnly":    false,
		"reduceOnly":  order.ReduceOnly,
	}

	var data placedOrder
	if err := c.signedPost(ctx, "/api/v1/orders", body, &data); err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Info("order submitted",
			applogger.String("instrument", order.Instrument),
			applogger.String("side", string(order.Side)),
			applogger.Float64("price", order.Price),
			applogger.String("order_id", data.OrderID),
		)
	}

	return &models.OrderRef{
		ID:         data.OrderID,
		Instrument: order.Instrument,
		Side:       order.Side,
		Status:     models.OrderStatusOpen,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	return c.do(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.host + path,
		QueryParams: query,
	}, path, dest)
}

func (c *Client) signedGet(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	qs := encodeQuery(query)
	signPath := path
	if qs != "" {
		signPath += "?" + qs
	}
	return c.do(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.host + path,
		QueryParams: query,
		Headers:     c.signHeaders(xhttp.MethodGet, signPath, ""),
	}, path, dest)
}

func (c *Client) signedPost(ctx context.Context, path string, body interface{}, dest interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	headers := c.signHeaders(xhttp.MethodPost, path, string(raw))
	headers["Content-Type"] = "application/json"
	return c.do(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.host + path,
		Headers: headers,
		Body:    raw,
	}, path, dest)
}

func (c *Client) do(ctx context.Context, opts *xhttp.RequestOptions, op string, dest interface{}) error {
	var envelope apiResponse
	if err := c.http.SendAndParse(ctx, opts, &envelope); err != nil {
		var statusErr *xhttp.StatusError
		if errors.As(err, &statusErr) {
			return &models.ExchangeError{
				Code:    strconv.Itoa(statusErr.Status),
				Message: statusErr.Body,
			}
		}
		return &models.NetworkError{Op: op, Err: err}
	}

	if envelope.Code != okCode {
		return &models.ExchangeError{Code: envelope.Code, Message: envelope.Msg}
	}
	if dest == nil {
		return nil
	}
	if len(envelope.Data) == 0 {
		return models.ErrDataUnavailable
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return &models.NetworkError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

// signHeaders builds KC-API v2 authentication headers. The signature
// covers timestamp + method + path(with query) + body.
func (c *Client) signHeaders(method, path, body string) map[string]string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	payload := ts + method + path + body

	return map[string]string{
		"KC-API-KEY":         c.apiKey,
		"KC-API-SIGN":        hmacSign(payload, c.apiSecret),
		"KC-API-TIMESTAMP":   ts,
		"KC-API-PASSPHRASE":  hmacSign(c.passphrase, c.apiSecret),
		"KC-API-KEY-VERSION": "2",
	}
}

func hmacSign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func encodeQuery(params map[string][]string) string {
	if len(params) == 0 {
		return ""
	}
	// stable ordering matters for signing
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		for _, v := range params[k] {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(v)
		}
	}
	return sb.String()
}

// instrumentToSymbol converts "TIA/USDT:USDT" to the KuCoin contract
// symbol "TIAUSDTM".
func instrumentToSymbol(instrument string) string {
	base, rest, ok := strings.Cut(instrument, "/")
	if !ok {
		return instrument
	}
	quote, _, _ := strings.Cut(rest, ":")
	return base + quote + "M"
}

func newClientOid() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
