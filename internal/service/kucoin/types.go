package kucoin

import "encoding/json"

// apiResponse is the common KuCoin futures response envelope.
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// klineRow is [time(ms), open, high, low, close, volume].
type klineRow [6]float64

// depthData carries level2 snapshot rows as [price, size] pairs.
type depthData struct {
	Bids [][2]float64 `json:"bids"`
	Asks [][2]float64 `json:"asks"`
}

type accountOverview struct {
	AccountEquity float64 `json:"accountEquity"`
	Currency      string  `json:"currency"`
}

type orderItem struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Status string `json:"status"`
}

type orderList struct {
	Items []orderItem `json:"items"`
}

type placedOrder struct {
	OrderID string `json:"orderId"`
}

type bulletToken struct {
	Token           string `json:"token"`
	InstanceServers []struct {
		Endpoint     string `json:"endpoint"`
		PingInterval int64  `json:"pingInterval"`
	} `json:"instanceServers"`
}

// tickerMessage is a /contractMarket/tickerV2 push frame.
type tickerMessage struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Data    struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price,string"`
		Size   float64 `json:"size"`
		Ts     int64   `json:"ts"`
	} `json:"data"`
}
