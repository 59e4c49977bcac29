package api

import "github.com/qfex/quotesim/pkg/sim/book"

// REST response types.

// BookResponse is the current depth snapshot, best-first per side.
type BookResponse struct {
	Tick uint64       `json:"tick"`
	Bids []book.Level `json:"bids"`
	Asks []book.Level `json:"asks"`
}

// PnLResponse is the ledger state at the latest tick.
type PnLResponse struct {
	Tick         uint64  `json:"tick"`
	Cash         float64 `json:"cash"`
	Inventory    int64   `json:"inventory"`
	MarkToMarket float64 `json:"markToMarket"`
}

// FillInfo is one fill in /fills responses and the websocket stream.
type FillInfo struct {
	Tick    uint64 `json:"tick"`
	Side    string `json:"side"` // aggressor side
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
	MakerID uint64 `json:"makerId"`
}

// StatusResponse reports run progress.
type StatusResponse struct {
	Tick      uint64 `json:"tick"`
	LastPrice int64  `json:"lastPrice"` // 0 until the first trade
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
