// Package httpapi exposes the ledger operations over HTTP JSON.
//
// Mutations are POST /v1/<op> with a JSON body carrying the caller
// principal; queries are GET with query parameters. The API trusts the
// caller field: authentication happens in front of this service.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"token-ledger/internal/domain"
	"token-ledger/internal/fee"
	"token-ledger/internal/ledger"
	"token-ledger/internal/storage"
)

// API serves the ledger over HTTP.
type API struct {
	ledger *ledger.Ledger
	logger *log.Logger
}

// New creates an API around a ledger.
func New(l *ledger.Ledger, logger *log.Logger) *API {
	if logger == nil {
		logger = log.New(os.Stdout, "[httpapi] ", log.LstdFlags)
	}
	return &API{ledger: l, logger: logger}
}

// Register mounts all operation and query routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/init", a.handleInit)
	mux.HandleFunc("POST /v1/addminter", a.handleAddMinter)
	mux.HandleFunc("POST /v1/addwhitelist", a.handleAddWhitelist)
	mux.HandleFunc("POST /v1/rmwhitelist", a.handleRemoveWhitelist)
	mux.HandleFunc("POST /v1/setaccounts", a.handleSetAccounts)
	mux.HandleFunc("POST /v1/setfees", a.handleSetFees)
	mux.HandleFunc("POST /v1/create", a.handleCreate)
	mux.HandleFunc("POST /v1/mint", a.handleMint)
	mux.HandleFunc("POST /v1/burn", a.handleBurn)
	mux.HandleFunc("POST /v1/transfer", a.handleTransfer)
	mux.HandleFunc("POST /v1/close", a.handleClose)
	mux.HandleFunc("GET /v1/balance", a.handleBalance)
	mux.HandleFunc("GET /v1/supply", a.handleSupply)
	mux.HandleFunc("GET /v1/config", a.handleConfig)
}

// RegisterNotices mounts the notice lookup route backed by the notice sink.
func (a *API) RegisterNotices(mux *http.ServeMux, notices storage.NoticeQuerier) {
	mux.HandleFunc("GET /v1/notices", func(w http.ResponseWriter, r *http.Request) {
		opID := r.URL.Query().Get("op_id")
		if opID == "" {
			a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "op_id is required"})
			return
		}
		found, err := notices.GetByOpID(r.Context(), opID)
		if err != nil {
			a.logger.Printf("notice lookup %s: %v", opID, err)
			a.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			return
		}
		out := make([]noticePayload, 0, len(found))
		for _, n := range found {
			out = append(out, noticePayload{
				OpID:      n.OpID,
				Kind:      n.Kind,
				From:      string(n.From),
				To:        string(n.To),
				Symbol:    string(n.Symbol),
				Amount:    n.Amount,
				Memo:      n.Memo,
				EmittedAt: n.EmittedAt,
			})
		}
		a.writeJSON(w, http.StatusOK, map[string]any{"notices": out})
	})
}

// noticePayload is the JSON shape of a stored notice.
type noticePayload struct {
	OpID      string `json:"op_id"`
	Kind      string `json:"kind"`
	From      string `json:"from"`
	To        string `json:"to"`
	Symbol    string `json:"symbol"`
	Amount    int64  `json:"amount"`
	Memo      string `json:"memo"`
	EmittedAt int64  `json:"emitted_at"`
}

// accountsPayload is the JSON shape of the admin and treasury accounts.
type accountsPayload struct {
	Admin     string `json:"admin"`
	Team      string `json:"team"`
	Fund      string `json:"fund"`
	Marketing string `json:"marketing"`
	Dividend  string `json:"dividend"`
	Airdrop   string `json:"airdrop"`
	Liquidity string `json:"liquidity"`
}

func (p accountsPayload) toDomain() ledger.Accounts {
	return ledger.Accounts{
		Admin:     domain.Account(p.Admin),
		Team:      domain.Account(p.Team),
		Fund:      domain.Account(p.Fund),
		Marketing: domain.Account(p.Marketing),
		Dividend:  domain.Account(p.Dividend),
		Airdrop:   domain.Account(p.Airdrop),
		Liquidity: domain.Account(p.Liquidity),
	}
}

// feesPayload is the JSON shape of the fee schedule, rates in basis points.
type feesPayload struct {
	TeamBP      int64 `json:"team_bp"`
	FundBP      int64 `json:"fund_bp"`
	MarketingBP int64 `json:"marketing_bp"`
	BurnBP      int64 `json:"burn_bp"`
	DividendBP  int64 `json:"dividend_bp"`
	AirdropBP   int64 `json:"airdrop_bp"`
	LiquidityBP int64 `json:"liquidity_bp"`
}

func (p feesPayload) toDomain() domain.FeeSchedule {
	return domain.FeeSchedule{
		TeamBP:      p.TeamBP,
		FundBP:      p.FundBP,
		MarketingBP: p.MarketingBP,
		BurnBP:      p.BurnBP,
		DividendBP:  p.DividendBP,
		AirdropBP:   p.AirdropBP,
		LiquidityBP: p.LiquidityBP,
	}
}

func (a *API) handleInit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller   string          `json:"caller"`
		Minter   string          `json:"minter"`
		Accounts accountsPayload `json:"accounts"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.Init(r.Context(), domain.Account(req.Caller), domain.Account(req.Minter), req.Accounts.toDomain())
	a.finish(w, err, okBody)
}

func (a *API) handleAddMinter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.AddMinter(r.Context(), domain.Account(req.Caller), domain.Account(req.Account))
	a.finish(w, err, okBody)
}

func (a *API) handleAddWhitelist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.AddWhitelist(r.Context(), domain.Account(req.Caller), domain.Account(req.Account))
	a.finish(w, err, okBody)
}

func (a *API) handleRemoveWhitelist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.RemoveWhitelist(r.Context(), domain.Account(req.Caller), domain.Account(req.Account))
	a.finish(w, err, okBody)
}

func (a *API) handleSetAccounts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller   string          `json:"caller"`
		Accounts accountsPayload `json:"accounts"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.SetAccounts(r.Context(), domain.Account(req.Caller), req.Accounts.toDomain())
	a.finish(w, err, okBody)
}

func (a *API) handleSetFees(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string      `json:"caller"`
		Fees   feesPayload `json:"fees"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.SetFees(r.Context(), domain.Account(req.Caller), req.Fees.toDomain())
	a.finish(w, err, okBody)
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller    string `json:"caller"`
		Issuer    string `json:"issuer"`
		Symbol    string `json:"symbol"`
		MaxSupply int64  `json:"max_supply"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.Create(r.Context(), domain.Account(req.Caller), domain.Account(req.Issuer), domain.Symbol(req.Symbol), req.MaxSupply)
	a.finish(w, err, okBody)
}

// mintResponse is the JSON shape of a mint receipt.
type mintResponse struct {
	OpID  string        `json:"op_id"`
	Fees  fee.MintSplit `json:"fees"`
	Total int64         `json:"total"`
}

func (a *API) handleMint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		To     string `json:"to"`
		Symbol string `json:"symbol"`
		Amount int64  `json:"amount"`
		Memo   string `json:"memo"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	receipt, err := a.ledger.Mint(r.Context(), domain.Account(req.Caller), domain.Account(req.To), domain.Symbol(req.Symbol), req.Amount, req.Memo)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, mintResponse{OpID: receipt.OpID, Fees: receipt.Fees, Total: receipt.Total})
}

func (a *API) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Symbol string `json:"symbol"`
		Amount int64  `json:"amount"`
		Memo   string `json:"memo"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.Burn(r.Context(), domain.Account(req.Caller), domain.Symbol(req.Symbol), req.Amount, req.Memo)
	a.finish(w, err, okBody)
}

// transferResponse is the JSON shape of a transfer receipt.
type transferResponse struct {
	OpID  string            `json:"op_id"`
	Path  string            `json:"path"`
	Split fee.TransferSplit `json:"split"`
}

func (a *API) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		From   string `json:"from"`
		To     string `json:"to"`
		Symbol string `json:"symbol"`
		Amount int64  `json:"amount"`
		Memo   string `json:"memo"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	receipt, err := a.ledger.Transfer(r.Context(), domain.Account(req.Caller), domain.Account(req.From), domain.Account(req.To), domain.Symbol(req.Symbol), req.Amount, req.Memo)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, transferResponse{OpID: receipt.OpID, Path: receipt.Path, Split: receipt.Split})
}

func (a *API) handleClose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Symbol string `json:"symbol"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	err := a.ledger.Close(r.Context(), domain.Account(req.Caller), domain.Symbol(req.Symbol))
	a.finish(w, err, okBody)
}

func (a *API) handleBalance(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	symbol := r.URL.Query().Get("symbol")
	if owner == "" || symbol == "" {
		a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "owner and symbol are required"})
		return
	}
	amount, err := a.ledger.BalanceOf(r.Context(), domain.Account(owner), domain.Symbol(symbol))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"owner":  owner,
		"symbol": symbol,
		"amount": amount,
	})
}

func (a *API) handleSupply(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "symbol is required"})
		return
	}
	sup, err := a.ledger.SupplyOf(r.Context(), domain.Symbol(symbol))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"symbol":  string(sup.Symbol),
		"current": sup.Current,
		"max":     sup.Max,
		"issuer":  string(sup.Issuer),
	})
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.ledger.ConfigOf(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accountsPayload{
			Admin:     string(cfg.Admin),
			Team:      string(cfg.Team),
			Fund:      string(cfg.Fund),
			Marketing: string(cfg.Marketing),
			Dividend:  string(cfg.Dividend),
			Airdrop:   string(cfg.Airdrop),
			Liquidity: string(cfg.Liquidity),
		},
		"fees": feesPayload{
			TeamBP:      cfg.Fees.TeamBP,
			FundBP:      cfg.Fees.FundBP,
			MarketingBP: cfg.Fees.MarketingBP,
			BurnBP:      cfg.Fees.BurnBP,
			DividendBP:  cfg.Fees.DividendBP,
			AirdropBP:   cfg.Fees.AirdropBP,
			LiquidityBP: cfg.Fees.LiquidityBP,
		},
	})
}

type errorBody struct {
	Error string `json:"error"`
}

var okBody = map[string]string{"status": "ok"}

// decode reads the JSON request body into dst. On failure it writes a 400
// and returns false.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return false
	}
	return true
}

// finish writes either the error or the given success body.
func (a *API) finish(w http.ResponseWriter, err error, body any) {
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, body)
}

// writeError maps a ledger error class to an HTTP status.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, ledger.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrAlreadyExists), errors.Is(err, ledger.ErrUninitialized):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrSupplyExceeded),
		errors.Is(err, ledger.ErrNonZeroBalance):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		a.logger.Printf("internal error: %v", err)
		a.writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	a.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Printf("write response: %v", err)
	}
}
