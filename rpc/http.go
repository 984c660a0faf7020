package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokensale/core"
	"tokensale/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the node over the JSON-RPC envelope. Mutating methods
// require the bearer token from TOKENSALE_RPC_TOKEN when one is configured.
type Server struct {
	node      *core.Node
	authToken string
	logger    *slog.Logger
}

// NewServer wraps a node. The auth token is read from the environment so
// deployments can rotate it without a config change.
func NewServer(node *core.Node, logger *slog.Logger) *Server {
	return &Server{
		node:      node,
		authToken: strings.TrimSpace(os.Getenv("TOKENSALE_RPC_TOKEN")),
		logger:    logger,
	}
}

// Router assembles the HTTP surface: the JSON-RPC endpoint plus health and
// metrics.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/", s.handle)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start serves the router on addr and blocks.
func (s *Server) Start(addr string) error {
	if s.logger != nil {
		s.logger.Info("starting JSON-RPC server", "addr", addr)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

type authError struct {
	Code    int
	Message string
}

func (s *Server) requireAuth(r *http.Request) *authError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &authError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &authError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}

	start := time.Now()
	outcome := s.dispatch(w, r, req)
	observability.Metrics().RPCRequests.WithLabelValues(req.Method, outcome).Inc()
	observability.Metrics().RPCLatency.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
}

// dispatch routes the request by method name. Mutating methods sit behind
// bearer auth; queries are open.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) string {
	mutating := map[string]func(http.ResponseWriter, *RPCRequest){
		"crowdsale_start":           s.handleSaleStart,
		"crowdsale_end":             s.handleSaleEnd,
		"crowdsale_emergencyStop":   s.handleEmergencyStop,
		"crowdsale_setRate":         s.handleSetRate,
		"crowdsale_buy":             s.handleBuy,
		"crowdsale_withdrawPayment": s.handleWithdrawPayment,
		"crowdsale_withdrawUnsold":  s.handleWithdrawUnsold,
		"lockvault_claimAll":        s.handleClaimAll,
		"lockvault_claim":           s.handleClaim,
		"token_transfer":            s.handleTokenTransfer,
		"token_approve":             s.handleTokenApprove,
		"token_transferFrom":        s.handleTokenTransferFrom,
		"token_mint":                s.handleTokenMint,
		"token_setPaused":           s.handleTokenSetPaused,
	}
	queries := map[string]func(http.ResponseWriter, *RPCRequest){
		"crowdsale_status":         s.handleSaleStatus,
		"crowdsale_record":         s.handleRecord,
		"crowdsale_previewSale":    s.handlePreviewSale,
		"crowdsale_previewPayment": s.handlePreviewPayment,
		"lockvault_schedules":      s.handleSchedules,
		"lockvault_locked":         s.handleLocked,
		"lockvault_claimable":      s.handleClaimable,
		"lockvault_remainingLock":  s.handleRemainingLock,
		"token_balance":            s.handleTokenBalance,
		"token_allowance":          s.handleTokenAllowance,
		"token_supply":             s.handleTokenSupply,
		"node_events":              s.handleEvents,
	}
	if handler, ok := mutating[req.Method]; ok {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, nil)
			return "unauthorized"
		}
		handler(w, req)
		return "ok"
	}
	if handler, ok := queries[req.Method]; ok {
		handler(w, req)
		return "ok"
	}
	writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	return "not_found"
}

// --- shared param helpers ---

func singleParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}
