package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	appcfg "wallet-sync/internal/config"
)

var log = logging.Logger("rpc")

// MethodPrefix is prepended to every method name sent to the ledger gateway.
const MethodPrefix = "Ledger."

// Client represents a JSON-RPC client for communicating with the ledger gateway.
// It handles authentication, request formatting, and response parsing.
type Client struct {
	url    string
	token  string
	client *resty.Client
	nextID int64
}

// jsonRPCRequest represents a JSON-RPC 2.0 request structure.
type jsonRPCRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int64         `json:"id"`
}

// jsonRPCResponse represents a JSON-RPC 2.0 response structure.
type jsonRPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// Error is a JSON-RPC 2.0 error object returned by the gateway.
// Any other error returned by Call is a transport failure.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error: %s (code: %d)", e.Message, e.Code)
}

// NewClient creates a gateway client for the given endpoint.
// timeout bounds every request; zero disables the client-side limit.
func NewClient(url, token string, timeout time.Duration) *Client {
	rc := resty.New().SetTimeout(timeout)
	if token != "" {
		rc.SetAuthToken(token)
	}
	return &Client{
		url:    url,
		token:  token,
		client: rc,
	}
}

// NewLedgerApi creates a new gateway client from the resolved configuration.
func NewLedgerApi(cfg *appcfg.Config) *Client {
	log.Info("NewLedgerApi: initializing ledger gateway client")

	if cfg.GatewayToken != "" {
		log.Infof("NewLedgerApi: connecting to %s (with token)", cfg.GatewayHost)
	} else {
		log.Warnf("NewLedgerApi: connecting to %s (no token)", cfg.GatewayHost)
	}

	return NewClient(cfg.GatewayHost, cfg.GatewayToken, cfg.CallTimeout)
}

// URL returns the gateway endpoint.
func (c *Client) URL() string {
	return c.url
}

// Call executes a JSON-RPC method call on the ledger gateway.
// The method name is automatically prefixed with "Ledger.".
// If result is not nil, the response will be unmarshaled into it.
func (c *Client) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	log.Debugf("Call: calling RPC method %s with %d params", method, len(params))

	if params == nil {
		params = []interface{}{}
	}
	reqBody := jsonRPCRequest{
		Jsonrpc: "2.0",
		Method:  MethodPrefix + method,
		Params:  params,
		ID:      atomic.AddInt64(&c.nextID, 1),
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(c.url)
	if err != nil {
		log.Errorf("Call: failed to send request to %s: %v", c.url, err)
		return xerrors.Errorf("failed to send request: %w", err)
	}

	// Check HTTP status code
	if resp.StatusCode() != http.StatusOK {
		log.Errorf("Call: HTTP error %d: %s", resp.StatusCode(), resp.String())
		return xerrors.Errorf("HTTP error %d: %s", resp.StatusCode(), resp.String())
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		log.Errorf("Call: failed to unmarshal response: %v", err)
		return xerrors.Errorf("failed to unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		log.Warnf("Call: RPC error for method %s: %s (code: %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
		return rpcResp.Error
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			log.Errorf("Call: failed to unmarshal result for method %s: %v", method, err)
			return xerrors.Errorf("failed to unmarshal result: %w", err)
		}
	}

	log.Debugf("Call: successfully called %s", method)
	return nil
}
