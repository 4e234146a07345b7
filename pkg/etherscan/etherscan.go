package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ethlookup/pkg/models"
)

const noTransactionsMessage = "No transactions found"

// Doer is satisfied by *http.Client and lets tests swap the transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	doer    Doer
	baseURL string
	apiKey  string
}

func NewClient(doer Doer, baseURL, apiKey string) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{doer: doer, baseURL: baseURL, apiKey: apiKey}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Query performs a GET against the API with the given module, action and
// parameters. Empty parameter values are omitted. On success the result
// field is decoded into out.
func (c *Client) Query(ctx context.Context, module, action string, params map[string]string, out any) error {
	env, err := c.get(ctx, module, action, params)
	if err != nil {
		return err
	}
	if env.Message != "OK" {
		return providerError(env)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: unexpected %s/%s result: %v", models.ErrProvider, module, action, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, module, action string, params map[string]string) (*envelope, error) {
	q := url.Values{}
	q.Set("module", module)
	q.Set("action", action)
	for k, v := range params {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %s", models.ErrNetwork, c.redact(err))
	}
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNetwork, c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", models.ErrNetwork, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", models.ErrNetwork, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", models.ErrProvider, err)
	}
	return &env, nil
}

// redact renders err with the API key masked. Transport errors quote the
// request URL, which carries the key as a query parameter.
func (c *Client) redact(err error) string {
	msg := err.Error()
	if c.apiKey == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(c.apiKey), "****")
	return strings.ReplaceAll(msg, c.apiKey, "****")
}

func providerError(env *envelope) error {
	var detail string
	if err := json.Unmarshal(env.Result, &detail); err != nil {
		detail = strings.TrimSpace(string(env.Result))
	}
	return &models.ProviderError{Message: env.Message, Detail: detail}
}

// Balance returns the latest balance of address in wei as a decimal string.
func (c *Client) Balance(ctx context.Context, address string) (string, error) {
	var result string
	err := c.Query(ctx, "account", "balance", map[string]string{
		"address": address,
		"tag":     "latest",
	}, &result)
	if err != nil {
		return "", err
	}
	n, ok := new(big.Int).SetString(result, 10)
	if !ok || n.Sign() < 0 {
		return "", fmt.Errorf("%w: balance %q is not a non-negative integer", models.ErrProvider, result)
	}
	return n.String(), nil
}

// Transactions returns the normal transactions of address, most recent first,
// in the order the provider sends them.
func (c *Client) Transactions(ctx context.Context, address string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := c.Query(ctx, "account", "txlist", map[string]string{
		"address":    address,
		"startblock": "0",
		"endblock":   "99999999",
		"page":       "0",
		"offset":     "100000",
		"sort":       "desc",
	}, &txs)
	if err != nil {
		var pe *models.ProviderError
		if errors.As(err, &pe) && pe.Message == noTransactionsMessage {
			return []models.Transaction{}, nil
		}
		return nil, err
	}

	for i := range txs {
		if txs[i].Hash == "" {
			return nil, fmt.Errorf("%w: transaction %d has no hash", models.ErrProvider, i)
		}
		ts, err := strconv.ParseInt(txs[i].TimeStamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %s has invalid timestamp %q", models.ErrProvider, txs[i].Hash, txs[i].TimeStamp)
		}
		txs[i].Date = time.Unix(ts, 0)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}
