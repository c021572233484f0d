package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/benbjohnson/clock"

	"github.com/tomz197/furbo/internal/types"
)

// maxBodySnippet bounds how much of an error body ends up in logs.
const maxBodySnippet = 200

// HTTPClient is a Client speaking JSON over HTTP.
type HTTPClient struct {
	url   string
	http  *http.Client
	clock clock.Clock
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the relay at url. timeout bounds every
// request; zero leaves it to the caller's context.
func NewHTTPClient(url string, timeout time.Duration, clk clock.Clock) *HTTPClient {
	if clk == nil {
		clk = clock.New()
	}
	return &HTTPClient{
		url:   strings.TrimSuffix(url, "/"),
		http:  &http.Client{Timeout: timeout},
		clock: clk,
	}
}

// SubmitAction posts a and returns the transaction signature.
func (c *HTTPClient) SubmitAction(ctx context.Context, player types.Identity, a types.Action) (Receipt, error) {
	body, err := EncodeAction(player, a, c.clock.Now())
	if err != nil {
		return Receipt{}, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Receipt{}, errorsmod.Wrap(types.ErrInvalidInput, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, errorsmod.Wrap(types.ErrRelayUnreachable, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Receipt{}, transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Receipt{}, transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, errorsmod.Wrapf(types.ErrRelayRejected, "%s: status %d: %s", a.Kind(), resp.StatusCode, snippet(data))
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return Receipt{}, errorsmod.Wrapf(types.ErrRelayRejected, "%s: malformed response: %v", a.Kind(), err)
	}
	if out.TxSignature == "" {
		return Receipt{}, errorsmod.Wrapf(types.ErrRelayRejected, "%s: response without txSignature", a.Kind())
	}
	return Receipt{Signature: out.TxSignature}, nil
}

// FetchLeaderboard reads the relay's top scores.
func (c *HTTPClient) FetchLeaderboard(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+LeaderboardPath, nil)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrRelayUnreachable, err.Error())
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
		return nil, errorsmod.Wrapf(types.ErrRelayRejected, "leaderboard: status %d: %s", resp.StatusCode, snippet(data))
	}
	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, errorsmod.Wrapf(types.ErrRelayRejected, "leaderboard: %v", err)
	}
	return entries, nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errorsmod.Wrap(types.ErrTimeout, err.Error())
	}
	return errorsmod.Wrap(types.ErrRelayUnreachable, err.Error())
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxBodySnippet {
		s = s[:maxBodySnippet] + "..."
	}
	if s == "" {
		return "(empty body)"
	}
	return fmt.Sprintf("%q", s)
}
