package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/segmentio/encoding/json"

	"nftconnect/internal/models"
)

func newDoer(timeout time.Duration, retryCount int) heimdall.Doer {
	backoff := heimdall.NewExponentialBackoff(200*time.Millisecond, 2*time.Second, 2, 50*time.Millisecond)
	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(timeout),
		httpclient.WithRetryCount(retryCount),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
	)
}

func postJSON(ctx context.Context, doer heimdall.Doer, url string, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := doer.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return body, nil
}

// VerifierClient forwards proof submissions to the service that checks the
// signature and looks up NFT holdings.
type VerifierClient struct {
	url  string
	doer heimdall.Doer
}

func NewVerifierClient(url string, timeout time.Duration) *VerifierClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &VerifierClient{url: url, doer: newDoer(timeout, 2)}
}

func (c *VerifierClient) Verify(ctx context.Context, submission *models.ProofSubmission) (*models.VerificationResult, error) {
	data, err := json.Marshal(submission)
	if err != nil {
		return nil, err
	}

	body, err := postJSON(ctx, c.doer, c.url, data)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	var result models.VerificationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("verify: decode result: %w", err)
	}
	return &result, nil
}

// PanelNotifier pushes inbound messages to the panel's message endpoint.
type PanelNotifier struct {
	url  string
	doer heimdall.Doer
}

func NewPanelNotifier(nuiURL string, timeout time.Duration) *PanelNotifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &PanelNotifier{
		url:  strings.TrimSuffix(nuiURL, "/") + "/nui/message",
		doer: newDoer(timeout, 1),
	}
}

func (n *PanelNotifier) Notify(ctx context.Context, msg models.Inbound) error {
	data, err := models.MarshalInbound(msg)
	if err != nil {
		return err
	}

	if _, err := postJSON(ctx, n.doer, n.url, data); err != nil {
		return fmt.Errorf("notify panel: %w", err)
	}
	return nil
}
