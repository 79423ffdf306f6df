// Package bridge is the panel's client for the host bridge callbacks.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"nftconnect/internal/models"
)

const (
	OpGetManifestURL = "getManifestUrl"
	OpRequestPayload = "requestPayload"
	OpSubmitProof    = "submitProof"
	OpHideUI         = "hideUI"
	OpShowUI         = "showUI"
)

var ErrEmptyResponse = errors.New("empty bridge response")

type Config struct {
	BaseURL    string
	Resource   string
	Timeout    time.Duration
	RetryCount int
}

type Client struct {
	cfg  Config
	doer heimdall.Doer
	// submitProof is not idempotent and is never retried
	submitDoer heimdall.Doer
	logger     *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Resource == "" {
		cfg.Resource = DefaultResourceName
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:        cfg,
		doer:       newDoer(cfg.Timeout, cfg.RetryCount),
		submitDoer: newDoer(cfg.Timeout, 0),
		logger:     logger,
	}
}

// GetManifestURL returns an empty url without error when the bridge answers
// but has no manifest configured.
func (c *Client) GetManifestURL(ctx context.Context) (string, error) {
	body, err := c.post(ctx, c.doer, OpGetManifestURL, struct{}{})
	if err != nil {
		return "", err
	}
	return decodeText(body), nil
}

func (c *Client) RequestPayload(ctx context.Context) (string, error) {
	body, err := c.post(ctx, c.doer, OpRequestPayload, struct{}{})
	if err != nil {
		return "", err
	}

	var resp models.NoncePayload
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode payload response: %w", err)
	}
	if resp.Payload == "" {
		return "", ErrEmptyResponse
	}
	return resp.Payload, nil
}

func (c *Client) SubmitProof(ctx context.Context, submission models.ProofSubmission) (models.ProofAck, error) {
	var ack models.ProofAck
	body, err := c.post(ctx, c.submitDoer, OpSubmitProof, submission)
	if err != nil {
		return ack, err
	}

	// an unreadable acknowledgement is reported as an unexpected status
	if err := json.Unmarshal(body, &ack); err != nil {
		c.logger.Warn("unreadable submitProof acknowledgement", zap.ByteString("body", body))
	}
	return ack, nil
}

func (c *Client) HideUI(ctx context.Context) error {
	_, err := c.post(ctx, c.doer, OpHideUI, struct{}{})
	return err
}

func (c *Client) post(ctx context.Context, doer heimdall.Doer, op string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	body, err := postJSON(ctx, doer, Endpoint(c.cfg.BaseURL, c.cfg.Resource, op), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Debug("bridge call", zap.String("op", op), zap.Int("bytes", len(body)))
	return body, nil
}

// decodeText accepts either a JSON string or a bare text body.
func decodeText(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}

	if trimmed[0] == '{' || trimmed[0] == '[' || string(trimmed) == "null" {
		return ""
	}
	return string(trimmed)
}
