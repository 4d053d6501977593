// Package iam is a client for the Tigris IAM API: access policies and access
// keys of the selected organization. Requests are form-encoded IAM query
// actions answered with XML, authenticated with the OAuth session token.
// Organizations and their members live on the management API, which speaks
// JSON.
package iam

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/tigrisdata/cli/internal/auth"
	"github.com/tigrisdata/cli/internal/constants"
	"github.com/tigrisdata/cli/internal/logging"
	"github.com/tigrisdata/cli/internal/storage"
)

// APIVersion is sent with every action.
const APIVersion = "2010-05-08"

// ErrOAuthRequired is returned when the session is not an OAuth login.
var ErrOAuthRequired = errors.New("IAM requires an OAuth login.\nRun \"tigris login oauth\" first.")

// APIError is an error response from the IAM API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("IAM request failed with status %d", e.StatusCode)
}

type errorResponse struct {
	XMLName   xml.Name `xml:"ErrorResponse"`
	Code      string   `xml:"Error>Code"`
	Message   string   `xml:"Error>Message"`
	RequestID string   `xml:"RequestId"`
}

// Client calls the IAM API on behalf of one organization.
type Client struct {
	endpoint     string
	mgmtEndpoint string
	token        string
	organization string
	httpClient   *http.Client
	logger       *logging.Logger
}

// New returns a client for an OAuth StorageConfig.
func New(sc *auth.StorageConfig, logger *logging.Logger) (*Client, error) {
	if !sc.IsOAuth() {
		return nil, ErrOAuthRequired
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		endpoint:     strings.TrimSuffix(sc.IAMEndpoint, "/"),
		mgmtEndpoint: strings.TrimSuffix(sc.MgmtEndpoint, "/"),
		token:        sc.SessionToken,
		organization: sc.OrganizationID,
		httpClient: &http.Client{
			Timeout:   constants.DefaultIAMTimeout,
			Transport: logging.NewTransport(http.DefaultTransport, logger),
		},
		logger: logger,
	}, nil
}

// do posts one action and decodes the XML answer into out.
func (c *Client) do(ctx context.Context, action string, params url.Values, out any) error {
	_, err := WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, c.doOnce(ctx, action, params, out)
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, action string, params url.Values, out any) error {
	form := url.Values{}
	for k, v := range params {
		form[k] = v
	}
	form.Set("Action", action)
	form.Set("Version", APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/xml")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if xml.Unmarshal(body, &er) == nil {
			apiErr.Code, apiErr.Message, apiErr.RequestID = er.Code, er.Message, er.RequestID
		}
		c.logger.Debug("iam error", logging.Fields{"action": action, "status": resp.StatusCode, "code": apiErr.Code})
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", action, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.organization != "" {
		req.Header.Set(storage.NamespaceHeader, c.organization)
	}
}
