package iam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tigrisdata/cli/internal/logging"
)

type mgmtError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// doJSON calls the management API. in, when set, is sent as the JSON body
// and out receives the decoded answer.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	_, err := WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, c.doJSONOnce(ctx, method, path, in, out)
	})
	return err
}

func (c *Client) doJSONOnce(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.mgmtEndpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get("X-Request-Id")}
		var me mgmtError
		if json.Unmarshal(raw, &me) == nil {
			apiErr.Code, apiErr.Message = me.Code, me.Message
			if me.Error != nil {
				apiErr.Code, apiErr.Message = me.Error.Code, me.Error.Message
			}
		}
		c.logger.Debug("management error", logging.Fields{"path": path, "status": resp.StatusCode})
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) orgPath(suffix string) string {
	return "/v1/organizations/" + url.PathEscape(c.organization) + suffix
}
