package sessionsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fanhub-app/fanhub/internal/domain"
	"github.com/fanhub-app/fanhub/internal/infra/metrics"
)

// Response fields tried, in order, when extracting the bearer token from a
// success body. Absence of all three is accepted and yields no token.
//
//nolint:gochecknoglobals
var tokenFields = []string{"access", "token", "auth_token"}

// probeResult is what a successful candidate attempt yielded.
type probeResult struct {
	token string
	user  domain.Profile
}

// probeError is a single failed candidate attempt: a metrics label plus the
// human-readable message recorded for the caller. The probing loop treats
// every kind of failure the same way (record, move on); only the message of
// the last one survives.
type probeError struct {
	result  string
	message string
}

func (e *probeError) Error() string {
	return e.message
}

// probe issues one candidate attempt: POST the credentials as JSON to path and
// classify the outcome. A 404 means the candidate does not exist on this
// backend and is not a terminal failure.
func (s *SessionService) probe(
	ctx context.Context,
	path string,
	creds domain.Credentials,
) (probeResult, *probeError) {
	body, err := json.Marshal(creds)
	if err != nil {
		return probeResult{}, &probeError{result: metrics.ProbeTransportError, message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return probeResult{}, &probeError{result: metrics.ProbeTransportError, message: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return probeResult{}, &probeError{result: metrics.ProbeTransportError, message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return probeResult{}, &probeError{result: metrics.ProbeTransportError, message: err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return probeResult{}, &probeError{
			result:  metrics.ProbeNotFound,
			message: fmt.Sprintf("endpoint not found: %s", path),
		}
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return probeResult{}, &probeError{
			result:  metrics.ProbeRejected,
			message: rejectionMessage(raw),
		}
	}

	return parseSuccess(raw)
}

// parseSuccess extracts token and user from a 2xx body. A body that is not
// JSON is treated like a transport failure (the next candidate is tried).
func parseSuccess(raw []byte) (probeResult, *probeError) {
	var payload map[string]any

	if err := json.Unmarshal(raw, &payload); err != nil {
		return probeResult{}, &probeError{result: metrics.ProbeTransportError, message: err.Error()}
	}

	var result probeResult

	for _, field := range tokenFields {
		if token, ok := payload[field].(string); ok && token != "" {
			result.token = token

			break
		}
	}

	if user, ok := payload["user"].(map[string]any); ok {
		result.user = domain.Profile(user)
	} else if username, ok := payload["username"].(string); ok {
		result.user = domain.NewProfile(username)
	}

	return result, nil
}

// rejectionMessage turns a non-2xx body into one human-readable message.
// Precedence: "detail" field, then "non_field_errors", then the whole parsed
// body; a body that is not JSON is used verbatim. Structured values are
// rendered as compact JSON so the message is deterministic.
func rejectionMessage(raw []byte) string {
	var payload map[string]any

	if err := json.Unmarshal(raw, &payload); err != nil {
		return string(raw)
	}

	if detail, ok := payload["detail"]; ok {
		if message, ok := detail.(string); ok {
			return message
		}

		return compactJSON(detail)
	}

	if nfe, ok := payload["non_field_errors"]; ok {
		return compactJSON(nfe)
	}

	return compactJSON(payload)
}

func compactJSON(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}

	return string(raw)
}
