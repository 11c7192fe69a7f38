package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// errMissingAPIKey short-circuits a client whose key was never configured,
// so an unconfigured catalog is an immediate miss instead of a doomed
// request that burns the chain's timeout at every alternative.
var errMissingAPIKey = errors.New("api key not configured")

// decodeJSONResponse executes one request and decodes the JSON body into v.
// Non-2xx statuses include a trimmed excerpt of the body in the error.
func decodeJSONResponse(httpc *http.Client, req *http.Request, provider string, v any) error {
	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s http error: %w", provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s get %s failed: %s: %s", provider, req.URL.Path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s decode error: %w", provider, err)
	}
	return nil
}
