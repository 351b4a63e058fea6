package ddns

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// For more information see https://www.ipify.org
const ipifyEndpoint = "https://api.ipify.org/?format=json"

// IPLookup resolves the machine's current public IP by asking an external
// web service. The zero value queries the ipify endpoint.
//
// Endpoint may be set to any service that answers a GET request with a JSON
// body of the form {"ip": "<address>"}. The recommended approach for the
// security-conscious is to run your own service over https and point
// Endpoint at it.
//
// The reported address is passed through exactly as the service returned it;
// no parsing or canonicalization is applied.
type IPLookup struct {
	Endpoint   string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// CurrentIP implements ddns.Resolver.
func (l *IPLookup) CurrentIP(ctx context.Context) (string, error) {
	endpoint := l.Endpoint
	if endpoint == "" {
		endpoint = ipifyEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := l.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}
	resp, err := httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	l.log().Debugf("request URL: %s, status code: %d", endpoint, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: endpoint}
	}

	var parsed struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("error parsing IP lookup response body: %w", err)
	}
	if parsed.IP == "" {
		return "", fmt.Errorf("IP lookup response from %s did not contain an ip field", endpoint)
	}
	return parsed.IP, nil
}

func (l *IPLookup) log() logrus.FieldLogger {
	if l.logger == nil {
		return discard
	}
	return l.logger
}

func (l *IPLookup) SetLogger(logger logrus.FieldLogger) {
	l.logger = logger
}

func (l *IPLookup) SetHTTPClient(httpclient *http.Client) {
	l.httpClient = httpclient
}
