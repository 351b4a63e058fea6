package ddns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

// API documentation: https://porkbun.com/api/json/v3/documentation
const (
	porkbunRetrieveEndpoint = "https://porkbun.com/api/json/v3/dns/retrieveByNameType/%s/A/"
	porkbunEditEndpoint     = "https://porkbun.com/api/json/v3/dns/editByNameType/%s/A/"
)

func newPorkbunProvider(apiKey, apiSecret string) (*porkbunProvider, error) {
	if apiKey == "" {
		return nil, errors.New("api key cannot be empty")
	}
	if apiSecret == "" {
		return nil, errors.New("api secret cannot be empty")
	}
	return &porkbunProvider{
		apiKey:           apiKey,
		apiSecret:        apiSecret,
		retrieveEndpoint: porkbunRetrieveEndpoint,
		editEndpoint:     porkbunEditEndpoint,
		logger:           discard,
	}, nil
}

// porkbunProvider implements ddns.Provider against the Porkbun REST API.
//
// It should be constructed through ddns.UsingPorkbun.
type porkbunProvider struct {
	apiKey     string
	apiSecret  string
	httpClient *http.Client

	// endpoints are format strings taking the domain;
	// overridable in tests.
	retrieveEndpoint string
	editEndpoint     string

	logger logrus.FieldLogger
}

// Porkbun serializes record TTLs as strings on the wire even though they are
// integer seconds. Requests must encode them the same way.
type porkbunRecord struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	TTL     string `json:"ttl"`
}

type porkbunRetrieveResponse struct {
	Status  string          `json:"status"`
	Records []porkbunRecord `json:"records"`
}

type porkbunRetrieveRequest struct {
	SecretAPIKey string `json:"secretapikey"`
	APIKey       string `json:"apikey"`
}

type porkbunEditRequest struct {
	SecretAPIKey string `json:"secretapikey"`
	APIKey       string `json:"apikey"`
	Content      string `json:"content"`
	TTL          string `json:"ttl"`
}

func (p *porkbunProvider) ARecord(ctx context.Context, domain string) (Record, error) {
	if domain == "" {
		return Record{}, errors.New("domain cannot be empty")
	}

	body, err := p.post(ctx, fmt.Sprintf(p.retrieveEndpoint, domain), porkbunRetrieveRequest{
		SecretAPIKey: p.apiSecret,
		APIKey:       p.apiKey,
	})
	if err != nil {
		return Record{}, err
	}

	var parsed porkbunRetrieveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Record{}, fmt.Errorf("error parsing porkbun response: %w", err)
	}
	if parsed.Status != "SUCCESS" {
		return Record{}, fmt.Errorf("porkbun returned status %q", parsed.Status)
	}
	if n := len(parsed.Records); n != 1 {
		return Record{}, fmt.Errorf("%w for %s; got %d", ErrRecordCount, domain, n)
	}

	rec := parsed.Records[0]
	ttl, err := strconv.Atoi(rec.TTL)
	if err != nil {
		return Record{}, fmt.Errorf("error parsing record TTL %q: %w", rec.TTL, err)
	}
	return Record{IP: rec.Content, TTL: ttl}, nil
}

func (p *porkbunProvider) SetARecord(ctx context.Context, domain string, ip string, ttl int) error {
	if domain == "" {
		return errors.New("domain cannot be empty")
	}

	// A 2xx status alone confirms the edit; the response body is not parsed.
	_, err := p.post(ctx, fmt.Sprintf(p.editEndpoint, domain), porkbunEditRequest{
		SecretAPIKey: p.apiSecret,
		APIKey:       p.apiKey,
		Content:      ip,
		TTL:          strconv.Itoa(ttl),
	})
	return err
}

func (p *porkbunProvider) post(ctx context.Context, url string, payload any) ([]byte, error) {
	reqbody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqbody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpclient := p.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}
	resp, err := httpclient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	p.logger.Debugf("request URL: %s, status code: %d", url, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	return body, nil
}

func (p *porkbunProvider) SetLogger(logger logrus.FieldLogger) {
	p.logger = logger
}

func (p *porkbunProvider) SetHTTPClient(httpclient *http.Client) {
	p.httpClient = httpclient
}
