package ddns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/sirupsen/logrus"
)

func newCloudflareProvider(token string) (cf *cloudflareProvider, err error) {
	cf = new(cloudflareProvider)
	cf.api, err = cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.logger = discard
	cf.comment = "managed by pbddns"
	return cf, nil
}

// cloudflareProvider implements ddns.Provider.
//
// It should be constructed through ddns.UsingCloudflare.
type cloudflareProvider struct {
	api     *cloudflare.API
	logger  logrus.FieldLogger
	comment string // optional comment to attach to each new DNS entry
}

func (cf *cloudflareProvider) ARecord(ctx context.Context, domain string) (Record, error) {
	if cf.api == nil {
		return Record{}, errors.New("cloudflare provider must be constructed with ddns.UsingCloudflare")
	}
	zid, err := cf.getZoneIDFromDomain(ctx, domain)
	if err != nil {
		return Record{}, fmt.Errorf("unable to get zone ID for %s: %w", domain, err)
	}
	cf.logger.Debugf("got zone ID: %s", zid)

	records, err := cf.listARecords(ctx, zid, domain)
	if err != nil {
		return Record{}, err
	}
	if n := len(records); n != 1 {
		return Record{}, fmt.Errorf("%w for %s; got %d", ErrRecordCount, domain, n)
	}
	return Record{IP: records[0].Content, TTL: records[0].TTL}, nil
}

func (cf *cloudflareProvider) SetARecord(ctx context.Context, domain string, ip string, ttl int) error {
	if cf.api == nil {
		return errors.New("cloudflare provider must be constructed with ddns.UsingCloudflare")
	}
	zid, err := cf.getZoneIDFromDomain(ctx, domain)
	if err != nil {
		return fmt.Errorf("unable to get zone ID for %s: %w", domain, err)
	}

	records, err := cf.listARecords(ctx, zid, domain)
	if err != nil {
		return err
	}

	// Replace rather than edit: delete any stale A records and create the
	// new one if it's not already present.
	exists := false
	for _, r := range records {
		if r.Content == ip {
			cf.logger.Debugf("record already exists for %s", ip)
			exists = true
			continue
		}
		cf.logger.Debugf("deleting DNS record for %s...", r.Content)
		if err := cf.api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), r.ID); err != nil {
			return fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)
		}
		cf.logger.Debugf("successfully deleted record for %s", r.Content)
	}
	if exists {
		return nil
	}

	cf.logger.Debugf("creating record for %s...", ip)
	record, err := cf.api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.CreateDNSRecordParams{
		Type:    "A",
		Name:    domain,
		Content: ip,
		ZoneID:  zid,
		TTL:     ttl,
		Comment: cf.comment,
	})
	if err != nil {
		return fmt.Errorf("error creating DNS record: %w", err)
	}
	cf.logger.Debugf("successfully added record: %+v", record)
	return nil
}

func (cf *cloudflareProvider) listARecords(ctx context.Context, zid string, domain string) ([]cloudflare.DNSRecord, error) {
	cf.logger.Debugf("looking up A records for zone %s...", zid)
	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.ListDNSRecordsParams{
		Type: "A",
		Name: domain,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing DNS records for %s: %w", domain, err)
	}
	cf.logger.Debugf("found %d existing records: %+v", len(records), records)
	return records, nil
}

func (cf *cloudflareProvider) getZoneIDFromDomain(ctx context.Context, domain string) (zid string, err error) {
	zones, err := cf.api.ListZones(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing zones: %w", err)
	}

	max := 0
	for _, z := range zones {
		if strings.HasSuffix(domain, z.Name) && len(z.Name) > max {
			max, zid = len(z.Name), z.ID
		}
	}
	if max == 0 {
		return "", fmt.Errorf("unable to find a zone matching \"%s\"", domain)
	}
	return zid, nil
}

func (cf *cloudflareProvider) SetLogger(logger logrus.FieldLogger) {
	cf.logger = logger
}

func (cf *cloudflareProvider) SetHTTPClient(httpclient *http.Client) {
	cloudflare.HTTPClient(httpclient)(cf.api)
}
