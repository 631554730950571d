package metrics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightears/zonewatch/internal/logging"
)

// StartInfluxPusher starts a background loop pushing the metrics snapshot to
// InfluxDB in line protocol. Used by installations without a Prometheus
// scraper.
func StartInfluxPusher(ctx context.Context, url, token, org, bucket string, interval time.Duration) {
	if url == "" || bucket == "" {
		return
	}
	log := logging.With("influx")
	log.Info().Str("url", url).Dur("interval", interval).Msg("starting influxdb pusher")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	client := &http.Client{Timeout: 5 * time.Second}
	writeURL := fmt.Sprintf("%s/api/v2/write?org=%s&bucket=%s&precision=s", strings.TrimRight(url, "/"), org, bucket)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pushToInflux(client, writeURL, token, log)
		}
	}
}

func pushToInflux(client *http.Client, url, token string, log zerolog.Logger) {
	s := GetSnapshot()

	// Line protocol: measurement field=value... timestamp
	lines := fmt.Sprintf(
		"zonewatch discovery_runs=%di,discovery_failures=%di,zones=%di,notifications_sent=%di,notifications_failed=%di,last_run=%di %d",
		s.DiscoveryRuns, s.DiscoveryFailures, s.ZonesDiscovered, s.NotificationsSent, s.NotificationsFailed, s.LastRun, time.Now().Unix(),
	)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(lines)))
	if err != nil {
		log.Error().Err(err).Msg("influxdb request creation failed")
		return
	}
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("influxdb push failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Msg("influxdb rejected metrics")
	}
}
