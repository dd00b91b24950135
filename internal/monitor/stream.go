package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"skylink-gateway/internal/telemetry"
)

// streamFrames connects to the gateway's SSE telemetry stream and invokes
// deliver for every decoded frame until the context is cancelled or the
// connection drops.
func streamFrames(ctx context.Context, baseURL string, deliver func(telemetry.Frame)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/telemetry/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue // event names, keepalive comments, blank separators
		}
		var frame telemetry.Frame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			continue
		}
		deliver(frame)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
