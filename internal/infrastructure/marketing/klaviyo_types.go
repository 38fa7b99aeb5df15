package marketing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ---------------------------------------------------------------------------
// JSON:API envelopes
// ---------------------------------------------------------------------------

type klaviyoDocument[T any] struct {
	Data T `json:"data"`
}

type klaviyoResource[A any] struct {
	Type       string `json:"type"`
	Attributes A      `json:"attributes"`
}

type klaviyoEventAttributes struct {
	Properties map[string]any                                       `json:"properties"`
	Metric     klaviyoDocument[klaviyoResource[klaviyoMetricAttrs]]  `json:"metric"`
	Profile    klaviyoDocument[klaviyoResource[klaviyoProfileAttrs]] `json:"profile"`
}

type klaviyoMetricAttrs struct {
	Name string `json:"name"`
}

type klaviyoProfileAttrs struct {
	Email string `json:"email"`
}

type klaviyoEventRequest = klaviyoDocument[klaviyoResource[klaviyoEventAttributes]]

func newKlaviyoEventRequest(metric, email string, properties map[string]any) klaviyoEventRequest {
	return klaviyoEventRequest{
		Data: klaviyoResource[klaviyoEventAttributes]{
			Type: "event",
			Attributes: klaviyoEventAttributes{
				Properties: properties,
				Metric: klaviyoDocument[klaviyoResource[klaviyoMetricAttrs]]{
					Data: klaviyoResource[klaviyoMetricAttrs]{Type: "metric", Attributes: klaviyoMetricAttrs{Name: metric}},
				},
				Profile: klaviyoDocument[klaviyoResource[klaviyoProfileAttrs]]{
					Data: klaviyoResource[klaviyoProfileAttrs]{Type: "profile", Attributes: klaviyoProfileAttrs{Email: email}},
				},
			},
		},
	}
}

type klaviyoMetricsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type klaviyoEventsResponse struct {
	Data     []klaviyoEventItem    `json:"data"`
	Included []klaviyoIncludedItem `json:"included"`
}

type klaviyoEventItem struct {
	ID         string `json:"id"`
	Attributes struct {
		Timestamp  klaviyoTimestamp `json:"timestamp"`
		Datetime   klaviyoTimestamp `json:"datetime"`
		Properties map[string]any   `json:"event_properties"`
		Legacy     map[string]any   `json:"properties"`
	} `json:"attributes"`
	Relationships struct {
		Profile struct {
			Data *struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"profile"`
	} `json:"relationships"`
}

type klaviyoIncludedItem struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		Email string `json:"email"`
	} `json:"attributes"`
}

type klaviyoTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// klaviyoTimestamp accepts both unix seconds and RFC 3339 strings; the events
// API has returned each across revisions.
type klaviyoTimestamp struct {
	time.Time
}

func (t *klaviyoTimestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("klaviyo timestamp %q: %w", s, err)
		}
		t.Time = parsed.UTC()
		return nil
	}
	secs, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("klaviyo timestamp %s: %w", b, err)
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}
