package kraken

import (
	"encoding/json"
	"testing"

	"github.com/R3E-Network/scenario-engine/internal/wsclient"
)

func TestCodec_IsPrivateFeed(t *testing.T) {
	c := Codec{}
	if !c.IsPrivateFeed("fills") {
		t.Error("fills should be private")
	}
	if c.IsPrivateFeed("ticker") {
		t.Error("ticker should be public")
	}
}

func TestCodec_EncodeSubscribe_Public(t *testing.T) {
	c := Codec{}
	frame, waiterKey := c.EncodeSubscribe("ticker", []string{"PI_XBTUSD"}, nil)
	if waiterKey != "subscribe:ticker" {
		t.Errorf("waiterKey = %q, want subscribe:ticker", waiterKey)
	}
	var m map[string]any
	if err := json.Unmarshal(frame, &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["event"] != "subscribe" || m["feed"] != "ticker" {
		t.Errorf("frame = %v", m)
	}
	if _, hasAuth := m["api_key"]; hasAuth {
		t.Error("public subscribe should not carry auth fields")
	}
}

func TestCodec_EncodeSubscribe_Private(t *testing.T) {
	c := Codec{}
	auth := &wsclient.AuthPayload{APIKey: "k", OriginalChallenge: "orig", SignedChallenge: "signed"}
	frame, waiterKey := c.EncodeSubscribe("fills", nil, auth)
	if waiterKey != "subscribe:fills" {
		t.Errorf("waiterKey = %q", waiterKey)
	}
	var m map[string]any
	_ = json.Unmarshal(frame, &m)
	if m["api_key"] != "k" || m["original_challenge"] != "orig" || m["signed_challenge"] != "signed" {
		t.Errorf("frame missing auth fields: %v", m)
	}
}

func TestCodec_Classify_Challenge(t *testing.T) {
	c := Codec{}
	frame := c.Classify([]byte(`{"event":"challenge","message":"abc123"}`))
	if frame.Kind != wsclient.KindChallenge || frame.Challenge != "abc123" {
		t.Errorf("frame = %+v", frame)
	}
}

func TestCodec_Classify_Subscribed(t *testing.T) {
	c := Codec{}
	frame := c.Classify([]byte(`{"event":"subscribed","feed":"ticker"}`))
	if frame.Kind != wsclient.KindSubscribed || frame.Feed != "ticker" || frame.WaiterKey != "subscribe:ticker" {
		t.Errorf("frame = %+v", frame)
	}
}

func TestCodec_Classify_FeedData(t *testing.T) {
	c := Codec{}
	frame := c.Classify([]byte(`{"feed":"ticker","product_id":"PI_XBTUSD","bid":50000}`))
	if frame.Kind != wsclient.KindFeedData || frame.Feed != "ticker" {
		t.Errorf("frame = %+v", frame)
	}
	if frame.Data["bid"] != float64(50000) {
		t.Errorf("data = %v", frame.Data)
	}
}

func TestCodec_Classify_Unknown(t *testing.T) {
	c := Codec{}
	frame := c.Classify([]byte(`not json`))
	if frame.Kind != wsclient.KindUnknown {
		t.Errorf("frame.Kind = %v, want Unknown", frame.Kind)
	}
}

func TestCodec_EncodeKeepalivePing(t *testing.T) {
	c := Codec{}
	ping := c.EncodeKeepalivePing()
	var m map[string]any
	_ = json.Unmarshal(ping, &m)
	if m["event"] != "ping" {
		t.Errorf("ping = %v", m)
	}
}
