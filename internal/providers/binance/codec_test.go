package binance

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/R3E-Network/scenario-engine/internal/wsclient"
)

func TestCodec_IsPrivateFeed(t *testing.T) {
	c := NewCodec()
	if !c.IsPrivateFeed("userData") {
		t.Error("userData should be private")
	}
	if c.IsPrivateFeed("aggTrade") {
		t.Error("aggTrade should be public")
	}
}

func TestCodec_EncodeSubscribe_PublicMultiSymbol(t *testing.T) {
	c := NewCodec()
	frame, waiterKey := c.EncodeSubscribe("aggTrade", []string{"BTCUSDT", "ETHUSDT"}, nil)

	var m map[string]any
	_ = json.Unmarshal(frame, &m)
	if m["method"] != "SUBSCRIBE" {
		t.Errorf("method = %v", m["method"])
	}
	params, _ := m["params"].([]any)
	if len(params) != 2 || params[0] != "btcusdt@aggTrade" || params[1] != "ethusdt@aggTrade" {
		t.Errorf("params = %v", params)
	}
	id := int(m["id"].(float64))
	if waiterKey != fmt.Sprintf("req:%d", id) {
		t.Errorf("waiterKey = %q", waiterKey)
	}
}

func TestCodec_EncodeSubscribe_UserData(t *testing.T) {
	c := NewCodec()
	auth := &wsclient.AuthPayload{ListenKey: "my-listen-key"}
	frame, _ := c.EncodeSubscribe("userData", nil, auth)

	var m map[string]any
	_ = json.Unmarshal(frame, &m)
	params, _ := m["params"].([]any)
	if len(params) != 1 || params[0] != "my-listen-key" {
		t.Errorf("params = %v", params)
	}
}

func TestCodec_Classify_SubscribeConfirmation(t *testing.T) {
	c := NewCodec()
	_, waiterKey := c.EncodeSubscribe("aggTrade", []string{"BTCUSDT"}, nil)

	var req map[string]any
	id := 0
	fmt.Sscanf(waiterKey, "req:%d", &id)
	req = map[string]any{"result": nil, "id": id}
	raw, _ := json.Marshal(req)

	frame := c.Classify(raw)
	if frame.Kind != wsclient.KindSubscribed || frame.Feed != "aggTrade" || frame.WaiterKey != waiterKey {
		t.Errorf("frame = %+v", frame)
	}
}

func TestCodec_Classify_UnsubscribeConfirmation(t *testing.T) {
	c := NewCodec()
	_, waiterKey := c.EncodeUnsubscribe("aggTrade", []string{"BTCUSDT"})

	var id int
	fmt.Sscanf(waiterKey, "req:%d", &id)
	raw, _ := json.Marshal(map[string]any{"result": nil, "id": id})

	frame := c.Classify(raw)
	if frame.Kind != wsclient.KindUnsubscribed {
		t.Errorf("Kind = %v, want Unsubscribed", frame.Kind)
	}
}

func TestCodec_Classify_Error(t *testing.T) {
	c := NewCodec()
	_, waiterKey := c.EncodeSubscribe("aggTrade", []string{"BTCUSDT"}, nil)

	var id int
	fmt.Sscanf(waiterKey, "req:%d", &id)
	raw, _ := json.Marshal(map[string]any{"id": id, "error": map[string]any{"code": -2, "msg": "invalid params"}})

	frame := c.Classify(raw)
	if frame.Kind != wsclient.KindError || frame.ErrCode != -2 || frame.ErrMsg != "invalid params" {
		t.Errorf("frame = %+v", frame)
	}
}

func TestCodec_Classify_FeedData(t *testing.T) {
	c := NewCodec()
	raw, _ := json.Marshal(map[string]any{
		"stream": "btcusdt@aggTrade",
		"data":   map[string]any{"p": "50000.5"},
	})
	frame := c.Classify(raw)
	if frame.Kind != wsclient.KindFeedData || frame.Feed != "btcusdt@aggTrade" {
		t.Errorf("frame = %+v", frame)
	}
	if frame.Data["p"] != "50000.5" {
		t.Errorf("data = %v", frame.Data)
	}
}

func TestCodec_EncodeKeepalivePing_Nil(t *testing.T) {
	c := NewCodec()
	if c.EncodeKeepalivePing() != nil {
		t.Error("Binance keep-alive should be nil (server-initiated)")
	}
}
