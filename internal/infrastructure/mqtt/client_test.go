package mqtt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/nerrad567/airbridge/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
// Broker-backed tests require a running broker at 127.0.0.1:1883 and
// skip themselves when none is listening.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "airbridge-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// requireBroker skips the test when no broker is reachable.
func requireBroker(t *testing.T, cfg config.MQTTConfig) {
	t.Helper()
	addr := fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port)
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Skipf("no MQTT broker at %s: %v", addr, err)
	}
	conn.Close()
}

// =============================================================================
// Broker-free tests: validation and state paths that never touch the network
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on uninitialised client error = %v, want nil", err)
	}
}

func TestIsConnectedInitialState(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := &Client{}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := &Client{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.HealthCheck(ctx)
	if err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
	if errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want context error before connection check", err)
	}
}

func TestPublishEmptyTopic(t *testing.T) {
	client := &Client{}
	if err := client.Publish("", []byte("test"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	client := &Client{}
	if err := client.Publish("test/topic", []byte("test"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishOversizedPayload(t *testing.T) {
	client := &Client{}
	payload := make([]byte, maxPayloadSize+1)

	if err := client.Publish("test/topic", payload, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishDisconnected(t *testing.T) {
	client := &Client{}
	if err := client.Publish("test/topic", []byte("test"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestPublishRetainedDisconnected(t *testing.T) {
	client := &Client{}
	if err := client.PublishRetained("test/topic", []byte("test")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishRetained() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeEmptyTopic(t *testing.T) {
	client := &Client{}
	err := client.Subscribe("", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeInvalidQoS(t *testing.T) {
	client := &Client{}
	err := client.Subscribe("test/topic", 3, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	client := &Client{}
	if err := client.Subscribe("test/topic", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSubscribeDisconnected(t *testing.T) {
	client := &Client{}
	err := client.Subscribe("test/topic", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionCountEmpty(t *testing.T) {
	client := &Client{}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

// =============================================================================
// Broker-backed tests
// =============================================================================

func TestConnect(t *testing.T) {
	cfg := testConfig()
	requireBroker(t, cfg)

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
}

func TestPublishSubscribeRoundtrip(t *testing.T) {
	cfg := testConfig()
	requireBroker(t, cfg)
	cfg.Broker.ClientID = "airbridge-test-pub"

	pubClient, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pubClient.Close()

	cfg.Broker.ClientID = "airbridge-test-sub"
	subClient, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer subClient.Close()

	topic := TopicPrefix + "/test/roundtrip"
	expectedPayload := `{"test":"roundtrip"}`
	received := make(chan string, 1)

	err = subClient.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if subClient.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", subClient.SubscriptionCount())
	}

	// Give subscription time to register
	time.Sleep(100 * time.Millisecond)

	if err := pubClient.Publish(topic, []byte(expectedPayload), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case payload := <-received:
		if payload != expectedPayload {
			t.Errorf("Received payload = %q, want %q", payload, expectedPayload)
		}
	case <-time.After(5 * time.Second):
		t.Error("Timeout waiting for message")
	}
}

func TestCloseThenPublish(t *testing.T) {
	cfg := testConfig()
	requireBroker(t, cfg)

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}

	err = client.Publish("test/topic", []byte("test"), 1, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after Close() error = %v, want ErrNotConnected", err)
	}
}
