package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("stage-1")
	defer hub.Unregister(client)

	payload := []byte("hello")
	hub.Broadcast("stage-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "stage:abc:live" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if stageIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected stage id")
	}
	if stageIDFromChannel("bad") != "" {
		t.Fatalf("expected empty stage id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("stage-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("stage-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("stage-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// A publish from another instance reaches local clients via the
	// pattern subscription.
	remote := hub.Register("stage-remote")
	defer hub.Unregister(remote)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), "stage:stage-remote:live", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-remote.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisBroadcastDeliversOnce(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("stage-once")
	defer hub.Unregister(ws)

	time.Sleep(20 * time.Millisecond)
	hub.Broadcast("stage-once", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// The hub's own publication must not echo back through the
	// pattern subscription.
	select {
	case msg := <-ws.Send:
		t.Fatalf("duplicate delivery: %q", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHubRedisRelaysBetweenInstances(t *testing.T) {
	s := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientB.Close()

	hubA := NewHub(clientA)
	hubB := NewHub(clientB)

	wsA := hubA.Register("stage-relay")
	defer hubA.Unregister(wsA)
	wsB := hubB.Register("stage-relay")
	defer hubB.Unregister(wsB)

	time.Sleep(20 * time.Millisecond)
	hubA.Broadcast("stage-relay", []byte("ping"))

	for name, ch := range map[string]chan []byte{"local": wsA.Send, "remote": wsB.Send} {
		select {
		case msg := <-ch:
			if string(msg) != "ping" {
				t.Fatalf("%s client got %q", name, msg)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("timeout waiting for %s client", name)
		}
	}

	// Exactly once on each side.
	for name, ch := range map[string]chan []byte{"local": wsA.Send, "remote": wsB.Send} {
		select {
		case msg := <-ch:
			t.Fatalf("duplicate delivery to %s client: %q", name, msg)
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("stage-bad")
	defer hub.Unregister(clientNode)

	hub.Broadcast("stage-bad", []byte("ping"))
}
