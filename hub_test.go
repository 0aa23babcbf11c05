package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dialHub(t *testing.T) (*Hub, chan PointerEvent, *websocket.Conn) {
	t.Helper()
	pointer := make(chan PointerEvent, 8)
	hub := newHub(buildKeyboard(), pointer, zap.NewNop().Sugar())

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return hub, pointer, conn
}

func TestHub_SendsLayoutFirst(t *testing.T) {
	_, _, conn := dialHub(t)

	var keys []KeyAttributes
	if err := conn.ReadJSON(&keys); err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if len(keys) != KEY_COUNT {
		t.Fatalf("layout has %d keys", len(keys))
	}
	if !keys[1].Black || keys[0].Black {
		t.Fatal("layout keys out of order")
	}
}

func TestHub_BroadcastsFrames(t *testing.T) {
	hub, _, conn := dialHub(t)

	var keys []KeyAttributes
	if err := conn.ReadJSON(&keys); err != nil {
		t.Fatalf("read layout: %v", err)
	}

	hub.SetKeyColor(39, COLOR_PRESSED)
	hub.SetKeyTransform(39, pressedTilt)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read color frame: %v", err)
	}
	if frame[0] != CMD_COLOR || frame[1] != 39 || frame[2] != COLOR_PRESSED {
		t.Fatalf("color frame %v", frame)
	}

	_, frame, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read transform frame: %v", err)
	}
	if frame[0] != CMD_TRANSFORM || frame[1] != 39 {
		t.Fatalf("transform frame %v", frame)
	}
	if fromVal(frame[2]) != 1 { // full tilt
		t.Fatalf("tilt value %d, want %d", frame[2], toVal(1))
	}
}

func TestHub_ForwardsPointerFrames(t *testing.T) {
	_, pointer, conn := dialHub(t)

	frames := [][]byte{
		{CMD_POINTER_DOWN, 39},
		{CMD_POINTER_UP, 39},
		{CMD_POINTER_UP_ALL},
	}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.BinaryMessage, f); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	want := []PointerEvent{
		{Key: 39, Down: true},
		{Key: 39, Down: false},
		{All: true},
	}
	for i, w := range want {
		select {
		case got := <-pointer:
			if got != w {
				t.Fatalf("event %d: got %+v, want %+v", i, got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d never arrived", i)
		}
	}
}

func TestHub_DropsGarbageFrames(t *testing.T) {
	hub, pointer, _ := dialHub(t)

	hub.handle(nil)
	hub.handle([]byte{0x7F})
	hub.handle([]byte{CMD_POINTER_DOWN}) // missing key byte

	select {
	case ev := <-pointer:
		t.Fatalf("garbage produced event %+v", ev)
	default:
	}
}
