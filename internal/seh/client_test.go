package seh

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"
)

func TestEncodeFrame(t *testing.T) {
	payload := FingerStatePayload()

	frame, err := encodeFrame(FingerState, ParamPressed, payload)
	if err != nil {
		t.Fatalf("encodeFrame() error: %v", err)
	}

	if len(frame) != frameHeaderSize+len(payload) {
		t.Fatalf("frame length = %d, want %d", len(frame), frameHeaderSize+len(payload))
	}

	if got := binary.BigEndian.Uint16(frame[0:2]); got != uint16(len(payload)) {
		t.Errorf("payload length field = %d, want %d", got, len(payload))
	}
	if got := int32(binary.BigEndian.Uint32(frame[2:6])); got != FingerState {
		t.Errorf("state field = %d, want %d", got, FingerState)
	}
	if got := int32(binary.BigEndian.Uint32(frame[6:10])); got != ParamPressed {
		t.Errorf("param field = %d, want %d", got, ParamPressed)
	}
	if string(frame[frameHeaderSize:]) != string(payload) {
		t.Error("payload bytes do not match")
	}
}

func TestFingerStatePayload_NulTerminated(t *testing.T) {
	payload := FingerStatePayload()

	if payload[len(payload)-1] != 0 {
		t.Error("payload must be NUL-terminated")
	}
	if string(payload[:len(payload)-1]) != AOSPFQName {
		t.Errorf("payload = %q", payload[:len(payload)-1])
	}
}

// startTestDaemon listens on a Unix socket and forwards received frames.
func startTestDaemon(t *testing.T) (string, <-chan []byte) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "sehfpd.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listening on test socket: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	frames := make(chan []byte, 4)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			header := make([]byte, frameHeaderSize)
			if _, err := io.ReadFull(conn, header); err != nil {
				return
			}
			payloadLen := binary.BigEndian.Uint16(header[0:2])
			payload := make([]byte, payloadLen)
			if _, err := io.ReadFull(conn, payload); err != nil {
				return
			}
			frames <- append(header, payload...)
		}
	}()

	return socketPath, frames
}

func TestRequest_OverUnixSocket(t *testing.T) {
	socketPath, frames := startTestDaemon(t)

	client, err := Connect(context.Background(), Config{
		Connection: "unix://" + socketPath,
	})
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Fatal("expected connected client")
	}

	if err := client.Request(FingerState, ParamReleased, FingerStatePayload()); err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	select {
	case frame := <-frames:
		if got := int32(binary.BigEndian.Uint32(frame[6:10])); got != ParamReleased {
			t.Errorf("daemon received param = %d, want %d", got, ParamReleased)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not receive the frame")
	}
}

func TestRequest_AfterClose(t *testing.T) {
	socketPath, _ := startTestDaemon(t)

	client, err := Connect(context.Background(), Config{
		Connection: "unix://" + socketPath,
	})
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if client.IsConnected() {
		t.Error("client should report disconnected after Close")
	}

	err = client.Request(FingerState, ParamPressed, FingerStatePayload())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Request() after close = %v, want ErrNotConnected", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "unsupported scheme", url: "http://localhost:1234"},
		{name: "tcp without host", url: "tcp://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Connect(context.Background(), Config{Connection: tt.url})
			if !errors.Is(err, ErrConnectionFailed) {
				t.Errorf("Connect(%q) = %v, want ErrConnectionFailed", tt.url, err)
			}
		})
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{
		Connection:     "unix://" + filepath.Join(t.TempDir(), "missing.sock"),
		ConnectTimeout: time.Second,
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() to missing socket = %v, want ErrConnectionFailed", err)
	}
}
