package proxy

import (
	"testing"
	"time"
)

func TestNewHTTPClient_Direct(t *testing.T) {
	client, err := NewHTTPClient("", 5*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", client.Timeout)
	}
	if client.Transport != nil {
		t.Error("direct client should use the default transport")
	}
}

func TestNewHTTPClient_Socks(t *testing.T) {
	client, err := NewHTTPClient("127.0.0.1:1080", time.Minute)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	if client.Transport == nil {
		t.Error("socks client should carry a custom transport")
	}
}
