package platform

import (
	"net/http"
	"testing"
	"time"
)

func TestNormalizeBaseURLTrimsTrailingSlash(t *testing.T) {
	if got := normalizeBaseURL("https://api.example.com/"); got != "https://api.example.com" {
		t.Fatalf("expected trimmed url, got %s", got)
	}
}

func TestResolveHTTPClientDefaultsTimeout(t *testing.T) {
	client := resolveHTTPClient(nil)
	httpClient, ok := client.(*http.Client)
	if !ok {
		t.Fatalf("expected *http.Client, got %T", client)
	}
	if httpClient.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected timeout %s, got %s", defaultHTTPTimeout, httpClient.Timeout)
	}
}

func TestResolveHTTPClientUsesProvidedClient(t *testing.T) {
	custom := &http.Client{Timeout: 5 * time.Second}
	if client := resolveHTTPClient(custom); client != custom {
		t.Fatalf("expected custom client to be used")
	}
}

func TestJoinIDs(t *testing.T) {
	if got := joinIDs([]int64{1, 22, 333}); got != "1,22,333" {
		t.Fatalf("expected comma joined ids, got %s", got)
	}
}
