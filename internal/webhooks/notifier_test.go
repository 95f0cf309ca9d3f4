package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
)

func testNotifier(urls ...string) *Notifier {
	n := NewNotifier(urls, "secret")
	n.MaxRetries = 2
	n.NewBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return n
}

func TestDeliverSignsBody(t *testing.T) {
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(HeaderSignature)
		gotType = r.Header.Get(HeaderEventType)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	n.HTTP = srv.Client()
	body := []byte(`{"id":"evt1"}`)
	if err := n.Deliver(context.Background(), srv.URL, "instance.generated", body); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotType != "instance.generated" {
		t.Fatalf("event type header = %q", gotType)
	}
	if !Verify("secret", gotBody, gotSig) {
		t.Fatalf("signature %q does not verify", gotSig)
	}
}

func TestDeliverRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	if err := n.Deliver(context.Background(), srv.URL, "e", []byte(`{}`)); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestDeliverClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	if err := n.Deliver(context.Background(), srv.URL, "e", []byte(`{}`)); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestEnqueueDeliversToEveryURL(t *testing.T) {
	var mu sync.Mutex
	var got []Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		body, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(body, &p); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	}))
	defer srv.Close()

	n := testNotifier(srv.URL+"/a", srv.URL+"/b")
	ctx, cancel := context.WithCancel(context.Background())
	n.Start(ctx)
	n.Enqueue(ctx, "instance.generated", map[string]any{"id": "x"})
	cancel()
	n.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("got %d deliveries, want 2", len(got))
	}
	for _, p := range got {
		if p.Type != "instance.generated" || p.ID == "" {
			t.Fatalf("bad payload %+v", p)
		}
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if Verify("s", []byte("x"), "zz") {
		t.Fatal("non-hex signature accepted")
	}
	if Verify("s", []byte("x"), Sign("other", []byte("x"))) {
		t.Fatal("wrong secret accepted")
	}
}
