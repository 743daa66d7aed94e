package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/session"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeAnalysisFailed, Data: map[string]string{"file": "lunch.jpg"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: analysis.failed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"file":"lunch.jpg"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

// collect reads whatever is buffered on ch after a short settle delay.
func collect(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func count(msgs []string, eventType string) int {
	n := 0
	for _, m := range msgs {
		if strings.HasPrefix(m, "event: "+eventType+"\n") {
			n++
		}
	}
	return n
}

func TestPublishChange_RollupThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(session.Change{Kind: session.ChangeRecordAdded, Category: models.CategoryDiet, Date: "2024/03/07"})
	b.PublishChange(session.Change{Kind: session.ChangeRecordAdded, Category: models.CategoryFinance, Date: "2024/03/07"})

	msgs := collect(ch)
	if n := count(msgs, "record.added"); n != 2 {
		t.Errorf("record events = %d, want 2", n)
	}
	if n := count(msgs, TypeRollupUpdated); n != 1 {
		t.Errorf("rollup events = %d, want 1 (throttled)", n)
	}
}

func TestPublishChange_MemoSkipsRollup(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(session.Change{Kind: session.ChangeMemoDeleted, ID: "m1"})

	msgs := collect(ch)
	if n := count(msgs, "memo.deleted"); n != 1 {
		t.Errorf("memo events = %d, want 1", n)
	}
	if n := count(msgs, TypeRollupUpdated); n != 0 {
		t.Errorf("rollup events = %d, want 0", n)
	}
	if !strings.Contains(msgs[0], `"id":"m1"`) {
		t.Errorf("missing memo id in %q", msgs[0])
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(ctx)
	w := &lockedRecorder{rec: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange(session.Change{Kind: session.ChangeSettings})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: settings.saved") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]int{"i": i}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "test"})
	b.PublishChange(session.Change{Kind: session.ChangeSession})
}

// lockedRecorder lets the test read the body while the handler writes.
type lockedRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func (l *lockedRecorder) Header() http.Header { return l.rec.Header() }

func (l *lockedRecorder) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Write(p)
}

func (l *lockedRecorder) WriteHeader(code int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.WriteHeader(code)
}

func (l *lockedRecorder) Flush() {}

func (l *lockedRecorder) body() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Body.String()
}
