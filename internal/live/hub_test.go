package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/models"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	router := chi.NewRouter()
	router.Get("/categories/{id}/live", hub.Handler([]string{"*"}))
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, categoryID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/categories/" + categoryID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var hello Message
	readMessage(t, conn, &hello)
	if hello.Type != MessageSubscribed {
		t.Fatalf("first message: got %q, want %q", hello.Type, MessageSubscribed)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, dst *Message) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(dst); err != nil {
		t.Fatalf("read message: %v", err)
	}
}

func TestHubDeliversEventsToCategoryRoom(t *testing.T) {
	hub, server := startHub(t)
	watcher := dial(t, server, "7")
	other := dial(t, server, "8")

	hub.Publish(competition.Event{
		Type:       competition.EventMatchUpdated,
		CategoryID: 7,
		Matches:    []models.Match{{ID: 42, CategoryID: 7, Round: models.RoundFinal}},
	})

	var got Message
	readMessage(t, watcher, &got)
	if got.Type != string(competition.EventMatchUpdated) || got.CategoryID != 7 {
		t.Fatalf("message: %+v", got)
	}
	if len(got.Matches) != 1 || got.Matches[0].ID != 42 || got.Matches[0].Round != models.RoundFinal {
		t.Fatalf("matches: %+v", got.Matches)
	}

	_ = other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatalf("client of another category received the event")
	}
}

func TestHandlerRejectsBadCategoryID(t *testing.T) {
	_, server := startHub(t)

	resp, err := http.Get(server.URL + "/categories/abc/live")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://draw.example.com"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://draw.example.com", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := check(req); got != tt.want {
			t.Fatalf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}
}
