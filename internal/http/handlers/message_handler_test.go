package handlers

import (
	"net/http"
	"testing"

	"github.com/mguard/go-guardian-backend/internal/domain"
	"github.com/mguard/go-guardian-backend/internal/services"
)

func stagedInput(chatID, msgID int64, text string) services.MessageInput {
	return services.MessageInput{
		OwnerID:   10,
		ChatID:    chatID,
		MessageID: msgID,
		UserID:    20,
		Text:      text,
	}
}

func TestRecordMessage_StagesAndCounts(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/messages", stagedInput(100, 1, "hello"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var m domain.Message
	decode(t, w, &m)
	if m.OwnerID != 10 || m.ChatID != 100 || m.MessageID != 1 {
		t.Fatalf("unexpected staged row: %+v", m)
	}

	var st domain.Stats
	decode(t, do(r, http.MethodGet, "/owners/10/stats", nil), &st)
	if st.TotalMessages != 1 {
		t.Fatalf("message counter: got %d, want 1", st.TotalMessages)
	}
}

func TestRecordMessage_Duplicate(t *testing.T) {
	r, _ := newTestRouter(t)

	do(r, http.MethodPost, "/messages", stagedInput(100, 1, "hello"))
	w := do(r, http.MethodPost, "/messages", stagedInput(100, 1, "hello again"))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestUpdateMessage(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := do(r, http.MethodPut, "/messages", stagedInput(100, 1, "edited")); w.Code != http.StatusNotFound {
		t.Fatalf("edit of unstaged message: expected 404, got %d", w.Code)
	}

	do(r, http.MethodPost, "/messages", stagedInput(100, 1, "hello"))
	if w := do(r, http.MethodPut, "/messages", stagedInput(100, 1, "edited")); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	var m domain.Message
	decode(t, do(r, http.MethodGet, "/messages/10/100/1", nil), &m)
	if m.Text != "edited" {
		t.Fatalf("expected edited text, got %q", m.Text)
	}

	var st domain.Stats
	decode(t, do(r, http.MethodGet, "/owners/10/stats", nil), &st)
	if st.TotalEdits != 1 {
		t.Fatalf("edit counter: got %d, want 1", st.TotalEdits)
	}
}

func TestGetMessage_NotStaged(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/messages/10/100/1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteMessage_RemovesAndCounts(t *testing.T) {
	r, _ := newTestRouter(t)

	do(r, http.MethodPost, "/messages", stagedInput(100, 1, "hello"))
	if w := do(r, http.MethodDelete, "/messages/10/100/1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/messages/10/100/1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}

	var st domain.Stats
	decode(t, do(r, http.MethodGet, "/owners/10/stats", nil), &st)
	if st.TotalDeletes != 1 {
		t.Fatalf("delete counter: got %d, want 1", st.TotalDeletes)
	}
}

func TestListAndPurgeChatMessages(t *testing.T) {
	r, _ := newTestRouter(t)

	do(r, http.MethodPost, "/messages", stagedInput(100, 1, "a"))
	do(r, http.MethodPost, "/messages", stagedInput(100, 2, "b"))
	do(r, http.MethodPost, "/messages", stagedInput(200, 3, "other chat"))

	var items []domain.Message
	decode(t, do(r, http.MethodGet, "/owners/10/chats/100/messages", nil), &items)
	if len(items) != 2 {
		t.Fatalf("expected 2 staged messages, got %d", len(items))
	}

	var purged PurgeResponse
	decode(t, do(r, http.MethodDelete, "/owners/10/chats/100/messages", nil), &purged)
	if purged.Deleted != 2 {
		t.Fatalf("expected 2 purged, got %d", purged.Deleted)
	}

	decode(t, do(r, http.MethodGet, "/owners/10/chats/200/messages", nil), &items)
	if len(items) != 1 {
		t.Fatalf("purge must not cross chats, got %d rows", len(items))
	}
}

func TestOwnerStats_ZeroForQuietOwner(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/owners/77/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var st domain.Stats
	decode(t, w, &st)
	if st.TotalMessages != 0 || st.TotalEdits != 0 || st.TotalDeletes != 0 {
		t.Fatalf("expected zero aggregate, got %+v", st)
	}
}

func TestBumpStat(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := do(r, http.MethodPost, "/owners/10/stats/edit", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/owners/10/stats/view", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind: expected 400, got %d", w.Code)
	}

	var st domain.Stats
	decode(t, do(r, http.MethodGet, "/owners/10/stats", nil), &st)
	if st.TotalEdits != 1 {
		t.Fatalf("edit counter: got %d, want 1", st.TotalEdits)
	}
}

func TestUpsertAndResolveConnection(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPut, "/connections", domain.BusinessConnection{
		ConnectionID: "conn-1", UserID: 10, Username: "alice",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	// A reconnect for the same id overwrites the owner.
	do(r, http.MethodPut, "/connections", domain.BusinessConnection{ConnectionID: "conn-1", UserID: 20})

	var conn domain.BusinessConnection
	decode(t, do(r, http.MethodGet, "/connections/conn-1", nil), &conn)
	if conn.UserID != 20 {
		t.Fatalf("expected overwritten owner 20, got %d", conn.UserID)
	}
}

func TestUpsertConnection_Validation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPut, "/connections", domain.BusinessConnection{UserID: 10})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing connection_id: expected 400, got %d", w.Code)
	}
}

func TestResolveConnection_Unknown(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/connections/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
