package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"production-assistant/backend/internal/handlers"
	"production-assistant/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func setupSlackHandler() (*MockTaskService, *MockAssistant, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	mockAssistant := &MockAssistant{reply: "assistant says hi"}
	handler := handlers.NewSlackHandler(nil, mockService, mockAssistant, "ai assistant", discardLogger())
	router := gin.New()
	router.POST("/slack/events", handler.Events)
	router.POST("/slack/commands", handler.Commands)
	return mockService, mockAssistant, router
}

func postEvent(router *gin.Engine, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", "/slack/events", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postCommand(router *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/slack/commands", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeSlackResponse(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var resp struct {
		Text         string `json:"text"`
		ResponseType string `json:"response_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return resp.Text, resp.ResponseType
}

func TestEvents_URLVerification(t *testing.T) {
	_, _, router := setupSlackHandler()

	w := postEvent(router, map[string]string{
		"type":      "url_verification",
		"challenge": "test-challenge-token",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["challenge"] != "test-challenge-token" {
		t.Errorf("Expected challenge echoed back, got %v", resp)
	}
}

func TestEvents_BotMessageIgnored(t *testing.T) {
	_, mockAssistant, router := setupSlackHandler()

	w := postEvent(router, map[string]interface{}{
		"type": "event_callback",
		"event": map[string]string{
			"type":   "message",
			"bot_id": "B12345",
			"text":   "hey ai assistant, are you there?",
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mockAssistant.calls != 0 {
		t.Errorf("Expected assistant not to be invoked for bot messages, got %d calls", mockAssistant.calls)
	}
}

func TestEvents_TriggerPhraseInvokesAssistant(t *testing.T) {
	_, mockAssistant, router := setupSlackHandler()

	w := postEvent(router, map[string]interface{}{
		"type": "event_callback",
		"event": map[string]string{
			"type":    "message",
			"user":    "U1",
			"channel": "C1",
			"text":    "Hey AI Assistant, what is on the schedule?",
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mockAssistant.calls != 1 {
		t.Fatalf("Expected one assistant invocation, got %d", mockAssistant.calls)
	}
	if mockAssistant.lastMessage != "Hey AI Assistant, what is on the schedule?" {
		t.Errorf("Expected full message forwarded, got %q", mockAssistant.lastMessage)
	}
	// The acknowledgment never carries the reply text.
	if strings.Contains(w.Body.String(), mockAssistant.reply) {
		t.Errorf("Reply text leaked into the acknowledgment: %s", w.Body.String())
	}
}

func TestEvents_NoTriggerPhrase(t *testing.T) {
	_, mockAssistant, router := setupSlackHandler()

	w := postEvent(router, map[string]interface{}{
		"type": "event_callback",
		"event": map[string]string{
			"type": "message",
			"user": "U1",
			"text": "just chatting with coworkers",
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mockAssistant.calls != 0 {
		t.Errorf("Expected assistant not to be invoked, got %d calls", mockAssistant.calls)
	}
}

func TestEvents_InvalidJSON(t *testing.T) {
	_, _, router := setupSlackHandler()

	req, _ := http.NewRequest("POST", "/slack/events", bytes.NewBuffer([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCommands_AIChat(t *testing.T) {
	_, mockAssistant, router := setupSlackHandler()

	w := postCommand(router, url.Values{
		"command": {"/ai"},
		"text":    {"what is next on the run sheet?"},
		"user_id": {"U1"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	text, responseType := decodeSlackResponse(t, w)
	if text != "assistant says hi" {
		t.Errorf("Expected assistant reply, got %q", text)
	}
	if responseType != handlers.ResponseInChannel {
		t.Errorf("Expected in_channel response, got %q", responseType)
	}
	if mockAssistant.lastMessage != "what is next on the run sheet?" {
		t.Errorf("Unexpected message forwarded: %q", mockAssistant.lastMessage)
	}
}

func TestCommands_AIEmptyText(t *testing.T) {
	_, mockAssistant, router := setupSlackHandler()

	w := postCommand(router, url.Values{
		"command": {"/ai"},
		"user_id": {"U1"},
	})

	text, responseType := decodeSlackResponse(t, w)
	if text != "Please provide a message to chat with the AI assistant." {
		t.Errorf("Unexpected prompt: %q", text)
	}
	if responseType != handlers.ResponseEphemeral {
		t.Errorf("Expected ephemeral response, got %q", responseType)
	}
	if mockAssistant.calls != 0 {
		t.Errorf("Expected assistant not to be invoked, got %d calls", mockAssistant.calls)
	}
}

func TestCommands_TaskCreate(t *testing.T) {
	mockService, _, router := setupSlackHandler()

	w := postCommand(router, url.Values{
		"command":    {"/task"},
		"text":       {"create Order stage lighting"},
		"user_id":    {"U1"},
		"channel_id": {"C1"},
	})

	text, responseType := decodeSlackResponse(t, w)
	if text != "Task created with ID: 1" {
		t.Errorf("Unexpected confirmation: %q", text)
	}
	if responseType != handlers.ResponseInChannel {
		t.Errorf("Expected in_channel response, got %q", responseType)
	}
	if mockService.lastCreate.Title != "Order stage lighting" {
		t.Errorf("Unexpected title: %q", mockService.lastCreate.Title)
	}
	if mockService.lastCreate.UserID != "U1" || mockService.lastCreate.ChannelID != "C1" {
		t.Errorf("Owner/channel not forwarded: %+v", mockService.lastCreate)
	}
}

func TestCommands_TaskList(t *testing.T) {
	mockService, _, router := setupSlackHandler()
	mockService.tasks = []models.Task{
		{ID: 2, Title: "Sound check", Status: models.StatusPending, UserID: "U1"},
		{ID: 1, Title: "Book venue", Status: models.StatusCompleted, UserID: "U1"},
	}

	w := postCommand(router, url.Values{
		"command": {"/task"},
		"text":    {"list"},
		"user_id": {"U1"},
	})

	text, responseType := decodeSlackResponse(t, w)
	expected := "Your tasks:\n#2: Sound check (pending)\n#1: Book venue (completed)"
	if text != expected {
		t.Errorf("Expected %q, got %q", expected, text)
	}
	if responseType != handlers.ResponseEphemeral {
		t.Errorf("Expected ephemeral response, got %q", responseType)
	}
}

func TestCommands_TaskListEmpty(t *testing.T) {
	_, _, router := setupSlackHandler()

	w := postCommand(router, url.Values{
		"command": {"/task"},
		"text":    {"list"},
		"user_id": {"U1"},
	})

	text, _ := decodeSlackResponse(t, w)
	if text != "Your tasks:\nNo tasks found." {
		t.Errorf("Unexpected empty listing: %q", text)
	}
}

func TestCommands_TaskComplete(t *testing.T) {
	mockService, _, router := setupSlackHandler()
	mockService.completeResult = true

	w := postCommand(router, url.Values{
		"command": {"/task"},
		"text":    {"complete 7"},
		"user_id": {"U1"},
	})

	text, responseType := decodeSlackResponse(t, w)
	if text != "Task #7 marked as complete!" {
		t.Errorf("Unexpected confirmation: %q", text)
	}
	if responseType != handlers.ResponseInChannel {
		t.Errorf("Expected in_channel response, got %q", responseType)
	}
	if mockService.lastCompleteID != 7 || mockService.lastUserID != "U1" {
		t.Errorf("Complete not forwarded correctly: id=%d user=%s", mockService.lastCompleteID, mockService.lastUserID)
	}
}

func TestCommands_TaskCompleteNotFound(t *testing.T) {
	mockService, _, router := setupSlackHandler()
	mockService.completeResult = false

	w := postCommand(router, url.Values{
		"command": {"/task"},
		"text":    {"complete 42"},
		"user_id": {"U1"},
	})

	text, responseType := decodeSlackResponse(t, w)
	if text != "Task #42 not found or not yours." {
		t.Errorf("Unexpected rejection: %q", text)
	}
	if responseType != handlers.ResponseEphemeral {
		t.Errorf("Expected ephemeral response, got %q", responseType)
	}
}

func TestCommands_TaskUsage(t *testing.T) {
	_, _, router := setupSlackHandler()

	for _, text := range []string{"", "create", "frobnicate something"} {
		w := postCommand(router, url.Values{
			"command": {"/task"},
			"text":    {text},
			"user_id": {"U1"},
		})

		reply, responseType := decodeSlackResponse(t, w)
		if !strings.HasPrefix(reply, "Usage:") {
			t.Errorf("text %q: expected usage reply, got %q", text, reply)
		}
		if responseType != handlers.ResponseEphemeral {
			t.Errorf("text %q: expected ephemeral response, got %q", text, responseType)
		}
	}
}

func TestCommands_TaskCompleteInvalidID(t *testing.T) {
	_, _, router := setupSlackHandler()

	w := postCommand(router, url.Values{
		"command": {"/task"},
		"text":    {"complete abc"},
		"user_id": {"U1"},
	})

	text, responseType := decodeSlackResponse(t, w)
	if text != "Please provide a valid task ID number." {
		t.Errorf("Unexpected parse-error reply: %q", text)
	}
	if responseType != handlers.ResponseEphemeral {
		t.Errorf("Expected ephemeral response, got %q", responseType)
	}
}

func TestCommands_Unknown(t *testing.T) {
	_, _, router := setupSlackHandler()

	w := postCommand(router, url.Values{
		"command": {"/deploy"},
		"text":    {"prod"},
		"user_id": {"U1"},
	})

	text, responseType := decodeSlackResponse(t, w)
	if text != "Unknown command" {
		t.Errorf("Unexpected reply: %q", text)
	}
	if responseType != handlers.ResponseEphemeral {
		t.Errorf("Expected ephemeral response, got %q", responseType)
	}
}

func TestCommands_StoreFailure(t *testing.T) {
	mockService, _, router := setupSlackHandler()
	mockService.shouldReturnError = true

	w := postCommand(router, url.Values{
		"command": {"/task"},
		"text":    {"create doomed"},
		"user_id": {"U1"},
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	text, responseType := decodeSlackResponse(t, w)
	if text != "An error occurred processing your command." {
		t.Errorf("Unexpected error reply: %q", text)
	}
	if responseType != handlers.ResponseEphemeral {
		t.Errorf("Expected ephemeral response, got %q", responseType)
	}
}
