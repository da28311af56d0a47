package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Forwarder delivers consumed events to chat-bot webhooks: staff events to
// StaffURL and user activity to ActivityURL.  An event whose webhook is not
// configured is appended to LogDir/notifications.log instead.
type Forwarder struct {
	StaffURL    string
	ActivityURL string
	LogDir      string
	Client      *http.Client
}

// Handle implements Handler.
func (f *Forwarder) Handle(ctx context.Context, ev Event) error {
	url := f.ActivityURL
	if ev.Queue() == StaffQueue {
		url = f.StaffURL
	}
	content := Render(ev)
	if url == "" {
		return f.appendLog(content)
	}
	return f.post(ctx, url, content)
}

// Render formats an event as markdown for the chat bot.
func Render(ev Event) string {
	if ev.Type == WorkoutComplete {
		minutes := (ev.Duration + 59) / 60
		return fmt.Sprintf("## Workout completed\n> user: %s\n> workout: %s (%s)\n> duration: %d min",
			ev.UserID, ev.WorkoutTitle, ev.WorkoutType, minutes)
	}
	s := fmt.Sprintf("## User activity\n> type: %s\n> user: %s\n> workout: %s", ev.Type, ev.UserID, ev.WorkoutID)
	if ev.SessionID != "" {
		s += "\n> session: " + ev.SessionID
	}
	if ev.ResumeSession {
		s += "\n> resumed session"
	}
	return s
}

func (f *Forwarder) post(ctx context.Context, url, content string) error {
	body, err := json.Marshal(map[string]any{
		"msgtype":  "markdown",
		"markdown": map[string]string{"content": content},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("post webhook: status %d", resp.StatusCode)
	}
	return nil
}

func (f *Forwarder) appendLog(content string) error {
	dir := f.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	line := fmt.Sprintf("[%s] %q\n", time.Now().UTC().Format(time.RFC3339), content)
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
