package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aftercast/internal/task"
)

// apiClient talks to the daemon's local control API.
type apiClient struct {
	base string
}

type daemonStatus struct {
	Running  bool `json:"running"`
	Sessions int  `json:"sessions"`
	Tasks    int  `json:"tasks"`
}

type sessionPart struct {
	ID        string     `json:"id"`
	FilePath  string     `json:"filePath"`
	Status    string     `json:"status"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

type sessionInfo struct {
	ID        string        `json:"id"`
	Platform  string        `json:"platform"`
	RoomID    int64         `json:"roomId"`
	Title     string        `json:"title"`
	ArchiveID int64         `json:"archiveId"`
	StartTime *time.Time    `json:"startTime"`
	Parts     []sessionPart `json:"parts"`
}

func (c *apiClient) status() (daemonStatus, error) {
	var out daemonStatus
	err := c.getJSON("/api/status", &out)
	return out, err
}

func (c *apiClient) sessions() ([]sessionInfo, error) {
	var out []sessionInfo
	err := c.getJSON("/api/sessions", &out)
	return out, err
}

func (c *apiClient) tasks() ([]task.Snapshot, error) {
	var out []task.Snapshot
	err := c.getJSON("/api/tasks", &out)
	return out, err
}

func (c *apiClient) task(id string) (task.Snapshot, error) {
	var out task.Snapshot
	err := c.getJSON("/api/tasks/"+id, &out)
	return out, err
}

func (c *apiClient) taskAction(id, action string) (bool, error) {
	resp, err := http.Post(c.base+"/api/tasks/"+id+"/"+action, "application/json", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return false, err
	}
	var result struct {
		Applied bool `json:"applied"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}
	return result.Applied, nil
}

func (c *apiClient) removeTask(id string) error {
	req, err := http.NewRequest(http.MethodDelete, c.base+"/api/tasks/"+id, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *apiClient) getJSON(path string, out any) error {
	resp, err := http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("daemon: %s", payload.Error)
	}
	return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
