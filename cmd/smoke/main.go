// Command smoke drives a running server through the record lifecycle.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

type client struct {
	baseURL string
	http    *http.Client
}

func main() {
	baseURL := os.Getenv("SMOKE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	c := &client{baseURL: baseURL, http: &http.Client{Timeout: 2 * time.Minute}}

	fmt.Println("Starting smoke test against", baseURL)

	var created struct {
		Response struct {
			ID string `json:"id"`
		} `json:"response"`
	}
	step("create record", c.do(http.MethodPost, "/create-record", map[string]string{
		"title":       "Smoke test " + time.Now().Format(time.RFC3339),
		"description": "A retail bakery selling fresh bread and pastries every morning.",
	}, http.StatusCreated, &created))

	id := created.Response.ID
	if id == "" {
		fail("create record", fmt.Errorf("empty id in response"))
	}
	fmt.Println("Created record", id)

	step("get record", c.do(http.MethodGet, "/get-record/"+id, nil, http.StatusOK, nil))
	step("list records", c.do(http.MethodGet, "/get-all-records", nil, http.StatusOK, nil))
	step("search", c.do(http.MethodGet, "/search-record/"+url.PathEscape("fresh bread"), nil, http.StatusOK, nil))
	step("update record", c.do(http.MethodPost, "/update-record/"+id, map[string]string{
		"title":       "Smoke test (updated)",
		"description": "A bakery and coffee shop.",
	}, http.StatusOK, nil))
	step("summarize", c.do(http.MethodGet, "/summarize/"+id, nil, http.StatusOK, nil))
	step("feature extract", c.do(http.MethodGet, "/feature-extract/"+id, nil, http.StatusOK, nil))
	step("delete record", c.do(http.MethodDelete, "/delete-record/"+id, nil, http.StatusOK, nil))
	step("get deleted record", c.do(http.MethodGet, "/get-record/"+id, nil, http.StatusNotFound, nil))

	fmt.Println("Smoke test passed")
}

func step(name string, err error) {
	if err != nil {
		fail(name, err)
	}
	fmt.Println("PASSED:", name)
}

func fail(name string, err error) {
	fmt.Printf("FAILED: %s: %v\n", name, err)
	os.Exit(1)
}

func (c *client) do(method, endpoint string, payload any, want int, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		return fmt.Errorf("status %d (want %d): %s", resp.StatusCode, want, respBody)
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
