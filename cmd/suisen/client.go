package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hyperjump/suisen/internal/models"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

func recommendViaHTTP(serverURL string, query *models.RecommendQuery) (*models.RecommendResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Post(serverURL+"/api/v1/recommend", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse[models.RecommendResponse](resp)
}

// recommendFileViaHTTP uploads a job description to the file endpoint.
func recommendFileViaHTTP(serverURL, path string, topK int) (*models.RecommendResponse, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(content); err != nil {
		return nil, err
	}
	if topK > 0 {
		if err := mw.WriteField("top_k", strconv.Itoa(topK)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	resp, err := httpClient.Post(serverURL+"/api/v1/recommend/file", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse[models.RecommendResponse](resp)
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := httpClient.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse[statusResponse](resp)
}

func decodeResponse[T any](resp *http.Response) (*T, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
