// handlers_upload_test.go - Tests for stored file handlers
package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/shape-editor/backend/internal/models"
	"github.com/shape-editor/backend/internal/testutil"
)

func luaOnly(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".lua")
}

func TestFileHandler_HandleUploadFile_Base64(t *testing.T) {
	tests := []struct {
		name       string
		request    uploadFileRequest
		wantStatus int
		wantErr    bool
		errCode    string
	}{
		{
			name: "valid file upload",
			request: uploadFileRequest{
				Name: "shapes.lua",
				Data: base64.StdEncoding.EncodeToString([]byte(testutil.SquareShapesLua)),
			},
			wantStatus: http.StatusCreated,
			wantErr:    false,
		},
		{
			name: "empty name",
			request: uploadFileRequest{
				Name: "",
				Data: base64.StdEncoding.EncodeToString([]byte("{}")),
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name: "empty data",
			request: uploadFileRequest{
				Name: "shapes.lua",
				Data: "",
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name: "invalid base64",
			request: uploadFileRequest{
				Name: "shapes.lua",
				Data: "not-valid-base64!!!",
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "BAD_REQUEST",
		},
		{
			name: "disallowed file type",
			request: uploadFileRequest{
				Name: "shapes.exe",
				Data: base64.StdEncoding.EncodeToString([]byte("{}")),
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantErr:    true,
			errCode:    "UNSUPPORTED_MEDIA_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			store := testutil.NewMockStorage()
			handler := NewFileHandler(store, luaOnly, true)

			e := echo.New()
			body, _ := json.Marshal(tt.request)
			req := httptest.NewRequest(http.MethodPost, "/api/files/upload", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			// Execute
			err := handler.HandleUploadFile(c)

			// Assert
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
					return
				}
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Errorf("expected APIError, got %T", err)
					return
				}
				if apiErr.Status != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
				if store.GetFileCount() != 0 {
					t.Errorf("expected nothing stored, got %d files", store.GetFileCount())
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var response models.FileInfo
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Errorf("failed to unmarshal response: %v", err)
				return
			}
			if response.ID == "" {
				t.Error("expected non-empty ID in response")
			}
			if response.Name != tt.request.Name {
				t.Errorf("expected name %s, got %s", tt.request.Name, response.Name)
			}
		})
	}
}

func TestFileHandler_HandleUploadFile_Multipart(t *testing.T) {
	store := testutil.NewMockStorage()
	handler := NewFileHandler(store, luaOnly, true)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "shapes.lua")
	part.Write([]byte(testutil.SquareShapesLua))
	writer.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandleUploadFile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var response models.FileInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	data, err := store.ReadContent(response.ID)
	if err != nil {
		t.Fatalf("uploaded file not stored: %v", err)
	}
	if string(data) != testutil.SquareShapesLua {
		t.Errorf("stored content mismatch: %q", string(data))
	}
}

func TestFileHandler_HandleUploadFile_NoFile(t *testing.T) {
	handler := NewFileHandler(testutil.NewMockStorage(), nil, true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.HandleUploadFile(c)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != "BAD_REQUEST" {
		t.Errorf("expected error code BAD_REQUEST, got %s", apiErr.Code)
	}
}

func TestFileHandler_HandleGetRecentFiles(t *testing.T) {
	tests := []struct {
		name       string
		setupFiles int
		query      string
		wantCount  int
		wantErr    bool
	}{
		{name: "empty storage", setupFiles: 0, wantCount: 0},
		{name: "few files", setupFiles: 3, wantCount: 3},
		{name: "default limit of 20", setupFiles: 30, wantCount: 20},
		{name: "explicit limit", setupFiles: 10, query: "?limit=5", wantCount: 5},
		{name: "zero limit returns all", setupFiles: 30, query: "?limit=0", wantCount: 30},
		{name: "invalid limit", setupFiles: 1, query: "?limit=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			store := testutil.NewMockStorage()
			for i := 0; i < tt.setupFiles; i++ {
				store.AddFile(fmt.Sprintf("id-%d", i), fmt.Sprintf("file%d.lua", i), []byte("{}"))
			}
			handler := NewFileHandler(store, nil, true)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/files/recent"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			// Execute
			err := handler.HandleGetRecentFiles(c)

			// Assert
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			var files []models.FileInfo
			if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
				t.Errorf("failed to unmarshal response: %v", err)
				return
			}
			if len(files) != tt.wantCount {
				t.Errorf("expected %d files, got %d", tt.wantCount, len(files))
			}
		})
	}
}

func TestFileHandler_HandleGetFile(t *testing.T) {
	tests := []struct {
		name       string
		fileID     string
		wantStatus int
		errCode    string
	}{
		{name: "existing file", fileID: "file-1", wantStatus: http.StatusOK},
		{name: "missing file", fileID: "nope", wantStatus: http.StatusNotFound, errCode: "NOT_FOUND"},
		{name: "empty id", fileID: "", wantStatus: http.StatusBadRequest, errCode: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			store.AddFile("file-1", "shapes.lua", []byte(testutil.SquareShapesLua))
			handler := NewFileHandler(store, nil, true)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.fileID)

			err := handler.HandleGetFile(c)

			if tt.errCode != "" {
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Fatalf("expected APIError, got %T", err)
				}
				if apiErr.Status != tt.wantStatus || apiErr.Code != tt.errCode {
					t.Errorf("expected %d/%s, got %d/%s", tt.wantStatus, tt.errCode, apiErr.Status, apiErr.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(rec.Body.String(), `"name":"shapes.lua"`) {
				t.Errorf("unexpected body: %s", rec.Body.String())
			}
		})
	}
}

func TestFileHandler_HandleGetFileContent(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("file-1", "shapes.lua", []byte(testutil.SquareShapesLua))
	handler := NewFileHandler(store, nil, true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("file-1")

	if err := handler.HandleGetFileContent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != testutil.SquareShapesLua {
		t.Errorf("unexpected content: %q", rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/x-lua") {
		t.Errorf("expected lua content type, got %s", ct)
	}
}

func TestFileHandler_HandleDeleteFile(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		store := testutil.NewMockStorage()
		store.AddFile("file-1", "shapes.lua", []byte("{}"))
		handler := NewFileHandler(store, nil, true)

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
		c.SetParamNames("id")
		c.SetParamValues("file-1")

		if err := handler.HandleDeleteFile(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if store.GetFileCount() != 0 {
			t.Errorf("expected file to be deleted")
		}
	})

	t.Run("deletion disabled", func(t *testing.T) {
		store := testutil.NewMockStorage()
		store.AddFile("file-1", "shapes.lua", []byte("{}"))
		handler := NewFileHandler(store, nil, false)

		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues("file-1")

		err := handler.HandleDeleteFile(c)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusForbidden {
			t.Errorf("expected 403 APIError, got %v", err)
		}
		if store.GetFileCount() != 1 {
			t.Errorf("file should not be deleted")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		handler := NewFileHandler(testutil.NewMockStorage(), nil, true)

		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues("nope")

		err := handler.HandleDeleteFile(c)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound {
			t.Errorf("expected 404 APIError, got %v", err)
		}
	})
}

func TestFileHandler_HandleRenameFile(t *testing.T) {
	tests := []struct {
		name       string
		fileID     string
		body       string
		wantStatus int
	}{
		{name: "valid rename", fileID: "file-1", body: `{"name":"renamed.lua"}`, wantStatus: http.StatusOK},
		{name: "empty name", fileID: "file-1", body: `{"name":""}`, wantStatus: http.StatusBadRequest},
		{name: "missing file", fileID: "nope", body: `{"name":"x.lua"}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			store.AddFile("file-1", "shapes.lua", []byte("{}"))
			handler := NewFileHandler(store, nil, true)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.fileID)

			err := handler.HandleRenameFile(c)

			status := rec.Code
			if apiErr, ok := err.(*APIError); ok {
				status = apiErr.Status
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
			if tt.wantStatus == http.StatusOK {
				info, _ := store.Get("file-1")
				if info.Name != "renamed.lua" {
					t.Errorf("expected name renamed.lua, got %s", info.Name)
				}
			}
		})
	}
}
