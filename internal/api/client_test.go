package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alsun-go/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", 2*time.Second, 2*time.Second, nil)
	require.NoError(t, err)
	return c
}

func TestClient_Login(t *testing.T) {
	tcases := []struct {
		name       string
		status     int
		body       string
		wantUser   string
		wantServer bool
		wantMsg    string
	}{
		{
			name:     "success",
			status:   http.StatusOK,
			body:     `{"code":"T1","username":"Ali","department":"CS","division":"A","role":"member"}`,
			wantUser: "Ali",
		},
		{
			name:       "server failure with error payload",
			status:     http.StatusUnauthorized,
			body:       `{"error":"invalid credentials"}`,
			wantServer: true,
			wantMsg:    "invalid credentials",
		},
		{
			name:       "server failure with unparseable payload",
			status:     http.StatusInternalServerError,
			body:       `<html>boom</html>`,
			wantServer: true,
			wantMsg:    "",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "users", r.URL.Query().Get("table"))
				assert.Equal(t, "login", r.URL.Query().Get("action"))
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))

			user, err := c.Login(context.Background(), "T1", "x")
			if tc.wantServer {
				se, ok := AsServerError(err)
				require.True(t, ok, "expected ServerError, got %v", err)
				assert.Equal(t, tc.status, se.StatusCode)
				assert.Equal(t, tc.wantMsg, se.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantUser, user.Username)
			assert.Equal(t, "member", user.Role)
		})
	}
}

func TestClient_Login_MalformedSuccessBodyIsTransport(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))

	_, err := c.Login(context.Background(), "T1", "x")
	assert.True(t, IsUnreachable(err), "malformed 200 body should classify as transport failure, got %v", err)
}

func TestClient_ListContent_Scoping(t *testing.T) {
	var gotDept, gotDiv string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDept = r.URL.Query().Get("department")
		gotDiv = r.URL.Query().Get("division")
		w.Write([]byte(`[{"id":"1","title":"Lecture 1","file_path":"files/l1.pdf","file_type":"pdf","uploaded_by":"T1","department":"CS","division":"A","upload_date":"2024-01-15","description":"intro"}]`))
	}))

	items, err := c.ListContent(context.Background(), "CS", "A")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Lecture 1", items[0].Title)
	assert.Equal(t, "CS", gotDept)
	assert.Equal(t, "A", gotDiv)

	// Empty scope must omit the parameters entirely (fetch-all).
	_, err = c.ListContent(context.Background(), "", "A")
	require.NoError(t, err)
	assert.Empty(t, gotDept)
	assert.Empty(t, gotDiv)
}

func TestClient_SendMessage_WireFormat(t *testing.T) {
	var body []byte
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.SendMessage(context.Background(), model.Message{
		ID:         "1705314600000",
		Content:    "hello",
		SenderID:   "T1",
		Department: "CS",
		Division:   "A",
		Timestamp:  "2024-01-15 10:30:00",
	})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "1705314600000", sent["id"])
	assert.Equal(t, "hello", sent["content"])
	assert.Equal(t, "T1", sent["sender_id"])
	assert.Equal(t, "2024-01-15 10:30:00", sent["timestamp"])
}

func TestClient_UploadContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("lecture notes"), 0644))

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Notes", r.FormValue("title"))
		assert.Equal(t, "T1", r.FormValue("uploaded_by"))
		assert.Equal(t, "CS", r.FormValue("department"))
		assert.Equal(t, "A", r.FormValue("division"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "notes.txt", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "lecture notes", string(data))

		w.WriteHeader(http.StatusOK)
	}))

	err := c.UploadContent(context.Background(), model.UploadRequest{
		Title:       "Notes",
		FilePath:    path,
		UploadedBy:  "T1",
		Department:  "CS",
		Division:    "A",
		Description: "week 1",
	})
	require.NoError(t, err)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c, err := New(srv.URL+"/api", time.Second, time.Second, nil)
	require.NoError(t, err)

	_, err = c.ListContent(context.Background(), "CS", "A")
	assert.True(t, IsUnreachable(err), "expected transport failure, got %v", err)
}

func TestClient_FileURL(t *testing.T) {
	c, err := New("https://academy.example.com/api", time.Second, time.Second, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://academy.example.com/files/l1.pdf", c.FileURL("files/l1.pdf"))
	assert.Equal(t, "https://academy.example.com/files/l1.pdf", c.FileURL("/files/l1.pdf"))
}

func TestClient_FetchText(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files/notes.txt" {
			w.Write([]byte("hello notes"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	text, err := c.FetchText(context.Background(), "files/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello notes", text)

	_, err = c.FetchText(context.Background(), "files/missing.txt")
	se, ok := AsServerError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}
