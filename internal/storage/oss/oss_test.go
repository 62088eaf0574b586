package oss

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadAndDelete(t *testing.T) {
	objects := map[string]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/videos/")
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "video/mp4", r.Header.Get("Content-Type"))
			objects[key] = string(body)
			w.Header().Set("ETag", `"abc"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			delete(objects, key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	s, err := New(Config{
		Endpoint:        srv.URL,
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		Bucket:          "videos",
		PublicURL:       "https://cdn.example.com",
	})
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "user_1/1-my clip.mp4", strings.NewReader("bytes"), 5, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/user_1/1-my%20clip.mp4", url)
	assert.Equal(t, "bytes", objects["user_1/1-my clip.mp4"])

	require.NoError(t, s.Delete(context.Background(), "user_1/1-my clip.mp4"))
	assert.Empty(t, objects)
}

func TestPublicURLFromEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"oss-cn-beijing.aliyuncs.com", "https://videos.oss-cn-beijing.aliyuncs.com/u/a.mp4"},
		{"https://oss-cn-beijing.aliyuncs.com/", "https://videos.oss-cn-beijing.aliyuncs.com/u/a.mp4"},
		{"http://oss.internal", "http://videos.oss.internal/u/a.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			s := &Storage{cfg: Config{Endpoint: tt.endpoint, Bucket: "videos"}}
			assert.Equal(t, tt.want, s.publicURL("u/a.mp4"))
		})
	}
}

func TestSTSRegion(t *testing.T) {
	assert.Equal(t, "cn-beijing", stsRegion("oss-cn-beijing"))
	assert.Equal(t, "cn-hangzhou", stsRegion("cn-hangzhou"))
}
