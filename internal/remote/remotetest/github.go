package remotetest

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"

	"github.com/inkhub/inkhub/internal/remote"
)

// GitHubServer 以 Memory 为后端模拟 GitHub REST API 的必要子集：
// git trees、contents 的读/建/改/删以及 branches。
type GitHubServer struct {
	*httptest.Server

	Memory *Memory
	Owner  string
	Repo   string
	Branch string

	mu        sync.Mutex
	authSeen  []string
	committer string
	truncated bool
}

// NewGitHubServer 启动测试桩，调用方负责 Close。
func NewGitHubServer(mem *Memory, owner, repo, branch string) *GitHubServer {
	gs := &GitHubServer{Memory: mem, Owner: owner, Repo: repo, Branch: branch}

	mux := http.NewServeMux()
	prefix := "/repos/" + owner + "/" + repo
	mux.HandleFunc("GET "+prefix+"/git/trees/{ref}", gs.handleTree)
	mux.HandleFunc("GET "+prefix+"/branches/{branch}", gs.handleBranch)
	mux.HandleFunc("GET "+prefix+"/contents/{path...}", gs.handleGetContents)
	mux.HandleFunc("PUT "+prefix+"/contents/{path...}", gs.handlePutContents)
	mux.HandleFunc("DELETE "+prefix+"/contents/{path...}", gs.handleDeleteContents)

	gs.Server = httptest.NewServer(gs.recordAuth(mux))
	return gs
}

// BaseURL 返回可直接交给 go-github 的 API 根地址。
func (gs *GitHubServer) BaseURL() string {
	return gs.URL + "/"
}

// Authorizations 返回收到的 Authorization 头，按请求顺序排列。
func (gs *GitHubServer) Authorizations() []string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return append([]string(nil), gs.authSeen...)
}

// SetTruncated 控制 git trees 响应的 truncated 标记，模拟超出递归上限的大仓库。
func (gs *GitHubServer) SetTruncated(truncated bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.truncated = truncated
}

// LastCommitter 返回最近一次写请求携带的提交者名称。
func (gs *GitHubServer) LastCommitter() string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.committer
}

func (gs *GitHubServer) recordAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gs.mu.Lock()
		gs.authSeen = append(gs.authSeen, r.Header.Get("Authorization"))
		gs.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type treeEntryJSON struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

func (gs *GitHubServer) handleTree(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("ref") != gs.Branch {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	entries, err := gs.Memory.ListTree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]treeEntryJSON, 0, len(entries))
	for _, entry := range entries {
		mode := "100644"
		if entry.Type == remote.EntryTree {
			mode = "040000"
		}
		out = append(out, treeEntryJSON{Path: entry.Path, Mode: mode, Type: string(entry.Type), SHA: entry.SHA})
	}
	gs.mu.Lock()
	truncated := gs.truncated
	gs.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"sha":       gs.Memory.Head(),
		"tree":      out,
		"truncated": truncated,
	})
}

func (gs *GitHubServer) handleBranch(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("branch") != gs.Branch {
		writeMessage(w, http.StatusNotFound, "Branch not found")
		return
	}
	head, err := gs.Memory.LatestCommitID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   gs.Branch,
		"commit": map[string]any{"sha": head},
	})
}

func (gs *GitHubServer) handleGetContents(w http.ResponseWriter, r *http.Request) {
	filePath := r.PathValue("path")
	if ref := r.URL.Query().Get("ref"); ref != "" && ref != gs.Branch {
		writeMessage(w, http.StatusNotFound, "No commit found for the ref "+ref)
		return
	}
	file, err := gs.Memory.ReadFile(r.Context(), filePath)
	if errors.Is(err, remote.ErrNotFound) {
		if listing := gs.directoryListing(filePath); len(listing) > 0 {
			writeJSON(w, http.StatusOK, listing)
			return
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":     "file",
		"encoding": "base64",
		"size":     len(file.Content),
		"name":     path.Base(file.Path),
		"path":     file.Path,
		"content":  base64.StdEncoding.EncodeToString(file.Content),
		"sha":      file.SHA,
	})
}

func (gs *GitHubServer) directoryListing(dir string) []map[string]any {
	gs.Memory.mu.Lock()
	defer gs.Memory.mu.Unlock()
	var out []map[string]any
	for p := range gs.Memory.files {
		if strings.HasPrefix(p, dir+"/") {
			out = append(out, map[string]any{"type": "file", "path": p, "name": path.Base(p)})
		}
	}
	return out
}

type contentsRequest struct {
	Message   string `json:"message"`
	Content   []byte `json:"content"`
	SHA       string `json:"sha"`
	Branch    string `json:"branch"`
	Committer *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"committer"`
}

func (gs *GitHubServer) decode(w http.ResponseWriter, r *http.Request) (*contentsRequest, bool) {
	var body contentsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Problems parsing JSON")
		return nil, false
	}
	if body.Branch != "" && body.Branch != gs.Branch {
		writeMessage(w, http.StatusNotFound, "Branch "+body.Branch+" not found")
		return nil, false
	}
	if body.Committer != nil {
		gs.mu.Lock()
		gs.committer = body.Committer.Name
		gs.mu.Unlock()
	}
	return &body, true
}

func (gs *GitHubServer) handlePutContents(w http.ResponseWriter, r *http.Request) {
	body, ok := gs.decode(w, r)
	if !ok {
		return
	}
	filePath := r.PathValue("path")
	sha, err := gs.Memory.WriteFile(r.Context(), remote.WriteRequest{
		Path:    filePath,
		Content: body.Content,
		SHA:     body.SHA,
		Message: body.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if body.SHA == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"content": map[string]any{"type": "file", "name": path.Base(filePath), "path": filePath, "sha": sha},
		"commit":  map[string]any{"sha": gs.Memory.Head(), "message": body.Message},
	})
}

func (gs *GitHubServer) handleDeleteContents(w http.ResponseWriter, r *http.Request) {
	body, ok := gs.decode(w, r)
	if !ok {
		return
	}
	if body.SHA == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Invalid request.\n\n\"sha\" wasn't supplied.")
		return
	}
	err := gs.Memory.DeleteFile(r.Context(), remote.DeleteRequest{
		Path:    r.PathValue("path"),
		SHA:     body.SHA,
		Message: body.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content": nil,
		"commit":  map[string]any{"sha": gs.Memory.Head(), "message": body.Message},
	})
}

// writeError 将内存仓库的错误翻译为 GitHub 会返回的状态码。
func writeError(w http.ResponseWriter, err error) {
	var conflict *remote.ConflictError
	switch {
	case errors.As(err, &conflict) && conflict.AlreadyExists:
		writeMessage(w, http.StatusUnprocessableEntity, "Invalid request.\n\n\"sha\" wasn't supplied.")
	case errors.As(err, &conflict):
		writeMessage(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, remote.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not Found")
	case errors.Is(err, remote.ErrUnavailable):
		writeMessage(w, http.StatusServiceUnavailable, "Service Unavailable")
	default:
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"message":           message,
		"documentation_url": "https://docs.github.com/rest",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
