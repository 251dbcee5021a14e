// Package drive implements the backup provider contract against a
// Drive-style OAuth-gated file API, plus an in-memory mock with the same
// behavior. Select picks between them at configuration time.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hyperengineering/multipal"
)

// BackupFileName is the well-known name of the single backup object. At
// most one such object should exist; if creation ever races, the first
// match is canonical.
const BackupFileName = "multipal-backup.json"

// Client talks to a Drive-style file API guarded by OAuth bearer tokens.
type Client struct {
	baseURL    string
	clientID   string
	token      string
	httpClient *http.Client
	debug      *multipal.DebugLogger

	mu          sync.Mutex
	accessToken string
	profile     *multipal.AccountProfile
	onState     multipal.StateFunc
}

// NewClient creates a drive-backed backup provider. token is the long-lived
// credential exchanged for access tokens on Authenticate.
func NewClient(baseURL, clientID, token string, debug *multipal.DebugLogger) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		clientID: clientID,
		token:    token,
		debug:    debug,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient sets a custom http.Client (for testing or custom timeouts).
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// Initialize implements multipal.BackupProvider. The client needs no
// handshake before its first call, so readiness is reported immediately;
// authentication happens on demand.
func (c *Client) Initialize(onState multipal.StateFunc) error {
	c.mu.Lock()
	c.onState = onState
	c.mu.Unlock()

	c.fireState()
	return nil
}

func (c *Client) fireState() {
	c.mu.Lock()
	onState := c.onState
	st := multipal.ProviderState{
		Ready:         true,
		Authenticated: c.accessToken != "",
		Profile:       c.profile,
	}
	c.mu.Unlock()

	if onState != nil {
		onState(st)
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Authenticate exchanges the configured credential for an access token and
// loads the account profile. The state callback fires on success.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("refresh_token", c.token)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return &multipal.SyncError{Operation: "authenticate", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.debug.LogRequest(http.MethodPost, req.URL.String(), nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &multipal.SyncError{Operation: "authenticate", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return newSyncError("authenticate", resp.StatusCode, body)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return &multipal.SyncError{Operation: "authenticate", Err: err}
	}

	profile, err := c.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken = token.AccessToken
	c.profile = profile
	c.mu.Unlock()

	c.fireState()
	return nil
}

func (c *Client) fetchProfile(ctx context.Context, accessToken string) (*multipal.AccountProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/oauth2/v3/userinfo", nil)
	if err != nil {
		return nil, &multipal.SyncError{Operation: "userinfo", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &multipal.SyncError{Operation: "userinfo", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, newSyncError("userinfo", resp.StatusCode, body)
	}

	var profile multipal.AccountProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &multipal.SyncError{Operation: "userinfo", Err: err}
	}
	return &profile, nil
}

// SignOut revokes the access token (best effort) and clears local
// credentials. The state callback fires with Authenticated false.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	accessToken := c.accessToken
	c.accessToken = ""
	c.profile = nil
	c.mu.Unlock()

	if accessToken != "" {
		form := url.Values{}
		form.Set("token", accessToken)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/revoke", strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if resp, rerr := c.httpClient.Do(req); rerr == nil {
				_ = resp.Body.Close()
			} else {
				c.debug.LogError("revoke", rerr)
			}
		}
	}

	c.fireState()
	return nil
}

func (c *Client) bearer() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken == "" {
		return "", multipal.ErrAuthRequired
	}
	return c.accessToken, nil
}

type fileList struct {
	Files []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"files"`
}

// findBackupFile locates the backup object by its well-known name. Returns
// "" when absent.
func (c *Client) findBackupFile(ctx context.Context, accessToken string) (string, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("name='%s' and trashed=false", BackupFileName))
	q.Set("spaces", "drive")
	q.Set("fields", "files(id, name)")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drive/v3/files?"+q.Encode(), nil)
	if err != nil {
		return "", &multipal.SyncError{Operation: "find_backup", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	c.debug.LogRequest(http.MethodGet, req.URL.String(), nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &multipal.SyncError{Operation: "find_backup", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", newSyncError("find_backup", resp.StatusCode, body)
	}

	var list fileList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", &multipal.SyncError{Operation: "find_backup", Err: err}
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].ID, nil
}

// Upload creates or updates the backup object with content via a multipart
// upload: a JSON metadata part followed by the blob itself.
func (c *Client) Upload(ctx context.Context, content string) error {
	accessToken, err := c.bearer()
	if err != nil {
		return err
	}

	fileID, err := c.findBackupFile(ctx, accessToken)
	if err != nil {
		return err
	}

	var body strings.Builder
	mw := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := mw.CreatePart(metaHeader)
	if err != nil {
		return &multipal.SyncError{Operation: "upload", Err: err}
	}
	metadata := map[string]string{"name": BackupFileName, "mimeType": "application/json"}
	if err := json.NewEncoder(metaPart).Encode(metadata); err != nil {
		return &multipal.SyncError{Operation: "upload", Err: err}
	}

	blobHeader := textproto.MIMEHeader{}
	blobHeader.Set("Content-Type", "application/json")
	blobPart, err := mw.CreatePart(blobHeader)
	if err != nil {
		return &multipal.SyncError{Operation: "upload", Err: err}
	}
	if _, err := io.WriteString(blobPart, content); err != nil {
		return &multipal.SyncError{Operation: "upload", Err: err}
	}
	if err := mw.Close(); err != nil {
		return &multipal.SyncError{Operation: "upload", Err: err}
	}

	method := http.MethodPost
	path := "/upload/drive/v3/files"
	if fileID != "" {
		method = http.MethodPatch
		path = "/upload/drive/v3/files/" + fileID
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?uploadType=multipart", strings.NewReader(body.String()))
	if err != nil {
		return &multipal.SyncError{Operation: "upload", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())
	c.debug.LogRequest(method, req.URL.String(), []byte(content))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &multipal.SyncError{Operation: "upload", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return newSyncError("upload", resp.StatusCode, respBody)
	}
	return nil
}

// Download returns the raw backup blob, or multipal.ErrNoBackup when no
// backup object exists.
func (c *Client) Download(ctx context.Context) (string, error) {
	accessToken, err := c.bearer()
	if err != nil {
		return "", err
	}

	fileID, err := c.findBackupFile(ctx, accessToken)
	if err != nil {
		return "", err
	}
	if fileID == "" {
		return "", multipal.ErrNoBackup
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drive/v3/files/"+fileID+"?alt=media", nil)
	if err != nil {
		return "", &multipal.SyncError{Operation: "download", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &multipal.SyncError{Operation: "download", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", newSyncError("download", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &multipal.SyncError{Operation: "download", Err: err}
	}
	c.debug.LogResponse(resp.StatusCode, resp.Status, body)
	return string(body), nil
}

func newSyncError(op string, statusCode int, body []byte) *multipal.SyncError {
	msg := ""
	if len(body) > 0 && statusCode >= 400 {
		if len(body) > 200 {
			msg = string(body[:200]) + "..."
		} else {
			msg = string(body)
		}
	}
	return &multipal.SyncError{
		Operation:  op,
		StatusCode: statusCode,
		Err:        fmt.Errorf("HTTP %d: %s", statusCode, msg),
	}
}

// Select returns the drive-backed provider when configuration allows it and
// the in-memory mock otherwise. With BackupAuto the fallback is transparent:
// callers never branch on which variant they got.
func Select(cfg multipal.Config, debug *multipal.DebugLogger) multipal.BackupProvider {
	switch cfg.Backup {
	case multipal.BackupDrive:
		return NewClient(cfg.DriveBaseURL, cfg.DriveClientID, cfg.DriveToken, debug)
	case multipal.BackupMock:
		return NewMock()
	default:
		if cfg.DriveConfigured() {
			return NewClient(cfg.DriveBaseURL, cfg.DriveClientID, cfg.DriveToken, debug)
		}
		return NewMock()
	}
}
