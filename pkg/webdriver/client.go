// Package webdriver implements a W3C WebDriver client over HTTP.
package webdriver

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client handles HTTP communication with a WebDriver server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
}

// NewClient creates a new WebDriver client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute, // page loads and async scripts are bounded remotely
		},
	}
}

var _ Remote = (*Client)(nil)

// NewSession creates a new session with the given capabilities.
func (c *Client) NewSession(capabilities map[string]interface{}) (*SessionInfo, error) {
	if capabilities == nil {
		capabilities = map[string]interface{}{}
	}
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
		// Older grids only read desiredCapabilities.
		"desiredCapabilities": capabilities,
	}

	resp, err := c.do(http.MethodPost, "/session", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	info := &SessionInfo{}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		info.ID, _ = value["sessionId"].(string)
		info.Capabilities, _ = value["capabilities"].(map[string]interface{})
		if info.ID == "" {
			// JSON Wire Protocol: sessionId at top level, capabilities as value.
			info.ID, _ = resp["sessionId"].(string)
			info.Capabilities = value
		}
	}
	if info.ID == "" {
		return nil, fmt.Errorf("no session ID in response")
	}
	if name, ok := info.Capabilities["browserName"].(string); ok {
		info.BrowserName = strings.ToLower(name)
	}

	c.sessionID = info.ID
	return info, nil
}

// DeleteSession closes the session. The session ID is only forgotten on success.
func (c *Client) DeleteSession() error {
	if c.sessionID == "" {
		return nil
	}
	if _, err := c.delete(c.sessionPath()); err != nil {
		return err
	}
	c.sessionID = ""
	return nil
}

// SessionID returns the current session ID, or "" when there is none.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Navigation

// Navigate loads a URL in the current browsing context.
func (c *Client) Navigate(u string) error {
	_, err := c.post(c.sessionPath()+"/url", map[string]interface{}{"url": u})
	return err
}

// Refresh reloads the current page.
func (c *Client) Refresh() error {
	_, err := c.post(c.sessionPath()+"/refresh", map[string]interface{}{})
	return err
}

// Back navigates back in history.
func (c *Client) Back() error {
	_, err := c.post(c.sessionPath()+"/back", map[string]interface{}{})
	return err
}

// Forward navigates forward in history.
func (c *Client) Forward() error {
	_, err := c.post(c.sessionPath()+"/forward", map[string]interface{}{})
	return err
}

// CurrentURL returns the URL of the current page.
func (c *Client) CurrentURL() (string, error) {
	return c.getString(c.sessionPath() + "/url")
}

// PageSource returns the serialized DOM of the current page.
func (c *Client) PageSource() (string, error) {
	return c.getString(c.sessionPath() + "/source")
}

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	encoded, err := c.getString(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Timeouts

// SetTimeouts sets the session timeouts that are present in t.
func (c *Client) SetTimeouts(t Timeouts) error {
	_, err := c.post(c.sessionPath()+"/timeouts", t)
	return err
}

// Element Operations

// FindElement finds a single element.
func (c *Client) FindElement(strategy, value string) (string, error) {
	resp, err := c.post(c.sessionPath()+"/element", locator(strategy, value))
	if err != nil {
		return "", err
	}
	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", &Error{Code: ErrCodeNoSuchElement, Message: value}
	}
	return extractElementID(elemValue), nil
}

// FindElements finds multiple elements.
func (c *Client) FindElements(strategy, value string) ([]string, error) {
	resp, err := c.post(c.sessionPath()+"/elements", locator(strategy, value))
	if err != nil {
		return nil, err
	}
	return elementIDs(resp), nil
}

// FindElementsFrom finds elements using elementID as the search root.
func (c *Client) FindElementsFrom(elementID, strategy, value string) ([]string, error) {
	resp, err := c.post(c.elementPath(elementID)+"/elements", locator(strategy, value))
	if err != nil {
		return nil, err
	}
	return elementIDs(resp), nil
}

// ElementTagName returns an element's tag name.
func (c *Client) ElementTagName(elementID string) (string, error) {
	return c.getString(c.elementPath(elementID) + "/name")
}

// ElementText returns an element's rendered text.
func (c *Client) ElementText(elementID string) (string, error) {
	return c.getString(c.elementPath(elementID) + "/text")
}

// ElementAttribute returns an element's content attribute as written in the
// markup. The bool result is false when the remote reports null (attribute
// absent).
func (c *Client) ElementAttribute(elementID, name string) (string, bool, error) {
	return c.getOptional(c.elementPath(elementID) + "/attribute/" + url.PathEscape(name))
}

// ElementProperty returns an element's live DOM property, such as the
// current value of a text field. Non-string properties are formatted with
// fmt.Sprint; the bool result is false when the property is null or
// undefined.
func (c *Client) ElementProperty(elementID, name string) (string, bool, error) {
	return c.getOptional(c.elementPath(elementID) + "/property/" + url.PathEscape(name))
}

func (c *Client) getOptional(path string) (string, bool, error) {
	resp, err := c.get(path)
	if err != nil {
		return "", false, err
	}
	switch v := resp["value"].(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	default:
		return fmt.Sprint(v), true, nil
	}
}

// ElementSelected reports whether an option, checkbox or radio is selected.
func (c *Client) ElementSelected(elementID string) (bool, error) {
	return c.getBool(c.elementPath(elementID) + "/selected")
}

// ElementDisplayed reports whether an element is visible.
func (c *Client) ElementDisplayed(elementID string) (bool, error) {
	return c.getBool(c.elementPath(elementID) + "/displayed")
}

// ElementClick clicks an element using the WebDriver standard endpoint.
func (c *Client) ElementClick(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", map[string]interface{}{})
	return err
}

// ElementClear clears an editable element.
func (c *Client) ElementClear(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", map[string]interface{}{})
	return err
}

// ElementSendKeys types text into an element.
func (c *Client) ElementSendKeys(elementID, text string) error {
	chars := make([]string, 0, len(text))
	for _, ch := range text {
		chars = append(chars, string(ch))
	}
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text":  text,
		"value": chars, // JSON Wire Protocol
	})
	return err
}

// UploadFile sends a local file to a Selenium server and returns the path
// it was stored under on the remote machine.
func (c *Client) UploadFile(localPath string) (string, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	data, err := os.ReadFile(localPath) //#nosec G304 -- caller-provided upload
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	w, err := zw.Create(filepath.Base(localPath))
	if err != nil {
		return "", err
	}
	if _, err := w.Write(data); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	resp, err := c.post(c.sessionPath()+"/se/file", map[string]interface{}{
		"file": base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return "", err
	}
	remotePath, _ := resp["value"].(string)
	if remotePath == "" {
		return "", fmt.Errorf("invalid upload response")
	}
	return remotePath, nil
}

// Scripts

// ExecuteScript runs a synchronous script and returns its result.
func (c *Client) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	return c.execute("/execute/sync", script, args)
}

// ExecuteAsyncScript runs a script that signals completion through its last argument.
func (c *Client) ExecuteAsyncScript(script string, args []interface{}) (interface{}, error) {
	return c.execute("/execute/async", script, args)
}

func (c *Client) execute(endpoint, script string, args []interface{}) (interface{}, error) {
	if args == nil {
		args = []interface{}{}
	}
	resp, err := c.post(c.sessionPath()+endpoint, map[string]interface{}{
		"script": script,
		"args":   args,
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// Actions

// PerformActions dispatches an action chain.
func (c *Client) PerformActions(sources ...*InputSource) error {
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": sources})
	return err
}

// ReleaseActions releases all pressed keys and buttons.
func (c *Client) ReleaseActions() error {
	_, err := c.delete(c.sessionPath() + "/actions")
	return err
}

// Windows and frames

// WindowHandle returns the current window handle.
func (c *Client) WindowHandle() (string, error) {
	return c.getString(c.sessionPath() + "/window")
}

// WindowHandles returns all open window handles.
func (c *Client) WindowHandles() ([]string, error) {
	resp, err := c.get(c.sessionPath() + "/window/handles")
	if err != nil {
		return nil, err
	}
	values, _ := resp["value"].([]interface{})
	handles := make([]string, 0, len(values))
	for _, v := range values {
		if h, ok := v.(string); ok {
			handles = append(handles, h)
		}
	}
	return handles, nil
}

// SwitchToWindow switches to a window by handle (or name on older drivers).
func (c *Client) SwitchToWindow(handle string) error {
	_, err := c.post(c.sessionPath()+"/window", map[string]interface{}{
		"handle": handle,
		"name":   handle, // JSON Wire Protocol
	})
	return err
}

// SwitchToFrame switches into a frame. A nil frame selects the top-level document.
func (c *Client) SwitchToFrame(frame interface{}) error {
	_, err := c.post(c.sessionPath()+"/frame", map[string]interface{}{"id": frame})
	return err
}

// SetWindowSize resizes the current window.
func (c *Client) SetWindowSize(width, height int) error {
	_, err := c.post(c.sessionPath()+"/window/rect", map[string]interface{}{
		"width":  width,
		"height": height,
	})
	return err
}

// MaximizeWindow maximizes the current window.
func (c *Client) MaximizeWindow() error {
	_, err := c.post(c.sessionPath()+"/window/maximize", map[string]interface{}{})
	return err
}

// Cookies

// Cookie returns the named cookie.
func (c *Client) Cookie(name string) (*Cookie, error) {
	resp, err := c.get(c.sessionPath() + "/cookie/" + url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(resp["value"])
	if err != nil {
		return nil, err
	}
	var cookie Cookie
	if err := json.Unmarshal(raw, &cookie); err != nil {
		return nil, fmt.Errorf("invalid cookie response: %w", err)
	}
	return &cookie, nil
}

// AddCookie adds a cookie to the current page's domain.
func (c *Client) AddCookie(cookie Cookie) error {
	_, err := c.post(c.sessionPath()+"/cookie", map[string]interface{}{"cookie": cookie})
	return err
}

// DeleteCookie deletes the named cookie.
func (c *Client) DeleteCookie(name string) error {
	_, err := c.delete(c.sessionPath() + "/cookie/" + url.PathEscape(name))
	return err
}

// DeleteAllCookies deletes all cookies visible to the current page.
func (c *Client) DeleteAllCookies() error {
	_, err := c.delete(c.sessionPath() + "/cookie")
	return err
}

// Alerts

// AlertText returns the text of the open user prompt.
func (c *Client) AlertText() (string, error) {
	return c.getString(c.sessionPath() + "/alert/text")
}

// SendAlertText types into the open prompt.
func (c *Client) SendAlertText(text string) error {
	_, err := c.post(c.sessionPath()+"/alert/text", map[string]interface{}{"text": text})
	return err
}

// AcceptAlert accepts the open user prompt.
func (c *Client) AcceptAlert() error {
	_, err := c.post(c.sessionPath()+"/alert/accept", map[string]interface{}{})
	return err
}

// DismissAlert dismisses the open user prompt.
func (c *Client) DismissAlert() error {
	_, err := c.post(c.sessionPath()+"/alert/dismiss", map[string]interface{}{})
	return err
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + url.PathEscape(elementID)
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.do(http.MethodDelete, path, nil)
}

func (c *Client) getString(path string) (string, error) {
	resp, err := c.get(path)
	if err != nil {
		return "", err
	}
	s, _ := resp["value"].(string)
	return s, nil
}

func (c *Client) getBool(path string) (bool, error) {
	resp, err := c.get(path)
	if err != nil {
		return false, err
	}
	b, _ := resp["value"].(bool)
	return b, nil
}

func (c *Client) do(method, path string, body interface{}) (map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.serverURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &Error{
				Status:  resp.StatusCode,
				Code:    ErrCodeUnknownError,
				Message: strings.TrimSpace(string(respBody)),
			}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if wdErr := responseError(resp.StatusCode, result); wdErr != nil {
		return result, wdErr
	}
	return result, nil
}

// responseError extracts a W3C or legacy error from a decoded response.
func responseError(status int, result map[string]interface{}) *Error {
	value, _ := result["value"].(map[string]interface{})

	if code, ok := value["error"].(string); ok && code != "" {
		msg, _ := value["message"].(string)
		return &Error{Status: status, Code: code, Message: msg}
	}

	if legacy, ok := result["status"].(float64); ok && legacy != 0 {
		code, known := legacyStatusCodes[int(legacy)]
		if !known {
			code = ErrCodeUnknownError
		}
		msg, _ := value["message"].(string)
		return &Error{Status: status, Code: code, Message: msg}
	}

	if status >= http.StatusBadRequest {
		msg, _ := value["message"].(string)
		return &Error{Status: status, Code: ErrCodeUnknownError, Message: msg}
	}
	return nil
}

func locator(strategy, value string) map[string]interface{} {
	return map[string]interface{}{
		"using": strategy,
		"value": value,
	}
}

func elementIDs(resp map[string]interface{}) []string {
	values, _ := resp["value"].([]interface{})
	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
