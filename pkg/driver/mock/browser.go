// Package mock provides an in-memory WebDriver remote for testing the
// adapter without a browser.
package mock

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// Element is a node of the fake document.
type Element struct {
	ID       string
	Tag      string
	Attrs    map[string]string
	Value    string // live value of input and textarea elements, seeded from the value attribute
	Text     string // visible text
	HTML     string // innerHTML
	Selected bool

	Hidden          bool
	NotInteractable bool

	Children []*Element
	parent   *Element
}

// Attr returns an attribute, "" when unset.
func (e *Element) Attr(name string) string {
	return e.Attrs[name]
}

// Parent returns the parent element, nil for top-level elements.
func (e *Element) Parent() *Element {
	return e.parent
}

// Window is an open browser window.
type Window struct {
	Handle string
	Name   string
}

// ScriptCall is one recorded script execution.
type ScriptCall struct {
	Script string
	Args   []interface{}
	Async  bool
}

// ElementID returns the element id passed as the first script argument.
func (c ScriptCall) ElementID() string {
	if len(c.Args) == 0 {
		return ""
	}
	return webdriver.ElementID(c.Args[0])
}

// Browser implements webdriver.Remote in memory. Elements are located through
// queries registered with AddQuery; "./*" and ".//option" are answered from
// the element tree.
type Browser struct {
	// BrowserName is reported by NewSession. Empty means the requested
	// browserName capability.
	BrowserName string

	// Errors injects a failure for a command, keyed by method name
	// ("NewSession", "Navigate", "SetTimeouts", ...).
	Errors map[string]error

	// OnScript, when set, answers every script. Returning nil, nil falls
	// through to the built-in handling.
	OnScript func(call ScriptCall) (interface{}, error)

	// ResolveWindowNames lets SwitchToWindow accept window names as well as
	// handles.
	ResolveWindowNames bool

	// Recorded traffic
	Capabilities  []map[string]interface{}
	Timeouts      []webdriver.Timeouts
	Scripts       []ScriptCall
	Actions       [][]*webdriver.InputSource
	Clicks        []string
	Keys          map[string][]string
	Switches      []string
	Frames        []interface{}
	Uploads       []string
	WindowSizes   [][2]int
	Maximized     int
	Released      int
	Refreshes     int
	AlertAnswers  []string
	AlertHandling []string
	DeletedAll    int

	// Page state
	URL        string
	Source     string
	PNG        []byte
	Alert      *string
	Cookies    map[string]webdriver.Cookie
	sessionID  string
	sessions   int
	history    []string
	historyPos int

	elements map[string]*Element
	queries  map[string]map[string][]string
	nextID   int

	windows []*Window
	current string
}

// NewBrowser creates a browser with one unnamed window.
func NewBrowser() *Browser {
	return &Browser{
		Errors:             map[string]error{},
		Keys:               map[string][]string{},
		Cookies:            map[string]webdriver.Cookie{},
		ResolveWindowNames: true,
		elements:           map[string]*Element{},
		queries:            map[string]map[string][]string{},
		windows:            []*Window{{Handle: "window-0"}},
		current:            "window-0",
		historyPos:         -1,
	}
}

var _ webdriver.Remote = (*Browser)(nil)

// Document building

// AddElement adds el (and its children) to the document under parent. A nil
// parent makes el top-level. Elements without an ID get one.
func (b *Browser) AddElement(parent, el *Element) *Element {
	if el.ID == "" {
		b.nextID++
		el.ID = fmt.Sprintf("el-%d", b.nextID)
	}
	if el.Attrs == nil {
		el.Attrs = map[string]string{}
	}
	if el.Value == "" && (el.Tag == "input" || el.Tag == "textarea") && !isToggle(el) {
		el.Value = el.Attrs["value"]
	}
	el.parent = parent
	if parent != nil && !containsElement(parent.Children, el) {
		parent.Children = append(parent.Children, el)
	}
	b.elements[el.ID] = el
	for _, child := range el.Children {
		b.AddElement(el, child)
	}
	return el
}

// AddQuery registers the elements an xpath resolves to. scope is the id of the
// element the search starts from, "" for the document.
func (b *Browser) AddQuery(scope, xpath string, elements ...*Element) {
	if b.queries[scope] == nil {
		b.queries[scope] = map[string][]string{}
	}
	ids := make([]string, 0, len(elements))
	for _, el := range elements {
		ids = append(ids, el.ID)
	}
	b.queries[scope][xpath] = ids
}

// Element returns the element with the given id.
func (b *Browser) Element(id string) *Element {
	return b.elements[id]
}

// OpenWindow opens a window and returns it. The current window is unchanged.
func (b *Browser) OpenWindow(handle, name string) *Window {
	w := &Window{Handle: handle, Name: name}
	b.windows = append(b.windows, w)
	return w
}

// CloseWindow closes the window with the given handle.
func (b *Browser) CloseWindow(handle string) {
	for i, w := range b.windows {
		if w.Handle == handle {
			b.windows = append(b.windows[:i], b.windows[i+1:]...)
			return
		}
	}
}

// Window returns the window with the given handle, or nil.
func (b *Browser) Window(handle string) *Window {
	for _, w := range b.windows {
		if w.Handle == handle {
			return w
		}
	}
	return nil
}

// CurrentWindow returns the handle of the current window.
func (b *Browser) CurrentWindow() string {
	return b.current
}

// ScriptsMatching returns the recorded scripts containing substr.
func (b *Browser) ScriptsMatching(substr string) []ScriptCall {
	var out []ScriptCall
	for _, call := range b.Scripts {
		if strings.Contains(call.Script, substr) {
			out = append(out, call)
		}
	}
	return out
}

// Session

// NewSession implements webdriver.Remote.
func (b *Browser) NewSession(capabilities map[string]interface{}) (*webdriver.SessionInfo, error) {
	if err := b.fail("NewSession"); err != nil {
		return nil, err
	}
	b.Capabilities = append(b.Capabilities, capabilities)
	b.sessions++
	b.sessionID = fmt.Sprintf("session-%d", b.sessions)

	name := b.BrowserName
	if name == "" {
		name, _ = capabilities["browserName"].(string)
	}
	return &webdriver.SessionInfo{
		ID:           b.sessionID,
		BrowserName:  strings.ToLower(name),
		Capabilities: map[string]interface{}{"browserName": name},
	}, nil
}

// DeleteSession implements webdriver.Remote.
func (b *Browser) DeleteSession() error {
	if err := b.fail("DeleteSession"); err != nil {
		return err
	}
	b.sessionID = ""
	return nil
}

// SessionID implements webdriver.Remote.
func (b *Browser) SessionID() string {
	return b.sessionID
}

// Navigation

// Navigate implements webdriver.Remote.
func (b *Browser) Navigate(url string) error {
	if err := b.check("Navigate"); err != nil {
		return err
	}
	b.history = append(b.history[:b.historyPos+1], url)
	b.historyPos = len(b.history) - 1
	b.URL = url
	return nil
}

// Refresh implements webdriver.Remote.
func (b *Browser) Refresh() error {
	if err := b.check("Refresh"); err != nil {
		return err
	}
	b.Refreshes++
	return nil
}

// Back implements webdriver.Remote.
func (b *Browser) Back() error {
	if err := b.check("Back"); err != nil {
		return err
	}
	if b.historyPos > 0 {
		b.historyPos--
		b.URL = b.history[b.historyPos]
	}
	return nil
}

// Forward implements webdriver.Remote.
func (b *Browser) Forward() error {
	if err := b.check("Forward"); err != nil {
		return err
	}
	if b.historyPos < len(b.history)-1 {
		b.historyPos++
		b.URL = b.history[b.historyPos]
	}
	return nil
}

// CurrentURL implements webdriver.Remote.
func (b *Browser) CurrentURL() (string, error) {
	if err := b.check("CurrentURL"); err != nil {
		return "", err
	}
	return b.URL, nil
}

// PageSource implements webdriver.Remote.
func (b *Browser) PageSource() (string, error) {
	if err := b.check("PageSource"); err != nil {
		return "", err
	}
	return b.Source, nil
}

// Screenshot implements webdriver.Remote.
func (b *Browser) Screenshot() ([]byte, error) {
	if err := b.check("Screenshot"); err != nil {
		return nil, err
	}
	return b.PNG, nil
}

// SetTimeouts implements webdriver.Remote.
func (b *Browser) SetTimeouts(t webdriver.Timeouts) error {
	if err := b.check("SetTimeouts"); err != nil {
		return err
	}
	b.Timeouts = append(b.Timeouts, t)
	return nil
}

// Elements

// FindElement implements webdriver.Remote.
func (b *Browser) FindElement(using, value string) (string, error) {
	ids, err := b.FindElements(using, value)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", noSuchElement(value)
	}
	return ids[0], nil
}

var indexedXpath = regexp.MustCompile(`^\((.*)\)\[(\d+)\]$`)

// FindElements implements webdriver.Remote. "(xpath)[n]" resolves to the
// n-th match of a registered xpath.
func (b *Browser) FindElements(using, value string) ([]string, error) {
	if err := b.check("FindElements"); err != nil {
		return nil, err
	}
	if ids, ok := b.queries[""][value]; ok {
		return b.present(ids), nil
	}
	if m := indexedXpath.FindStringSubmatch(value); m != nil {
		n, _ := strconv.Atoi(m[2])
		ids := b.present(b.queries[""][m[1]])
		if n >= 1 && n <= len(ids) {
			return []string{ids[n-1]}, nil
		}
	}
	return []string{}, nil
}

// FindElementsFrom implements webdriver.Remote.
func (b *Browser) FindElementsFrom(elementID, using, value string) ([]string, error) {
	if err := b.check("FindElementsFrom"); err != nil {
		return nil, err
	}
	el, err := b.element(elementID)
	if err != nil {
		return nil, err
	}
	switch value {
	case "./*":
		ids := make([]string, 0, len(el.Children))
		for _, child := range el.Children {
			ids = append(ids, child.ID)
		}
		return ids, nil
	case ".//option":
		var ids []string
		walk(el, func(n *Element) {
			if n != el && n.Tag == "option" {
				ids = append(ids, n.ID)
			}
		})
		return ids, nil
	}
	return b.present(b.queries[elementID][value]), nil
}

// ElementTagName implements webdriver.Remote.
func (b *Browser) ElementTagName(elementID string) (string, error) {
	el, err := b.element(elementID)
	if err != nil {
		return "", err
	}
	return el.Tag, nil
}

// ElementText implements webdriver.Remote.
func (b *Browser) ElementText(elementID string) (string, error) {
	el, err := b.element(elementID)
	if err != nil {
		return "", err
	}
	if el.Hidden {
		return "", nil
	}
	return el.Text, nil
}

// ElementAttribute implements webdriver.Remote. Only content attributes are
// returned, so "value" keeps its markup default after typing.
func (b *Browser) ElementAttribute(elementID, name string) (string, bool, error) {
	el, err := b.element(elementID)
	if err != nil {
		return "", false, err
	}
	v, ok := el.Attrs[name]
	return v, ok, nil
}

// ElementProperty implements webdriver.Remote. "value" reads the live value
// with the DOM defaults: "on" for checkboxes and radios, the text for
// options. "checked" and "selected" reflect state.
func (b *Browser) ElementProperty(elementID, name string) (string, bool, error) {
	el, err := b.element(elementID)
	if err != nil {
		return "", false, err
	}
	switch name {
	case "checked", "selected":
		return strconv.FormatBool(el.Selected), true, nil
	case "value":
		switch el.Tag {
		case "input", "textarea":
			if el.Value == "" && isToggle(el) {
				if v, ok := el.Attrs["value"]; ok {
					return v, true, nil
				}
				return "on", true, nil
			}
			return el.Value, true, nil
		case "option":
			if v, ok := el.Attrs["value"]; ok {
				return v, true, nil
			}
			return el.Text, true, nil
		}
	}
	v, ok := el.Attrs[name]
	return v, ok, nil
}

func isToggle(el *Element) bool {
	typ := el.Attr("type")
	return el.Tag == "input" && (typ == "checkbox" || typ == "radio")
}

// ElementSelected implements webdriver.Remote.
func (b *Browser) ElementSelected(elementID string) (bool, error) {
	el, err := b.element(elementID)
	if err != nil {
		return false, err
	}
	return el.Selected, nil
}

// ElementDisplayed implements webdriver.Remote.
func (b *Browser) ElementDisplayed(elementID string) (bool, error) {
	el, err := b.element(elementID)
	if err != nil {
		return false, err
	}
	return !el.Hidden, nil
}

// ElementClick implements webdriver.Remote. Clicks toggle checkboxes, select
// radios and options.
func (b *Browser) ElementClick(elementID string) error {
	el, err := b.interactable(elementID)
	if err != nil {
		return err
	}
	if err := b.fail("ElementClick"); err != nil {
		return err
	}
	b.Clicks = append(b.Clicks, elementID)

	switch {
	case el.Tag == "input" && el.Attr("type") == "checkbox":
		el.Selected = !el.Selected
	case el.Tag == "input" && el.Attr("type") == "radio":
		for _, other := range b.elements {
			if other.Tag == "input" && other.Attr("type") == "radio" && other.Attr("name") == el.Attr("name") {
				other.Selected = false
			}
		}
		el.Selected = true
	case el.Tag == "option":
		sel := el.parent
		for sel != nil && sel.Tag != "select" {
			sel = sel.parent
		}
		if sel != nil && hasAttr(sel, "multiple") {
			el.Selected = !el.Selected
			return nil
		}
		if sel != nil {
			walk(sel, func(n *Element) {
				if n.Tag == "option" {
					n.Selected = false
				}
			})
		}
		el.Selected = true
	}
	return nil
}

// ElementClear implements webdriver.Remote.
func (b *Browser) ElementClear(elementID string) error {
	el, err := b.interactable(elementID)
	if err != nil {
		return err
	}
	el.Value = ""
	return nil
}

// ElementSendKeys implements webdriver.Remote. Characters are appended to the
// value; backspace removes the last character; other key code points are
// ignored.
func (b *Browser) ElementSendKeys(elementID, text string) error {
	el, err := b.interactable(elementID)
	if err != nil {
		return err
	}
	if err := b.fail("ElementSendKeys"); err != nil {
		return err
	}
	b.Keys[elementID] = append(b.Keys[elementID], text)

	if el.Tag == "input" && el.Attr("type") == "file" {
		el.Value = text
		return nil
	}
	value := []rune(el.Value)
	for _, r := range text {
		switch {
		case string(r) == webdriver.KeyBackspace:
			if len(value) > 0 {
				value = value[:len(value)-1]
			}
		case r >= 0xE000 && r <= 0xF8FF:
			// key code point, no text
		default:
			value = append(value, r)
		}
	}
	el.Value = string(value)
	return nil
}

// UploadFile implements webdriver.Remote.
func (b *Browser) UploadFile(localPath string) (string, error) {
	if err := b.check("UploadFile"); err != nil {
		return "", err
	}
	b.Uploads = append(b.Uploads, localPath)
	return "/remote/upload/" + filepath.Base(localPath), nil
}

// Scripts

var setValueScript = regexp.MustCompile(`^(?:return )?arguments\[0\]\.value = (.*?);?$`)

// ExecuteScript implements webdriver.Remote.
func (b *Browser) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	return b.script(ScriptCall{Script: script, Args: args})
}

// ExecuteAsyncScript implements webdriver.Remote.
func (b *Browser) ExecuteAsyncScript(script string, args []interface{}) (interface{}, error) {
	return b.script(ScriptCall{Script: script, Args: args, Async: true})
}

func (b *Browser) script(call ScriptCall) (interface{}, error) {
	if err := b.check("ExecuteScript"); err != nil {
		return nil, err
	}
	b.Scripts = append(b.Scripts, call)
	if b.OnScript != nil {
		result, err := b.OnScript(call)
		if result != nil || err != nil {
			return result, err
		}
	}

	script := strings.TrimSpace(call.Script)
	switch {
	case script == "return window.name" || script == "return window.name;":
		if w := b.Window(b.current); w != nil {
			return w.Name, nil
		}
		return nil, &webdriver.Error{Code: webdriver.ErrCodeNoSuchWindow}
	case strings.Contains(script, ".innerHTML"):
		if el := b.elements[call.ElementID()]; el != nil {
			return el.HTML, nil
		}
	case strings.Contains(script, ".outerHTML"):
		if el := b.elements[call.ElementID()]; el != nil {
			return fmt.Sprintf("<%s>%s</%s>", el.Tag, el.HTML, el.Tag), nil
		}
	}
	if m := setValueScript.FindStringSubmatch(script); m != nil {
		if el := b.elements[call.ElementID()]; el != nil {
			var v string
			if err := json.Unmarshal([]byte(m[1]), &v); err == nil {
				el.Value = v
			}
		}
	}
	return nil, nil
}

// PerformActions implements webdriver.Remote.
func (b *Browser) PerformActions(sources ...*webdriver.InputSource) error {
	if err := b.check("PerformActions"); err != nil {
		return err
	}
	for _, src := range sources {
		for _, action := range src.Actions {
			if id := webdriver.ElementID(action["origin"]); id != "" {
				if _, err := b.element(id); err != nil {
					return err
				}
			}
		}
	}
	b.Actions = append(b.Actions, sources)
	return nil
}

// ReleaseActions implements webdriver.Remote.
func (b *Browser) ReleaseActions() error {
	if err := b.check("ReleaseActions"); err != nil {
		return err
	}
	b.Released++
	return nil
}

// Windows

// WindowHandle implements webdriver.Remote.
func (b *Browser) WindowHandle() (string, error) {
	if err := b.check("WindowHandle"); err != nil {
		return "", err
	}
	return b.current, nil
}

// WindowHandles implements webdriver.Remote.
func (b *Browser) WindowHandles() ([]string, error) {
	if err := b.check("WindowHandles"); err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(b.windows))
	for _, w := range b.windows {
		handles = append(handles, w.Handle)
	}
	return handles, nil
}

// SwitchToWindow implements webdriver.Remote.
func (b *Browser) SwitchToWindow(handle string) error {
	if err := b.check("SwitchToWindow"); err != nil {
		return err
	}
	b.Switches = append(b.Switches, handle)
	for _, w := range b.windows {
		if w.Handle == handle || (b.ResolveWindowNames && w.Name != "" && w.Name == handle) {
			b.current = w.Handle
			return nil
		}
	}
	return &webdriver.Error{Status: 404, Code: webdriver.ErrCodeNoSuchWindow, Message: handle}
}

// SwitchToFrame implements webdriver.Remote.
func (b *Browser) SwitchToFrame(frame interface{}) error {
	if err := b.check("SwitchToFrame"); err != nil {
		return err
	}
	if id := webdriver.ElementID(frame); id != "" {
		if _, err := b.element(id); err != nil {
			return err
		}
	}
	b.Frames = append(b.Frames, frame)
	return nil
}

// SetWindowSize implements webdriver.Remote.
func (b *Browser) SetWindowSize(width, height int) error {
	if err := b.check("SetWindowSize"); err != nil {
		return err
	}
	b.WindowSizes = append(b.WindowSizes, [2]int{width, height})
	return nil
}

// MaximizeWindow implements webdriver.Remote.
func (b *Browser) MaximizeWindow() error {
	if err := b.check("MaximizeWindow"); err != nil {
		return err
	}
	b.Maximized++
	return nil
}

// Cookies

// Cookie implements webdriver.Remote.
func (b *Browser) Cookie(name string) (*webdriver.Cookie, error) {
	if err := b.check("Cookie"); err != nil {
		return nil, err
	}
	c, ok := b.Cookies[name]
	if !ok {
		return nil, &webdriver.Error{Status: 404, Code: webdriver.ErrCodeNoSuchCookie, Message: name}
	}
	return &c, nil
}

// AddCookie implements webdriver.Remote.
func (b *Browser) AddCookie(cookie webdriver.Cookie) error {
	if err := b.check("AddCookie"); err != nil {
		return err
	}
	b.Cookies[cookie.Name] = cookie
	return nil
}

// DeleteCookie implements webdriver.Remote.
func (b *Browser) DeleteCookie(name string) error {
	if err := b.check("DeleteCookie"); err != nil {
		return err
	}
	delete(b.Cookies, name)
	return nil
}

// DeleteAllCookies implements webdriver.Remote.
func (b *Browser) DeleteAllCookies() error {
	if err := b.check("DeleteAllCookies"); err != nil {
		return err
	}
	b.Cookies = map[string]webdriver.Cookie{}
	b.DeletedAll++
	return nil
}

// Alerts

// AlertText implements webdriver.Remote.
func (b *Browser) AlertText() (string, error) {
	if err := b.alertOpen(); err != nil {
		return "", err
	}
	return *b.Alert, nil
}

// SendAlertText implements webdriver.Remote.
func (b *Browser) SendAlertText(text string) error {
	if err := b.alertOpen(); err != nil {
		return err
	}
	b.AlertAnswers = append(b.AlertAnswers, text)
	return nil
}

// AcceptAlert implements webdriver.Remote.
func (b *Browser) AcceptAlert() error {
	if err := b.alertOpen(); err != nil {
		return err
	}
	b.Alert = nil
	b.AlertHandling = append(b.AlertHandling, "accept")
	return nil
}

// DismissAlert implements webdriver.Remote.
func (b *Browser) DismissAlert() error {
	if err := b.alertOpen(); err != nil {
		return err
	}
	b.Alert = nil
	b.AlertHandling = append(b.AlertHandling, "dismiss")
	return nil
}

// OpenAlert shows a user prompt with the given text.
func (b *Browser) OpenAlert(text string) {
	b.Alert = &text
}

// Helpers

func (b *Browser) fail(command string) error {
	return b.Errors[command]
}

// check fails commands issued outside a session, then applies injected errors.
func (b *Browser) check(command string) error {
	if b.sessionID == "" {
		return &webdriver.Error{Status: 404, Code: webdriver.ErrCodeInvalidSessionID, Message: command}
	}
	return b.fail(command)
}

func (b *Browser) alertOpen() error {
	if err := b.check("Alert"); err != nil {
		return err
	}
	if b.Alert == nil {
		return &webdriver.Error{Status: 404, Code: webdriver.ErrCodeNoSuchAlert}
	}
	return nil
}

func (b *Browser) element(id string) (*Element, error) {
	if err := b.check("Element"); err != nil {
		return nil, err
	}
	el, ok := b.elements[id]
	if !ok {
		return nil, &webdriver.Error{Status: 404, Code: webdriver.ErrCodeStaleElementReference, Message: id}
	}
	return el, nil
}

func (b *Browser) interactable(id string) (*Element, error) {
	el, err := b.element(id)
	if err != nil {
		return nil, err
	}
	if el.NotInteractable || el.Hidden {
		return nil, &webdriver.Error{Status: 400, Code: webdriver.ErrCodeElementNotInteractable, Message: id}
	}
	return el, nil
}

// present drops ids of elements that were never added.
func (b *Browser) present(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := b.elements[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func noSuchElement(xpath string) error {
	return &webdriver.Error{Status: 404, Code: webdriver.ErrCodeNoSuchElement, Message: xpath}
}

func walk(el *Element, fn func(*Element)) {
	fn(el)
	for _, child := range el.Children {
		walk(child, fn)
	}
}

func hasAttr(el *Element, name string) bool {
	_, ok := el.Attrs[name]
	return ok
}

func containsElement(list []*Element, el *Element) bool {
	for _, e := range list {
		if e == el {
			return true
		}
	}
	return false
}
