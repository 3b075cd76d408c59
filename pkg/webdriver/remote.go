package webdriver

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// legacyElementKey is the JSON Wire Protocol element key.
const legacyElementKey = "ELEMENT"

// ByXPath is the XPath location strategy.
const ByXPath = "xpath"

// ByCSSSelector is the CSS selector location strategy.
const ByCSSSelector = "css selector"

// SessionInfo describes a newly created remote session.
type SessionInfo struct {
	ID           string
	BrowserName  string
	Capabilities map[string]interface{}
}

// Timeouts holds the session timeouts in milliseconds. Nil fields are not sent.
type Timeouts struct {
	Implicit *int64 `json:"implicit,omitempty"`
	PageLoad *int64 `json:"pageLoad,omitempty"`
	Script   *int64 `json:"script,omitempty"`
}

// Millis returns a pointer to ms, for building Timeouts literals.
func Millis(ms int64) *int64 {
	return &ms
}

// Cookie is a W3C cookie object.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Expiry   int64  `json:"expiry,omitempty"`
	SameSite string `json:"sameSite,omitempty"`
}

// ElementArg encodes an element id as a script argument or action origin.
func ElementArg(elementID string) map[string]interface{} {
	return map[string]interface{}{w3cElementKey: elementID}
}

// ElementID extracts the element id from a decoded element reference.
// It returns "" when v is not an element reference.
func ElementID(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	return extractElementID(m)
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value[legacyElementKey].(string); ok {
		return id
	}
	return ""
}

// Remote is the set of WebDriver commands the adapter relies on.
// *Client implements it over HTTP; tests use an in-memory browser.
type Remote interface {
	NewSession(capabilities map[string]interface{}) (*SessionInfo, error)
	DeleteSession() error
	SessionID() string

	Navigate(url string) error
	Refresh() error
	Back() error
	Forward() error
	CurrentURL() (string, error)
	PageSource() (string, error)
	Screenshot() ([]byte, error)
	SetTimeouts(t Timeouts) error

	FindElement(using, value string) (string, error)
	FindElements(using, value string) ([]string, error)
	FindElementsFrom(elementID, using, value string) ([]string, error)
	ElementTagName(elementID string) (string, error)
	ElementText(elementID string) (string, error)
	ElementAttribute(elementID, name string) (string, bool, error)
	ElementProperty(elementID, name string) (string, bool, error)
	ElementSelected(elementID string) (bool, error)
	ElementDisplayed(elementID string) (bool, error)
	ElementClick(elementID string) error
	ElementClear(elementID string) error
	ElementSendKeys(elementID, text string) error
	UploadFile(localPath string) (string, error)

	ExecuteScript(script string, args []interface{}) (interface{}, error)
	ExecuteAsyncScript(script string, args []interface{}) (interface{}, error)
	PerformActions(sources ...*InputSource) error
	ReleaseActions() error

	WindowHandle() (string, error)
	WindowHandles() ([]string, error)
	SwitchToWindow(handle string) error
	SwitchToFrame(frame interface{}) error
	SetWindowSize(width, height int) error
	MaximizeWindow() error

	Cookie(name string) (*Cookie, error)
	AddCookie(cookie Cookie) error
	DeleteCookie(name string) error
	DeleteAllCookies() error

	AlertText() (string, error)
	SendAlertText(text string) error
	AcceptAlert() error
	DismissAlert() error
}
