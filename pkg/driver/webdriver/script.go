package webdriver

import (
	"math"
	"regexp"
	"strings"

	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// elementPlaceholder in a script is replaced with the element it runs on.
const elementPlaceholder = "{{ELEMENT}}"

var functionLiteral = regexp.MustCompile(`^function[\s(]`)

// bindElement points the placeholder at the first script argument.
func bindElement(script string) string {
	return strings.ReplaceAll(script, elementPlaceholder, "arguments[0]")
}

// invokable wraps a bare function literal so it can be evaluated as an
// expression: "function () {...};" becomes "(function () {...})".
func invokable(script string) string {
	if !functionLiteral.MatchString(script) {
		return script
	}
	return "(" + strings.TrimSuffix(script, ";") + ")"
}

// returning prefixes "return " unless the script already starts with it.
func returning(script string) string {
	if strings.HasPrefix(strings.TrimSpace(script), "return ") {
		return script
	}
	return "return " + script
}

// executeOnElement runs script with {{ELEMENT}} bound to elementID.
func (d *Driver) executeOnElement(elementID, xpath, action, script string, sync bool) (interface{}, error) {
	args := []interface{}{wd.ElementArg(elementID)}
	script = bindElement(script)

	var result interface{}
	var err error
	if sync {
		result, err = d.remote.ExecuteScript(script, args)
	} else {
		result, err = d.remote.ExecuteAsyncScript(script, args)
	}
	if err != nil {
		return nil, translate(err, action, xpath)
	}
	return result, nil
}

// executeOnXpath locates xpath and runs script on it.
func (d *Driver) executeOnXpath(xpath, action, script string, sync bool) (interface{}, error) {
	id, err := d.find(xpath, action)
	if err != nil {
		return nil, err
	}
	return d.executeOnElement(id, xpath, action, script, sync)
}

// ExecuteScript runs a synchronous script in the page.
func (d *Driver) ExecuteScript(script string) (interface{}, error) {
	if err := d.ready("execute script", ""); err != nil {
		return nil, err
	}
	result, err := d.remote.ExecuteScript(invokable(script), nil)
	if err != nil {
		return nil, translate(err, "execute script", "")
	}
	return result, nil
}

// ExecuteAsyncScript runs a script that reports completion through its last
// argument. A script that never completes fails with ErrScriptTimeout once the
// session's script timeout elapses.
func (d *Driver) ExecuteAsyncScript(script string) (interface{}, error) {
	if err := d.ready("execute async script", ""); err != nil {
		return nil, err
	}
	result, err := d.remote.ExecuteAsyncScript(invokable(script), nil)
	if err != nil {
		return nil, translate(err, "execute async script", "")
	}
	return result, nil
}

// EvaluateScript returns the value of an expression.
func (d *Driver) EvaluateScript(script string) (interface{}, error) {
	if err := d.ready("evaluate script", ""); err != nil {
		return nil, err
	}
	result, err := d.remote.ExecuteScript(returning(script), nil)
	if err != nil {
		return nil, translate(err, "evaluate script", "")
	}
	return result, nil
}

// truthy applies JavaScript truthiness to a decoded script result.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
