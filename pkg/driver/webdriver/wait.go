package webdriver

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// errConditionPending marks a poll whose condition is not met yet.
var errConditionPending = errors.New("condition not met")

// Wait polls condition until it holds or timeout elapses. Running out of time
// returns false, not an error. Element lookups failing with "no such element"
// count as not met; other errors end the wait.
func (d *Driver) Wait(timeout time.Duration, condition core.Condition) (bool, error) {
	if err := d.ready("wait for "+condition.String(), ""); err != nil {
		return false, err
	}

	check := condition.Check
	if check == nil {
		script := "return " + condition.Script + ";"
		check = func() (bool, error) {
			result, err := d.remote.ExecuteScript(script, nil)
			if err != nil {
				return false, translate(err, "wait for "+condition.Script, "")
			}
			return truthy(result), nil
		}
	}

	operation := func() error {
		ok, err := check()
		if err != nil {
			if errors.Is(err, core.ErrNoSuchElement) || wd.IsCode(err, wd.ErrCodeNoSuchElement) {
				return errConditionPending
			}
			return backoff.Permanent(err)
		}
		if !ok {
			return errConditionPending
		}
		return nil
	}

	var err error
	if timeout <= 0 {
		err = operation()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
	} else {
		err = backoff.Retry(operation, d.pollBackOff(timeout))
	}

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errConditionPending):
		return false, nil
	default:
		return false, err
	}
}

// pollBackOff polls at a constant interval for at most timeout.
func (d *Driver) pollBackOff(timeout time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.pollInterval
	b.MaxInterval = d.pollInterval
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxElapsedTime = timeout
	b.Reset()
	return b
}
