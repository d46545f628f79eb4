package cli

import (
	"errors"
	"fmt"

	"tempo-cli/internal/api"
)

type usageError struct {
	flag   string
	reason string
}

func (e usageError) Error() string {
	return fmt.Sprintf("--%s: %s", e.flag, e.reason)
}

func errUsage(flag, reason string) error {
	return usageError{flag: flag, reason: reason}
}

// describeRemote turns a failed remote call into one line for stderr.
func describeRemote(op string, err error) error {
	var rce *api.RemoteCallError
	if errors.As(err, &rce) && rce.Status != 0 {
		return fmt.Errorf("%s: %s %s returned %d: %s", op, rce.Method, rce.URL, rce.Status, rce.Body)
	}
	return fmt.Errorf("%s: %w", op, err)
}
