package agent

import "fmt"

// SafetyRejectedError reports that the operator declined a pending safety
// check. It is fatal to the whole turn, not just the action that carried it.
type SafetyRejectedError struct {
	Message string
}

func (e *SafetyRejectedError) Error() string {
	return fmt.Sprintf("safety check rejected: %s. Cannot continue with unacknowledged safety checks", e.Message)
}

// ContractMismatchError reports that a call item's kind disagrees with the
// active model flavor or the driver's capabilities. It indicates a caller or
// configuration defect, not a recoverable runtime condition.
type ContractMismatchError struct {
	ItemType string
	Flavor   string
	Detail   string
}

func (e *ContractMismatchError) Error() string {
	return fmt.Sprintf("%s item is not valid for model flavor %q: %s", e.ItemType, e.Flavor, e.Detail)
}

// BlockedURLError reports that an executed action landed on a blocklisted
// host. The turn aborts so the agent cannot keep operating there.
type BlockedURLError struct {
	URL  string
	Host string
}

func (e *BlockedURLError) Error() string {
	return fmt.Sprintf("current location %s is on blocked host %s", e.URL, e.Host)
}
