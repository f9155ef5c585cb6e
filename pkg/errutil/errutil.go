package errutil

import (
	"fmt"

	"github.com/small-frappuccino/tildebot/pkg/log"
)

// HandleDiscordError executes fn and logs any error that occurs as a Discord-related error.
// It returns whatever error fn returns (unmodified), after logging it.
func HandleDiscordError(operation string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("nil function provided")
	}

	err := fn()
	if err == nil {
		return nil
	}

	log.DiscordLogger().Error("Discord operation failed", "operation", operation, "error", err)
	return err
}
