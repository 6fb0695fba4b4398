package dto

import (
	"errors"
	"strings"
)

// CommandRequest carries one chat message to be run as a command.
type CommandRequest struct {
	CallerID string `json:"caller_id"`
	Text     string `json:"text"`
}

// Validate checks that the request names a caller and carries text.
func (r *CommandRequest) Validate() error {
	if strings.TrimSpace(r.CallerID) == "" {
		return errors.New("caller_id is required")
	}

	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text is required")
	}

	return nil
}
