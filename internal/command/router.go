// Package command maps operator text to intents.
package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sweeney/alarmguard/internal/logic"
)

var (
	// ErrUnknownCommand is returned for text that names no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNotForThisCamera is returned for "/<id>:<cmd>" addressed elsewhere.
	ErrNotForThisCamera = errors.New("command addressed to another camera")
	// ErrInvalidArgument is returned when a command's argument does not parse.
	ErrInvalidArgument = errors.New("invalid command argument")
)

// Router recognizes commands addressed to CamID or GroupID.
type Router struct {
	CamID   string
	GroupID string
}

// Parse decodes text. Matching is case-insensitive.
func (r Router) Parse(text string) (logic.Intent, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return logic.Intent{}, fmt.Errorf("%w: %q", ErrUnknownCommand, text)
	}

	cmd, err := r.unwrapAddress(text)
	if err != nil {
		return logic.Intent{}, err
	}

	fields := strings.Fields(cmd)
	name := strings.ToLower(fields[0])
	args := fields[1:]

	switch name {
	case "/photo", "/getphoto":
		if len(args) == 0 {
			return logic.Intent{Kind: logic.IntentRequestPhoto}, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return logic.Intent{}, fmt.Errorf("%w: photo index %q", ErrInvalidArgument, args[0])
		}
		if n < 0 {
			return logic.Intent{Kind: logic.IntentRequestPhoto}, nil
		}
		return logic.Intent{Kind: logic.IntentFetchPhoto, Index: n}, nil
	case "/flash":
		return logic.Intent{Kind: logic.IntentRequestPhoto, Flash: true}, nil
	case "/start":
		return logic.Intent{Kind: logic.IntentStartDetection}, nil
	case "/night":
		return logic.Intent{Kind: logic.IntentStartNightDetection}, nil
	case "/day":
		return logic.Intent{Kind: logic.IntentSetNightMode, Enabled: false}, nil
	case "/stop", "/poweroff":
		return logic.Intent{Kind: logic.IntentStopDetection}, nil
	case "/status":
		return logic.Intent{Kind: logic.IntentRequestStatus}, nil
	case "/logs":
		return logic.Intent{Kind: logic.IntentRequestLogs}, nil
	case "/debug":
		return logic.Intent{Kind: logic.IntentToggleDebug}, nil
	case "/set":
		if len(args) == 0 {
			return logic.Intent{}, fmt.Errorf("%w: /set needs a percentage", ErrInvalidArgument)
		}
		p, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
		if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
			return logic.Intent{}, fmt.Errorf("%w: sensitivity %q", ErrInvalidArgument, args[0])
		}
		return logic.Intent{Kind: logic.IntentSetSensitivity, Percent: p}, nil
	case "/reboot":
		return logic.Intent{Kind: logic.IntentReboot}, nil
	}
	return logic.Intent{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// unwrapAddress turns "/<id>:<cmd> args" into "/<cmd> args" when id names
// this camera or its group.
func (r Router) unwrapAddress(text string) (string, error) {
	head := text
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		head = text[:i]
	}
	pos := strings.Index(head, ":")
	if pos <= 1 {
		if pos == 1 || strings.TrimSpace(text) == "/" {
			return "", fmt.Errorf("%w: %q", ErrUnknownCommand, text)
		}
		return text, nil
	}
	id := text[1:pos]
	if !strings.EqualFold(id, r.CamID) && (r.GroupID == "" || !strings.EqualFold(id, r.GroupID)) {
		return "", fmt.Errorf("%w: %s", ErrNotForThisCamera, id)
	}
	rest := strings.TrimSpace(text[pos+1:])
	if rest == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, text)
	}
	return "/" + strings.TrimPrefix(rest, "/"), nil
}
