package models

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which outputs a generation request produces.
type Mode int

const (
	ModeBoth Mode = iota + 1
	ModeCutterOnly
	ModeStampOnly
)

var ErrUnknownMode = errors.New("unknown mode")

// ParseMode accepts "both", "cutter" / "cutter-only" and "stamp" / "stamp-only".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both":
		return ModeBoth, nil
	case "cutter", "cutter-only":
		return ModeCutterOnly, nil
	case "stamp", "stamp-only":
		return ModeStampOnly, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	switch m {
	case ModeBoth:
		return "both"
	case ModeCutterOnly:
		return "cutter"
	case ModeStampOnly:
		return "stamp"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) Valid() bool {
	switch m {
	case ModeBoth, ModeCutterOnly, ModeStampOnly:
		return true
	}
	return false
}

func (m Mode) HasStamp() bool {
	switch m {
	case ModeBoth, ModeStampOnly:
		return true
	case ModeCutterOnly:
		return false
	}
	return false
}

func (m Mode) HasCutter() bool {
	switch m {
	case ModeBoth, ModeCutterOnly:
		return true
	case ModeStampOnly:
		return false
	}
	return false
}
