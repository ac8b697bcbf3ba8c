package issueparse

import (
	"regexp"
	"strings"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// StatusRegex matches status words in free-form issue text.
var StatusRegex = regexp.MustCompile(`(?i)\b(CRITICAL|CRIT|FATAL|WARNING|WARN|OK|HEALTHY|DISABLED|OFFLINE)\b`)

// NormalizeStatus maps the many spellings seen in feeds onto model.Status.
// Anything unrecognised becomes StatusUnknown.
func NormalizeStatus(status string) model.Status {
	normalized := strings.ToUpper(strings.TrimSpace(status))

	switch normalized {
	case "CRITICAL", "CRIT", "CRT", "FATAL", "ERROR", "ERR", "DOWN":
		return model.StatusCritical
	case "WARNING", "WARN", "WRN", "DEGRADED":
		return model.StatusWarning
	case "OK", "OKAY", "HEALTHY", "UP", "GOOD":
		return model.StatusOk
	case "DISABLED", "OFF", "OFFLINE", "INACTIVE":
		return model.StatusDisabled
	case "UNKNOWN", "":
		return model.StatusUnknown
	default:
		if len(normalized) >= 4 {
			switch normalized[:4] {
			case "CRIT", "FATA":
				return model.StatusCritical
			case "WARN":
				return model.StatusWarning
			case "DISA":
				return model.StatusDisabled
			}
		}
		return model.StatusUnknown
	}
}

// ExtractStatusFromText finds the first status word in text.
func ExtractStatusFromText(text string) model.Status {
	matches := StatusRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return NormalizeStatus(matches[1])
	}
	return model.StatusUnknown
}

// StatusFromLevel maps numeric feed levels (0 ok .. 3 disabled) to a status.
func StatusFromLevel(level int) model.Status {
	switch level {
	case 0:
		return model.StatusOk
	case 1:
		return model.StatusWarning
	case 2:
		return model.StatusCritical
	case 3:
		return model.StatusDisabled
	default:
		return model.StatusUnknown
	}
}
