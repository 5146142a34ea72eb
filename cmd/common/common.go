package common

import (
	"fmt"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
)

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// FormatDuration renders a play time the way players show it: m:ss below
// an hour, h:mm:ss above.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	secs := total % 60
	mins := total / 60 % 60
	hours := total / 3600
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}
