package format

import (
	"time"

	"github.com/rotisserie/eris"
)

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "format: parse date %q", s)
	}
	return t, nil
}
