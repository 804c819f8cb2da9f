package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/habitxp/internal/apperr"
	"github.com/atinyakov/habitxp/internal/calendar"
)

// checkID rejects anything that is not a uuid. Ids reach the store as uuid
// columns, so a malformed id would otherwise surface as a driver error.
func checkID(op, field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.New(apperr.InvalidInput, op, fmt.Sprintf("%s must be a valid uuid", field)).WithID(id)
	}
	return nil
}

func checkIDs(op, field string, ids []string) error {
	for _, id := range ids {
		if err := checkID(op, field, id); err != nil {
			return err
		}
	}
	return nil
}

func checkXP(op string, xp, maxXP int) error {
	if xp < 1 || xp > maxXP {
		return apperr.New(apperr.InvalidInput, op, fmt.Sprintf("xpValue must be between 1 and %d", maxXP))
	}
	return nil
}

func checkRequired(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.New(apperr.InvalidInput, op, field+" is required")
	}
	return nil
}

func parseDate(op, field, s string) (time.Time, error) {
	d, err := calendar.ParseDate(s)
	if err != nil {
		return time.Time{}, apperr.New(apperr.InvalidInput, op, field+": "+err.Error())
	}
	return d, nil
}

// parseRange parses an optional inclusive date range. With requireBoth, a
// range with only one end is rejected.
func parseRange(op, start, end string, requireBoth bool) (from, to *time.Time, err error) {
	if requireBoth && (start == "") != (end == "") {
		return nil, nil, apperr.New(apperr.InvalidInput, op, "startDate and endDate must be given together")
	}
	if start != "" {
		d, err := parseDate(op, "startDate", start)
		if err != nil {
			return nil, nil, err
		}
		from = &d
	}
	if end != "" {
		d, err := parseDate(op, "endDate", end)
		if err != nil {
			return nil, nil, err
		}
		to = &d
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, apperr.New(apperr.InvalidInput, op, "startDate must not be after endDate")
	}
	return from, to, nil
}

func parseMonth(op string, year, month int) (calendar.Month, error) {
	m, err := calendar.NewMonth(year, month)
	if err != nil {
		return calendar.Month{}, apperr.New(apperr.InvalidInput, op, err.Error())
	}
	return m, nil
}
