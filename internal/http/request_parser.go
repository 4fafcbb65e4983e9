package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bilancio/internal/core"
)

// errBadRequest classifies malformed request payloads and parameters.
var errBadRequest = errors.New("bad request")

const maxBodyBytes = 1 << 20 // 1 MiB

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parseYearMonth reads year and month query parameters, defaulting to the
// current month.
func parseYearMonth(r *http.Request) (int, int, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			return 0, 0, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("%w: invalid month %q", errBadRequest, v)
		}
		month = m
	}
	return year, month, nil
}

// parseDate parses a YYYY-MM-DD request field.
func parseDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", errBadRequest, s)
	}
	return core.Date{Time: t}, nil
}

// parseRuleID parses a recurring rule path identifier.
func parseRuleID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid rule id %q", errBadRequest, s)
	}
	return id, nil
}

// parseAmount accepts a decimal string like "1234.56" and returns cents.
func parseAmount(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: invalid amount %q: %v", errBadRequest, s, err)
	}
	return m, nil
}

// parseBalance accepts a signed decimal string; zero and omitted values are
// valid balances.
func parseBalance(s string) (core.Money, error) {
	m, err := core.ParseSignedMoney(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: invalid balance %q: %v", errBadRequest, s, err)
	}
	return m, nil
}
