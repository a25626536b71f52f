package utility

import (
	"fmt"
	"time"

	// Nhúng tz database để America/Vancouver luôn load được (container distroless không có /usr/share/zoneinfo)
	_ "time/tzdata"
)

// DayLayout là định dạng ngày dùng trong path days/{date}
const DayLayout = "2006-01-02"

// DueDateLayout là định dạng dueDate gửi cho commerce backend (ví dụ "Mon, 18 Aug 2025")
const DueDateLayout = "Mon, 02 Jan 2006"

// isoMillisLayout khớp định dạng ISO-8601 UTC có mili giây mà backend nhận
const isoMillisLayout = "2006-01-02T15:04:05.000Z"

// LoadLocation load múi giờ, fallback UTC nếu tên không hợp lệ
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// ParseDay parse "YYYY-MM-DD" thành 00:00 của ngày đó tại loc
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (expect YYYY-MM-DD): %w", day, err)
	}
	return t, nil
}

// IsValidDay kiểm tra chuỗi ngày YYYY-MM-DD
func IsValidDay(day string) bool {
	_, err := time.Parse(DayLayout, day)
	return err == nil
}

// Today trả về ngày hiện tại tại loc
func Today(loc *time.Location) string {
	return time.Now().In(loc).Format(DayLayout)
}

// OrderWindow: from = đầu ngày (day - lookbackDays), to = đầu ngày (day + 1), tính theo giờ địa phương
func OrderWindow(day string, loc *time.Location, lookbackDays int) (from, to time.Time, err error) {
	start, err := ParseDay(day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from = start.AddDate(0, 0, -lookbackDays)
	to = start.AddDate(0, 0, 1)
	return from, to, nil
}

// ISOMillis định dạng thời điểm theo ISO-8601 UTC có mili giây
func ISOMillis(t time.Time) string {
	return t.UTC().Format(isoMillisLayout)
}

// FormatDueDate chuyển "YYYY-MM-DD" sang dạng "Mon, 18 Aug 2025"
func FormatDueDate(day string) (string, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", day, err)
	}
	return t.Format(DueDateLayout), nil
}
