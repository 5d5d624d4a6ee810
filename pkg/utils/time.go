package utils

import "time"

// StartOfDay 返回 t 所在日期的零点
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBoundaries 返回今天零点, 昨天零点以及七天前零点
func DayBoundaries(now time.Time) (today, yesterday, lastWeek time.Time) {
	today = StartOfDay(now)
	yesterday = today.AddDate(0, 0, -1)
	lastWeek = today.AddDate(0, 0, -7)
	return
}

func MilliToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
