package weather

import "time"

const dateLayout = "20060102"

// GetDate returns today's local date shifted by offset days, as yyyyMMdd.
func GetDate(offset int) string {
	return dateFrom(time.Now(), offset)
}

func dateFrom(now time.Time, offset int) string {
	return now.AddDate(0, 0, offset).Format(dateLayout)
}
