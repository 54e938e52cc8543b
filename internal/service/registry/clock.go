package registry

import "time"

// Clock supplies timestamps for createdAt/updatedAt
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall time in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
