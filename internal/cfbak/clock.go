package cfbak

import "time"

// Clock abstracts time retrieval so snapshot timestamps are deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
