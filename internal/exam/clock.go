package exam

import "time"

// Clock supplies the current time. Production code passes SystemClock;
// tests inject a fixed or stepping clock to simulate time passage.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }
