package logging

import "time"

// slowOperation is the threshold above which LogOperationDuration warns.
const slowOperation = 5 * time.Second

// LogOperationDuration logs the elapsed time of op since start. Operations
// slower than five seconds are logged at WARN.
func LogOperationDuration(l Logger, op string, start time.Time, fields ...Field) {
	elapsed := time.Since(start)
	fields = append(fields,
		String("operation", op),
		Float64("duration_ms", float64(elapsed.Microseconds())/1000.0),
	)
	if elapsed > slowOperation {
		l.Warn("slow operation", fields...)
		return
	}
	l.Info("operation completed", fields...)
}
