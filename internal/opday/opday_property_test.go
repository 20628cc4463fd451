package opday

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestResolve_Properties 对任意时刻、cutover 与偏移：
// 时间窗恒为 24h、包含参考时刻、且起点落在 cutover 整点
func TestResolve_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	// 2000-01-01 .. 2040-01-01
	unixGen := gen.Int64Range(946684800, 2208988800)
	cutoverGen := gen.IntRange(0, 23)
	offsetGen := gen.IntRange(-12*60, 14*60)

	properties.Property("window is always 24h", prop.ForAll(
		func(sec int64, cutover, offset int) bool {
			w := Resolve(time.Unix(sec, 0), cutover, offset)
			return w.End.Sub(w.Start) == 24*time.Hour
		},
		unixGen, cutoverGen, offsetGen,
	))

	properties.Property("window contains the reference instant", prop.ForAll(
		func(sec int64, cutover, offset int) bool {
			ref := time.Unix(sec, 0)
			return Resolve(ref, cutover, offset).Contains(ref)
		},
		unixGen, cutoverGen, offsetGen,
	))

	properties.Property("window starts at the cutover hour of the day id", prop.ForAll(
		func(sec int64, cutover, offset int) bool {
			w := Resolve(time.Unix(sec, 0), cutover, offset)
			local := w.Start.In(Zone(offset))
			return local.Hour() == cutover && local.Minute() == 0 &&
				local.Format(dayLayout) == w.DayID
		},
		unixGen, cutoverGen, offsetGen,
	))

	properties.Property("local time before cutover maps to the previous date", prop.ForAll(
		func(sec int64, cutover, offset int) bool {
			ref := time.Unix(sec, 0)
			local := ref.In(Zone(offset))
			w := Resolve(ref, cutover, offset)
			if local.Hour() >= cutover {
				return w.DayID == local.Format(dayLayout)
			}
			return w.DayID == local.AddDate(0, 0, -1).Format(dayLayout)
		},
		unixGen, cutoverGen, offsetGen,
	))

	properties.TestingRun(t)
}
