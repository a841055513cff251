package epoch

import "time"

// Event kinds
const (
	KindMilestone   = "milestone"
	KindRxAWarmup   = "rxa-warmup"
	KindRxACooldown = "rxa-cooldown"
)

// Event is a notable instant drawn on date axes
type Event struct {
	Name string
	Kind string
	Time time.Time
}

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

// Boundaries of the two major FCF step changes
var (
	FilterChange  = utc(2016, time.October, 6, 0, 0)
	SMUAdjustment = utc(2018, time.June, 30, 8, 11)
)

// ReferenceLeading labels everything observed before tracking began
var ReferenceLeading = Label{Epoch: PreFilterChange, Detailed: "Pre-Dempsey"}

// ReferenceIntervals is the SCUBA-2 hardware history.
//
//	Dempsey      data published by Dempsey et al. 2012
//	Silver WVM   silver water vapour monitor in use
//	Black WVM    black WVM in use
//	New Filters  new thermal filter stacks (major FCF change)
//	Membrane     membrane removed for POL-2 commissioning, then replaced
//	SMU          secondary mirror unit malfunction, gain fix (major FCF change), hardware fix
func ReferenceIntervals() []Interval {
	iv := func(start, end time.Time, epoch, detailed string) Interval {
		return Interval{Start: start, End: end, Label: Label{Epoch: epoch, Detailed: detailed}}
	}
	return []Interval{
		iv(utc(2011, time.May, 1, 0, 0), utc(2012, time.June, 1, 0, 0), PreFilterChange, "Dempsey"),
		iv(utc(2012, time.June, 1, 0, 0), utc(2013, time.March, 15, 0, 0), PreFilterChange, "Silver WVM"),
		iv(utc(2013, time.March, 15, 0, 0), utc(2013, time.April, 9, 0, 0), PreFilterChange, "WVM Out Of Service"),
		iv(utc(2013, time.April, 9, 0, 0), utc(2015, time.January, 28, 0, 0), PreFilterChange, "Silver WVM"),
		iv(utc(2015, time.January, 28, 0, 0), utc(2015, time.April, 10, 0, 0), PreFilterChange, "WVM Out Of Service 2"),
		iv(utc(2015, time.April, 10, 0, 0), FilterChange, PreFilterChange, "Black WVM"),
		iv(FilterChange, utc(2017, time.December, 6, 0, 0), PostFilterChange, "New Filters"),
		iv(utc(2017, time.December, 6, 0, 0), utc(2018, time.January, 11, 0, 0), PostFilterChange, "Membrane Off"),
		iv(utc(2018, time.January, 11, 0, 0), utc(2018, time.May, 2, 0, 0), PostFilterChange, "Membrane Back On"),
		iv(utc(2018, time.May, 2, 0, 0), SMUAdjustment, PostFilterChange, "SMU Malfunction"),
		iv(SMUAdjustment, utc(2018, time.July, 28, 0, 0), PostSMUFix, "SMU Gain Fix"),
		iv(utc(2018, time.July, 28, 0, 0), utc(2500, time.December, 30, 0, 0), PostSMUFix, "SMU HW Fix"),
	}
}

// Reference returns the validated SCUBA-2 timeline
func Reference() *Timeline {
	tl, err := NewTimeline(ReferenceLeading, ReferenceIntervals())
	if err != nil {
		panic("epoch: reference timeline is invalid: " + err.Error())
	}
	return tl
}

// ReferenceEvents returns the FCF step changes and the historical RxA
// warm-ups and cool-downs, which can affect SCUBA-2 performance.
func ReferenceEvents() []Event {
	events := []Event{
		{Name: "Filter change", Kind: KindMilestone, Time: FilterChange},
		{Name: "SMU adjustment", Kind: KindMilestone, Time: SMUAdjustment},
	}

	warmups := []time.Time{
		utc(2015, time.November, 21, 5, 0),
		utc(2016, time.August, 8, 0, 0),
		utc(2016, time.October, 21, 3, 0),
		utc(2016, time.November, 2, 2, 0),
		utc(2016, time.November, 9, 6, 0),
		utc(2017, time.January, 19, 10, 0),
		utc(2017, time.March, 16, 21, 0),
		utc(2017, time.May, 23, 16, 0),
		utc(2017, time.July, 3, 10, 0),
		utc(2018, time.February, 21, 22, 0),
		utc(2018, time.February, 28, 10, 0),
		utc(2018, time.June, 26, 10, 0),
	}
	for _, t := range warmups {
		events = append(events, Event{Name: "RxA warm-up", Kind: KindRxAWarmup, Time: t})
	}

	cooldowns := []time.Time{
		utc(2016, time.January, 6, 2, 0),
		utc(2016, time.August, 12, 2, 0),
		utc(2016, time.October, 28, 5, 0),
		utc(2016, time.November, 3, 2, 0),
		utc(2016, time.November, 10, 6, 0),
		utc(2017, time.January, 30, 10, 0),
		utc(2017, time.March, 24, 0, 0),
		utc(2017, time.June, 7, 10, 0),
		utc(2017, time.July, 10, 10, 0),
		utc(2018, time.February, 22, 22, 0),
		utc(2018, time.March, 6, 10, 0),
	}
	for _, t := range cooldowns {
		events = append(events, Event{Name: "RxA cool-down", Kind: KindRxACooldown, Time: t})
	}

	return events
}
