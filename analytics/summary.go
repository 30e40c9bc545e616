package analytics

import (
	"sort"

	"food-marketplace-api/models"
	"food-marketplace-api/pricing"
)

type Summary struct {
	Completed          int             `json:"completed"`
	Failed             int             `json:"failed"`
	SuccessRate        float64         `json:"success_rate"`
	OnTimeRate         float64         `json:"on_time_rate"`
	AvgDurationMinutes float64         `json:"avg_duration_minutes"`
	AvgDistanceKM      float64         `json:"avg_distance_km"`
	TotalEarnings      float64         `json:"total_earnings"`
	ByZone             []ZoneStat      `json:"by_zone"`
	Leaderboard        []PersonnelStat `json:"leaderboard"`
}

// ZoneStat groups completed deliveries by zone. ZoneID 0 collects orders
// placed without a zone.
type ZoneStat struct {
	ZoneID             uint    `json:"zone_id"`
	Completed          int     `json:"completed"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

type PersonnelStat struct {
	PersonnelID uint    `json:"personnel_id"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	OnTimeRate  float64 `json:"on_time_rate"`
	Earnings    float64 `json:"earnings"`
}

// LeaderboardSize caps Summary.Leaderboard.
const LeaderboardSize = 10

type accumulator struct {
	completed, failed, onTime int
	duration, earnings        float64
}

func (a *accumulator) add(e models.DeliveryEvent) {
	if e.Type == models.EventDeliveryFailed {
		a.failed++
		return
	}
	a.completed++
	a.duration += e.DurationMinutes
	a.earnings += e.Earnings
	if e.OnTime {
		a.onTime++
	}
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return pricing.Round2(float64(part) / float64(whole))
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return pricing.Round2(sum / float64(n))
}

// Summarize folds events into totals, a per-zone breakdown ordered by zone id
// and a leaderboard of couriers by completed deliveries then on-time rate.
func Summarize(events []models.DeliveryEvent) Summary {
	var total accumulator
	var distance float64
	zones := map[uint]*accumulator{}
	people := map[uint]*accumulator{}

	for _, e := range events {
		total.add(e)
		if e.Type != models.EventDeliveryFailed {
			distance += e.DistanceKM
		}

		var zoneID uint
		if e.ZoneID != nil {
			zoneID = *e.ZoneID
		}
		if e.Type != models.EventDeliveryFailed {
			if zones[zoneID] == nil {
				zones[zoneID] = &accumulator{}
			}
			zones[zoneID].add(e)
		}

		if people[e.PersonnelID] == nil {
			people[e.PersonnelID] = &accumulator{}
		}
		people[e.PersonnelID].add(e)
	}

	s := Summary{
		Completed:          total.completed,
		Failed:             total.failed,
		SuccessRate:        ratio(total.completed, total.completed+total.failed),
		OnTimeRate:         ratio(total.onTime, total.completed),
		AvgDurationMinutes: mean(total.duration, total.completed),
		AvgDistanceKM:      mean(distance, total.completed),
		TotalEarnings:      pricing.Round2(total.earnings),
		ByZone:             make([]ZoneStat, 0, len(zones)),
		Leaderboard:        make([]PersonnelStat, 0, len(people)),
	}

	for id, acc := range zones {
		s.ByZone = append(s.ByZone, ZoneStat{
			ZoneID:             id,
			Completed:          acc.completed,
			AvgDurationMinutes: mean(acc.duration, acc.completed),
		})
	}
	sort.Slice(s.ByZone, func(i, j int) bool { return s.ByZone[i].ZoneID < s.ByZone[j].ZoneID })

	for id, acc := range people {
		s.Leaderboard = append(s.Leaderboard, PersonnelStat{
			PersonnelID: id,
			Completed:   acc.completed,
			Failed:      acc.failed,
			OnTimeRate:  ratio(acc.onTime, acc.completed),
			Earnings:    pricing.Round2(acc.earnings),
		})
	}
	sort.Slice(s.Leaderboard, func(i, j int) bool {
		a, b := s.Leaderboard[i], s.Leaderboard[j]
		if a.Completed != b.Completed {
			return a.Completed > b.Completed
		}
		if a.OnTimeRate != b.OnTimeRate {
			return a.OnTimeRate > b.OnTimeRate
		}
		return a.PersonnelID < b.PersonnelID
	})
	if len(s.Leaderboard) > LeaderboardSize {
		s.Leaderboard = s.Leaderboard[:LeaderboardSize]
	}
	return s
}
