package agent

import "github.com/pthm-cable/selkie/geo"

// Memory is the agent's bounded spatial memory of successful haul-out sites.
// Sites within the proximity radius of an existing entry refresh that entry
// instead of adding a duplicate; the list evicts oldest first.
type Memory struct {
	HaulOutSites []geo.Point
}

func (m Memory) clone() Memory {
	cp := Memory{}
	if len(m.HaulOutSites) > 0 {
		cp.HaulOutSites = append([]geo.Point(nil), m.HaulOutSites...)
	}
	return cp
}

// RememberHaulOut records a successful landing site.
func (m *Memory) RememberHaulOut(p geo.Point, proximityDeg float64, max int) {
	for i, s := range m.HaulOutSites {
		if absf(s.Lat-p.Lat) < proximityDeg && absf(s.Lon-p.Lon) < proximityDeg {
			// Refresh: move to the back so it evicts last.
			m.HaulOutSites = append(append(m.HaulOutSites[:i:i], m.HaulOutSites[i+1:]...), p)
			return
		}
	}
	m.HaulOutSites = append(m.HaulOutSites, p)
	if max > 0 && len(m.HaulOutSites) > max {
		m.HaulOutSites = m.HaulOutSites[len(m.HaulOutSites)-max:]
	}
}

// NearestHaulOut returns the remembered site closest to from.
func (m *Memory) NearestHaulOut(from geo.Point) (geo.Point, bool) {
	if len(m.HaulOutSites) == 0 {
		return geo.Point{}, false
	}
	best := m.HaulOutSites[0]
	bestKm := geo.GreatCircleKm(from, best)
	for _, s := range m.HaulOutSites[1:] {
		if d := geo.GreatCircleKm(from, s); d < bestKm {
			best, bestKm = s, d
		}
	}
	return best, true
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
