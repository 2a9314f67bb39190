package crossway

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/anggasct/crossway/pkg/actor"
	"github.com/anggasct/crossway/pkg/geometry"
	"github.com/anggasct/crossway/pkg/signal"
)

// Snapshot is a read-only copy of the intersection for renderers and drivers
type Snapshot struct {
	Tick             int                        `json:"tick"`
	Cycles           int                        `json:"cycles"`
	Lights           []LightSnapshot            `json:"lights"`
	PedestrianLights []PedestrianLightSnapshot  `json:"pedestrian_lights"`
	Vehicles         []VehicleSnapshot          `json:"vehicles"`
	Pedestrians      []PedestrianSnapshot       `json:"pedestrians"`
	Passing          map[geometry.Direction]int `json:"passing"`
	Waiting          map[geometry.Direction]int `json:"waiting"`
}

// LightSnapshot describes one traffic light
type LightSnapshot struct {
	Direction geometry.Direction `json:"direction"`
	State     signal.State       `json:"state"`
	GreenTime int                `json:"green_time"`
	Passing   int                `json:"passing"`
	Position  geometry.Point     `json:"position"`
}

// PedestrianLightSnapshot describes one pedestrian light
type PedestrianLightSnapshot struct {
	Leg      string         `json:"leg"`
	State    signal.State   `json:"state"`
	Position geometry.Point `json:"position"`
}

// VehicleSnapshot describes one vehicle
type VehicleSnapshot struct {
	ID       uuid.UUID          `json:"id"`
	Initial  geometry.Direction `json:"initial"`
	Final    geometry.Direction `json:"final"`
	Position geometry.Point     `json:"position"`
	Mode     string             `json:"mode"`
	Decision string             `json:"decision"`
	Counted  bool               `json:"counted"`
}

// PedestrianSnapshot describes one pedestrian
type PedestrianSnapshot struct {
	ID       uuid.UUID      `json:"id"`
	From     string         `json:"from"`
	To       string         `json:"to"`
	Position geometry.Point `json:"position"`
	Decision string         `json:"decision"`
}

// Snapshot copies the current state of the intersection
func (in *Intersection) Snapshot() Snapshot {
	return Snapshot{
		Tick:   in.tick,
		Cycles: in.cycles,
		Lights: lo.Map(in.Lights(), func(l *signal.TrafficLight, _ int) LightSnapshot {
			return LightSnapshot{
				Direction: l.Direction(),
				State:     l.State(),
				GreenTime: l.GreenTime(),
				Passing:   l.PassingVehicles(),
				Position:  l.Position(),
			}
		}),
		PedestrianLights: lo.Map(in.PedestrianLights(), func(p *signal.PedestrianLight, _ int) PedestrianLightSnapshot {
			return PedestrianLightSnapshot{
				Leg:      p.Leg().String(),
				State:    p.State(),
				Position: p.Position(),
			}
		}),
		Vehicles: lo.Map(in.vehicles, func(v *actor.Vehicle, _ int) VehicleSnapshot {
			return VehicleSnapshot{
				ID:       v.ID,
				Initial:  v.InitialDirection(),
				Final:    v.FinalDirection(),
				Position: v.Position(),
				Mode:     v.Mode().String(),
				Decision: v.Decision().String(),
				Counted:  v.HasCounted(),
			}
		}),
		Pedestrians: lo.Map(in.pedestrians, func(p *actor.Pedestrian, _ int) PedestrianSnapshot {
			return PedestrianSnapshot{
				ID:       p.ID,
				From:     p.InitialDirection().String(),
				To:       p.FinalDirection().String(),
				Position: p.Position(),
				Decision: p.Decision().String(),
			}
		}),
		Passing: in.PassingCounts(),
		Waiting: in.VehicleCounts(),
	}
}
