package service

import "github.com/berfenger/solardash/internal/core/domain"

type SensorStore struct {
	snapshot domain.SensorSnapshot
}

func NewSensorStore() *SensorStore {
	return &SensorStore{
		snapshot: domain.InitialSnapshot(),
	}
}

func (s *SensorStore) Snapshot() domain.SensorSnapshot {
	return s.snapshot
}

func (s *SensorStore) Update(fn func(*domain.SensorSnapshot)) domain.SensorSnapshot {
	fn(&s.snapshot)
	return s.snapshot
}
