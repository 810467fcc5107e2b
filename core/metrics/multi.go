package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDelivery forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordDelivery(ev DeliveryEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDelivery(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCartState forwards cart snapshots.
func (m *MultiSink) RecordCartState(ev CartStateEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CartStateRecorder); ok {
			if err := rec.RecordCartState(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCommandRejection forwards rejections.
func (m *MultiSink) RecordCommandRejection(ev CommandRejectionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CommandRejectionRecorder); ok {
			if err := rec.RecordCommandRejection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTick forwards tick samples.
func (m *MultiSink) RecordTick(sample TickSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TickRecorder); ok {
			if err := rec.RecordTick(sample); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordEquipmentStatus forwards machine status changes.
func (m *MultiSink) RecordEquipmentStatus(ev EquipmentStatusEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(EquipmentRecorder); ok {
			if err := rec.RecordEquipmentStatus(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
