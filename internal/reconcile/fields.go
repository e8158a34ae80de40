package reconcile

import (
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/store"
)

func (e *Engine) onFieldUpdate(m protocol.FieldUpdate) {
	p := store.FieldPatch{
		Crop:      m.Crop.Ptr(),
		CropIcon:  m.CropIcon.Ptr(),
		Moisture:  m.Moisture.Ptr(),
		Growth:    m.Growth.Ptr(),
		Health:    m.Health.Ptr(),
		ScanLevel: m.ScanLevel.Ptr(),
		Sprinkler: m.Sprinkler.Ptr(),
		Planted:   m.Planted.Ptr(),
	}
	if v, ok := m.Stage.Get(); ok {
		if st, ok := store.ParseStage(v); ok {
			p.Stage = &st
		} else {
			e.log.Debug("ignoring unknown stage", "field", m.ID, "stage", v)
		}
	}
	// An explicit null clears the disease.
	if m.Disease.Set {
		d := m.Disease.V
		p.Disease = &d
	}
	e.st.UpsertField(store.FieldID(m.ID), p)
}

func (e *Engine) onMoisture(m protocol.MoistureReading) {
	v := m.Moisture
	e.st.UpsertField(store.FieldID(m.Field), store.FieldPatch{Moisture: &v})
}
